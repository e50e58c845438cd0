package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// Offset returns the row offset for the current page
func (q *ListQuery) Offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * q.Limit()
}

// Limit returns the page size, clamped to sane bounds
func (q *ListQuery) Limit() int {
	if q.PerPage < 1 {
		return 20
	}
	if q.PerPage > 100 {
		return 100
	}
	return q.PerPage
}

// paginate applies offset/limit from a ListQuery
func paginate(db *gorm.DB, q *ListQuery) *gorm.DB {
	return db.Offset(q.Offset()).Limit(q.Limit())
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505). Used to map duplicate inserts onto domain
// errors without a pre-read race.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
