package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/models"
)

// AuditRepository defines the interface for audit trail data access
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error) {
	var entries []models.AuditLog
	var total int64

	db := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if query.Filters != nil {
		if val, ok := query.Filters["action"]; ok && val != "" {
			db = db.Where("action = ?", val)
		}
		if val, ok := query.Filters["entity_type"]; ok && val != "" {
			db = db.Where("entity_type = ?", val)
		}
		if val, ok := query.Filters["user_id"]; ok && val != "" {
			db = db.Where("user_id = ?", val)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db, query).
		Preload("User").
		Order("created_at DESC").
		Find(&entries).Error
	return entries, total, err
}
