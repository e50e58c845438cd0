package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coachdesk/coachdesk-api/internal/middleware"
	"github.com/coachdesk/coachdesk-api/internal/repository"
	"github.com/coachdesk/coachdesk-api/internal/services"
)

// currentActor builds the acting staff member from the JWT claims and request
func currentActor(c *gin.Context) services.Actor {
	return services.Actor{
		UserID:    middleware.GetUserID(c),
		Name:      c.GetString("userName"),
		Role:      middleware.GetUserRole(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// parseListQuery reads pagination, search and the named filters from the
// query string.
func parseListQuery(c *gin.Context, filterKeys ...string) *repository.ListQuery {
	query := repository.NewListQuery()
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if perPage, err := strconv.Atoi(c.DefaultQuery("per_page", "20")); err == nil {
		query.PerPage = perPage
	}
	query.Search = c.Query("search")
	query.SortBy = c.Query("sort_by")
	query.SortDir = c.Query("sort_dir")

	for _, key := range filterKeys {
		if val := c.Query(key); val != "" {
			query.Filters[key] = val
		}
	}
	return query
}

// uintParam parses a numeric path parameter
func uintParam(c *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(val), true
}

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrOverpayment),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidDiscount),
		errors.Is(err, services.ErrInvalidMode),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		_ = c.Error(err)
	}
}

// paginatedResponse is the standard list envelope
func paginatedResponse(c *gin.Context, items interface{}, total int64, query *repository.ListQuery) {
	c.JSON(http.StatusOK, gin.H{
		"data":     items,
		"total":    total,
		"page":     query.Page,
		"per_page": query.PerPage,
	})
}
