package services

import (
	"context"

	"github.com/coachdesk/coachdesk-api/internal/jobs"
	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/repository"
	"github.com/coachdesk/coachdesk-api/pkg/logger"
)

// AuditService writes the audit trail. Entries are persisted off the request
// path; an audit failure is logged, never surfaced to the caller.
type AuditService struct {
	repo   repository.AuditRepository
	worker *jobs.Worker
}

// NewAuditService creates a new audit service
func NewAuditService(repo repository.AuditRepository, worker *jobs.Worker) *AuditService {
	return &AuditService{repo: repo, worker: worker}
}

// Log records an audit entry asynchronously
func (s *AuditService) Log(ctx context.Context, userID uint, action, entityType string, entityID uint, detail, ip, userAgent string) {
	entry := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		IP:         ip,
		UserAgent:  userAgent,
	}
	s.worker.EnqueueAsync(func(jobCtx context.Context) error {
		if err := s.repo.Create(jobCtx, entry); err != nil {
			logger.Error("Failed to write audit entry", "action", action, "entity_type", entityType, "error", err)
			return err
		}
		return nil
	})
}

// List returns a page of audit entries, newest first. Admin surface only;
// the handler enforces the role.
func (s *AuditService) List(ctx context.Context, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, query)
}
