package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/services"
)

// AuditHandler exposes the audit trail to admins
type AuditHandler struct {
	auditSvc *services.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditSvc *services.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// List godoc
// @Summary List audit entries
// @Tags audit
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page"
// @Param action query string false "Filter by action"
// @Param entity_type query string false "Filter by entity type"
// @Param user_id query int false "Filter by acting user"
// @Success 200 {object} map[string]interface{}
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	query := parseListQuery(c, "action", "entity_type", "user_id")
	entries, total, err := h.auditSvc.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.AuditLogResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, entries[i].ToResponse())
	}
	paginatedResponse(c, responses, total, query)
}
