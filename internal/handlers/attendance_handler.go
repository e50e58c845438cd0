package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/services"
)

// AttendanceHandler handles attendance endpoints
type AttendanceHandler struct {
	recordsSvc *services.RecordsService
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(recordsSvc *services.RecordsService) *AttendanceHandler {
	return &AttendanceHandler{recordsSvc: recordsSvc}
}

// MarkAttendanceRequest marks one student on one date
type MarkAttendanceRequest struct {
	RollNo uint   `json:"roll_no" binding:"required"`
	Date   string `json:"date" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// Mark godoc
// @Summary Mark a student's attendance
// @Description Re-marking the same student and date replaces the earlier mark.
// @Tags attendance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body MarkAttendanceRequest true "Mark"
// @Success 200 {object} models.AttendanceResponse
// @Failure 422 {object} map[string]string
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}

	record, err := h.recordsSvc.MarkAttendance(c.Request.Context(), services.MarkAttendanceInput{
		RollNo: req.RollNo,
		Date:   date,
		Status: req.Status,
	}, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record.ToResponse())
}

// List godoc
// @Summary List attendance records
// @Tags attendance
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page"
// @Param date query string false "Filter by date (YYYY-MM-DD)"
// @Param batch_id query int false "Filter by batch"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	query := parseListQuery(c, "date", "batch_id", "status")
	records, total, err := h.recordsSvc.ListAttendance(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.AttendanceResponse, 0, len(records))
	for i := range records {
		responses = append(responses, records[i].ToResponse())
	}
	paginatedResponse(c, responses, total, query)
}
