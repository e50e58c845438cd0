package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/services"
)

// BatchHandler handles batch endpoints
type BatchHandler struct {
	catalogSvc *services.CatalogService
	recordsSvc *services.RecordsService
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(catalogSvc *services.CatalogService, recordsSvc *services.RecordsService) *BatchHandler {
	return &BatchHandler{catalogSvc: catalogSvc, recordsSvc: recordsSvc}
}

// BatchRequest is the payload for creating or updating a batch
type BatchRequest struct {
	Name     string `json:"name" binding:"required"`
	Subject  string `json:"subject"`
	Timing   string `json:"timing"`
	Capacity int    `json:"capacity"`
	Active   *bool  `json:"active"`
}

// MarkBatchAttendanceRequest marks a whole batch for one date
type MarkBatchAttendanceRequest struct {
	Date  string          `json:"date" binding:"required"`
	Marks map[uint]string `json:"marks" binding:"required"`
}

// List godoc
// @Summary List batches
// @Tags batches
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page"
// @Param search query string false "Search by name or subject"
// @Success 200 {object} map[string]interface{}
// @Router /batches [get]
func (h *BatchHandler) List(c *gin.Context) {
	query := parseListQuery(c)
	batches, total, err := h.catalogSvc.ListBatches(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.BatchResponse, 0, len(batches))
	for i := range batches {
		responses = append(responses, batches[i].ToResponse())
	}
	paginatedResponse(c, responses, total, query)
}

// Get godoc
// @Summary Get a batch with its students
// @Tags batches
// @Security BearerAuth
// @Produce json
// @Param id path int true "Batch ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /batches/{id} [get]
func (h *BatchHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	batch, err := h.catalogSvc.FindBatch(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	students := make([]models.StudentResponse, 0, len(batch.Students))
	for i := range batch.Students {
		students = append(students, batch.Students[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{
		"batch":    batch.ToResponse(),
		"students": students,
	})
}

// Create godoc
// @Summary Create a batch
// @Tags batches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body BatchRequest true "Batch"
// @Success 201 {object} models.BatchResponse
// @Failure 409 {object} map[string]string
// @Router /batches [post]
func (h *BatchHandler) Create(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	batch, err := h.catalogSvc.CreateBatch(c.Request.Context(), services.BatchInput{
		Name:     req.Name,
		Subject:  req.Subject,
		Timing:   req.Timing,
		Capacity: req.Capacity,
		Active:   req.Active,
	}, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch.ToResponse())
}

// Update godoc
// @Summary Update a batch
// @Tags batches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Batch ID"
// @Param request body BatchRequest true "Changes"
// @Success 200 {object} models.BatchResponse
// @Failure 404 {object} map[string]string
// @Router /batches/{id} [put]
func (h *BatchHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	batch, err := h.catalogSvc.UpdateBatch(c.Request.Context(), id, services.BatchInput{
		Name:     req.Name,
		Subject:  req.Subject,
		Timing:   req.Timing,
		Capacity: req.Capacity,
		Active:   req.Active,
	}, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch.ToResponse())
}

// Delete godoc
// @Summary Delete an empty batch
// @Tags batches
// @Security BearerAuth
// @Produce json
// @Param id path int true "Batch ID"
// @Success 200 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /batches/{id} [delete]
func (h *BatchHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogSvc.DeleteBatch(c.Request.Context(), id, currentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "batch deleted"})
}

// MarkAttendance godoc
// @Summary Mark attendance for a whole batch on one date
// @Tags batches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Batch ID"
// @Param request body MarkBatchAttendanceRequest true "Roll number to status map"
// @Success 200 {object} map[string]interface{}
// @Router /batches/{id}/attendance [post]
func (h *BatchHandler) MarkAttendance(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req MarkBatchAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}

	marked, err := h.recordsSvc.MarkBatchAttendance(c.Request.Context(), id, date, req.Marks, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// Attendance godoc
// @Summary A batch's attendance for one date
// @Tags batches
// @Security BearerAuth
// @Produce json
// @Param id path int true "Batch ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {array} models.AttendanceResponse
// @Router /batches/{id}/attendance [get]
func (h *BatchHandler) Attendance(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query param is required (YYYY-MM-DD)"})
		return
	}

	records, err := h.recordsSvc.AttendanceForBatch(c.Request.Context(), id, date)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.AttendanceResponse, 0, len(records))
	for i := range records {
		responses = append(responses, records[i].ToResponse())
	}
	c.JSON(http.StatusOK, responses)
}
