package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/services"
)

// TestReportHandler handles test report endpoints
type TestReportHandler struct {
	recordsSvc *services.RecordsService
}

// NewTestReportHandler creates a new test report handler
func NewTestReportHandler(recordsSvc *services.RecordsService) *TestReportHandler {
	return &TestReportHandler{recordsSvc: recordsSvc}
}

// TestReportRequest is the payload for a test report entry
type TestReportRequest struct {
	RollNo        uint    `json:"roll_no" binding:"required"`
	TestName      string  `json:"test_name" binding:"required"`
	Subject       string  `json:"subject"`
	TestDate      string  `json:"test_date" binding:"required"`
	MarksObtained float64 `json:"marks_obtained"`
	TotalMarks    float64 `json:"total_marks" binding:"required"`
	Remarks       *string `json:"remarks"`
}

func (r TestReportRequest) toInput() (services.TestReportInput, error) {
	date, err := time.Parse("2006-01-02", r.TestDate)
	if err != nil {
		return services.TestReportInput{}, err
	}
	return services.TestReportInput{
		RollNo:        r.RollNo,
		TestName:      r.TestName,
		Subject:       r.Subject,
		TestDate:      date,
		MarksObtained: r.MarksObtained,
		TotalMarks:    r.TotalMarks,
		Remarks:       r.Remarks,
	}, nil
}

// List godoc
// @Summary List test reports
// @Tags test-reports
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page"
// @Param test_name query string false "Filter by test"
// @Param roll_no query int false "Filter by student"
// @Success 200 {object} map[string]interface{}
// @Router /test_reports [get]
func (h *TestReportHandler) List(c *gin.Context) {
	query := parseListQuery(c, "test_name", "roll_no")
	reports, total, err := h.recordsSvc.ListTestReports(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.TestReportResponse, 0, len(reports))
	for i := range reports {
		responses = append(responses, reports[i].ToResponse())
	}
	paginatedResponse(c, responses, total, query)
}

// Create godoc
// @Summary Record a test report
// @Tags test-reports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body TestReportRequest true "Report"
// @Success 201 {object} models.TestReportResponse
// @Failure 422 {object} map[string]string
// @Router /test_reports [post]
func (h *TestReportHandler) Create(c *gin.Context) {
	var req TestReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test_date, use YYYY-MM-DD"})
		return
	}

	report, err := h.recordsSvc.CreateTestReport(c.Request.Context(), in, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report.ToResponse())
}

// Update godoc
// @Summary Correct a test report
// @Tags test-reports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param request body TestReportRequest true "Changes"
// @Success 200 {object} models.TestReportResponse
// @Failure 404 {object} map[string]string
// @Router /test_reports/{id} [put]
func (h *TestReportHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req TestReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test_date, use YYYY-MM-DD"})
		return
	}

	report, err := h.recordsSvc.UpdateTestReport(c.Request.Context(), id, in, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report.ToResponse())
}

// Delete godoc
// @Summary Delete a test report
// @Tags test-reports
// @Security BearerAuth
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /test_reports/{id} [delete]
func (h *TestReportHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.recordsSvc.DeleteTestReport(c.Request.Context(), id, currentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "test report deleted"})
}
