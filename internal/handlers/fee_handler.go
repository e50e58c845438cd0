package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/services"
)

// FeeHandler handles the fee ledger endpoints
type FeeHandler struct {
	feeSvc    *services.FeeService
	importSvc *services.ImportService
	exportSvc *services.ExportService
	reportSvc *services.ReportService
}

// NewFeeHandler creates a new fee handler
func NewFeeHandler(feeSvc *services.FeeService, importSvc *services.ImportService, exportSvc *services.ExportService, reportSvc *services.ReportService) *FeeHandler {
	return &FeeHandler{feeSvc: feeSvc, importSvc: importSvc, exportSvc: exportSvc, reportSvc: reportSvc}
}

// InstallmentRequest is one payment in a request body
type InstallmentRequest struct {
	Amount        float64 `json:"amount" binding:"required"`
	Mode          string  `json:"mode" binding:"required"`
	DateOfReceipt string  `json:"date_of_receipt" binding:"required"`
	ReceiptNumber string  `json:"receipt_number" binding:"required"`
	UTR           *string `json:"utr"`
}

// CreateFeeRequest opens a fee record with its first installment
type CreateFeeRequest struct {
	RollNo           uint               `json:"roll_no" binding:"required"`
	TotalFees        float64            `json:"total_fees" binding:"required"`
	Discount         float64            `json:"discount"`
	ApprovedBy       string             `json:"approved_by"`
	DueDate          string             `json:"due_date"`
	FirstInstallment InstallmentRequest `json:"first_installment" binding:"required"`
}

// RecordInstallmentRequest appends a payment to an existing record
type RecordInstallmentRequest struct {
	InstallmentRequest
	// Version, when non-zero, is the record version the client last read;
	// the write fails with 409 if the record changed in between.
	Version uint `json:"version"`
}

// UpdateFeesRequest revises the fee amounts of a record
type UpdateFeesRequest struct {
	TotalFees float64 `json:"total_fees" binding:"required"`
	Discount  float64 `json:"discount"`
}

func (r InstallmentRequest) toInput() (services.InstallmentInput, error) {
	date, err := time.Parse("2006-01-02", r.DateOfReceipt)
	if err != nil {
		return services.InstallmentInput{}, fmt.Errorf("invalid date_of_receipt, use YYYY-MM-DD")
	}
	return services.InstallmentInput{
		Amount:        r.Amount,
		Mode:          r.Mode,
		DateOfReceipt: date,
		ReceiptNumber: r.ReceiptNumber,
		UTR:           r.UTR,
	}, nil
}

// Create godoc
// @Summary Open a fee record for a student
// @Description Creates the per-student fee ledger entry together with its mandatory first installment.
// @Tags fees
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateFeeRequest true "Fee record"
// @Success 201 {object} models.FeeRecordResponse
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /fees [post]
func (h *FeeHandler) Create(c *gin.Context) {
	var req CreateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	first, err := req.FirstInstallment.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := services.CreateFeeInput{
		RollNo:           req.RollNo,
		TotalFees:        req.TotalFees,
		Discount:         req.Discount,
		ApprovedBy:       req.ApprovedBy,
		FirstInstallment: first,
	}
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date, use YYYY-MM-DD"})
			return
		}
		in.DueDate = due
	}

	record, err := h.feeSvc.Create(c.Request.Context(), in, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record.ToResponse())
}

// RecordInstallment godoc
// @Summary Record an installment against a fee record
// @Description Appends a payment. Overpayment beyond the pending balance is rejected; the call is not idempotent, retries must reuse the receipt number to be caught by the duplicate check.
// @Tags fees
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param roll_no path int true "Roll number"
// @Param request body RecordInstallmentRequest true "Installment"
// @Success 200 {object} models.FeeRecordResponse
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /fees/{roll_no}/installments [post]
func (h *FeeHandler) RecordInstallment(c *gin.Context) {
	rollNo, ok := uintParam(c, "roll_no")
	if !ok {
		return
	}
	var req RecordInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.feeSvc.RecordInstallment(c.Request.Context(), rollNo, in, req.Version, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record.ToResponse())
}

// UpdateFees godoc
// @Summary Revise the fee amounts of a record
// @Description Admin only. Final fees may not drop below the amount already collected; raising fees on a settled record reopens it.
// @Tags fees
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param roll_no path int true "Roll number"
// @Param request body UpdateFeesRequest true "New amounts"
// @Success 200 {object} models.FeeRecordResponse
// @Failure 422 {object} map[string]string
// @Router /fees/{roll_no} [patch]
func (h *FeeHandler) UpdateFees(c *gin.Context) {
	rollNo, ok := uintParam(c, "roll_no")
	if !ok {
		return
	}
	var req UpdateFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.feeSvc.UpdateFees(c.Request.Context(), rollNo, req.TotalFees, req.Discount, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record.ToResponse())
}

// Get godoc
// @Summary A fee record with its full submission history
// @Tags fees
// @Security BearerAuth
// @Produce json
// @Param roll_no path int true "Roll number"
// @Success 200 {object} models.FeeRecordResponse
// @Failure 404 {object} map[string]string
// @Router /fees/{roll_no} [get]
func (h *FeeHandler) Get(c *gin.Context) {
	rollNo, ok := uintParam(c, "roll_no")
	if !ok {
		return
	}
	record, err := h.feeSvc.FindByRollNo(c.Request.Context(), rollNo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record.ToResponse())
}

// List godoc
// @Summary List fee records
// @Tags fees
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page"
// @Param per_page query int false "Page size"
// @Param status query string false "Filter by status (paid, partial, unpaid)"
// @Param batch_id query int false "Filter by batch"
// @Param search query string false "Search by student name or roll number"
// @Success 200 {object} map[string]interface{}
// @Router /fees [get]
func (h *FeeHandler) List(c *gin.Context) {
	query := parseListQuery(c, "status", "batch_id")
	records, total, err := h.feeSvc.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.FeeRecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, records[i].ToResponse())
	}
	paginatedResponse(c, responses, total, query)
}

// Summary godoc
// @Summary Ledger totals and status counts
// @Tags fees
// @Security BearerAuth
// @Produce json
// @Success 200 {object} repository.FeeSummary
// @Router /fees/summary [get]
func (h *FeeHandler) Summary(c *gin.Context) {
	summary, err := h.feeSvc.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Overdue godoc
// @Summary Records with a pending balance past their due date
// @Tags fees
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.FeeRecordResponse
// @Router /fees/overdue [get]
func (h *FeeHandler) Overdue(c *gin.Context) {
	records, err := h.feeSvc.FindOverdue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.FeeRecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, records[i].ToResponse())
	}
	c.JSON(http.StatusOK, responses)
}

// Export godoc
// @Summary Export fee records as CSV or XLSX
// @Tags fees
// @Security BearerAuth
// @Produce application/octet-stream
// @Param format query string false "csv (default) or xlsx"
// @Param status query string false "Filter by status"
// @Param batch_id query int false "Filter by batch"
// @Success 200 {file} binary
// @Router /fees/export [get]
func (h *FeeHandler) Export(c *gin.Context) {
	filters := map[string]string{}
	for _, key := range []string{"status", "batch_id"} {
		if val := c.Query(key); val != "" {
			filters[key] = val
		}
	}

	stamp := time.Now().Format("2006-01-02")
	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		data, err := h.exportSvc.FeeRecordsXLSX(c.Request.Context(), filters)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="fee-records-%s.xlsx"`, stamp))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	case "csv":
		data, err := h.exportSvc.FeeRecordsCSV(c.Request.Context(), filters)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="fee-records-%s.csv"`, stamp))
		c.Data(http.StatusOK, "text/csv", data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
	}
}

// Import godoc
// @Summary Bulk-import installments from an XLSX sheet
// @Description Each row goes through the regular collection path. Failed rows are reported per row; the import continues past them.
// @Tags fees
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "XLSX file with columns roll_no, amount, mode, date_of_receipt, receipt_number, utr"
// @Param async query bool false "Run in the background and notify on completion"
// @Success 200 {object} services.ImportResult
// @Failure 422 {object} map[string]string
// @Router /fees/import [post]
func (h *FeeHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
		return
	}
	defer file.Close()

	actor := currentActor(c)

	if c.Query("async") == "true" {
		// Buffer the content; the request body is gone once the job runs.
		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
			return
		}
		h.importSvc.ImportInstallmentsAsync(bytes.NewReader(data), actor)
		c.JSON(http.StatusAccepted, gin.H{"message": "import started, you will be notified when it finishes"})
		return
	}

	result, err := h.importSvc.ImportInstallments(c.Request.Context(), file, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Receipt godoc
// @Summary Download a payment receipt as PDF
// @Tags fees
// @Security BearerAuth
// @Produce application/pdf
// @Param receipt_number path string true "Receipt number"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Router /fees/receipts/{receipt_number}/pdf [get]
func (h *FeeHandler) Receipt(c *gin.Context) {
	receiptNumber := c.Param("receipt_number")
	data, err := h.reportSvc.ReceiptPDF(c.Request.Context(), receiptNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, receiptNumber))
	c.Data(http.StatusOK, "application/pdf", data)
}

// Statement godoc
// @Summary Download a student's full fee statement as PDF
// @Tags fees
// @Security BearerAuth
// @Produce application/pdf
// @Param roll_no path int true "Roll number"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Router /fees/{roll_no}/statement [get]
func (h *FeeHandler) Statement(c *gin.Context) {
	rollNo, ok := uintParam(c, "roll_no")
	if !ok {
		return
	}
	data, err := h.reportSvc.StatementPDF(c.Request.Context(), rollNo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="statement-%d.pdf"`, rollNo))
	c.Data(http.StatusOK, "application/pdf", data)
}
