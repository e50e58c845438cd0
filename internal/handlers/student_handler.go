package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/services"
	"github.com/coachdesk/coachdesk-api/internal/storage"
)

// StudentHandler handles student endpoints
type StudentHandler struct {
	studentSvc *services.StudentService
	catalogSvc *services.CatalogService
	recordsSvc *services.RecordsService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(studentSvc *services.StudentService, catalogSvc *services.CatalogService, recordsSvc *services.RecordsService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc, catalogSvc: catalogSvc, recordsSvc: recordsSvc}
}

// CreateStudentRequest is the payload for enrolling a student
type CreateStudentRequest struct {
	Name          string  `json:"name" binding:"required"`
	FatherName    string  `json:"father_name"`
	Phone         string  `json:"phone" binding:"required"`
	GuardianPhone string  `json:"guardian_phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	School        string  `json:"school"`
	Class         string  `json:"class"`
	BatchID       *uint   `json:"batch_id"`
	AdmissionDate string  `json:"admission_date"`
}

// UpdateStudentRequest is the payload for updating a student
type UpdateStudentRequest struct {
	Name          *string `json:"name"`
	FatherName    *string `json:"father_name"`
	Phone         *string `json:"phone"`
	GuardianPhone *string `json:"guardian_phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	School        *string `json:"school"`
	Class         *string `json:"class"`
	BatchID       *uint   `json:"batch_id"`
	Active        *bool   `json:"active"`
}

// List godoc
// @Summary List students
// @Tags students
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page"
// @Param per_page query int false "Page size"
// @Param batch_id query int false "Filter by batch"
// @Param class query string false "Filter by class"
// @Param search query string false "Search by name, phone or roll number"
// @Success 200 {object} map[string]interface{}
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	query := parseListQuery(c, "batch_id", "class", "active")
	students, total, err := h.studentSvc.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.StudentResponse, 0, len(students))
	for i := range students {
		responses = append(responses, students[i].ToResponse())
	}
	paginatedResponse(c, responses, total, query)
}

// Get godoc
// @Summary Get a student by ID
// @Tags students
// @Security BearerAuth
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} models.StudentResponse
// @Failure 404 {object} map[string]string
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	student, err := h.studentSvc.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student.ToResponse())
}

// GetByRollNo godoc
// @Summary Get a student by roll number, with fee status and kit issues
// @Tags students
// @Security BearerAuth
// @Produce json
// @Param roll_no path int true "Roll number"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /students/roll/{roll_no} [get]
func (h *StudentHandler) GetByRollNo(c *gin.Context) {
	rollNo, ok := uintParam(c, "roll_no")
	if !ok {
		return
	}
	student, err := h.studentSvc.FindByRollNo(c.Request.Context(), rollNo)
	if err != nil {
		respondError(c, err)
		return
	}

	issues, err := h.catalogSvc.KitIssuesForStudent(c.Request.Context(), rollNo)
	if err != nil {
		respondError(c, err)
		return
	}
	issueResponses := make([]models.KitIssueResponse, 0, len(issues))
	for i := range issues {
		issueResponses = append(issueResponses, issues[i].ToResponse())
	}

	resp := gin.H{
		"student":    student.ToResponse(),
		"kit_issues": issueResponses,
	}
	if student.FeeRecord != nil && student.FeeRecord.ID != 0 {
		resp["fee_record"] = student.FeeRecord.ToResponse()
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary Enroll a student
// @Tags students
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateStudentRequest true "Student"
// @Success 201 {object} models.StudentResponse
// @Failure 422 {object} map[string]string
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := services.CreateStudentInput{
		Name:          req.Name,
		FatherName:    req.FatherName,
		Phone:         req.Phone,
		GuardianPhone: req.GuardianPhone,
		Email:         req.Email,
		Address:       req.Address,
		School:        req.School,
		Class:         req.Class,
		BatchID:       req.BatchID,
	}
	if req.AdmissionDate != "" {
		date, err := time.Parse("2006-01-02", req.AdmissionDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admission_date, use YYYY-MM-DD"})
			return
		}
		in.AdmissionDate = date
	}

	student, err := h.studentSvc.Create(c.Request.Context(), in, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student.ToResponse())
}

// Update godoc
// @Summary Update a student profile
// @Tags students
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param request body UpdateStudentRequest true "Changes"
// @Success 200 {object} models.StudentResponse
// @Failure 404 {object} map[string]string
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	student, err := h.studentSvc.Update(c.Request.Context(), id, services.UpdateStudentInput{
		Name:          req.Name,
		FatherName:    req.FatherName,
		Phone:         req.Phone,
		GuardianPhone: req.GuardianPhone,
		Email:         req.Email,
		Address:       req.Address,
		School:        req.School,
		Class:         req.Class,
		BatchID:       req.BatchID,
		Active:        req.Active,
	}, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student.ToResponse())
}

// Delete godoc
// @Summary Remove a student (soft delete)
// @Tags students
// @Security BearerAuth
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.studentSvc.Remove(c.Request.Context(), id, currentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "student removed"})
}

// UploadPhoto godoc
// @Summary Upload a student photo
// @Tags students
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Student ID"
// @Param photo formData file true "Photo (JPEG or PNG, max 5MB)"
// @Success 200 {object} models.StudentResponse
// @Failure 422 {object} map[string]string
// @Router /students/{id}/photo [post]
func (h *StudentHandler) UploadPhoto(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	if file.Size > storage.MaxUploadSize {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "photo exceeds the 5MB limit"})
		return
	}
	if !storage.IsValidContentType(file.Header.Get("Content-Type")) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "only JPEG and PNG photos are accepted"})
		return
	}

	student, err := h.studentSvc.UploadPhoto(c.Request.Context(), id, file, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student.ToResponse())
}

// Photo godoc
// @Summary Serve a student photo
// @Tags students
// @Security BearerAuth
// @Produce image/jpeg
// @Param id path int true "Student ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Router /students/{id}/photo [get]
func (h *StudentHandler) Photo(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	path, err := h.studentSvc.PhotoPath(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.File(path)
}

// Attendance godoc
// @Summary A student's attendance history
// @Tags students
// @Security BearerAuth
// @Produce json
// @Param roll_no path int true "Roll number"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {array} models.AttendanceResponse
// @Router /students/roll/{roll_no}/attendance [get]
func (h *StudentHandler) Attendance(c *gin.Context) {
	rollNo, ok := uintParam(c, "roll_no")
	if !ok {
		return
	}

	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		from, _ = time.Parse("2006-01-02", raw)
	}
	if raw := c.Query("to"); raw != "" {
		to, _ = time.Parse("2006-01-02", raw)
	}

	records, err := h.recordsSvc.AttendanceForStudent(c.Request.Context(), rollNo, from, to)
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

// TestReports godoc
// @Summary A student's test history
// @Tags students
// @Security BearerAuth
// @Produce json
// @Param roll_no path int true "Roll number"
// @Success 200 {array} models.TestReportResponse
// @Router /students/roll/{roll_no}/test_reports [get]
func (h *StudentHandler) TestReports(c *gin.Context) {
	rollNo, ok := uintParam(c, "roll_no")
	if !ok {
		return
	}
	reports, err := h.recordsSvc.TestReportsForStudent(c.Request.Context(), rollNo)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.TestReportResponse, 0, len(reports))
	for i := range reports {
		responses = append(responses, reports[i].ToResponse())
	}
	c.JSON(http.StatusOK, responses)
}
