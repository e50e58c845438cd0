package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/services"
)

// KitHandler handles study-material kit endpoints
type KitHandler struct {
	catalogSvc *services.CatalogService
}

// NewKitHandler creates a new kit handler
func NewKitHandler(catalogSvc *services.CatalogService) *KitHandler {
	return &KitHandler{catalogSvc: catalogSvc}
}

// KitRequest is the payload for creating or updating a kit
type KitRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	Active      *bool   `json:"active"`
}

// IssueKitRequest hands a kit to a student
type IssueKitRequest struct {
	RollNo   uint   `json:"roll_no" binding:"required"`
	IssuedAt string `json:"issued_at"`
}

// List godoc
// @Summary List kits
// @Tags kits
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page"
// @Param search query string false "Search by name"
// @Success 200 {object} map[string]interface{}
// @Router /kits [get]
func (h *KitHandler) List(c *gin.Context) {
	query := parseListQuery(c)
	kits, total, err := h.catalogSvc.ListKits(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.KitResponse, 0, len(kits))
	for i := range kits {
		responses = append(responses, kits[i].ToResponse())
	}
	paginatedResponse(c, responses, total, query)
}

// Create godoc
// @Summary Create a kit
// @Tags kits
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body KitRequest true "Kit"
// @Success 201 {object} models.KitResponse
// @Failure 409 {object} map[string]string
// @Router /kits [post]
func (h *KitHandler) Create(c *gin.Context) {
	var req KitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kit, err := h.catalogSvc.CreateKit(c.Request.Context(), services.KitInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      req.Active,
	}, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, kit.ToResponse())
}

// Update godoc
// @Summary Update a kit
// @Tags kits
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Kit ID"
// @Param request body KitRequest true "Changes"
// @Success 200 {object} models.KitResponse
// @Failure 404 {object} map[string]string
// @Router /kits/{id} [put]
func (h *KitHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req KitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kit, err := h.catalogSvc.UpdateKit(c.Request.Context(), id, services.KitInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      req.Active,
	}, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, kit.ToResponse())
}

// Delete godoc
// @Summary Delete a kit
// @Tags kits
// @Security BearerAuth
// @Produce json
// @Param id path int true "Kit ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /kits/{id} [delete]
func (h *KitHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogSvc.DeleteKit(c.Request.Context(), id, currentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "kit deleted"})
}

// Issue godoc
// @Summary Issue a kit to a student
// @Tags kits
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Kit ID"
// @Param request body IssueKitRequest true "Student"
// @Success 201 {object} models.KitIssueResponse
// @Failure 404 {object} map[string]string
// @Router /kits/{id}/issues [post]
func (h *KitHandler) Issue(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req IssueKitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var issuedAt time.Time
	if req.IssuedAt != "" {
		parsed, err := time.Parse("2006-01-02", req.IssuedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issued_at, use YYYY-MM-DD"})
			return
		}
		issuedAt = parsed
	}

	issue, err := h.catalogSvc.IssueKit(c.Request.Context(), id, req.RollNo, issuedAt, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, issue.ToResponse())
}
