package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rabill/internal/service"
)

// ProjectHandler handles project and BOQ catalog endpoints.
type ProjectHandler struct {
	projectService service.ProjectService
	billingService service.BillingService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService service.ProjectService, billingService service.BillingService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, billingService: billingService}
}

type boqItemRequest struct {
	Description   string          `json:"description" binding:"required"`
	Unit          string          `json:"unit" binding:"required"`
	AuthorizedQty decimal.Decimal `json:"authorized_qty" binding:"required"`
	Rate          decimal.Decimal `json:"rate" binding:"required"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
}

// Create handles POST /api/v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req struct {
		Name             string           `json:"name" binding:"required"`
		ClientName       string           `json:"client_name" binding:"required"`
		CompanyStateCode string           `json:"company_state_code" binding:"required"`
		ClientStateCode  string           `json:"client_state_code" binding:"required"`
		BOQItems         []boqItemRequest `json:"boq_items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST",
			"name, client_name, state codes and boq_items are required")
		return
	}

	input := &service.CreateProjectInput{
		Name:             req.Name,
		ClientName:       req.ClientName,
		CompanyStateCode: req.CompanyStateCode,
		ClientStateCode:  req.ClientStateCode,
	}
	for _, item := range req.BOQItems {
		input.Items = append(input.Items, service.BOQItemInput{
			Description:   item.Description,
			Unit:          item.Unit,
			AuthorizedQty: item.AuthorizedQty,
			Rate:          item.Rate,
			TaxRate:       item.TaxRate,
		})
	}

	project, err := h.projectService.Create(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, project)
}

// List handles GET /api/v1/projects
func (h *ProjectHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	projects, total, err := h.projectService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, projects, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid project id")
		return
	}

	project, err := h.projectService.GetByID(c.Request.Context(), projectID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, project)
}

// ListBOQ handles GET /api/v1/projects/:id/boq
func (h *ProjectHandler) ListBOQ(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid project id")
		return
	}

	items, err := h.projectService.ListItems(c.Request.Context(), projectID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, items)
}

// GetBOQItem handles GET /api/v1/projects/:id/boq/:item_id
func (h *ProjectHandler) GetBOQItem(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid project id")
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid boq item id")
		return
	}

	item, err := h.projectService.GetItem(c.Request.Context(), projectID, itemID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, item)
}

// RATracking handles GET /api/v1/projects/:id/ra-tracking
func (h *ProjectHandler) RATracking(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid project id")
		return
	}

	tracking, err := h.billingService.RATracking(c.Request.Context(), projectID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, tracking)
}

// pagination parses offset/limit query params with sane defaults.
func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}
