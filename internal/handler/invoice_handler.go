package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rabill/internal/domain"
	"rabill/internal/service"
)

// InvoiceHandler handles invoice creation, validation and voiding.
type InvoiceHandler struct {
	billingService service.BillingService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(billingService service.BillingService) *InvoiceHandler {
	return &InvoiceHandler{billingService: billingService}
}

type invoiceLineRequest struct {
	Reference string           `json:"reference" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"required"`
	Rate      *decimal.Decimal `json:"rate,omitempty"`
}

type invoiceRequest struct {
	Kind  domain.InvoiceKind   `json:"kind" binding:"required"`
	Lines []invoiceLineRequest `json:"line_items" binding:"required"`
}

func (h *InvoiceHandler) bindInput(c *gin.Context) (*service.CreateInvoiceInput, bool) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid project id")
		return nil, false
	}

	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "kind and line_items are required")
		return nil, false
	}
	if !domain.ValidInvoiceKinds[req.Kind] {
		RespondError(c, http.StatusBadRequest, "INVALID_KIND", "kind must be proforma or tax_invoice")
		return nil, false
	}

	input := &service.CreateInvoiceInput{ProjectID: projectID, Kind: req.Kind}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, service.InvoiceLineInput{
			Reference: line.Reference,
			Quantity:  line.Quantity,
			Rate:      line.Rate,
		})
	}
	return input, true
}

// Create handles POST /api/v1/projects/:id/invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	invoice, err := h.billingService.CreateInvoice(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, invoice)
}

// Validate handles POST /api/v1/projects/:id/invoices/validate
// Dry run: per-line remaining balances and feasibility, no side effects.
func (h *InvoiceHandler) Validate(c *gin.Context) {
	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	report, err := h.billingService.Validate(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, report)
}

// List handles GET /api/v1/projects/:id/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid project id")
		return
	}

	offset, limit := pagination(c)
	invoices, total, err := h.billingService.ListInvoices(c.Request.Context(), projectID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice id")
		return
	}

	invoice, err := h.billingService.GetInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, invoice)
}

// Void handles POST /api/v1/invoices/:id/void
func (h *InvoiceHandler) Void(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice id")
		return
	}

	invoice, err := h.billingService.VoidInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, invoice)
}
