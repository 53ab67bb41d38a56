package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"rabill/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response. Lines is populated for
// invoice rejections so a caller can correct every problem in one pass.
type APIError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Lines   []LineErrorBody `json:"lines,omitempty"`
}

// LineErrorBody is the wire form of one per-line rejection.
type LineErrorBody struct {
	Line      int              `json:"line"`
	Reference string           `json:"reference"`
	Code      string           `json:"code"`
	Message   string           `json:"message"`
	Requested *decimal.Decimal `json:"requested,omitempty"`
	Remaining *decimal.Decimal `json:"remaining,omitempty"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// lineErrorBody classifies a single line failure for the response payload.
func lineErrorBody(le domain.LineError) LineErrorBody {
	body := LineErrorBody{
		Line:      le.Line,
		Reference: le.Reference,
		Message:   le.Err.Error(),
	}

	var exceeded *domain.QuantityExceededError
	switch {
	case errors.As(le.Err, &exceeded):
		body.Code = "QUANTITY_EXCEEDED"
		body.Requested = &exceeded.Requested
		body.Remaining = &exceeded.Remaining
	case errors.Is(le.Err, domain.ErrItemNotFound):
		body.Code = "ITEM_NOT_FOUND"
	case errors.Is(le.Err, domain.ErrAmbiguousItem):
		body.Code = "AMBIGUOUS_ITEM"
	case errors.Is(le.Err, domain.ErrInvalidQuantity):
		body.Code = "INVALID_QUANTITY"
	case errors.Is(le.Err, domain.ErrVersionConflict):
		body.Code = "PERSISTENCE_CONFLICT"
	default:
		body.Code = "LINE_ERROR"
	}
	return body
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		return http.StatusNotFound, "PROJECT_NOT_FOUND", "project not found"
	case errors.Is(err, domain.ErrInvoiceNotFound):
		return http.StatusNotFound, "INVOICE_NOT_FOUND", "invoice not found"
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound, "ITEM_NOT_FOUND", "boq item not found"
	case errors.Is(err, domain.ErrAmbiguousItem):
		return http.StatusUnprocessableEntity, "AMBIGUOUS_ITEM", "reference matches multiple boq items"
	case errors.Is(err, domain.ErrInvoiceNotVoidable):
		return http.StatusConflict, "INVOICE_NOT_VOIDABLE", "only committed invoices can be voided"
	case errors.Is(err, domain.ErrEmptyInvoice):
		return http.StatusBadRequest, "EMPTY_INVOICE", "invoice must have at least one line item"
	case errors.Is(err, domain.ErrEmptyCatalog):
		return http.StatusBadRequest, "EMPTY_CATALOG", "project must have at least one boq item"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest, "INVALID_QUANTITY", "quantities must be positive"
	case errors.Is(err, domain.ErrInvalidTaxRate):
		return http.StatusBadRequest, "INVALID_TAX_RATE", "tax rate must be a non-negative percentage"
	case errors.Is(err, domain.ErrDuplicateProject):
		return http.StatusConflict, "DUPLICATE_PROJECT", "project name already exists"
	case errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, "PERSISTENCE_CONFLICT", "concurrent update detected; retry the request"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
// An invoice rejection carries the full per-line error list.
func HandleError(c *gin.Context, err error) {
	var lineErrs domain.LineErrors
	if errors.As(err, &lineErrs) {
		bodies := make([]LineErrorBody, 0, len(lineErrs))
		for _, le := range lineErrs {
			bodies = append(bodies, lineErrorBody(le))
		}
		c.JSON(http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Error: &APIError{
				Code:    "INVOICE_REJECTED",
				Message: "invoice rejected; see per-line errors",
				Lines:   bodies,
			},
		})
		return
	}

	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
