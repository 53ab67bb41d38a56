package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrItemNotFound       = errors.New("boq item not found")
	ErrAmbiguousItem      = errors.New("reference matches multiple boq items")
	ErrUnknownItem        = errors.New("item not present in ledger")
	ErrVersionConflict    = errors.New("ledger version conflict")
	ErrInvoiceNotVoidable = errors.New("only committed invoices can be voided")
	ErrEmptyInvoice       = errors.New("invoice must have at least one line item")
	ErrEmptyCatalog       = errors.New("project must have at least one boq item")
	ErrInvalidQuantity    = errors.New("requested quantity must be positive")
	ErrInvalidTaxRate     = errors.New("tax rate must be a non-negative percentage")
	ErrDuplicateProject   = errors.New("project name already exists")
)

// QuantityExceededError is a business rejection, not a fault: the requested
// quantity does not fit in the item's remaining authorization.
type QuantityExceededError struct {
	ItemID      uuid.UUID       `json:"item_id"`
	Description string          `json:"description"`
	Requested   decimal.Decimal `json:"requested"`
	Remaining   decimal.Decimal `json:"remaining"`
}

func (e *QuantityExceededError) Error() string {
	return fmt.Sprintf("quantity exceeded for %q: requested %s, remaining %s",
		e.Description, e.Requested, e.Remaining)
}

// LineError ties a failure to the invoice line (0-based) that caused it.
type LineError struct {
	Line      int    `json:"line"`
	Reference string `json:"reference"`
	Err       error  `json:"-"`
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Reference, e.Err)
}

func (e LineError) Unwrap() error { return e.Err }

// LineErrors aggregates every per-line failure of a proposed invoice so the
// caller can correct all of them in one pass. No line is silently dropped.
type LineErrors []LineError

func (e LineErrors) Error() string {
	msgs := make([]string, len(e))
	for i, le := range e {
		msgs[i] = le.Error()
	}
	return "invoice rejected: " + strings.Join(msgs, "; ")
}
