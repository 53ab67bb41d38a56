package domain

// InvoiceKind distinguishes binding tax invoices from proforma previews.
type InvoiceKind string

const (
	// KindProforma is a non-binding preview: it never consumes quantity
	// balance and never receives an RA number.
	KindProforma InvoiceKind = "proforma"
	// KindTaxInvoice is a binding running-account bill: it reserves
	// quantity and is assigned the next RA number at commit.
	KindTaxInvoice InvoiceKind = "tax_invoice"
)

// ValidInvoiceKinds lists the accepted invoice kinds.
var ValidInvoiceKinds = map[InvoiceKind]bool{
	KindProforma:   true,
	KindTaxInvoice: true,
}

// InvoiceStatus represents the invoice lifecycle. Drafts are transient and
// never persisted; void is terminal and reachable only from committed.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusCommitted InvoiceStatus = "committed"
	StatusVoid      InvoiceStatus = "void"
)
