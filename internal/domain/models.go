package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Project is the unit of ledger isolation: quantity balances and RA
// numbering never cross projects. State codes are copied from the company
// and client records at creation time and drive the tax split.
type Project struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	ClientName       string    `db:"client_name" json:"client_name"`
	CompanyStateCode string    `db:"company_state_code" json:"company_state_code"`
	ClientStateCode  string    `db:"client_state_code" json:"client_state_code"`
	NextRA           int64     `db:"next_ra" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// BOQItem is a single authorized line of a project's Bill of Quantities.
// AuthorizedQty and Rate are immutable after import. BilledQty is a derived
// cache of committed tax-invoice quantity, maintained only by the ledger and
// guarded by Version for optimistic concurrency.
type BOQItem struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	ProjectID      uuid.UUID       `db:"project_id" json:"project_id"`
	Seq            int             `db:"seq" json:"seq"`
	Description    string          `db:"description" json:"description"`
	NormalizedDesc string          `db:"normalized_description" json:"normalized_description"`
	Unit           string          `db:"unit" json:"unit"`
	AuthorizedQty  decimal.Decimal `db:"authorized_qty" json:"authorized_qty"`
	Rate           decimal.Decimal `db:"rate" json:"rate"`
	TaxRate        decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	BilledQty      decimal.Decimal `db:"billed_qty" json:"billed_qty"`
	Version        int64           `db:"version" json:"version"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// Remaining returns the unbilled balance of the item.
func (b *BOQItem) Remaining() decimal.Decimal {
	return b.AuthorizedQty.Sub(b.BilledQty)
}

// Invoice is a committed billing document. Drafts are transient and never
// persisted; only committed invoices reach storage, and the only mutation
// allowed afterwards is the transition to void.
type Invoice struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	ProjectID   uuid.UUID       `db:"project_id" json:"project_id"`
	Kind        InvoiceKind     `db:"kind" json:"kind"`
	RANumber    *int64          `db:"ra_number" json:"ra_number,omitempty"`
	Status      InvoiceStatus   `db:"status" json:"status"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
	CGST        decimal.Decimal `db:"cgst" json:"cgst"`
	SGST        decimal.Decimal `db:"sgst" json:"sgst"`
	IGST        decimal.Decimal `db:"igst" json:"igst"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	VoidedAt    *time.Time      `db:"voided_at" json:"voided_at,omitempty"`

	LineItems []InvoiceLineItem `db:"-" json:"line_items"`
}

// TaxBreakdown returns the invoice-level tax split.
func (i *Invoice) TaxBreakdown() TaxBreakdown {
	return TaxBreakdown{
		CGST:     i.CGST,
		SGST:     i.SGST,
		IGST:     i.IGST,
		TotalTax: i.CGST.Add(i.SGST).Add(i.IGST),
	}
}

// InvoiceLineItem is one billed line of a committed invoice. Description,
// Unit and Rate are snapshots taken at commit time; they are never
// re-derived from the BOQ item afterwards.
type InvoiceLineItem struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	InvoiceID   uuid.UUID       `db:"invoice_id" json:"invoice_id"`
	BOQItemID   uuid.UUID       `db:"boq_item_id" json:"boq_item_id"`
	Seq         int             `db:"seq" json:"seq"`
	Description string          `db:"description" json:"description"`
	Unit        string          `db:"unit" json:"unit"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	Rate        decimal.Decimal `db:"rate" json:"rate"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
}

// TaxBreakdown holds the computed intra-state (CGST+SGST) or inter-state
// (IGST) tax components. Exactly one side is non-zero for a given invoice.
type TaxBreakdown struct {
	CGST     decimal.Decimal `json:"cgst"`
	SGST     decimal.Decimal `json:"sgst"`
	IGST     decimal.Decimal `json:"igst"`
	TotalTax decimal.Decimal `json:"total_tax"`
}

// Add returns the component-wise sum of two breakdowns.
func (t TaxBreakdown) Add(o TaxBreakdown) TaxBreakdown {
	return TaxBreakdown{
		CGST:     t.CGST.Add(o.CGST),
		SGST:     t.SGST.Add(o.SGST),
		IGST:     t.IGST.Add(o.IGST),
		TotalTax: t.TotalTax.Add(o.TotalTax),
	}
}

// ItemBalance is a ledger read of a single BOQ item: authorized, billed and
// remaining quantity at a specific version.
type ItemBalance struct {
	ItemID     uuid.UUID       `json:"item_id"`
	Authorized decimal.Decimal `json:"authorized_qty"`
	Billed     decimal.Decimal `json:"billed_qty"`
	Remaining  decimal.Decimal `json:"remaining_qty"`
	Version    int64           `json:"-"`
}

// RAEntry is one issued running-account number. Voided invoices keep their
// number; the entry stays in the list with its current status.
type RAEntry struct {
	InvoiceID uuid.UUID     `db:"invoice_id" json:"invoice_id"`
	RANumber  int64         `db:"ra_number" json:"ra_number"`
	Status    InvoiceStatus `db:"status" json:"status"`
	IssuedAt  time.Time     `db:"issued_at" json:"issued_at"`
}

// RATrackingItem is one row of the RA tracking report, computed directly
// from the ledger cache rather than re-matched invoice history.
type RATrackingItem struct {
	ItemID        uuid.UUID       `json:"item_id"`
	Seq           int             `json:"seq"`
	Description   string          `json:"description"`
	Unit          string          `json:"unit"`
	AuthorizedQty decimal.Decimal `json:"authorized_qty"`
	BilledQty     decimal.Decimal `json:"billed_qty"`
	RemainingQty  decimal.Decimal `json:"remaining_qty"`
}

// RATracking is the per-project reconciliation view: item balances plus the
// full list of RA numbers issued so far.
type RATracking struct {
	ProjectID uuid.UUID        `json:"project_id"`
	Items     []RATrackingItem `json:"items"`
	RANumbers []RAEntry        `json:"ra_numbers"`
}
