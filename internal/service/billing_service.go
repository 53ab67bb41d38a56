package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rabill/internal/config"
	"rabill/internal/domain"
	"rabill/internal/matcher"
	"rabill/internal/port"
	"rabill/internal/tax"
)

// InvoiceLineInput is one proposed invoice line. Reference is a BOQ item id
// or, for legacy callers, a free-text description. Rate overrides the BOQ
// rate when set; otherwise the authorized rate is copied.
type InvoiceLineInput struct {
	Reference string
	Quantity  decimal.Decimal
	Rate      *decimal.Decimal
}

// CreateInvoiceInput is the DTO for proposing an invoice.
type CreateInvoiceInput struct {
	ProjectID uuid.UUID
	Kind      domain.InvoiceKind
	Lines     []InvoiceLineInput
}

// LineCheck is the dry-run result for one proposed line.
type LineCheck struct {
	Line      int             `json:"line"`
	Reference string          `json:"reference"`
	ItemID    *uuid.UUID      `json:"item_id,omitempty"`
	Requested decimal.Decimal `json:"requested"`
	Remaining decimal.Decimal `json:"remaining"`
	Feasible  bool            `json:"feasible"`
	Error     string          `json:"error,omitempty"`
}

// ValidationReport is the dry-run output: every line's remaining balance
// and feasibility, computed from the same ledger reads the commit path uses.
type ValidationReport struct {
	ProjectID uuid.UUID          `json:"project_id"`
	Kind      domain.InvoiceKind `json:"kind"`
	Feasible  bool               `json:"feasible"`
	Lines     []LineCheck        `json:"lines"`
}

// reservation is one line of the reservation plan handed from validation to
// commit: the resolved item, the quantity, and the ledger version observed
// during the pre-check.
type reservation struct {
	item    *domain.BOQItem
	ref     string
	qty     decimal.Decimal
	rate    decimal.Decimal
	version int64
}

// BillingService validates, commits and voids invoices, and reports
// per-project RA tracking.
type BillingService interface {
	// Validate is the dry run: same matching and ledger reads as
	// CreateInvoice, no side effects.
	Validate(ctx context.Context, input *CreateInvoiceInput) (*ValidationReport, error)

	// CreateInvoice commits a proposed invoice atomically: reservation,
	// RA assignment, tax computation and persistence all succeed or none
	// do. Rejections return domain.LineErrors listing every failing line.
	CreateInvoice(ctx context.Context, input *CreateInvoiceInput) (*domain.Invoice, error)

	GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, projectID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error)

	// VoidInvoice releases the invoice's reserved quantities and keeps its
	// RA number. Voiding an already void invoice is a no-op.
	VoidInvoice(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error)

	// RATracking reports authorized/billed/remaining per item and the RA
	// numbers issued, straight from the ledger.
	RATracking(ctx context.Context, projectID uuid.UUID) (*domain.RATracking, error)
}

type billingService struct {
	projectRepo     port.ProjectRepository
	boqRepo         port.BOQItemRepository
	invoiceRepo     port.InvoiceRepository
	ledger          port.QuantityLedger
	sequencer       port.RASequencer
	conflictRetries int
}

// NewBillingService creates a new BillingService implementation.
func NewBillingService(
	projectRepo port.ProjectRepository,
	boqRepo port.BOQItemRepository,
	invoiceRepo port.InvoiceRepository,
	ledger port.QuantityLedger,
	sequencer port.RASequencer,
	cfg config.LedgerConfig,
) BillingService {
	retries := cfg.ConflictRetries
	if retries < 0 {
		retries = 0
	}
	return &billingService{
		projectRepo:     projectRepo,
		boqRepo:         boqRepo,
		invoiceRepo:     invoiceRepo,
		ledger:          ledger,
		sequencer:       sequencer,
		conflictRetries: retries,
	}
}

// resolveLines runs matching and read-only ledger pre-checks for every
// line, collecting all failures instead of stopping at the first. It is
// the single code path behind both the dry run and the commit.
func (s *billingService) resolveLines(ctx context.Context, projectID uuid.UUID, lines []InvoiceLineInput) ([]reservation, []LineCheck, domain.LineErrors, error) {
	items, err := s.boqRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading boq catalog: %w", err)
	}
	m := matcher.New(items)

	plan := make([]reservation, 0, len(lines))
	checks := make([]LineCheck, 0, len(lines))
	var lineErrs domain.LineErrors

	for i, line := range lines {
		check := LineCheck{Line: i, Reference: line.Reference, Requested: line.Quantity}

		fail := func(err error) {
			lineErrs = append(lineErrs, domain.LineError{Line: i, Reference: line.Reference, Err: err})
			check.Error = err.Error()
			checks = append(checks, check)
		}

		if !line.Quantity.IsPositive() {
			fail(domain.ErrInvalidQuantity)
			continue
		}

		res := m.Resolve(line.Reference)
		switch res.Kind {
		case matcher.NotFound:
			fail(domain.ErrItemNotFound)
			continue
		case matcher.Ambiguous:
			fail(fmt.Errorf("%w: %d candidates", domain.ErrAmbiguousItem, len(res.Candidates)))
			continue
		}
		item := res.Item
		check.ItemID = &item.ID

		balance, err := s.ledger.Remaining(ctx, item.ID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("reading ledger balance: %w", err)
		}
		check.Remaining = balance.Remaining

		if line.Quantity.GreaterThan(balance.Remaining) {
			fail(&domain.QuantityExceededError{
				ItemID:      item.ID,
				Description: item.Description,
				Requested:   line.Quantity,
				Remaining:   balance.Remaining,
			})
			continue
		}

		rate := item.Rate
		if line.Rate != nil {
			rate = *line.Rate
		}
		plan = append(plan, reservation{item: item, ref: line.Reference, qty: line.Quantity, rate: rate, version: balance.Version})
		check.Feasible = true
		checks = append(checks, check)
	}

	return plan, checks, lineErrs, nil
}

func (s *billingService) Validate(ctx context.Context, input *CreateInvoiceInput) (*ValidationReport, error) {
	if !domain.ValidInvoiceKinds[input.Kind] {
		return nil, fmt.Errorf("invalid invoice kind %q", input.Kind)
	}
	if len(input.Lines) == 0 {
		return nil, domain.ErrEmptyInvoice
	}
	if _, err := s.projectRepo.GetByID(ctx, input.ProjectID); err != nil {
		return nil, err
	}

	_, checks, lineErrs, err := s.resolveLines(ctx, input.ProjectID, input.Lines)
	if err != nil {
		return nil, err
	}
	return &ValidationReport{
		ProjectID: input.ProjectID,
		Kind:      input.Kind,
		Feasible:  len(lineErrs) == 0,
		Lines:     checks,
	}, nil
}

func (s *billingService) CreateInvoice(ctx context.Context, input *CreateInvoiceInput) (*domain.Invoice, error) {
	if !domain.ValidInvoiceKinds[input.Kind] {
		return nil, fmt.Errorf("invalid invoice kind %q", input.Kind)
	}
	if len(input.Lines) == 0 {
		return nil, domain.ErrEmptyInvoice
	}

	project, err := s.projectRepo.GetByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	plan, _, lineErrs, err := s.resolveLines(ctx, input.ProjectID, input.Lines)
	if err != nil {
		return nil, err
	}
	if len(lineErrs) > 0 {
		log.Printf("billingService.CreateInvoice: project %s rejected with %d line errors",
			input.ProjectID, len(lineErrs))
		return nil, lineErrs
	}

	// Only tax invoices consume quantity balance; a proforma is a preview.
	var reserved []reservation
	if input.Kind == domain.KindTaxInvoice {
		reserved, err = s.reserveAll(ctx, plan)
		if err != nil {
			return nil, err
		}
	}

	invoice, err := s.assemble(ctx, project, input.Kind, plan)
	if err != nil {
		s.releaseAll(ctx, reserved)
		return nil, err
	}

	if err := s.invoiceRepo.CreateCommitted(ctx, invoice); err != nil {
		s.releaseAll(ctx, reserved)
		return nil, fmt.Errorf("persisting invoice: %w", err)
	}

	log.Printf("billingService.CreateInvoice: committed %s invoice %s for project %s",
		invoice.Kind, invoice.ID, invoice.ProjectID)
	return invoice, nil
}

// reserveAll executes the reservation plan against the ledger. A version
// conflict means another commit touched the item between validation and
// now: the balance is re-read and the reservation retried (conflictRetries
// times) before the conflict is surfaced. Any final failure releases
// everything reserved in this attempt, so no partial reservation survives.
func (s *billingService) reserveAll(ctx context.Context, plan []reservation) ([]reservation, error) {
	reserved := make([]reservation, 0, len(plan))
	for i, r := range plan {
		_, err := s.ledger.Reserve(ctx, r.item.ID, r.qty, r.version)
		for attempt := 0; attempt < s.conflictRetries && errors.Is(err, domain.ErrVersionConflict); attempt++ {
			var balance *domain.ItemBalance
			balance, err = s.ledger.Remaining(ctx, r.item.ID)
			if err == nil {
				_, err = s.ledger.Reserve(ctx, r.item.ID, r.qty, balance.Version)
			}
		}
		if err != nil {
			s.releaseAll(ctx, reserved)
			var exceeded *domain.QuantityExceededError
			if errors.As(err, &exceeded) || errors.Is(err, domain.ErrVersionConflict) {
				return nil, domain.LineErrors{{Line: i, Reference: r.ref, Err: err}}
			}
			return nil, fmt.Errorf("reserving quantity for item %s: %w", r.item.ID, err)
		}
		reserved = append(reserved, r)
	}
	return reserved, nil
}

// releaseAll is the compensating action for a failed commit attempt. Each
// release is retried once; a release that still fails leaves the balance
// stranded and is logged for reconciliation, since the commit error that
// triggered the compensation takes precedence.
func (s *billingService) releaseAll(ctx context.Context, reserved []reservation) {
	for _, r := range reserved {
		err := s.ledger.Release(ctx, r.item.ID, r.qty)
		if err != nil {
			err = s.ledger.Release(ctx, r.item.ID, r.qty)
		}
		if err != nil {
			log.Printf("billingService.releaseAll: %s of item %s is stranded, balance needs reconciliation: %v",
				r.qty, r.item.ID, err)
		}
	}
}

// assemble builds the committed invoice record: line snapshots, RA number
// (tax invoices only) and the tax split.
func (s *billingService) assemble(ctx context.Context, project *domain.Project, kind domain.InvoiceKind, plan []reservation) (*domain.Invoice, error) {
	invoice := &domain.Invoice{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Kind:      kind,
		Status:    domain.StatusCommitted,
	}

	if kind == domain.KindTaxInvoice {
		ra, err := s.sequencer.Next(ctx, project.ID)
		if err != nil {
			return nil, fmt.Errorf("assigning ra number: %w", err)
		}
		invoice.RANumber = &ra
	}

	intra := tax.IntraState(project.CompanyStateCode, project.ClientStateCode)
	subtotal := decimal.Zero
	breakdowns := make([]domain.TaxBreakdown, 0, len(plan))

	for i, r := range plan {
		amount := r.qty.Mul(r.rate).Round(2)
		lineTax, err := tax.ComputeLine(amount, r.item.TaxRate, intra)
		if err != nil {
			return nil, fmt.Errorf("computing tax for item %s: %w", r.item.ID, err)
		}
		breakdowns = append(breakdowns, lineTax)
		subtotal = subtotal.Add(amount)

		invoice.LineItems = append(invoice.LineItems, domain.InvoiceLineItem{
			ID:          uuid.New(),
			InvoiceID:   invoice.ID,
			BOQItemID:   r.item.ID,
			Seq:         i + 1,
			Description: r.item.Description,
			Unit:        r.item.Unit,
			Quantity:    r.qty,
			Rate:        r.rate,
			Amount:      amount,
		})
	}

	total := tax.Aggregate(breakdowns)
	invoice.Subtotal = subtotal
	invoice.CGST = total.CGST
	invoice.SGST = total.SGST
	invoice.IGST = total.IGST
	invoice.TotalAmount = subtotal.Add(total.TotalTax)
	return invoice, nil
}

func (s *billingService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, invoiceID)
}

func (s *billingService) ListInvoices(ctx context.Context, projectID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, 0, err
	}
	return s.invoiceRepo.ListByProject(ctx, projectID, offset, limit)
}

func (s *billingService) VoidInvoice(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error) {
	invoice, voidedNow, err := s.invoiceRepo.MarkVoid(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !voidedNow {
		// Idempotent: already void, quantities were released by the call
		// that performed the transition.
		return invoice, nil
	}

	// Proforma invoices never reserved quantity, so there is nothing to
	// release. The RA number, if any, stays assigned.
	if invoice.Kind == domain.KindTaxInvoice {
		var releaseErrs []error
		for _, line := range invoice.LineItems {
			err := s.ledger.Release(ctx, line.BOQItemID, line.Quantity)
			if err != nil {
				err = s.ledger.Release(ctx, line.BOQItemID, line.Quantity)
			}
			if err != nil {
				log.Printf("billingService.VoidInvoice: failed to release %s of item %s: %v",
					line.Quantity, line.BOQItemID, err)
				releaseErrs = append(releaseErrs, fmt.Errorf("item %s: %w", line.BOQItemID, err))
			}
		}
		// The status transition already happened and a repeat void is a
		// no-op, so a stranded balance has to be surfaced here.
		if len(releaseErrs) > 0 {
			return nil, fmt.Errorf("invoice %s is void but %d of %d quantity releases failed, balances need reconciliation: %w",
				invoiceID, len(releaseErrs), len(invoice.LineItems), releaseErrs[0])
		}
	}

	log.Printf("billingService.VoidInvoice: voided invoice %s", invoiceID)
	return invoice, nil
}

func (s *billingService) RATracking(ctx context.Context, projectID uuid.UUID) (*domain.RATracking, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	items, err := s.boqRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading boq catalog: %w", err)
	}
	entries, err := s.invoiceRepo.ListRANumbers(ctx, projectID)
	if err != nil {
		return nil, err
	}

	tracking := &domain.RATracking{
		ProjectID: projectID,
		Items:     make([]domain.RATrackingItem, 0, len(items)),
		RANumbers: entries,
	}
	for _, item := range items {
		tracking.Items = append(tracking.Items, domain.RATrackingItem{
			ItemID:        item.ID,
			Seq:           item.Seq,
			Description:   item.Description,
			Unit:          item.Unit,
			AuthorizedQty: item.AuthorizedQty,
			BilledQty:     item.BilledQty,
			RemainingQty:  item.Remaining(),
		})
	}
	return tracking, nil
}
