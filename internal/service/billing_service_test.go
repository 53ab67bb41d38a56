package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rabill/internal/config"
	"rabill/internal/domain"
	"rabill/internal/matcher"
	"rabill/internal/repository/memory"
	"rabill/internal/service"
	"rabill/mocks"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decEq(s string) interface{} {
	want := dec(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func intraProject() *domain.Project {
	return &domain.Project{
		ID:               uuid.New(),
		Name:             "Warehouse Extension",
		ClientName:       "Apex Constructions",
		CompanyStateCode: "27",
		ClientStateCode:  "27",
		NextRA:           1,
	}
}

func boqItem(projectID uuid.UUID, desc, qty, rate, taxRate string) domain.BOQItem {
	return domain.BOQItem{
		ID:             uuid.New(),
		ProjectID:      projectID,
		Seq:            1,
		Description:    desc,
		NormalizedDesc: matcher.Normalize(desc),
		Unit:           "cum",
		AuthorizedQty:  dec(qty),
		Rate:           dec(rate),
		TaxRate:        dec(taxRate),
		BilledQty:      decimal.Zero,
		Version:        1,
	}
}

// newBillingService wires a billing service over the in-memory ledger and
// sequencer with mocked repositories.
func newBillingService(project *domain.Project, items []domain.BOQItem) (service.BillingService, *mocks.MockInvoiceRepo, *memory.Ledger) {
	projectRepo := new(mocks.MockProjectRepo)
	projectRepo.On("GetByID", mock.Anything, project.ID).Return(project, nil)

	boqRepo := new(mocks.MockBOQItemRepo)
	boqRepo.On("ListByProject", mock.Anything, project.ID).Return(items, nil)

	invoiceRepo := new(mocks.MockInvoiceRepo)
	ledger := memory.NewLedger(items)
	sequencer := memory.NewSequencer()

	svc := service.NewBillingService(projectRepo, boqRepo, invoiceRepo, ledger, sequencer,
		config.LedgerConfig{ConflictRetries: 1})
	return svc, invoiceRepo, ledger
}

func TestCreateInvoice_SequentialOverbillingRejected(t *testing.T) {
	project := intraProject()
	item := boqItem(project.ID, "Excavation in soil", "100", "250", "18")
	svc, invoiceRepo, _ := newBillingService(project, []domain.BOQItem{item})
	invoiceRepo.On("CreateCommitted", mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()

	first, err := svc.CreateInvoice(ctx, &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		Lines:     []service.InvoiceLineInput{{Reference: item.ID.String(), Quantity: dec("60")}},
	})
	require.NoError(t, err)
	require.NotNil(t, first.RANumber)
	assert.Equal(t, int64(1), *first.RANumber)

	_, err = svc.CreateInvoice(ctx, &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		Lines:     []service.InvoiceLineInput{{Reference: item.ID.String(), Quantity: dec("50")}},
	})

	var lineErrs domain.LineErrors
	require.ErrorAs(t, err, &lineErrs)
	require.Len(t, lineErrs, 1)

	var exceeded *domain.QuantityExceededError
	require.ErrorAs(t, lineErrs[0].Err, &exceeded)
	assert.True(t, exceeded.Requested.Equal(dec("50")))
	assert.True(t, exceeded.Remaining.Equal(dec("40")))
}

func TestCreateInvoice_IntraStateTaxSplit(t *testing.T) {
	project := intraProject()
	item := boqItem(project.ID, "Brick work", "100", "100", "18")
	svc, invoiceRepo, _ := newBillingService(project, []domain.BOQItem{item})
	invoiceRepo.On("CreateCommitted", mock.Anything, mock.Anything).Return(nil)

	invoice, err := svc.CreateInvoice(context.Background(), &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		Lines:     []service.InvoiceLineInput{{Reference: item.ID.String(), Quantity: dec("10")}},
	})
	require.NoError(t, err)

	// base 1000 at 18% intra-state
	assert.True(t, invoice.Subtotal.Equal(dec("1000")), "subtotal = %s", invoice.Subtotal)
	assert.True(t, invoice.CGST.Equal(dec("90")), "cgst = %s", invoice.CGST)
	assert.True(t, invoice.SGST.Equal(dec("90")))
	assert.True(t, invoice.IGST.IsZero())
	assert.True(t, invoice.TotalAmount.Equal(dec("1180")))

	split := invoice.TaxBreakdown()
	assert.True(t, split.TotalTax.Equal(dec("180")))
	assert.True(t, split.CGST.Equal(split.SGST))
}

func TestCreateInvoice_InterStateTaxSplit(t *testing.T) {
	project := intraProject()
	project.ClientStateCode = "29"
	item := boqItem(project.ID, "Brick work", "100", "100", "18")
	svc, invoiceRepo, _ := newBillingService(project, []domain.BOQItem{item})
	invoiceRepo.On("CreateCommitted", mock.Anything, mock.Anything).Return(nil)

	invoice, err := svc.CreateInvoice(context.Background(), &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		Lines:     []service.InvoiceLineInput{{Reference: item.ID.String(), Quantity: dec("10")}},
	})
	require.NoError(t, err)

	assert.True(t, invoice.IGST.Equal(dec("180")), "igst = %s", invoice.IGST)
	assert.True(t, invoice.CGST.IsZero())
	assert.True(t, invoice.SGST.IsZero())
	assert.True(t, invoice.TotalAmount.Equal(dec("1180")))
}

func TestCreateInvoice_ProformaSkipsLedgerAndSequence(t *testing.T) {
	project := intraProject()
	item := boqItem(project.ID, "Brick work", "100", "100", "18")
	svc, invoiceRepo, ledger := newBillingService(project, []domain.BOQItem{item})
	invoiceRepo.On("CreateCommitted", mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	invoice, err := svc.CreateInvoice(ctx, &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindProforma,
		Lines:     []service.InvoiceLineInput{{Reference: item.ID.String(), Quantity: dec("60")}},
	})
	require.NoError(t, err)

	assert.Nil(t, invoice.RANumber)
	assert.Equal(t, domain.KindProforma, invoice.Kind)

	// A proforma never consumes balance.
	balance, err := ledger.Remaining(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, balance.Remaining.Equal(dec("100")))
}

func TestCreateInvoice_AggregatesAllLineErrors(t *testing.T) {
	project := intraProject()
	item := boqItem(project.ID, "Excavation in soil", "100", "250", "18")
	svc, _, _ := newBillingService(project, []domain.BOQItem{item})

	_, err := svc.CreateInvoice(context.Background(), &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		Lines: []service.InvoiceLineInput{
			{Reference: "No such item", Quantity: dec("5")},
			{Reference: item.ID.String(), Quantity: dec("150")},
			{Reference: item.ID.String(), Quantity: dec("-1")},
		},
	})

	var lineErrs domain.LineErrors
	require.ErrorAs(t, err, &lineErrs)
	require.Len(t, lineErrs, 3)
	assert.ErrorIs(t, lineErrs[0].Err, domain.ErrItemNotFound)
	assert.Equal(t, 0, lineErrs[0].Line)
	var exceeded *domain.QuantityExceededError
	assert.ErrorAs(t, lineErrs[1].Err, &exceeded)
	assert.ErrorIs(t, lineErrs[2].Err, domain.ErrInvalidQuantity)
}

func TestCreateInvoice_AmbiguousReferenceLeavesLedgerUntouched(t *testing.T) {
	project := intraProject()
	a := boqItem(project.ID, "Steel reinforcement (Fe500)", "100", "80", "18")
	b := boqItem(project.ID, "Steel reinforcement (Fe550)", "100", "85", "18")
	svc, _, ledger := newBillingService(project, []domain.BOQItem{a, b})

	ctx := context.Background()
	_, err := svc.CreateInvoice(ctx, &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		Lines:     []service.InvoiceLineInput{{Reference: "Steel reinforcement", Quantity: dec("10")}},
	})

	var lineErrs domain.LineErrors
	require.ErrorAs(t, err, &lineErrs)
	assert.ErrorIs(t, lineErrs[0].Err, domain.ErrAmbiguousItem)

	for _, itemID := range []uuid.UUID{a.ID, b.ID} {
		balance, err := ledger.Remaining(ctx, itemID)
		require.NoError(t, err)
		assert.True(t, balance.Billed.IsZero())
	}
}

func TestCreateInvoice_ReserveFailureReleasesEarlierLines(t *testing.T) {
	project := intraProject()
	a := boqItem(project.ID, "Excavation in soil", "100", "250", "18")
	b := boqItem(project.ID, "Brick work", "100", "100", "18")

	projectRepo := new(mocks.MockProjectRepo)
	projectRepo.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	boqRepo := new(mocks.MockBOQItemRepo)
	boqRepo.On("ListByProject", mock.Anything, project.ID).Return([]domain.BOQItem{a, b}, nil)
	invoiceRepo := new(mocks.MockInvoiceRepo)
	sequencer := new(mocks.MockRASequencer)

	ledger := new(mocks.MockQuantityLedger)
	ledger.On("Remaining", mock.Anything, a.ID).
		Return(&domain.ItemBalance{ItemID: a.ID, Authorized: dec("100"), Remaining: dec("100"), Version: 1}, nil)
	ledger.On("Remaining", mock.Anything, b.ID).
		Return(&domain.ItemBalance{ItemID: b.ID, Authorized: dec("100"), Remaining: dec("50"), Version: 3}, nil)
	ledger.On("Reserve", mock.Anything, a.ID, decEq("40"), int64(1)).Return(int64(2), nil)
	// The balance of b changed between validation and commit.
	ledger.On("Reserve", mock.Anything, b.ID, decEq("50"), int64(3)).
		Return(int64(0), &domain.QuantityExceededError{
			ItemID: b.ID, Description: b.Description, Requested: dec("50"), Remaining: dec("20"),
		})
	ledger.On("Release", mock.Anything, a.ID, decEq("40")).Return(nil)

	svc := service.NewBillingService(projectRepo, boqRepo, invoiceRepo, ledger, sequencer,
		config.LedgerConfig{ConflictRetries: 1})

	_, err := svc.CreateInvoice(context.Background(), &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		Lines: []service.InvoiceLineInput{
			{Reference: a.ID.String(), Quantity: dec("40")},
			{Reference: b.ID.String(), Quantity: dec("50")},
		},
	})

	var lineErrs domain.LineErrors
	require.ErrorAs(t, err, &lineErrs)
	require.Len(t, lineErrs, 1)
	// The rejection echoes the caller's reference, not the catalog text.
	assert.Equal(t, b.ID.String(), lineErrs[0].Reference)
	ledger.AssertCalled(t, "Release", mock.Anything, a.ID, decEq("40"))
	invoiceRepo.AssertNotCalled(t, "CreateCommitted", mock.Anything, mock.Anything)
	sequencer.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
}

func TestCreateInvoice_RetriesOnceOnVersionConflict(t *testing.T) {
	project := intraProject()
	item := boqItem(project.ID, "Excavation in soil", "100", "250", "18")

	projectRepo := new(mocks.MockProjectRepo)
	projectRepo.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	boqRepo := new(mocks.MockBOQItemRepo)
	boqRepo.On("ListByProject", mock.Anything, project.ID).Return([]domain.BOQItem{item}, nil)
	invoiceRepo := new(mocks.MockInvoiceRepo)
	invoiceRepo.On("CreateCommitted", mock.Anything, mock.Anything).Return(nil)
	sequencer := new(mocks.MockRASequencer)
	sequencer.On("Next", mock.Anything, project.ID).Return(int64(1), nil)

	ledger := new(mocks.MockQuantityLedger)
	ledger.On("Remaining", mock.Anything, item.ID).
		Return(&domain.ItemBalance{ItemID: item.ID, Authorized: dec("100"), Remaining: dec("100"), Version: 1}, nil).Once()
	ledger.On("Reserve", mock.Anything, item.ID, decEq("60"), int64(1)).
		Return(int64(0), domain.ErrVersionConflict).Once()
	ledger.On("Remaining", mock.Anything, item.ID).
		Return(&domain.ItemBalance{ItemID: item.ID, Authorized: dec("100"), Remaining: dec("90"), Version: 2}, nil).Once()
	ledger.On("Reserve", mock.Anything, item.ID, decEq("60"), int64(2)).
		Return(int64(3), nil).Once()

	svc := service.NewBillingService(projectRepo, boqRepo, invoiceRepo, ledger, sequencer,
		config.LedgerConfig{ConflictRetries: 1})

	invoice, err := svc.CreateInvoice(context.Background(), &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		Lines:     []service.InvoiceLineInput{{Reference: item.ID.String(), Quantity: dec("60")}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), *invoice.RANumber)
	ledger.AssertExpectations(t)
}

func TestCreateInvoice_ConflictRetryExhausted(t *testing.T) {
	project := intraProject()
	item := boqItem(project.ID, "Excavation in soil", "100", "250", "18")

	projectRepo := new(mocks.MockProjectRepo)
	projectRepo.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	boqRepo := new(mocks.MockBOQItemRepo)
	boqRepo.On("ListByProject", mock.Anything, project.ID).Return([]domain.BOQItem{item}, nil)
	invoiceRepo := new(mocks.MockInvoiceRepo)
	sequencer := new(mocks.MockRASequencer)

	// The item keeps moving under the caller: both the first reserve and
	// the retry see a stale version.
	ledger := new(mocks.MockQuantityLedger)
	ledger.On("Remaining", mock.Anything, item.ID).
		Return(&domain.ItemBalance{ItemID: item.ID, Authorized: dec("100"), Remaining: dec("100"), Version: 1}, nil).Once()
	ledger.On("Reserve", mock.Anything, item.ID, decEq("60"), int64(1)).
		Return(int64(0), domain.ErrVersionConflict).Once()
	ledger.On("Remaining", mock.Anything, item.ID).
		Return(&domain.ItemBalance{ItemID: item.ID, Authorized: dec("100"), Remaining: dec("90"), Version: 2}, nil).Once()
	ledger.On("Reserve", mock.Anything, item.ID, decEq("60"), int64(2)).
		Return(int64(0), domain.ErrVersionConflict).Once()

	svc := service.NewBillingService(projectRepo, boqRepo, invoiceRepo, ledger, sequencer,
		config.LedgerConfig{ConflictRetries: 1})

	_, err := svc.CreateInvoice(context.Background(), &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		Lines:     []service.InvoiceLineInput{{Reference: item.ID.String(), Quantity: dec("60")}},
	})

	var lineErrs domain.LineErrors
	require.ErrorAs(t, err, &lineErrs)
	require.Len(t, lineErrs, 1)
	assert.ErrorIs(t, lineErrs[0].Err, domain.ErrVersionConflict)
	assert.Equal(t, item.ID.String(), lineErrs[0].Reference)
	ledger.AssertExpectations(t)
	sequencer.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
	invoiceRepo.AssertNotCalled(t, "CreateCommitted", mock.Anything, mock.Anything)
}

func TestCreateInvoice_PersistFailureReleasesReservations(t *testing.T) {
	project := intraProject()
	item := boqItem(project.ID, "Excavation in soil", "100", "250", "18")
	svc, invoiceRepo, ledger := newBillingService(project, []domain.BOQItem{item})
	invoiceRepo.On("CreateCommitted", mock.Anything, mock.Anything).Return(errors.New("db down"))

	ctx := context.Background()
	_, err := svc.CreateInvoice(ctx, &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		Lines:     []service.InvoiceLineInput{{Reference: item.ID.String(), Quantity: dec("60")}},
	})
	require.Error(t, err)

	balance, berr := ledger.Remaining(ctx, item.ID)
	require.NoError(t, berr)
	assert.True(t, balance.Billed.IsZero(), "failed commit left %s reserved", balance.Billed)
}

func TestCreateInvoice_EmptyLines(t *testing.T) {
	project := intraProject()
	svc, _, _ := newBillingService(project, nil)

	_, err := svc.CreateInvoice(context.Background(), &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
	})
	assert.ErrorIs(t, err, domain.ErrEmptyInvoice)
}

func TestValidate_DryRunHasNoSideEffects(t *testing.T) {
	project := intraProject()
	item := boqItem(project.ID, "Excavation in soil", "100", "250", "18")
	svc, invoiceRepo, ledger := newBillingService(project, []domain.BOQItem{item})

	ctx := context.Background()
	report, err := svc.Validate(ctx, &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		Lines: []service.InvoiceLineInput{
			{Reference: item.ID.String(), Quantity: dec("60")},
			{Reference: item.ID.String(), Quantity: dec("150")},
		},
	})
	require.NoError(t, err)

	assert.False(t, report.Feasible)
	require.Len(t, report.Lines, 2)
	assert.True(t, report.Lines[0].Feasible)
	assert.True(t, report.Lines[0].Remaining.Equal(dec("100")))
	assert.False(t, report.Lines[1].Feasible)
	assert.NotEmpty(t, report.Lines[1].Error)

	balance, err := ledger.Remaining(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, balance.Billed.IsZero())
	invoiceRepo.AssertNotCalled(t, "CreateCommitted", mock.Anything, mock.Anything)
}

func TestVoidInvoice_ReleasesQuantitiesKeepsRANumber(t *testing.T) {
	project := intraProject()
	item := boqItem(project.ID, "Excavation in soil", "100", "250", "18")
	svc, invoiceRepo, ledger := newBillingService(project, []domain.BOQItem{item})
	invoiceRepo.On("CreateCommitted", mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	committed, err := svc.CreateInvoice(ctx, &service.CreateInvoiceInput{
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		Lines:     []service.InvoiceLineInput{{Reference: item.ID.String(), Quantity: dec("60")}},
	})
	require.NoError(t, err)

	voided := *committed
	voided.Status = domain.StatusVoid
	invoiceRepo.On("MarkVoid", mock.Anything, committed.ID).Return(&voided, true, nil)

	result, err := svc.VoidInvoice(ctx, committed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVoid, result.Status)
	require.NotNil(t, result.RANumber)
	assert.Equal(t, int64(1), *result.RANumber)

	// Voiding frees exactly the reserved quantity.
	balance, err := ledger.Remaining(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, balance.Remaining.Equal(dec("100")))
}

func TestVoidInvoice_AlreadyVoidIsNoOp(t *testing.T) {
	project := intraProject()
	item := boqItem(project.ID, "Excavation in soil", "100", "250", "18")

	ra := int64(1)
	invoice := &domain.Invoice{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		RANumber:  &ra,
		Status:    domain.StatusVoid,
		LineItems: []domain.InvoiceLineItem{{BOQItemID: item.ID, Quantity: dec("60")}},
	}

	svc, invoiceRepo, ledger := newBillingService(project, []domain.BOQItem{item})
	invoiceRepo.On("MarkVoid", mock.Anything, invoice.ID).Return(invoice, false, nil)

	ctx := context.Background()
	before, err := ledger.Remaining(ctx, item.ID)
	require.NoError(t, err)

	result, err := svc.VoidInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVoid, result.Status)

	after, err := ledger.Remaining(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, after.Remaining.Equal(before.Remaining))
}

func TestVoidInvoice_ReleaseFailureSurfaces(t *testing.T) {
	project := intraProject()
	item := boqItem(project.ID, "Excavation in soil", "100", "250", "18")

	ra := int64(1)
	invoice := &domain.Invoice{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Kind:      domain.KindTaxInvoice,
		RANumber:  &ra,
		Status:    domain.StatusVoid,
		LineItems: []domain.InvoiceLineItem{{BOQItemID: item.ID, Quantity: dec("60")}},
	}

	projectRepo := new(mocks.MockProjectRepo)
	boqRepo := new(mocks.MockBOQItemRepo)
	invoiceRepo := new(mocks.MockInvoiceRepo)
	invoiceRepo.On("MarkVoid", mock.Anything, invoice.ID).Return(invoice, true, nil)

	ledger := new(mocks.MockQuantityLedger)
	ledger.On("Release", mock.Anything, item.ID, decEq("60")).Return(errors.New("db down"))

	svc := service.NewBillingService(projectRepo, boqRepo, invoiceRepo, ledger,
		new(mocks.MockRASequencer), config.LedgerConfig{ConflictRetries: 1})

	_, err := svc.VoidInvoice(context.Background(), invoice.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reconciliation")
	// The release is retried once before the failure surfaces.
	ledger.AssertNumberOfCalls(t, "Release", 2)
}

func TestRATracking_ComputedFromLedger(t *testing.T) {
	project := intraProject()
	item := boqItem(project.ID, "Excavation in soil", "100", "250", "18")
	item.BilledQty = dec("60")

	projectRepo := new(mocks.MockProjectRepo)
	projectRepo.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	boqRepo := new(mocks.MockBOQItemRepo)
	boqRepo.On("ListByProject", mock.Anything, project.ID).Return([]domain.BOQItem{item}, nil)
	invoiceRepo := new(mocks.MockInvoiceRepo)
	invoiceRepo.On("ListRANumbers", mock.Anything, project.ID).Return([]domain.RAEntry{
		{InvoiceID: uuid.New(), RANumber: 1, Status: domain.StatusCommitted},
		{InvoiceID: uuid.New(), RANumber: 2, Status: domain.StatusVoid},
	}, nil)

	svc := service.NewBillingService(projectRepo, boqRepo, invoiceRepo,
		new(mocks.MockQuantityLedger), new(mocks.MockRASequencer),
		config.LedgerConfig{ConflictRetries: 1})

	tracking, err := svc.RATracking(context.Background(), project.ID)
	require.NoError(t, err)

	require.Len(t, tracking.Items, 1)
	assert.True(t, tracking.Items[0].BilledQty.Equal(dec("60")))
	assert.True(t, tracking.Items[0].RemainingQty.Equal(dec("40")))

	// Voided invoices keep their number in the issued list.
	require.Len(t, tracking.RANumbers, 2)
	assert.Equal(t, int64(2), tracking.RANumbers[1].RANumber)
	assert.Equal(t, domain.StatusVoid, tracking.RANumbers[1].Status)
}

// Concurrent commits of 60 and 40 against an authorization of 100: either
// both land (total exactly 100) or one is rejected. A combined total above
// 100 is never valid.
func TestCreateInvoice_ConcurrentCommitsNeverOverbill(t *testing.T) {
	project := intraProject()
	item := boqItem(project.ID, "Excavation in soil", "100", "250", "18")
	svc, invoiceRepo, ledger := newBillingService(project, []domain.BOQItem{item})
	invoiceRepo.On("CreateCommitted", mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, qty := range []string{"60", "40"} {
		wg.Add(1)
		go func(i int, qty string) {
			defer wg.Done()
			_, errs[i] = svc.CreateInvoice(ctx, &service.CreateInvoiceInput{
				ProjectID: project.ID,
				Kind:      domain.KindTaxInvoice,
				Lines:     []service.InvoiceLineInput{{Reference: item.ID.String(), Quantity: dec(qty)}},
			})
		}(i, qty)
	}
	wg.Wait()

	balance, err := ledger.Remaining(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, balance.Billed.LessThanOrEqual(dec("100")),
		"billed %s exceeds authorization", balance.Billed)

	committed := decimal.Zero
	for i, qty := range []string{"60", "40"} {
		if errs[i] == nil {
			committed = committed.Add(dec(qty))
		}
	}
	assert.True(t, committed.Equal(balance.Billed))
}
