// Package memory provides in-memory implementations of the quantity ledger
// and RA sequencer with the same compare-and-swap semantics as the
// PostgreSQL versions. They back the concurrency tests and are handy for
// local experiments without a database.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rabill/internal/domain"
	"rabill/internal/port"
)

type ledgerEntry struct {
	authorized decimal.Decimal
	billed     decimal.Decimal
	version    int64
}

// Ledger is a mutex-guarded QuantityLedger keyed by BOQ item id.
type Ledger struct {
	mu    sync.Mutex
	items map[uuid.UUID]*ledgerEntry
	descs map[uuid.UUID]string
}

var _ port.QuantityLedger = (*Ledger)(nil)

// NewLedger seeds a ledger from catalog items, carrying over any billed
// quantity and version already present.
func NewLedger(items []domain.BOQItem) *Ledger {
	l := &Ledger{
		items: make(map[uuid.UUID]*ledgerEntry, len(items)),
		descs: make(map[uuid.UUID]string, len(items)),
	}
	for _, item := range items {
		version := item.Version
		if version == 0 {
			version = 1
		}
		l.items[item.ID] = &ledgerEntry{
			authorized: item.AuthorizedQty,
			billed:     item.BilledQty,
			version:    version,
		}
		l.descs[item.ID] = item.Description
	}
	return l
}

func (l *Ledger) Remaining(_ context.Context, itemID uuid.UUID) (*domain.ItemBalance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.items[itemID]
	if !ok {
		return nil, domain.ErrUnknownItem
	}
	return &domain.ItemBalance{
		ItemID:     itemID,
		Authorized: entry.authorized,
		Billed:     entry.billed,
		Remaining:  entry.authorized.Sub(entry.billed),
		Version:    entry.version,
	}, nil
}

func (l *Ledger) Reserve(_ context.Context, itemID uuid.UUID, qty decimal.Decimal, expectedVersion int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.items[itemID]
	if !ok {
		return 0, domain.ErrUnknownItem
	}
	if entry.version != expectedVersion {
		return 0, domain.ErrVersionConflict
	}
	if entry.billed.Add(qty).GreaterThan(entry.authorized) {
		return 0, &domain.QuantityExceededError{
			ItemID:      itemID,
			Description: l.descs[itemID],
			Requested:   qty,
			Remaining:   entry.authorized.Sub(entry.billed),
		}
	}
	entry.billed = entry.billed.Add(qty)
	entry.version++
	return entry.version, nil
}

func (l *Ledger) Release(_ context.Context, itemID uuid.UUID, qty decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.items[itemID]
	if !ok {
		return domain.ErrUnknownItem
	}
	entry.billed = entry.billed.Sub(qty)
	if entry.billed.IsNegative() {
		entry.billed = decimal.Zero
	}
	entry.version++
	return nil
}

// Sequencer is a mutex-guarded per-project RA counter starting at 1.
type Sequencer struct {
	mu   sync.Mutex
	next map[uuid.UUID]int64
}

var _ port.RASequencer = (*Sequencer)(nil)

// NewSequencer creates an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{next: make(map[uuid.UUID]int64)}
}

func (s *Sequencer) Next(_ context.Context, projectID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.next[projectID]
	if !ok {
		n = 1
	}
	s.next[projectID] = n + 1
	return n, nil
}
