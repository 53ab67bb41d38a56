// Package matcher resolves invoice line references to BOQ items.
//
// An id reference is authoritative. Free-text references are a legacy
// compatibility fallback: they are normalized and matched against the
// catalog's normalized descriptions, and any ambiguity fails loud instead
// of guessing.
package matcher

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"rabill/internal/domain"
)

// ResolutionKind tags the outcome of a reference lookup.
type ResolutionKind string

const (
	Resolved  ResolutionKind = "resolved"
	NotFound  ResolutionKind = "not_found"
	Ambiguous ResolutionKind = "ambiguous"
)

// Resolution is the outcome of resolving one line reference.
// Item is set only when Kind == Resolved; Candidates only when Ambiguous.
type Resolution struct {
	Kind       ResolutionKind
	Item       *domain.BOQItem
	Candidates []domain.BOQItem
}

var (
	// Trailing qualifier clauses appended for human readability, e.g.
	// "(as per drawing)" or "- First Invoice". Stripped before matching.
	trailingParen  = regexp.MustCompile(`\s*\([^()]*\)\s*$`)
	trailingClause = regexp.MustCompile(`\s+[-–]\s+[^-–]*$`)
	punctuation    = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	whitespace     = regexp.MustCompile(`\s+`)
)

// Normalize lowercases a description, strips trailing qualifier clauses and
// punctuation, and collapses whitespace. The clause grammar removes one
// trailing parenthetical group and one trailing " - ..." suffix.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = trailingParen.ReplaceAllString(s, "")
	s = trailingClause.ReplaceAllString(s, "")
	s = punctuation.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Matcher resolves references against a single project's BOQ catalog.
type Matcher struct {
	byID   map[uuid.UUID]*domain.BOQItem
	byDesc map[string][]*domain.BOQItem
}

// New builds a matcher over the project's catalog items.
func New(items []domain.BOQItem) *Matcher {
	m := &Matcher{
		byID:   make(map[uuid.UUID]*domain.BOQItem, len(items)),
		byDesc: make(map[string][]*domain.BOQItem, len(items)),
	}
	for i := range items {
		item := &items[i]
		m.byID[item.ID] = item
		key := item.NormalizedDesc
		if key == "" {
			key = Normalize(item.Description)
		}
		m.byDesc[key] = append(m.byDesc[key], item)
	}
	return m
}

// Resolve maps a line reference to at most one BOQ item. A reference that
// parses as a UUID is looked up by id only; anything else goes through
// normalized-description matching.
func (m *Matcher) Resolve(ref string) Resolution {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		if item, ok := m.byID[id]; ok {
			return Resolution{Kind: Resolved, Item: item}
		}
		return Resolution{Kind: NotFound}
	}

	matches := m.byDesc[Normalize(ref)]
	switch len(matches) {
	case 0:
		return Resolution{Kind: NotFound}
	case 1:
		return Resolution{Kind: Resolved, Item: matches[0]}
	default:
		candidates := make([]domain.BOQItem, len(matches))
		for i, it := range matches {
			candidates[i] = *it
		}
		return Resolution{Kind: Ambiguous, Candidates: candidates}
	}
}
