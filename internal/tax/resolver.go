// Package tax computes GST splits for invoice lines. All functions are
// pure: the only failure mode is an invalid rate.
package tax

import (
	"github.com/shopspring/decimal"

	"rabill/internal/domain"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// IntraState reports whether the supply is within one state, which selects
// the dual CGST+SGST split instead of a single IGST component.
func IntraState(companyStateCode, clientStateCode string) bool {
	return companyStateCode != "" && companyStateCode == clientStateCode
}

// ComputeLine returns the tax breakdown for one line. ratePercent is the
// item's tax rate as a percentage. Intra-state supplies split the tax into
// two equal halves; inter-state supplies carry it as IGST alone.
func ComputeLine(base, ratePercent decimal.Decimal, intraState bool) (domain.TaxBreakdown, error) {
	if ratePercent.IsNegative() {
		return domain.TaxBreakdown{}, domain.ErrInvalidTaxRate
	}

	if !intraState {
		total := base.Mul(ratePercent).Div(hundred).Round(2)
		return domain.TaxBreakdown{
			CGST:     decimal.Zero,
			SGST:     decimal.Zero,
			IGST:     total,
			TotalTax: total,
		}, nil
	}

	// Round the half, not the total, so cgst == sgst holds exactly and
	// total_tax is their sum.
	half := base.Mul(ratePercent).Div(hundred).Div(two).Round(2)
	return domain.TaxBreakdown{
		CGST:     half,
		SGST:     half,
		IGST:     decimal.Zero,
		TotalTax: half.Mul(two),
	}, nil
}

// Aggregate sums per-line breakdowns into the invoice-level totals.
func Aggregate(lines []domain.TaxBreakdown) domain.TaxBreakdown {
	sum := domain.TaxBreakdown{
		CGST:     decimal.Zero,
		SGST:     decimal.Zero,
		IGST:     decimal.Zero,
		TotalTax: decimal.Zero,
	}
	for _, l := range lines {
		sum = sum.Add(l)
	}
	return sum
}
