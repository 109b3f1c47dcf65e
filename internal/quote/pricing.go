package quote

import (
	"github.com/shopspring/decimal"
)

// Totals is the full derivation result for one ledger. TaxableBase is
// equipment plus materials; labor is exempt.
type Totals struct {
	Equipment   decimal.Decimal
	Labor       decimal.Decimal
	Materials   decimal.Decimal
	Subtotal    decimal.Decimal
	TaxableBase decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	Cost        decimal.Decimal
	Profit      decimal.Decimal
}

var (
	hundred      = decimal.NewFromInt(100)
	minusHundred = decimal.NewFromInt(-100)
)

// DeriveTotals maps a ledger and the quote-level rates to a totals record.
// It is pure: same inputs always produce identical outputs, and it must be
// re-run after every ledger mutation.
//
// Cost is back-solved from the target sell-side margin
// (cost = subtotal / (1 + margin/100)) because there is no independent cost
// data source; the margin percent is an input assumption. A margin at or
// below -100 makes that formula meaningless and is rejected rather than
// producing Inf/NaN or a negative cost.
func DeriveTotals(items []LineItem, taxRate, marginPercent decimal.Decimal) (Totals, error) {
	if marginPercent.Cmp(minusHundred) <= 0 {
		return Totals{}, &ValidationError{Field: "margin_percent", Reason: "must be greater than -100"}
	}

	var t Totals

	for _, item := range items {
		switch item.Type {
		case ItemEquipment:
			t.Equipment = t.Equipment.Add(item.Total)
		case ItemLabor:
			t.Labor = t.Labor.Add(item.Total)
		default:
			// Materials and anything uncategorized share a bucket.
			t.Materials = t.Materials.Add(item.Total)
		}
	}

	t.Subtotal = t.Equipment.Add(t.Labor).Add(t.Materials)
	t.TaxableBase = t.Equipment.Add(t.Materials)
	t.Tax = t.TaxableBase.Mul(taxRate).Round(2)
	t.Total = t.Subtotal.Add(t.Tax)

	divisor := decimal.NewFromInt(1).Add(marginPercent.Div(hundred))
	t.Cost = t.Subtotal.Div(divisor).Round(2)
	t.Profit = t.Subtotal.Sub(t.Cost)

	return t, nil
}
