package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ComputeAmount prices one line: cbm * qty * rate. A zero cbm counts as 1 so
// flat fees (documentation, THC) price as qty * rate.
func ComputeAmount(cbm, qty, rate Number) decimal.Decimal {
	effectiveCBM := cbm.Decimal()
	if effectiveCBM.IsZero() {
		effectiveCBM = decimal.NewFromInt(1)
	}
	return effectiveCBM.Mul(qty.Decimal()).Mul(rate.Decimal())
}

// Recompute sets Amount from the pricing fields and drops any manual override.
func (li *LineItem) Recompute() {
	li.Amount = NumberOf(ComputeAmount(li.CBM, li.Qty, li.Rate))
	li.AmountOverridden = false
}

// Totals are the invoice aggregates. Total equals Subtotal until a tax or fee
// layer exists; they stay separate fields so callers do not conflate them.
type Totals struct {
	Subtotal decimal.Decimal
	TotalCBM decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums stored amounts and raw cbm values over items.
func ComputeTotals(items []LineItem) Totals {
	subtotal := decimal.Zero
	totalCBM := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount.Decimal())
		totalCBM = totalCBM.Add(item.CBM.Decimal())
	}
	return Totals{
		Subtotal: subtotal,
		TotalCBM: totalCBM,
		Total:    subtotal,
	}
}

// MarshalJSON writes the totals as JSON numbers.
func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]json.RawMessage{
		"subtotal": json.RawMessage(t.Subtotal.String()),
		"totalCbm": json.RawMessage(t.TotalCBM.String()),
		"total":    json.RawMessage(t.Total.String()),
	})
}

// CurrencySymbol returns the display symbol, "$" for anything unknown.
func CurrencySymbol(c Currency) string {
	switch c {
	case CurrencyGHS:
		return "₵"
	case CurrencyUSD:
		return "$"
	default:
		return "$"
	}
}

// FormatMoney renders a currency amount with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatCBM renders a volume total with four decimals.
func FormatCBM(d decimal.Decimal) string {
	return d.StringFixed(4)
}
