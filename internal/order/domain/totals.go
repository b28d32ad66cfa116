package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/warehouse-erp/pkg/apperr"
)

// MoneyScale is the number of decimal places kept on computed amounts
const MoneyScale = 4

var hundred = decimal.NewFromInt(100)

// LineAmounts are the pricing inputs of one line
type LineAmounts struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

// Totals are the derived amounts of an order
type Totals struct {
	LineTotals []decimal.Decimal
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	TaxRate    decimal.Decimal
	TaxAmount  decimal.Decimal
	Total      decimal.Decimal
}

// ComputeTotals derives line totals, subtotal, tax and total.
// Line totals and tax are rounded half-up to MoneyScale places, so
// Total == Subtotal - Discount + TaxAmount holds exactly.
func ComputeTotals(lines []LineAmounts, discount, taxRate decimal.Decimal) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, apperr.New(apperr.KindEmptyOrder, "order must have at least one line")
	}

	fields := map[string]string{}
	t := Totals{LineTotals: make([]decimal.Decimal, len(lines))}
	for i, l := range lines {
		switch {
		case !l.Quantity.IsPositive():
			fields[fmt.Sprintf("lines[%d].quantity", i)] = "must be greater than 0"
		case l.UnitPrice.IsNegative():
			fields[fmt.Sprintf("lines[%d].unit_price", i)] = "must be at least 0"
		case l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(hundred):
			fields[fmt.Sprintf("lines[%d].discount_percent", i)] = "must be between 0 and 100"
		default:
			gross := l.Quantity.Mul(l.UnitPrice)
			off := gross.Mul(l.DiscountPercent).Div(hundred)
			t.LineTotals[i] = gross.Sub(off).Round(MoneyScale)
			t.Subtotal = t.Subtotal.Add(t.LineTotals[i])
		}
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		fields["tax_rate"] = "must be between 0 and 1"
	}
	if discount.IsNegative() {
		fields["discount_amount"] = "must be at least 0"
	}
	if len(fields) > 0 {
		return Totals{}, apperr.Validation(fields)
	}
	if discount.GreaterThan(t.Subtotal) {
		return Totals{}, apperr.InvalidField("discount_amount", "must not exceed the subtotal")
	}

	t.Discount = discount
	t.TaxRate = taxRate
	t.TaxAmount = t.Subtotal.Sub(discount).Mul(taxRate).Round(MoneyScale)
	t.Total = t.Subtotal.Sub(discount).Add(t.TaxAmount)
	return t, nil
}

// Matches reports whether the order's stored amounts equal t
func (o *Order) Matches(t Totals) bool {
	if len(o.Lines) != len(t.LineTotals) {
		return false
	}
	for i := range o.Lines {
		if !o.Lines[i].LineTotal.Equal(t.LineTotals[i]) {
			return false
		}
	}
	return o.Subtotal.Equal(t.Subtotal) &&
		o.DiscountAmount.Equal(t.Discount) &&
		o.TaxAmount.Equal(t.TaxAmount) &&
		o.Total.Equal(t.Total)
}
