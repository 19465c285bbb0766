// Package billing holds the invoice arithmetic, numbering and lifecycle rules.
package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"invoicing/internal/apperr"
)

// MaxScale is the number of decimal places accepted for quantities and prices.
const MaxScale = 2

// CurrencyScale is the precision tax amounts are rounded to.
const CurrencyScale = 2

// RateScale matches the decimal(7,4) tax rate column.
const RateScale = 4

var (
	hundred = decimal.NewFromInt(100) // Percent divisor
)

// Line is one priced line of an invoice.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Total returns quantity × unit price, unrounded.
func (l Line) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Totals is the result of pricing an invoice.
type Totals struct {
	Lines     []decimal.Decimal // per-line totals, same order as input
	Subtotal  decimal.Decimal
	TaxRate   decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// Calculate prices lines at taxRate percent.
//
// Subtotal and line totals are exact. The tax amount is rounded half away
// from zero to CurrencyScale, and Total is always Subtotal + TaxAmount.
func Calculate(lines []Line, taxRate decimal.Decimal) (Totals, error) {
	if err := validate(lines, taxRate); err != nil {
		return Totals{}, err
	}
	t := Totals{Lines: make([]decimal.Decimal, len(lines)), TaxRate: taxRate}
	for i, l := range lines {
		t.Lines[i] = l.Total()
		t.Subtotal = t.Subtotal.Add(t.Lines[i])
	}
	t.TaxAmount = TaxOn(t.Subtotal, taxRate)
	t.Total = t.Subtotal.Add(t.TaxAmount)
	return t, nil
}

// TaxOn returns subtotal × rate / 100 rounded to CurrencyScale.
func TaxOn(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate).Div(hundred).Round(CurrencyScale)
}

// ValidateTaxRate rejects rates outside [0,100] or finer than RateScale,
// so the stored rate always reproduces the stored tax.
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return apperr.Field("taxRate", "must be between 0 and 100")
	}
	if !rate.Equal(rate.Truncate(RateScale)) {
		return apperr.Field("taxRate", fmt.Sprintf("at most %d decimal places", RateScale))
	}
	return nil
}

func validate(lines []Line, taxRate decimal.Decimal) error {
	fields := map[string]string{}
	if len(lines) == 0 {
		fields["items"] = "at least one item is required"
	}
	for i, l := range lines {
		switch {
		case !l.Quantity.IsPositive():
			fields[fmt.Sprintf("items[%d].quantity", i)] = "must be positive"
		case exceedsScale(l.Quantity):
			fields[fmt.Sprintf("items[%d].quantity", i)] = "at most 2 decimal places"
		}
		switch {
		case l.UnitPrice.IsNegative():
			fields[fmt.Sprintf("items[%d].unitPrice", i)] = "must not be negative"
		case exceedsScale(l.UnitPrice):
			fields[fmt.Sprintf("items[%d].unitPrice", i)] = "at most 2 decimal places"
		}
	}
	var rateErr *apperr.Error
	if errors.As(ValidateTaxRate(taxRate), &rateErr) {
		fields["taxRate"] = rateErr.Fields["taxRate"]
	}
	if len(fields) > 0 {
		return apperr.Validation("Invalid invoice amounts", fields)
	}
	return nil
}

func exceedsScale(d decimal.Decimal) bool {
	return !d.Equal(d.Truncate(MaxScale))
}
