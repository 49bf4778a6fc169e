// Package words renders rupee amounts in words using the Indian numbering system
// (Thousand, Lakh, Crore), as printed on bills and fee receipts.
package words

import (
	"strings"

	"ms-backoffice/internal/apperr"

	"github.com/shopspring/decimal"
)

var (
	underTwenty = []string{
		"Zero", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tens = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}

	hundred = decimal.NewFromInt(100)
)

const (
	thousand = 1_000
	lakh     = 100_000
	crore    = 10_000_000
)

// ToWords converts a non-negative amount into "<rupees> Rupees[ and <paise> Paise] Only".
// Paise are rounded half-up; 100 paise carry into the rupees.
func ToWords(amount decimal.Decimal) (string, error) {
	if amount.IsNegative() {
		return "", apperr.Invalid("amount", "amount must not be negative")
	}

	rupees := amount.Truncate(0)
	paise := amount.Sub(rupees).Mul(hundred).Round(0).IntPart()
	if paise == 100 {
		rupees = rupees.Add(decimal.NewFromInt(1))
		paise = 0
	}

	var b strings.Builder
	b.WriteString(integerWords(rupees))
	b.WriteString(" Rupees")
	if paise > 0 {
		b.WriteString(" and ")
		b.WriteString(Integer(paise))
		b.WriteString(" Paise")
	}
	b.WriteString(" Only")
	return b.String(), nil
}

// FromString parses s as a decimal amount and converts it.
func FromString(s string) (string, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return "", apperr.Invalid("amount", "amount must be a number")
	}
	return ToWords(amount)
}

// Integer renders a non-negative integer in words.
func Integer(n int64) string {
	switch {
	case n < 20:
		return underTwenty[n]
	case n < 100:
		return join(tens[n/10], n%10, func(r int64) string { return underTwenty[r] })
	case n < thousand:
		return join(underTwenty[n/100]+" Hundred", n%100, Integer)
	case n < lakh:
		return join(Integer(n/thousand)+" Thousand", n%thousand, Integer)
	case n < crore:
		return join(Integer(n/lakh)+" Lakh", n%lakh, Integer)
	default:
		return join(Integer(n/crore)+" Crore", n%crore, Integer)
	}
}

func join(head string, rest int64, tail func(int64) string) string {
	if rest == 0 {
		return head
	}
	return head + " " + tail(rest)
}

// integerWords handles rupee values beyond int64 by splitting on crore.
func integerWords(d decimal.Decimal) string {
	if d.LessThan(decimal.NewFromInt(1_000_000_000_000_000_000)) {
		return Integer(d.IntPart())
	}
	c := decimal.NewFromInt(crore)
	head := integerWords(d.Div(c).Truncate(0))
	rest := d.Mod(c).IntPart()
	return join(head+" Crore", rest, Integer)
}
