package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the immutable definition of a unit of value. Currencies are
// loaded once at startup from configuration and never mutated afterwards.
type Currency struct {
	ID              string          `json:"id"`           // unique, lowercase, stable key (e.g. "coins")
	NameSingular    string          `json:"nameSingular"` // e.g. "Coin"
	NamePlural      string          `json:"namePlural"`   // e.g. "Coins"
	Symbol          string          `json:"symbol"`       // short display symbol, e.g. "⛃"
	StartingBalance decimal.Decimal `json:"startingBalance"`
	MaxBalance      decimal.Decimal `json:"maxBalance"` // negative means unlimited
	DecimalPlaces   int             `json:"decimalPlaces"`
	IsPrimary       bool            `json:"isPrimary"` // at most one per catalog
}

// Unlimited reports whether this currency has no balance cap.
func (c Currency) Unlimited() bool {
	return c.MaxBalance.IsNegative()
}

// Name returns the singular or plural display name depending on amount.
func (c Currency) Name(amount decimal.Decimal) string {
	if amount.Equal(decimal.NewFromInt(1)) {
		return c.NameSingular
	}
	return c.NamePlural
}

// Format renders an amount using the currency's symbol and decimal places,
// with the integer part grouped by thousands, e.g. "⛃ 1,250".
func (c Currency) Format(amount decimal.Decimal) string {
	return c.Symbol + " " + groupThousands(amount.StringFixed(int32(c.DecimalPlaces)))
}

// groupThousands inserts comma separators into the integer part of a plain
// decimal string. The sign and fractional part are preserved as-is.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
		fracPart = s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + fracPart
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + fracPart
}
