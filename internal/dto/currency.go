package dto

import (
	"github.com/proudcore/economy_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CurrencyResponse defines the data returned for a currency.
type CurrencyResponse struct {
	ID              string          `json:"id"`
	NameSingular    string          `json:"nameSingular"`
	NamePlural      string          `json:"namePlural"`
	Symbol          string          `json:"symbol"`
	StartingBalance decimal.Decimal `json:"startingBalance"`
	MaxBalance      decimal.Decimal `json:"maxBalance"`
	Unlimited       bool            `json:"unlimited"`
	DecimalPlaces   int             `json:"decimalPlaces"`
	IsPrimary       bool            `json:"isPrimary"`
}

// ToCurrencyResponse converts a domain.Currency to its DTO.
func ToCurrencyResponse(cur domain.Currency) CurrencyResponse {
	return CurrencyResponse{
		ID:              cur.ID,
		NameSingular:    cur.NameSingular,
		NamePlural:      cur.NamePlural,
		Symbol:          cur.Symbol,
		StartingBalance: cur.StartingBalance,
		MaxBalance:      cur.MaxBalance,
		Unlimited:       cur.Unlimited(),
		DecimalPlaces:   cur.DecimalPlaces,
		IsPrimary:       cur.IsPrimary,
	}
}

// ToListCurrencyResponse converts a slice of currencies to DTOs.
func ToListCurrencyResponse(currencies []domain.Currency) []CurrencyResponse {
	out := make([]CurrencyResponse, len(currencies))
	for i, cur := range currencies {
		out[i] = ToCurrencyResponse(cur)
	}
	return out
}
