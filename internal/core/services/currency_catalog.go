package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/proudcore/economy_ledger/internal/apperrors"
	"github.com/proudcore/economy_ledger/internal/core/domain"
	portssvc "github.com/proudcore/economy_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// currencyCatalog is the static, read-mostly registry of currency definitions.
// It is fully validated at construction and never mutated afterwards, so all
// reads are lock-free.
type currencyCatalog struct {
	byID    map[string]domain.Currency
	ordered []domain.Currency
	primary domain.Currency
}

// NewCurrencyCatalog validates the loaded definitions and builds the catalog.
// Exactly one currency must be marked primary; a violation is startup-fatal.
func NewCurrencyCatalog(currencies []domain.Currency) (portssvc.CurrencyCatalogSvcFacade, error) {
	if len(currencies) == 0 {
		return nil, fmt.Errorf("%w: no currencies defined", apperrors.ErrValidation)
	}

	byID := make(map[string]domain.Currency, len(currencies))
	var primary *domain.Currency
	for _, cur := range currencies {
		if cur.ID == "" || cur.ID != strings.ToLower(cur.ID) {
			return nil, fmt.Errorf("%w: currency id %q must be non-empty and lowercase", apperrors.ErrValidation, cur.ID)
		}
		if _, exists := byID[cur.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate currency id %q", apperrors.ErrValidation, cur.ID)
		}
		if cur.StartingBalance.IsNegative() {
			return nil, fmt.Errorf("%w: currency %q has negative starting balance", apperrors.ErrValidation, cur.ID)
		}
		if cur.DecimalPlaces < 0 {
			return nil, fmt.Errorf("%w: currency %q has negative decimal places", apperrors.ErrValidation, cur.ID)
		}
		if !cur.Unlimited() && cur.StartingBalance.GreaterThan(cur.MaxBalance) {
			return nil, fmt.Errorf("%w: currency %q starting balance exceeds max balance", apperrors.ErrValidation, cur.ID)
		}
		if cur.IsPrimary {
			if primary != nil {
				return nil, fmt.Errorf("%w: both %q and %q are marked primary", apperrors.ErrValidation, primary.ID, cur.ID)
			}
			p := cur
			primary = &p
		}
		byID[cur.ID] = cur
	}
	if primary == nil {
		return nil, apperrors.ErrNoPrimaryCurrency
	}

	ordered := make([]domain.Currency, len(currencies))
	copy(ordered, currencies)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	return &currencyCatalog{byID: byID, ordered: ordered, primary: *primary}, nil
}

var _ portssvc.CurrencyCatalogSvcFacade = (*currencyCatalog)(nil)

func (c *currencyCatalog) Get(currencyID string) (domain.Currency, error) {
	cur, ok := c.byID[currencyID]
	if !ok {
		return domain.Currency{}, fmt.Errorf("%w: %q", apperrors.ErrCurrencyNotFound, currencyID)
	}
	return cur, nil
}

func (c *currencyCatalog) All() []domain.Currency {
	out := make([]domain.Currency, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *currencyCatalog) Primary() domain.Currency {
	return c.primary
}

// Format never fails: an unknown currency renders with a plain two-decimal
// fallback so display code has no error path.
func (c *currencyCatalog) Format(currencyID string, amount decimal.Decimal) string {
	cur, ok := c.byID[currencyID]
	if !ok {
		return amount.StringFixed(2) + " " + currencyID
	}
	return cur.Format(amount)
}
