// Package services defines the service facades exposed by the core to
// handlers and other collaborators.
package services

import (
	"context"

	"github.com/proudcore/economy_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CurrencyCatalogSvcFacade is the read-only registry of currency definitions.
type CurrencyCatalogSvcFacade interface {
	// Get returns the currency registered under id, or apperrors.ErrCurrencyNotFound.
	Get(currencyID string) (domain.Currency, error)

	// All returns every registered currency, ordered by id ascending.
	All() []domain.Currency

	// Primary returns the single currency marked primary. Catalog construction
	// guarantees exactly one exists.
	Primary() domain.Currency

	// Format renders the amount with the currency's display settings. Unknown
	// currencies render with a generic fallback; Format never fails.
	Format(currencyID string, amount decimal.Decimal) string
}

// EconomySvcFacade is the ledger operation engine: the only component allowed
// to mutate balances. Every mutating operation is atomic; a failure leaves no
// observable partial effect.
type EconomySvcFacade interface {
	// GetBalance returns the account's balance, seeding the pair with the
	// currency's starting balance on first touch.
	GetBalance(ctx context.Context, accountID domain.AccountID, currencyID string) (decimal.Decimal, error)

	// GetAllBalances returns the account's balance for every registered
	// currency, keyed by currency id.
	GetAllBalances(ctx context.Context, accountID domain.AccountID) (map[string]decimal.Decimal, error)

	// Has reports whether the account holds at least amount of the currency.
	Has(ctx context.Context, accountID domain.AccountID, currencyID string, amount decimal.Decimal) (bool, error)

	Deposit(ctx context.Context, accountID domain.AccountID, currencyID string, amount decimal.Decimal, reason string) domain.OperationResult
	Withdraw(ctx context.Context, accountID domain.AccountID, currencyID string, amount decimal.Decimal, reason string) domain.OperationResult

	// Set unconditionally sets the balance, bypassing the currency cap.
	// Admin-only by convention; the engine does not check authority.
	Set(ctx context.Context, accountID domain.AccountID, currencyID string, amount decimal.Decimal, reason string) domain.OperationResult

	// Transfer moves amount between two accounts as one atomic unit.
	Transfer(ctx context.Context, from, to domain.AccountID, currencyID string, amount decimal.Decimal, reason string) domain.OperationResult

	// GetClanBalance returns the clan bank balance for the currency.
	GetClanBalance(ctx context.Context, clanName string, currencyID string) (decimal.Decimal, error)

	// ClanDeposit and ClanWithdraw operate on the clan bank account. The
	// acting member is recorded for audit only; the engine performs no
	// leader/authority check — that is the caller's responsibility.
	ClanDeposit(ctx context.Context, clanName string, currencyID string, amount decimal.Decimal, memberUUID string) domain.OperationResult
	ClanWithdraw(ctx context.Context, clanName string, currencyID string, amount decimal.Decimal, memberUUID string) domain.OperationResult

	// TopBalances returns the top accounts by balance for the currency,
	// descending, ties broken by account id ascending.
	TopBalances(ctx context.Context, currencyID string, limit int) ([]domain.BalanceEntry, error)

	// Transactions returns the account's most recent ledger records.
	Transactions(ctx context.Context, accountID domain.AccountID, limit int) ([]domain.Transaction, error)

	// SaveAll flushes all cached balances durably. Idempotent and heavy;
	// never call it from a latency-sensitive path.
	SaveAll(ctx context.Context) error
}

// ServiceContainer carries the constructed services through the application.
type ServiceContainer struct {
	Catalog CurrencyCatalogSvcFacade
	Economy EconomySvcFacade
}
