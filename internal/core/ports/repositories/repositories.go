// Package repositories defines the persistence interfaces the core services
// depend on. Implementations live under internal/repositories.
package repositories

import (
	"context"

	"github.com/proudcore/economy_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceRepositoryFacade is the durable side of the balance store.
type BalanceRepositoryFacade interface {
	// FindBalance returns the stored amount for the pair, or
	// apperrors.ErrNotFound when the pair has never been flushed.
	FindBalance(ctx context.Context, accountID domain.AccountID, currencyID string) (decimal.Decimal, error)

	// FindBalancesByAccount returns all stored amounts for the account keyed
	// by currency id. An account with no rows yields an empty map, not an error.
	FindBalancesByAccount(ctx context.Context, accountID domain.AccountID) (map[string]decimal.Decimal, error)

	// UpsertBalances writes the given rows, inserting or overwriting. Must be
	// idempotent; it is the target of the bulk flush.
	UpsertBalances(ctx context.Context, rows []domain.BalanceRow) error

	// TopBalances returns up to limit rows for the currency, descending by
	// amount, ties broken by account id ascending.
	TopBalances(ctx context.Context, currencyID string, limit int) ([]domain.BalanceEntry, error)
}

// TransactionRepositoryFacade is the durable, append-only transaction log.
// There are deliberately no update or delete methods.
type TransactionRepositoryFacade interface {
	// AppendTransaction persists one record. The caller assigns the id.
	AppendTransaction(ctx context.Context, txn domain.Transaction) error

	// AppendTransactionPair persists the two legs of a transfer atomically:
	// either both rows are durable or neither is.
	AppendTransactionPair(ctx context.Context, sent domain.Transaction, received domain.Transaction) error

	// ListRecentByAccount returns up to limit records for the account,
	// most-recent-first (descending id).
	ListRecentByAccount(ctx context.Context, accountID domain.AccountID, limit int) ([]domain.Transaction, error)

	// MaxTransactionID returns the highest assigned id, or 0 when the log is empty.
	MaxTransactionID(ctx context.Context) (int64, error)
}

// RepositoryProvider bundles the repositories handed to the service container.
type RepositoryProvider struct {
	Balance     BalanceRepositoryFacade
	Transaction TransactionRepositoryFacade
}
