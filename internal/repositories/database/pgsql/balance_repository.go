package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/proudcore/economy_ledger/internal/apperrors"
	"github.com/proudcore/economy_ledger/internal/core/domain"
	portsrepo "github.com/proudcore/economy_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

type PgxBalanceRepository struct {
	BaseRepository
}

// newPgxBalanceRepository creates the durable store for balance rows.
func newPgxBalanceRepository(pool *pgxpool.Pool) portsrepo.BalanceRepositoryFacade {
	return &PgxBalanceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BalanceRepositoryFacade = (*PgxBalanceRepository)(nil)

// FindBalance retrieves the stored amount for one account/currency pair.
func (r *PgxBalanceRepository) FindBalance(ctx context.Context, accountID domain.AccountID, currencyID string) (decimal.Decimal, error) {
	query := `
		SELECT amount
		FROM balances
		WHERE account_id = $1 AND currency_id = $2;
	`
	var amount decimal.Decimal
	err := r.Pool.QueryRow(ctx, query, accountID.String(), currencyID).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperrors.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to find balance for %s/%s: %w", accountID, currencyID, err)
	}
	return amount, nil
}

// FindBalancesByAccount retrieves all stored amounts for one account.
func (r *PgxBalanceRepository) FindBalancesByAccount(ctx context.Context, accountID domain.AccountID) (map[string]decimal.Decimal, error) {
	query := `
		SELECT currency_id, amount
		FROM balances
		WHERE account_id = $1;
	`
	rows, err := r.Pool.Query(ctx, query, accountID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query balances for %s: %w", accountID, err)
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var currencyID string
		var amount decimal.Decimal
		if err := rows.Scan(&currencyID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan balance row for %s: %w", accountID, err)
		}
		out[currencyID] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read balance rows for %s: %w", accountID, err)
	}
	return out, nil
}

// UpsertBalances writes the given rows in one batch, inserting or overwriting.
func (r *PgxBalanceRepository) UpsertBalances(ctx context.Context, balanceRows []domain.BalanceRow) error {
	if len(balanceRows) == 0 {
		return nil
	}

	query := `
		INSERT INTO balances (account_id, currency_id, amount, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, currency_id) DO UPDATE SET
			amount = EXCLUDED.amount,
			updated_at = EXCLUDED.updated_at;
	`
	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, row := range balanceRows {
		batch.Queue(query, row.AccountID.String(), row.CurrencyID, row.Amount, now)
	}

	results := r.Pool.SendBatch(ctx, batch)
	defer results.Close()
	for range balanceRows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert balances: %w", err)
		}
	}
	return nil
}

// TopBalances returns the top rows for a currency, descending by amount with
// ties broken by account id ascending for determinism.
func (r *PgxBalanceRepository) TopBalances(ctx context.Context, currencyID string, limit int) ([]domain.BalanceEntry, error) {
	query := `
		SELECT account_id, amount
		FROM balances
		WHERE currency_id = $1
		ORDER BY amount DESC, account_id ASC
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, currencyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top balances for %s: %w", currencyID, err)
	}
	defer rows.Close()

	entries := make([]domain.BalanceEntry, 0, limit)
	for rows.Next() {
		var entry domain.BalanceEntry
		var accountID string
		if err := rows.Scan(&accountID, &entry.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan top balance row for %s: %w", currencyID, err)
		}
		entry.AccountID = domain.AccountID(accountID)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read top balance rows for %s: %w", currencyID, err)
	}
	return entries, nil
}
