package pgsql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/proudcore/economy_ledger/internal/core/domain"
	portsrepo "github.com/proudcore/economy_ledger/internal/core/ports/repositories"
)

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates the durable append-only transaction log.
// There are deliberately no UPDATE or DELETE statements in this file.
func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

const appendTransactionQuery = `
	INSERT INTO transactions (id, account_id, currency_id, type, amount, balance_after, reason, actor_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9);
`

// AppendTransaction persists one ledger record.
func (r *PgxTransactionRepository) AppendTransaction(ctx context.Context, txn domain.Transaction) error {
	_, err := r.Pool.Exec(ctx, appendTransactionQuery,
		txn.ID,
		txn.AccountID.String(),
		txn.CurrencyID,
		string(txn.Type),
		txn.Amount,
		txn.BalanceAfter,
		txn.Reason,
		txn.ActorID,
		txn.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction %d: %w", txn.ID, err)
	}
	return nil
}

// AppendTransactionPair persists both legs of a transfer inside one database
// transaction so either both rows are durable or neither is.
func (r *PgxTransactionRepository) AppendTransactionPair(ctx context.Context, sent, received domain.Transaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction pair append: %w", err)
	}
	defer r.Rollback(ctx, tx)

	for _, txn := range []domain.Transaction{sent, received} {
		_, err := tx.Exec(ctx, appendTransactionQuery,
			txn.ID,
			txn.AccountID.String(),
			txn.CurrencyID,
			string(txn.Type),
			txn.Amount,
			txn.BalanceAfter,
			txn.Reason,
			txn.ActorID,
			txn.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to append transaction %d in pair: %w", txn.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction pair: %w", err)
	}
	return nil
}

// ListRecentByAccount returns the account's latest records, descending by id.
func (r *PgxTransactionRepository) ListRecentByAccount(ctx context.Context, accountID domain.AccountID, limit int) ([]domain.Transaction, error) {
	query := `
		SELECT id, account_id, currency_id, type, amount, balance_after, reason, actor_id, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, accountID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for %s: %w", accountID, err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0, limit)
	for rows.Next() {
		var txn domain.Transaction
		var account, txType string
		var reason, actorID sql.NullString
		if err := rows.Scan(&txn.ID, &account, &txn.CurrencyID, &txType, &txn.Amount, &txn.BalanceAfter, &reason, &actorID, &txn.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row for %s: %w", accountID, err)
		}
		txn.AccountID = domain.AccountID(account)
		txn.Type = domain.TransactionType(txType)
		txn.Reason = reason.String
		txn.ActorID = actorID.String
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transaction rows for %s: %w", accountID, err)
	}
	return txns, nil
}

// MaxTransactionID returns the highest assigned id, or 0 for an empty log.
func (r *PgxTransactionRepository) MaxTransactionID(ctx context.Context) (int64, error) {
	var maxID int64
	err := r.Pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM transactions;`).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("failed to query max transaction id: %w", err)
	}
	return maxID, nil
}
