package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/proudcore/economy_ledger/internal/apperrors"
	"github.com/proudcore/economy_ledger/internal/core/domain"
	portsrepo "github.com/proudcore/economy_ledger/internal/core/ports/repositories"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// TransactionLedger is the append-only, time-ordered log of every
// balance-affecting event. Ids are monotonically increasing and globally
// unique; records are never updated or deleted.
type TransactionLedger struct {
	repo   portsrepo.TransactionRepositoryFacade
	lastID atomic.Int64
}

// NewTransactionLedger seeds the id counter from the durable maximum so ids
// stay monotonic across restarts.
func NewTransactionLedger(ctx context.Context, repo portsrepo.TransactionRepositoryFacade) (*TransactionLedger, error) {
	maxID, err := repo.MaxTransactionID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: seeding transaction id counter: %v", apperrors.ErrPersistence, err)
	}
	l := &TransactionLedger{repo: repo}
	l.lastID.Store(maxID)
	return l, nil
}

// NextID claims the next ledger id. Ids must be claimed in balance commit
// order or replaying an account's records in ascending id order would not
// reproduce its balance sequence, so callers hand NextID to the balance
// store's commit section instead of calling it afterwards.
func (l *TransactionLedger) NextID() int64 {
	return l.lastID.Add(1)
}

// Append persists a record whose id was already claimed through NextID. On
// failure the record does not exist and the surrounding operation must treat
// itself as failed; the claimed id is abandoned, leaving a gap.
func (l *TransactionLedger) Append(ctx context.Context, txn domain.Transaction) error {
	if err := l.repo.AppendTransaction(ctx, txn); err != nil {
		return fmt.Errorf("%w: appending transaction %d: %v", apperrors.ErrPersistence, txn.ID, err)
	}
	return nil
}

// AppendPair persists the two legs of a transfer atomically. Both ids were
// claimed by the legs' commits.
func (l *TransactionLedger) AppendPair(ctx context.Context, sent, received domain.Transaction) error {
	if err := l.repo.AppendTransactionPair(ctx, sent, received); err != nil {
		return fmt.Errorf("%w: appending transfer pair %d/%d: %v", apperrors.ErrPersistence, sent.ID, received.ID, err)
	}
	return nil
}

// Recent returns the account's latest records, most-recent-first. Non-positive
// limits clamp to a safe default; excessive limits clamp to a ceiling.
func (l *TransactionLedger) Recent(ctx context.Context, accountID domain.AccountID, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	txns, err := l.repo.ListRecentByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: listing transactions for %s: %v", apperrors.ErrPersistence, accountID, err)
	}
	return txns, nil
}
