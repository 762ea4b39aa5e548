package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/proudcore/economy_ledger/internal/apperrors"
	"github.com/proudcore/economy_ledger/internal/core/domain"
	portsrepo "github.com/proudcore/economy_ledger/internal/core/ports/repositories"
	portssvc "github.com/proudcore/economy_ledger/internal/core/ports/services"
	"github.com/proudcore/economy_ledger/internal/middleware"
	"github.com/proudcore/economy_ledger/internal/platform/metrics"
	"github.com/shopspring/decimal"
)

type balanceKey struct {
	account  domain.AccountID
	currency string
}

type balanceEntry struct {
	amount decimal.Decimal
	dirty  bool
}

// BalanceStore holds the authoritative current balance per (account, currency)
// pair. Reads are cached; CompareAndSet is the sole mutation primitive. Dirty
// entries are flushed to the BalanceRepository in bulk.
type BalanceStore struct {
	mu      sync.Mutex
	entries map[balanceKey]*balanceEntry

	catalog portssvc.CurrencyCatalogSvcFacade
	repo    portsrepo.BalanceRepositoryFacade
}

// NewBalanceStore creates an empty store backed by the given repository.
func NewBalanceStore(catalog portssvc.CurrencyCatalogSvcFacade, repo portsrepo.BalanceRepositoryFacade) *BalanceStore {
	return &BalanceStore{
		entries: make(map[balanceKey]*balanceEntry),
		catalog: catalog,
		repo:    repo,
	}
}

// Get returns the current balance for the pair, creating the record seeded
// with the currency's starting balance on first access. It never fails for a
// known currency.
func (s *BalanceStore) Get(ctx context.Context, accountID domain.AccountID, currencyID string) (decimal.Decimal, error) {
	cur, err := s.catalog.Get(currencyID)
	if err != nil {
		return decimal.Zero, err
	}

	key := balanceKey{account: accountID, currency: currencyID}
	s.mu.Lock()
	if entry, ok := s.entries[key]; ok {
		amount := entry.amount
		s.mu.Unlock()
		return amount, nil
	}
	s.mu.Unlock()

	// Load outside the lock so disjoint pairs are never blocked on I/O.
	amount, err := s.repo.FindBalance(ctx, accountID, currencyID)
	seeded := false
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%w: loading balance for %s/%s: %v", apperrors.ErrPersistence, accountID, currencyID, err)
		}
		amount = cur.StartingBalance
		seeded = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[key]; ok {
		// Lost the race to another loader; its entry wins.
		return entry.amount, nil
	}
	// A seeded entry is dirty so the starting balance reaches durable storage
	// on the next flush.
	s.entries[key] = &balanceEntry{amount: amount, dirty: seeded}
	return amount, nil
}

// GetAll returns the account's balance for every registered currency. Cached
// values take precedence over durable rows; never-touched currencies report
// their starting balance.
func (s *BalanceStore) GetAll(ctx context.Context, accountID domain.AccountID) (map[string]decimal.Decimal, error) {
	stored, err := s.repo.FindBalancesByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading balances for %s: %v", apperrors.ErrPersistence, accountID, err)
	}

	out := make(map[string]decimal.Decimal)
	for _, cur := range s.catalog.All() {
		out[cur.ID] = cur.StartingBalance
	}
	for currencyID, amount := range stored {
		out[currencyID] = amount
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if key.account == accountID {
			out[key.currency] = entry.amount
		}
	}
	return out, nil
}

// CompareAndSet atomically replaces the stored amount with newAmount if it
// still equals expected. It returns false on a concurrent change; the caller
// retries. The pair must have been materialized by Get first.
func (s *BalanceStore) CompareAndSet(accountID domain.AccountID, currencyID string, expected, newAmount decimal.Decimal) bool {
	_, ok := s.CompareAndSetSeq(accountID, currencyID, expected, newAmount, nil)
	return ok
}

// CompareAndSetSeq is CompareAndSet with a commit-ordered sequence claim: on
// success, claim runs while the lock is still held, so the sequence numbers it
// issues are ordered exactly like the commits they belong to. This is what
// keeps ledger ids replayable: a record's id is claimed in the same critical
// section as the balance change it describes.
func (s *BalanceStore) CompareAndSetSeq(accountID domain.AccountID, currencyID string, expected, newAmount decimal.Decimal, claim func() int64) (int64, bool) {
	key := balanceKey{account: accountID, currency: currencyID}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok || !entry.amount.Equal(expected) {
		return 0, false
	}
	entry.amount = newAmount
	entry.dirty = true
	var seq int64
	if claim != nil {
		seq = claim()
	}
	return seq, true
}

// TopN returns up to n (account, amount) pairs for the currency, descending by
// amount with ties broken by account id ascending. Dirty entries for the
// currency are flushed first so the durable ranking covers accounts that are
// not currently cached.
func (s *BalanceStore) TopN(ctx context.Context, currencyID string, n int) ([]domain.BalanceEntry, error) {
	if _, err := s.catalog.Get(currencyID); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 10
	}
	if err := s.flush(ctx, currencyID); err != nil {
		return nil, err
	}
	entries, err := s.repo.TopBalances(ctx, currencyID, n)
	if err != nil {
		return nil, fmt.Errorf("%w: top balances for %s: %v", apperrors.ErrPersistence, currencyID, err)
	}
	return entries, nil
}

// SaveAll flushes every dirty cached balance to durable storage. Idempotent
// and safe to call repeatedly; heavy, so keep it off latency-sensitive paths.
func (s *BalanceStore) SaveAll(ctx context.Context) error {
	start := time.Now()
	if err := s.flush(ctx, ""); err != nil {
		return err
	}
	metrics.FlushDuration.Observe(time.Since(start).Seconds())
	return nil
}

// flush writes dirty entries, optionally restricted to one currency. Entries
// modified again while the write is in flight stay dirty.
func (s *BalanceStore) flush(ctx context.Context, currencyID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	rows := make([]domain.BalanceRow, 0)
	keys := make([]balanceKey, 0)
	for key, entry := range s.entries {
		if !entry.dirty || (currencyID != "" && key.currency != currencyID) {
			continue
		}
		rows = append(rows, domain.BalanceRow{AccountID: key.account, CurrencyID: key.currency, Amount: entry.amount})
		keys = append(keys, key)
	}
	s.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	if err := s.repo.UpsertBalances(ctx, rows); err != nil {
		logger.Error("Failed to flush cached balances", slog.Int("rows", len(rows)), slog.String("error", err.Error()))
		return fmt.Errorf("%w: flushing %d balances: %v", apperrors.ErrPersistence, len(rows), err)
	}

	s.mu.Lock()
	for i, key := range keys {
		if entry, ok := s.entries[key]; ok && entry.amount.Equal(rows[i].Amount) {
			entry.dirty = false
		}
	}
	s.mu.Unlock()

	logger.Debug("Flushed cached balances", slog.Int("rows", len(rows)))
	return nil
}
