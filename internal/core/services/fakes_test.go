package services

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/proudcore/economy_ledger/internal/apperrors"
	"github.com/proudcore/economy_ledger/internal/core/domain"
	portsrepo "github.com/proudcore/economy_ledger/internal/core/ports/repositories"
	portssvc "github.com/proudcore/economy_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// memBalanceRepo is an in-memory BalanceRepositoryFacade with optional
// failure injection.
type memBalanceRepo struct {
	mu          sync.Mutex
	rows        map[domain.AccountID]map[string]decimal.Decimal
	upsertErr   error
	findErr     error
	upsertCalls int
}

var _ portsrepo.BalanceRepositoryFacade = (*memBalanceRepo)(nil)

func newMemBalanceRepo() *memBalanceRepo {
	return &memBalanceRepo{rows: make(map[domain.AccountID]map[string]decimal.Decimal)}
}

func (r *memBalanceRepo) FindBalance(ctx context.Context, accountID domain.AccountID, currencyID string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return decimal.Zero, r.findErr
	}
	if amount, ok := r.rows[accountID][currencyID]; ok {
		return amount, nil
	}
	return decimal.Zero, apperrors.ErrNotFound
}

func (r *memBalanceRepo) FindBalancesByAccount(ctx context.Context, accountID domain.AccountID) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := make(map[string]decimal.Decimal)
	for currencyID, amount := range r.rows[accountID] {
		out[currencyID] = amount
	}
	return out, nil
}

func (r *memBalanceRepo) UpsertBalances(ctx context.Context, rows []domain.BalanceRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertCalls++
	if r.upsertErr != nil {
		return r.upsertErr
	}
	for _, row := range rows {
		if r.rows[row.AccountID] == nil {
			r.rows[row.AccountID] = make(map[string]decimal.Decimal)
		}
		r.rows[row.AccountID][row.CurrencyID] = row.Amount
	}
	return nil
}

func (r *memBalanceRepo) TopBalances(ctx context.Context, currencyID string, limit int) ([]domain.BalanceEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]domain.BalanceEntry, 0)
	for accountID, byCurrency := range r.rows {
		if amount, ok := byCurrency[currencyID]; ok {
			entries = append(entries, domain.BalanceEntry{AccountID: accountID, Amount: amount})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Amount.Equal(entries[j].Amount) {
			return entries[i].Amount.GreaterThan(entries[j].Amount)
		}
		return entries[i].AccountID < entries[j].AccountID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *memBalanceRepo) seed(accountID domain.AccountID, currencyID string, amount decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows[accountID] == nil {
		r.rows[accountID] = make(map[string]decimal.Decimal)
	}
	r.rows[accountID][currencyID] = amount
}

// memTransactionRepo is an in-memory TransactionRepositoryFacade with optional
// failure injection.
type memTransactionRepo struct {
	mu        sync.Mutex
	records   []domain.Transaction
	appendErr error
	pairErr   error
}

var _ portsrepo.TransactionRepositoryFacade = (*memTransactionRepo)(nil)

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{}
}

func (r *memTransactionRepo) AppendTransaction(ctx context.Context, txn domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.records = append(r.records, txn)
	return nil
}

func (r *memTransactionRepo) AppendTransactionPair(ctx context.Context, sent, received domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pairErr != nil {
		return r.pairErr
	}
	r.records = append(r.records, sent, received)
	return nil
}

func (r *memTransactionRepo) ListRecentByAccount(ctx context.Context, accountID domain.AccountID, limit int) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Transaction, 0)
	for _, txn := range r.records {
		if txn.AccountID == accountID {
			out = append(out, txn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memTransactionRepo) MaxTransactionID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var maxID int64
	for _, txn := range r.records {
		if txn.ID > maxID {
			maxID = txn.ID
		}
	}
	return maxID, nil
}

func (r *memTransactionRepo) all() []domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Transaction, len(r.records))
	copy(out, r.records)
	return out
}

func (r *memTransactionRepo) byAccount(accountID domain.AccountID) []domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Transaction, 0)
	for _, txn := range r.records {
		if txn.AccountID == accountID {
			out = append(out, txn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// testCurrencies is the catalog used across service tests: a capped primary
// currency and an unlimited secondary one.
func testCurrencies() []domain.Currency {
	return []domain.Currency{
		{
			ID:              "coins",
			NameSingular:    "Coin",
			NamePlural:      "Coins",
			Symbol:          "⛃",
			StartingBalance: decimal.NewFromInt(100),
			MaxBalance:      decimal.NewFromInt(1000),
			DecimalPlaces:   2,
			IsPrimary:       true,
		},
		{
			ID:              "gems",
			NameSingular:    "Gem",
			NamePlural:      "Gems",
			Symbol:          "◆",
			StartingBalance: decimal.Zero,
			MaxBalance:      decimal.NewFromInt(-1),
			DecimalPlaces:   0,
			IsPrimary:       false,
		},
	}
}

type testEngine struct {
	economy portssvc.EconomySvcFacade
	catalog portssvc.CurrencyCatalogSvcFacade
	store   *BalanceStore
	balRepo *memBalanceRepo
	txRepo  *memTransactionRepo
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	catalog, err := NewCurrencyCatalog(testCurrencies())
	require.NoError(t, err)

	balRepo := newMemBalanceRepo()
	txRepo := newMemTransactionRepo()
	ledger, err := NewTransactionLedger(context.Background(), txRepo)
	require.NoError(t, err)

	store := NewBalanceStore(catalog, balRepo)
	return &testEngine{
		economy: NewEconomyService(catalog, store, ledger),
		catalog: catalog,
		store:   store,
		balRepo: balRepo,
		txRepo:  txRepo,
	}
}
