package services

import (
	"context"
	"testing"

	"github.com/proudcore/economy_ledger/internal/apperrors"
	"github.com/proudcore/economy_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceStoreGetSeedsStartingBalance(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	player := domain.PlayerAccount("player-1")

	amount, err := e.store.Get(ctx, player, "coins")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(100)), "got %s", amount)

	// The seeded entry is dirty: a flush writes the starting balance durably.
	require.NoError(t, e.store.SaveAll(ctx))
	stored, err := e.balRepo.FindBalance(ctx, player, "coins")
	require.NoError(t, err)
	assert.True(t, stored.Equal(decimal.NewFromInt(100)))
}

func TestBalanceStoreGetPrefersDurableRow(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	player := domain.PlayerAccount("player-1")
	e.balRepo.seed(player, "coins", decimal.NewFromInt(640))

	amount, err := e.store.Get(ctx, player, "coins")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(640)), "got %s", amount)
}

func TestBalanceStoreGetUnknownCurrency(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.store.Get(context.Background(), domain.PlayerAccount("player-1"), "doubloons")
	assert.ErrorIs(t, err, apperrors.ErrCurrencyNotFound)
}

func TestBalanceStoreCompareAndSet(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	player := domain.PlayerAccount("player-1")

	current, err := e.store.Get(ctx, player, "coins")
	require.NoError(t, err)

	// Stale expected value is rejected.
	assert.False(t, e.store.CompareAndSet(player, "coins", decimal.NewFromInt(999), decimal.NewFromInt(500)))

	// Matching expected value swaps in the new amount.
	require.True(t, e.store.CompareAndSet(player, "coins", current, decimal.NewFromInt(500)))
	amount, err := e.store.Get(ctx, player, "coins")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(500)))

	// The old value no longer matches.
	assert.False(t, e.store.CompareAndSet(player, "coins", current, decimal.NewFromInt(700)))

	// A pair never materialized by Get cannot be set.
	assert.False(t, e.store.CompareAndSet(domain.PlayerAccount("ghost"), "coins", decimal.Zero, decimal.NewFromInt(1)))
}

func TestBalanceStoreGetAllMergesSources(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	player := domain.PlayerAccount("player-1")

	// Durable row for coins; gems only modified in cache.
	e.balRepo.seed(player, "coins", decimal.NewFromInt(300))
	_, err := e.store.Get(ctx, player, "gems")
	require.NoError(t, err)
	require.True(t, e.store.CompareAndSet(player, "gems", decimal.Zero, decimal.NewFromInt(7)))

	balances, err := e.store.GetAll(ctx, player)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.True(t, balances["coins"].Equal(decimal.NewFromInt(300)), "coins: %s", balances["coins"])
	assert.True(t, balances["gems"].Equal(decimal.NewFromInt(7)), "gems: %s", balances["gems"])
}

func TestBalanceStoreGetAllCacheWinsOverDurable(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	player := domain.PlayerAccount("player-1")
	e.balRepo.seed(player, "coins", decimal.NewFromInt(300))

	current, err := e.store.Get(ctx, player, "coins")
	require.NoError(t, err)
	require.True(t, e.store.CompareAndSet(player, "coins", current, decimal.NewFromInt(450)))

	balances, err := e.store.GetAll(ctx, player)
	require.NoError(t, err)
	assert.True(t, balances["coins"].Equal(decimal.NewFromInt(450)), "coins: %s", balances["coins"])
}

func TestBalanceStoreSaveAllIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	player := domain.PlayerAccount("player-1")

	current, err := e.store.Get(ctx, player, "coins")
	require.NoError(t, err)
	require.True(t, e.store.CompareAndSet(player, "coins", current, decimal.NewFromInt(250)))

	require.NoError(t, e.store.SaveAll(ctx))
	callsAfterFirst := e.balRepo.upsertCalls

	// Nothing is dirty anymore; a second flush writes nothing.
	require.NoError(t, e.store.SaveAll(ctx))
	assert.Equal(t, callsAfterFirst, e.balRepo.upsertCalls)

	stored, err := e.balRepo.FindBalance(ctx, player, "coins")
	require.NoError(t, err)
	assert.True(t, stored.Equal(decimal.NewFromInt(250)))
}

func TestBalanceStoreTopNFlushesAndRanks(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// One account only in durable storage, two only in cache.
	e.balRepo.seed(domain.PlayerAccount("cold"), "coins", decimal.NewFromInt(400))

	for name, amount := range map[string]int64{"alice": 900, "bob": 900} {
		player := domain.PlayerAccount(name)
		current, err := e.store.Get(ctx, player, "coins")
		require.NoError(t, err)
		require.True(t, e.store.CompareAndSet(player, "coins", current, decimal.NewFromInt(amount)))
	}

	entries, err := e.store.TopN(ctx, "coins", 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Equal amounts tie-break by account id ascending.
	assert.Equal(t, domain.PlayerAccount("alice"), entries[0].AccountID)
	assert.Equal(t, domain.PlayerAccount("bob"), entries[1].AccountID)
	assert.Equal(t, domain.PlayerAccount("cold"), entries[2].AccountID)
	assert.True(t, entries[2].Amount.Equal(decimal.NewFromInt(400)))
}

func TestBalanceStoreTopNDefaultsLimit(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		e.balRepo.seed(domain.PlayerAccount(string(rune('a'+i))), "coins", decimal.NewFromInt(int64(i)))
	}

	entries, err := e.store.TopN(ctx, "coins", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}

func TestBalanceStoreSeedingIsIdempotentAcrossRestart(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	player := domain.PlayerAccount("player-1")

	current, err := e.store.Get(ctx, player, "coins")
	require.NoError(t, err)
	require.True(t, e.store.CompareAndSet(player, "coins", current, decimal.NewFromInt(42)))
	require.NoError(t, e.store.SaveAll(ctx))

	// A fresh store over the same repository sees the flushed value, not a
	// re-seeded starting balance.
	fresh := NewBalanceStore(e.catalog, e.balRepo)
	amount, err := fresh.Get(ctx, player, "coins")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(42)), "got %s", amount)
}

func TestBalanceStoreTopNUnknownCurrency(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.store.TopN(context.Background(), "doubloons", 5)
	assert.ErrorIs(t, err, apperrors.ErrCurrencyNotFound)
}
