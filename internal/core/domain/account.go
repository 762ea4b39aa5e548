package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccountID identifies the owner of a set of balances. The ledger does not
// care whether it belongs to a player or a clan; both are opaque keys. Clan
// accounts are namespaced with a prefix so they can never collide with player
// UUIDs.
type AccountID string

const clanAccountPrefix = "clan:"

// PlayerAccount returns the account key for a player UUID.
func PlayerAccount(playerUUID string) AccountID {
	return AccountID(playerUUID)
}

// ClanAccount returns the account key for a clan's internal name.
func ClanAccount(clanName string) AccountID {
	return AccountID(clanAccountPrefix + clanName)
}

// IsClan reports whether the account belongs to a clan bank.
func (a AccountID) IsClan() bool {
	return strings.HasPrefix(string(a), clanAccountPrefix)
}

// ClanName returns the clan's internal name for a clan account, or "" for a
// player account.
func (a AccountID) ClanName() string {
	if !a.IsClan() {
		return ""
	}
	return strings.TrimPrefix(string(a), clanAccountPrefix)
}

func (a AccountID) String() string {
	return string(a)
}

// BalanceEntry is one (account, amount) row of a per-currency ranking.
type BalanceEntry struct {
	AccountID AccountID       `json:"accountID"`
	Amount    decimal.Decimal `json:"amount"`
}

// BalanceRow is the persisted form of one (account, currency, amount) triple.
type BalanceRow struct {
	AccountID  AccountID       `json:"accountID"`
	CurrencyID string          `json:"currencyID"`
	Amount     decimal.Decimal `json:"amount"`
}
