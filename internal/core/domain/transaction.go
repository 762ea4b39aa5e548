package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies the kind of operation that produced a transaction.
// The amount on a transaction is always positive; direction is implied by the
// type, never by sign.
type TransactionType string

const (
	TxDeposit          TransactionType = "DEPOSIT"
	TxWithdraw         TransactionType = "WITHDRAW"
	TxTransferSent     TransactionType = "TRANSFER_SENT"
	TxTransferReceived TransactionType = "TRANSFER_RECEIVED"
	TxAdminSet         TransactionType = "ADMIN_SET"
	TxClanDeposit      TransactionType = "CLAN_DEPOSIT"
	TxClanWithdraw     TransactionType = "CLAN_WITHDRAW"
)

// Transaction is one immutable, append-only ledger record. Replaying an
// account/currency's transactions in ascending ID order reproduces its
// sequence of BalanceAfter values exactly.
type Transaction struct {
	ID           int64           `json:"id"` // monotonically increasing, globally unique
	AccountID    AccountID       `json:"accountID"`
	CurrencyID   string          `json:"currencyID"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`       // always > 0
	BalanceAfter decimal.Decimal `json:"balanceAfter"` // always >= 0
	Reason       string          `json:"reason,omitempty"`
	ActorID      string          `json:"actorID,omitempty"` // member UUID on clan-bank operations, audit only
	Timestamp    time.Time       `json:"timestamp"`
}

// Apply folds this transaction onto a prior balance, returning the balance it
// implies. ADMIN_SET carries an absolute delta, so the resulting balance is
// its BalanceAfter directly.
func (t Transaction) Apply(balance decimal.Decimal) decimal.Decimal {
	switch t.Type {
	case TxDeposit, TxTransferReceived, TxClanDeposit:
		return balance.Add(t.Amount)
	case TxWithdraw, TxTransferSent, TxClanWithdraw:
		return balance.Sub(t.Amount)
	case TxAdminSet:
		return t.BalanceAfter
	}
	return balance
}
