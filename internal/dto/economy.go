package dto

import (
	"time"

	"github.com/proudcore/economy_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OperationRequest carries a deposit or withdrawal against one account.
// Amount is deliberately not bound as required: a zero amount must reach the
// engine so it fails with the structured INVALID_AMOUNT result, the same shape
// any other bad amount gets.
type OperationRequest struct {
	CurrencyID string          `json:"currencyId" binding:"required,currencyid"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
}

// SetRequest carries an administrative balance set.
type SetRequest struct {
	CurrencyID string          `json:"currencyId" binding:"required,currencyid"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
}

// TransferRequest carries a transfer between two accounts.
type TransferRequest struct {
	FromAccountID string          `json:"fromAccountId" binding:"required"`
	ToAccountID   string          `json:"toAccountId" binding:"required"`
	CurrencyID    string          `json:"currencyId" binding:"required,currencyid"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

// ClanOperationRequest carries a clan bank deposit or withdrawal. MemberID is
// recorded for audit only; the ledger performs no authority check.
type ClanOperationRequest struct {
	CurrencyID string          `json:"currencyId" binding:"required,currencyid"`
	Amount     decimal.Decimal `json:"amount"`
	MemberID   string          `json:"memberId" binding:"required,uuid"`
}

// OperationResponse is the outcome of any balance-affecting operation.
type OperationResponse struct {
	Success    bool            `json:"success"`
	Kind       string          `json:"kind,omitempty"`
	Message    string          `json:"message"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// ToOperationResponse converts a domain.OperationResult to its DTO.
func ToOperationResponse(result domain.OperationResult) OperationResponse {
	return OperationResponse{
		Success:    result.Success,
		Kind:       string(result.Kind),
		Message:    result.Message,
		NewBalance: result.NewBalance,
	}
}

// BalanceResponse is one account/currency balance with its display form.
type BalanceResponse struct {
	AccountID  string          `json:"accountId"`
	CurrencyID string          `json:"currencyId"`
	Amount     decimal.Decimal `json:"amount"`
	Formatted  string          `json:"formatted"`
}

// LeaderboardEntryResponse is one row of a per-currency ranking.
type LeaderboardEntryResponse struct {
	Rank      int             `json:"rank"`
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
}

// ToLeaderboardResponse converts ranked balance entries to DTOs.
func ToLeaderboardResponse(entries []domain.BalanceEntry) []LeaderboardEntryResponse {
	out := make([]LeaderboardEntryResponse, len(entries))
	for i, entry := range entries {
		out[i] = LeaderboardEntryResponse{
			Rank:      i + 1,
			AccountID: entry.AccountID.String(),
			Amount:    entry.Amount,
		}
	}
	return out
}

// TransactionResponse is one ledger record.
type TransactionResponse struct {
	ID           int64           `json:"id"`
	AccountID    string          `json:"accountId"`
	CurrencyID   string          `json:"currencyId"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	Reason       string          `json:"reason,omitempty"`
	ActorID      string          `json:"actorId,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// ToTransactionResponses converts ledger records to DTOs.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i, txn := range txns {
		out[i] = TransactionResponse{
			ID:           txn.ID,
			AccountID:    txn.AccountID.String(),
			CurrencyID:   txn.CurrencyID,
			Type:         string(txn.Type),
			Amount:       txn.Amount,
			BalanceAfter: txn.BalanceAfter,
			Reason:       txn.Reason,
			ActorID:      txn.ActorID,
			Timestamp:    txn.Timestamp,
		}
	}
	return out
}
