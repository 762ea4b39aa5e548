package domain

import "github.com/shopspring/decimal"

// FailureKind is the machine-readable classification of a failed operation.
// Callers must branch on this, never on the human-readable message text.
type FailureKind string

const (
	FailureNone              FailureKind = ""
	FailureInvalidAmount     FailureKind = "INVALID_AMOUNT"
	FailureCurrencyNotFound  FailureKind = "CURRENCY_NOT_FOUND"
	FailureInsufficientFunds FailureKind = "INSUFFICIENT_FUNDS"
	FailureSameAccount       FailureKind = "SAME_ACCOUNT"
	FailureContention        FailureKind = "CONTENTION"
	FailurePersistence       FailureKind = "PERSISTENCE"
)

// OperationResult is the outcome of a balance-affecting operation. A failed
// operation never partially applies.
type OperationResult struct {
	Success    bool            `json:"success"`
	Kind       FailureKind     `json:"kind,omitempty"`
	Message    string          `json:"message"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// Succeeded builds a success result with the resulting balance.
func Succeeded(message string, newBalance decimal.Decimal) OperationResult {
	return OperationResult{Success: true, Message: message, NewBalance: newBalance}
}

// Failed builds a failure result of the given kind.
func Failed(kind FailureKind, message string) OperationResult {
	return OperationResult{Success: false, Kind: kind, Message: message}
}
