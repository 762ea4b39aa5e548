package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrInvalidAmount indicates a non-positive amount where a positive one is
// required, or a negative amount on an admin set.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrCurrencyNotFound indicates that the currency id is not registered in the catalog.
var ErrCurrencyNotFound = errors.New("currency not found")

// ErrInsufficientFunds indicates the account balance cannot cover the requested amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrSameAccount indicates a transfer where sender and receiver are the same account.
var ErrSameAccount = errors.New("cannot transfer to the same account")

// ErrContention indicates that optimistic-concurrency retries were exhausted.
// The caller may safely retry the whole operation.
var ErrContention = errors.New("operation contention, retries exhausted")

// ErrPersistence indicates a durable write could not be completed. State prior
// to the failing operation is left intact.
var ErrPersistence = errors.New("persistence failure")

// ErrNoPrimaryCurrency indicates the catalog has no currency marked primary.
// Fatal at startup, never returned per call.
var ErrNoPrimaryCurrency = errors.New("no primary currency configured")
