package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/proudcore/economy_ledger/internal/core/domain"
	portssvc "github.com/proudcore/economy_ledger/internal/core/ports/services"
	"github.com/proudcore/economy_ledger/internal/middleware"
	"github.com/proudcore/economy_ledger/internal/platform/metrics"
	"github.com/shopspring/decimal"
)

// casMaxAttempts bounds the optimistic-concurrency retry loop before an
// operation surfaces a contention failure.
const casMaxAttempts = 5

// economyService is the ledger operation engine: the only component that
// mutates balances. Each operation is a read-check-CAS-append unit; the CAS
// is retried on conflict, and a failed ledger append is compensated so no
// partial effect remains observable.
type economyService struct {
	catalog portssvc.CurrencyCatalogSvcFacade
	store   *BalanceStore
	ledger  *TransactionLedger
}

// NewEconomyService creates the operation engine.
func NewEconomyService(catalog portssvc.CurrencyCatalogSvcFacade, store *BalanceStore, ledger *TransactionLedger) portssvc.EconomySvcFacade {
	return &economyService{catalog: catalog, store: store, ledger: ledger}
}

var _ portssvc.EconomySvcFacade = (*economyService)(nil)

func (s *economyService) GetBalance(ctx context.Context, accountID domain.AccountID, currencyID string) (decimal.Decimal, error) {
	return s.store.Get(ctx, accountID, currencyID)
}

func (s *economyService) GetAllBalances(ctx context.Context, accountID domain.AccountID) (map[string]decimal.Decimal, error) {
	return s.store.GetAll(ctx, accountID)
}

func (s *economyService) Has(ctx context.Context, accountID domain.AccountID, currencyID string, amount decimal.Decimal) (bool, error) {
	balance, err := s.store.Get(ctx, accountID, currencyID)
	if err != nil {
		return false, err
	}
	return balance.GreaterThanOrEqual(amount), nil
}

func (s *economyService) Deposit(ctx context.Context, accountID domain.AccountID, currencyID string, amount decimal.Decimal, reason string) domain.OperationResult {
	return s.deposit(ctx, accountID, currencyID, amount, reason, domain.TxDeposit, "")
}

func (s *economyService) Withdraw(ctx context.Context, accountID domain.AccountID, currencyID string, amount decimal.Decimal, reason string) domain.OperationResult {
	return s.withdraw(ctx, accountID, currencyID, amount, reason, domain.TxWithdraw, "")
}

func (s *economyService) GetClanBalance(ctx context.Context, clanName string, currencyID string) (decimal.Decimal, error) {
	return s.store.Get(ctx, domain.ClanAccount(clanName), currencyID)
}

// ClanDeposit records the acting member for audit. No authority check is
// performed here; that policy belongs to the caller.
func (s *economyService) ClanDeposit(ctx context.Context, clanName string, currencyID string, amount decimal.Decimal, memberUUID string) domain.OperationResult {
	return s.deposit(ctx, domain.ClanAccount(clanName), currencyID, amount, "", domain.TxClanDeposit, memberUUID)
}

// ClanWithdraw performs no leader check; see ClanDeposit.
func (s *economyService) ClanWithdraw(ctx context.Context, clanName string, currencyID string, amount decimal.Decimal, memberUUID string) domain.OperationResult {
	return s.withdraw(ctx, domain.ClanAccount(clanName), currencyID, amount, "", domain.TxClanWithdraw, memberUUID)
}

// deposit is the shared implementation behind Deposit and ClanDeposit. A
// deposit that would exceed the currency cap is truncated to the cap, never
// rejected; the ledger records the amount actually applied.
func (s *economyService) deposit(ctx context.Context, accountID domain.AccountID, currencyID string, amount decimal.Decimal, reason string, txType domain.TransactionType, actorID string) domain.OperationResult {
	op := operationName(txType)
	cur, err := s.catalog.Get(currencyID)
	if err != nil {
		return s.fail(op, domain.FailureCurrencyNotFound, fmt.Sprintf("Unknown currency %q.", currencyID))
	}
	if !amount.IsPositive() {
		return s.fail(op, domain.FailureInvalidAmount, "Amount must be greater than zero.")
	}

	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		current, err := s.store.Get(ctx, accountID, currencyID)
		if err != nil {
			return s.persistenceFailure(ctx, op, accountID, currencyID, err)
		}

		newBalance := current.Add(amount)
		applied := amount
		if !cur.Unlimited() && newBalance.GreaterThan(cur.MaxBalance) {
			newBalance = cur.MaxBalance
			applied = cur.MaxBalance.Sub(current)
		}
		if applied.IsZero() {
			// Already at the cap: the deposit succeeds with nothing applied
			// and no ledger record.
			return s.ok(op, fmt.Sprintf("Balance is already at the %s cap.", cur.NamePlural), current)
		}

		id, committed := s.store.CompareAndSetSeq(accountID, currencyID, current, newBalance, s.ledger.NextID)
		if !committed {
			metrics.CASRetries.Inc()
			continue
		}

		txn := domain.Transaction{
			ID:           id,
			AccountID:    accountID,
			CurrencyID:   currencyID,
			Type:         txType,
			Amount:       applied,
			BalanceAfter: newBalance,
			Reason:       reason,
			ActorID:      actorID,
			Timestamp:    time.Now().UTC(),
		}
		if err := s.ledger.Append(ctx, txn); err != nil {
			s.compensate(ctx, accountID, currencyID, applied.Neg())
			return s.persistenceFailure(ctx, op, accountID, currencyID, err)
		}
		return s.ok(op, fmt.Sprintf("Deposited %s.", s.catalog.Format(currencyID, applied)), newBalance)
	}
	return s.fail(op, domain.FailureContention, "The account is busy, please try again.")
}

// withdraw is the shared implementation behind Withdraw and ClanWithdraw.
func (s *economyService) withdraw(ctx context.Context, accountID domain.AccountID, currencyID string, amount decimal.Decimal, reason string, txType domain.TransactionType, actorID string) domain.OperationResult {
	op := operationName(txType)
	if _, err := s.catalog.Get(currencyID); err != nil {
		return s.fail(op, domain.FailureCurrencyNotFound, fmt.Sprintf("Unknown currency %q.", currencyID))
	}
	if !amount.IsPositive() {
		return s.fail(op, domain.FailureInvalidAmount, "Amount must be greater than zero.")
	}

	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		current, err := s.store.Get(ctx, accountID, currencyID)
		if err != nil {
			return s.persistenceFailure(ctx, op, accountID, currencyID, err)
		}
		if current.LessThan(amount) {
			return s.fail(op, domain.FailureInsufficientFunds,
				fmt.Sprintf("Insufficient funds: balance is %s.", s.catalog.Format(currencyID, current)))
		}

		newBalance := current.Sub(amount)
		id, committed := s.store.CompareAndSetSeq(accountID, currencyID, current, newBalance, s.ledger.NextID)
		if !committed {
			metrics.CASRetries.Inc()
			continue
		}

		txn := domain.Transaction{
			ID:           id,
			AccountID:    accountID,
			CurrencyID:   currencyID,
			Type:         txType,
			Amount:       amount,
			BalanceAfter: newBalance,
			Reason:       reason,
			ActorID:      actorID,
			Timestamp:    time.Now().UTC(),
		}
		if err := s.ledger.Append(ctx, txn); err != nil {
			s.compensate(ctx, accountID, currencyID, amount)
			return s.persistenceFailure(ctx, op, accountID, currencyID, err)
		}
		return s.ok(op, fmt.Sprintf("Withdrew %s.", s.catalog.Format(currencyID, amount)), newBalance)
	}
	return s.fail(op, domain.FailureContention, "The account is busy, please try again.")
}

// Set unconditionally sets the balance, bypassing the currency cap. A set to
// the current value succeeds without appending a no-op ledger record.
func (s *economyService) Set(ctx context.Context, accountID domain.AccountID, currencyID string, amount decimal.Decimal, reason string) domain.OperationResult {
	const op = "set"
	if _, err := s.catalog.Get(currencyID); err != nil {
		return s.fail(op, domain.FailureCurrencyNotFound, fmt.Sprintf("Unknown currency %q.", currencyID))
	}
	if amount.IsNegative() {
		return s.fail(op, domain.FailureInvalidAmount, "Amount must not be negative.")
	}

	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		current, err := s.store.Get(ctx, accountID, currencyID)
		if err != nil {
			return s.persistenceFailure(ctx, op, accountID, currencyID, err)
		}

		delta := amount.Sub(current)
		if delta.IsZero() {
			return s.ok(op, fmt.Sprintf("Balance is already %s.", s.catalog.Format(currencyID, amount)), current)
		}

		id, committed := s.store.CompareAndSetSeq(accountID, currencyID, current, amount, s.ledger.NextID)
		if !committed {
			metrics.CASRetries.Inc()
			continue
		}

		txn := domain.Transaction{
			ID:           id,
			AccountID:    accountID,
			CurrencyID:   currencyID,
			Type:         domain.TxAdminSet,
			Amount:       delta.Abs(),
			BalanceAfter: amount,
			Reason:       reason,
			Timestamp:    time.Now().UTC(),
		}
		if err := s.ledger.Append(ctx, txn); err != nil {
			s.compensate(ctx, accountID, currencyID, delta.Neg())
			return s.persistenceFailure(ctx, op, accountID, currencyID, err)
		}
		return s.ok(op, fmt.Sprintf("Balance set to %s.", s.catalog.Format(currencyID, amount)), amount)
	}
	return s.fail(op, domain.FailureContention, "The account is busy, please try again.")
}

// transferLeg is one side of a transfer: the CAS to apply, the delta needed to
// revert it, and the ledger id its commit claimed.
type transferLeg struct {
	accountID domain.AccountID
	expected  decimal.Decimal
	next      decimal.Decimal
	id        int64
}

func (l transferLeg) revertDelta() decimal.Decimal {
	return l.expected.Sub(l.next)
}

// Transfer moves amount between two accounts as one atomic unit: either both
// legs and both ledger records succeed, or everything is rolled back. Legs
// are applied in account-id order, a total order independent of call order,
// so opposite transfers between the same pair cannot starve each other. If
// the receiver's cap truncates the received amount, the sender is still
// debited in full.
func (s *economyService) Transfer(ctx context.Context, from, to domain.AccountID, currencyID string, amount decimal.Decimal, reason string) domain.OperationResult {
	const op = "transfer"
	cur, err := s.catalog.Get(currencyID)
	if err != nil {
		return s.fail(op, domain.FailureCurrencyNotFound, fmt.Sprintf("Unknown currency %q.", currencyID))
	}
	if !amount.IsPositive() {
		return s.fail(op, domain.FailureInvalidAmount, "Amount must be greater than zero.")
	}
	if from == to {
		return s.fail(op, domain.FailureSameAccount, "Cannot transfer to the same account.")
	}

	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		fromBalance, err := s.store.Get(ctx, from, currencyID)
		if err != nil {
			return s.persistenceFailure(ctx, op, from, currencyID, err)
		}
		toBalance, err := s.store.Get(ctx, to, currencyID)
		if err != nil {
			return s.persistenceFailure(ctx, op, to, currencyID, err)
		}
		if fromBalance.LessThan(amount) {
			return s.fail(op, domain.FailureInsufficientFunds,
				fmt.Sprintf("Insufficient funds: balance is %s.", s.catalog.Format(currencyID, fromBalance)))
		}

		received := amount
		toNext := toBalance.Add(amount)
		if !cur.Unlimited() && toNext.GreaterThan(cur.MaxBalance) {
			toNext = cur.MaxBalance
			received = cur.MaxBalance.Sub(toBalance)
		}

		legs := []transferLeg{
			{accountID: from, expected: fromBalance, next: fromBalance.Sub(amount)},
		}
		if !received.IsZero() {
			legs = append(legs, transferLeg{accountID: to, expected: toBalance, next: toNext})
		}
		sort.Slice(legs, func(i, j int) bool { return legs[i].accountID < legs[j].accountID })

		applied := make([]transferLeg, 0, len(legs))
		conflicted := false
		for i := range legs {
			id, committed := s.store.CompareAndSetSeq(legs[i].accountID, currencyID, legs[i].expected, legs[i].next, s.ledger.NextID)
			if !committed {
				metrics.CASRetries.Inc()
				conflicted = true
				break
			}
			legs[i].id = id
			applied = append(applied, legs[i])
		}
		if conflicted {
			for _, leg := range applied {
				s.compensate(ctx, leg.accountID, currencyID, leg.revertDelta())
			}
			continue
		}

		now := time.Now().UTC()
		sent := domain.Transaction{
			AccountID:    from,
			CurrencyID:   currencyID,
			Type:         domain.TxTransferSent,
			Amount:       amount,
			BalanceAfter: fromBalance.Sub(amount),
			Reason:       reason,
			Timestamp:    now,
		}
		receivedTxn := domain.Transaction{
			AccountID:    to,
			CurrencyID:   currencyID,
			Type:         domain.TxTransferReceived,
			Amount:       received,
			BalanceAfter: toNext,
			Reason:       reason,
			Timestamp:    now,
		}
		for _, leg := range applied {
			switch leg.accountID {
			case from:
				sent.ID = leg.id
			case to:
				receivedTxn.ID = leg.id
			}
		}
		if received.IsZero() {
			// Receiver already at the cap keeps its balance; only the
			// sender's leg produced a balance change to record.
			err = s.ledger.Append(ctx, sent)
		} else {
			err = s.ledger.AppendPair(ctx, sent, receivedTxn)
		}
		if err != nil {
			for _, leg := range applied {
				s.compensate(ctx, leg.accountID, currencyID, leg.revertDelta())
			}
			return s.persistenceFailure(ctx, op, from, currencyID, err)
		}
		return s.ok(op, fmt.Sprintf("Transferred %s to %s.", s.catalog.Format(currencyID, amount), to), fromBalance.Sub(amount))
	}
	return s.fail(op, domain.FailureContention, "The accounts are busy, please try again.")
}

func (s *economyService) TopBalances(ctx context.Context, currencyID string, limit int) ([]domain.BalanceEntry, error) {
	return s.store.TopN(ctx, currencyID, limit)
}

func (s *economyService) Transactions(ctx context.Context, accountID domain.AccountID, limit int) ([]domain.Transaction, error) {
	return s.ledger.Recent(ctx, accountID, limit)
}

func (s *economyService) SaveAll(ctx context.Context) error {
	return s.store.SaveAll(ctx)
}

// compensate reverts a leg that can no longer complete by applying the
// opposite delta. It re-reads the current value because other operations may
// have committed on top of ours in the meantime. The result is clamped at
// zero to preserve non-negativity; a clamp means concurrent withdrawals spent
// funds this operation is taking back, which is logged loudly.
func (s *economyService) compensate(ctx context.Context, accountID domain.AccountID, currencyID string, delta decimal.Decimal) {
	logger := middleware.GetLoggerFromCtx(ctx)
	for attempt := 0; attempt < casMaxAttempts*4; attempt++ {
		current, err := s.store.Get(ctx, accountID, currencyID)
		if err != nil {
			logger.Error("Compensation read failed", slog.String("account_id", accountID.String()), slog.String("currency_id", currencyID), slog.String("error", err.Error()))
			return
		}
		next := current.Add(delta)
		if next.IsNegative() {
			logger.Error("Compensation clamped at zero", slog.String("account_id", accountID.String()), slog.String("currency_id", currencyID), slog.String("delta", delta.String()))
			next = decimal.Zero
		}
		if s.store.CompareAndSet(accountID, currencyID, current, next) {
			return
		}
		metrics.CASRetries.Inc()
	}
	logger.Error("Compensation retries exhausted", slog.String("account_id", accountID.String()), slog.String("currency_id", currencyID), slog.String("delta", delta.String()))
}

func (s *economyService) persistenceFailure(ctx context.Context, op string, accountID domain.AccountID, currencyID string, err error) domain.OperationResult {
	middleware.GetLoggerFromCtx(ctx).Error("Durable write failed",
		slog.String("operation", op),
		slog.String("account_id", accountID.String()),
		slog.String("currency_id", currencyID),
		slog.String("error", err.Error()),
	)
	return s.fail(op, domain.FailurePersistence, "The operation could not be recorded; no changes were applied.")
}

func (s *economyService) ok(op, message string, newBalance decimal.Decimal) domain.OperationResult {
	metrics.OperationsTotal.WithLabelValues(op, "success").Inc()
	return domain.Succeeded(message, newBalance)
}

func (s *economyService) fail(op string, kind domain.FailureKind, message string) domain.OperationResult {
	metrics.OperationsTotal.WithLabelValues(op, string(kind)).Inc()
	return domain.Failed(kind, message)
}

func operationName(txType domain.TransactionType) string {
	switch txType {
	case domain.TxDeposit:
		return "deposit"
	case domain.TxWithdraw:
		return "withdraw"
	case domain.TxClanDeposit:
		return "clan_deposit"
	case domain.TxClanWithdraw:
		return "clan_withdraw"
	}
	return string(txType)
}
