package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lightning_sats/internal/domain"
	"lightning_sats/internal/logger"
	"lightning_sats/internal/notify"
)

var (
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrWithdrawalProcessed = errors.New("withdrawal already processed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAmountTooSmall      = errors.New("amount below minimum withdrawal")
	ErrPendingExists       = errors.New("a pending withdrawal already exists")
)

// WithdrawalService runs the admin-reviewed payout queue:
// pending -> completed | rejected | failed, terminal thereafter.
// Balance is deducted exactly once per withdrawal (the deducted flag) and
// refunded at most once (the refunded flag).
type WithdrawalService struct {
	withdrawals WithdrawalStore
	accounts    AccountStore
	notifier    Notifier
	minAmount   int64
	log         *slog.Logger
}

func NewWithdrawalService(withdrawals WithdrawalStore, accounts AccountStore, notifier Notifier, minAmount int64) *WithdrawalService {
	return &WithdrawalService{
		withdrawals: withdrawals,
		accounts:    accounts,
		notifier:    notifier,
		minAmount:   minAmount,
		log:         logger.With("component", "withdrawals"),
	}
}

// Create submits a payout request. The balance check here is informational;
// the actual deduction is deferred to Complete.
func (s *WithdrawalService) Create(ctx context.Context, accountID, amount int64, method, destination string) (*domain.Withdrawal, error) {
	if amount < s.minAmount {
		return nil, ErrAmountTooSmall
	}
	if destination == "" {
		return nil, errors.New("destination is required")
	}

	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrAccountNotFound
	}
	if acct.IsBanned {
		return nil, ErrAccountBanned
	}
	if acct.Balance < amount {
		return nil, ErrInsufficientBalance
	}

	if pending, err := s.withdrawals.HasPending(ctx, accountID); err == nil && pending {
		return nil, ErrPendingExists
	}

	w := &domain.Withdrawal{
		AccountID:   accountID,
		Amount:      amount,
		Method:      method,
		Destination: destination,
		Status:      domain.WithdrawalStatusPending,
	}
	if err := s.withdrawals.Create(ctx, w); err != nil {
		return nil, err
	}

	s.notifier.NotifyAdmins(fmt.Sprintf("💸 New withdrawal #%d: %d sats via %s", w.ID, amount, method))
	return w, nil
}

// Complete marks the withdrawal paid, debits the balance once, and notifies
// the user. A second Complete on the same withdrawal is rejected by the
// guarded status transition, so the balance is never deducted twice.
func (s *WithdrawalService) Complete(ctx context.Context, id int64, txHash string) error {
	w, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if w == nil {
		return ErrWithdrawalNotFound
	}

	ok, err := s.withdrawals.MarkCompleted(ctx, id, txHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWithdrawalProcessed
	}

	if _, err := s.accounts.Debit(ctx, w.AccountID, w.Amount); err != nil {
		// status already flipped; surface the inconsistency instead of hiding it
		s.log.Error("withdrawal completed but debit failed", "withdrawal_id", id, "error", err)
		return err
	}

	if acct, err := s.accounts.GetByID(ctx, w.AccountID); err == nil && acct != nil {
		s.notifier.Send(acct.TgID, notify.WithdrawalPaid(w.Amount, txHash))
	}
	return nil
}

// Reject declines the withdrawal. Balance is untouched unless an earlier code
// path had already deducted, in which case it is refunded exactly once.
func (s *WithdrawalService) Reject(ctx context.Context, id int64, notes string) error {
	return s.decline(ctx, id, notes, s.withdrawals.MarkRejected, notify.WithdrawalRejected)
}

// Fail marks the withdrawal failed (payout attempted but not delivered),
// with the same refund semantics as Reject.
func (s *WithdrawalService) Fail(ctx context.Context, id int64, notes string) error {
	return s.decline(ctx, id, notes, s.withdrawals.MarkFailed, notify.WithdrawalRejected)
}

func (s *WithdrawalService) decline(ctx context.Context, id int64, notes string,
	mark func(context.Context, int64, string) (bool, error),
	message func(int64, string) string,
) error {
	w, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if w == nil {
		return ErrWithdrawalNotFound
	}

	ok, err := mark(ctx, id, notes)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWithdrawalProcessed
	}

	if w.Deducted && !w.Refunded {
		if refunded, err := s.withdrawals.MarkRefunded(ctx, id); err == nil && refunded {
			if _, err := s.accounts.Refund(ctx, w.AccountID, w.Amount); err != nil {
				s.log.Error("withdrawal refund failed", "withdrawal_id", id, "error", err)
			}
		}
	}

	if acct, err := s.accounts.GetByID(ctx, w.AccountID); err == nil && acct != nil {
		s.notifier.Send(acct.TgID, message(w.Amount, notes))
	}
	return nil
}
