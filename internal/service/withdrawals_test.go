package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lightning_sats/internal/domain"
)

func withdrawalsForTest(accounts *memAccounts) (*WithdrawalService, *memWithdrawals, *recordingNotifier) {
	store := newMemWithdrawals()
	notifier := newRecordingNotifier()
	svc := NewWithdrawalService(store, accounts, notifier, 1000)
	return svc, store, notifier
}

func richAccount(id, tgID, balance int64) *domain.Account {
	a := testAccount(id, tgID, "dev-1", time.Now())
	a.Balance = balance
	return a
}

func TestCreateWithdrawal_HappyPath(t *testing.T) {
	acct := richAccount(1, 100, 5000)
	svc, store, notifier := withdrawalsForTest(newMemAccounts(acct))

	w, err := svc.Create(context.Background(), 1, 2000, "lightning", "lnbc1...")
	if err != nil {
		t.Fatal(err)
	}
	if w.Status != domain.WithdrawalStatusPending {
		t.Fatalf("status = %s, want pending", w.Status)
	}
	// Balance untouched until an admin completes the payout
	if acct.Balance != 5000 {
		t.Fatalf("balance = %d, want 5000", acct.Balance)
	}
	if len(notifier.adminMsg) != 1 {
		t.Fatal("admins not notified of new request")
	}
	if got, _ := store.GetByID(context.Background(), w.ID); got == nil {
		t.Fatal("withdrawal not persisted")
	}
}

func TestCreateWithdrawal_Validation(t *testing.T) {
	acct := richAccount(1, 100, 5000)
	banned := richAccount(2, 200, 5000)
	banned.IsBanned = true
	svc, _, _ := withdrawalsForTest(newMemAccounts(acct, banned))

	if _, err := svc.Create(context.Background(), 1, 500, "lightning", "lnbc1..."); !errors.Is(err, ErrAmountTooSmall) {
		t.Fatalf("want ErrAmountTooSmall, got %v", err)
	}
	if _, err := svc.Create(context.Background(), 1, 9000, "lightning", "lnbc1..."); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance, got %v", err)
	}
	if _, err := svc.Create(context.Background(), 1, 2000, "lightning", ""); err == nil {
		t.Fatal("empty destination accepted")
	}
	if _, err := svc.Create(context.Background(), 2, 2000, "lightning", "lnbc1..."); !errors.Is(err, ErrAccountBanned) {
		t.Fatalf("want ErrAccountBanned, got %v", err)
	}
}

func TestCreateWithdrawal_OnePendingPerAccount(t *testing.T) {
	acct := richAccount(1, 100, 5000)
	svc, _, _ := withdrawalsForTest(newMemAccounts(acct))

	if _, err := svc.Create(context.Background(), 1, 2000, "lightning", "lnbc1..."); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(context.Background(), 1, 1000, "lightning", "lnbc2..."); !errors.Is(err, ErrPendingExists) {
		t.Fatalf("want ErrPendingExists, got %v", err)
	}
}

func TestCompleteWithdrawal_DeductsExactlyOnce(t *testing.T) {
	acct := richAccount(1, 100, 5000)
	svc, _, notifier := withdrawalsForTest(newMemAccounts(acct))

	w, err := svc.Create(context.Background(), 1, 2000, "lightning", "lnbc1...")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Complete(context.Background(), w.ID, "tx-abc"); err != nil {
		t.Fatal(err)
	}
	if acct.Balance != 3000 {
		t.Fatalf("balance = %d, want 3000", acct.Balance)
	}
	if msgs := notifier.sent[acct.TgID]; len(msgs) != 1 {
		t.Fatalf("user not notified, got %v", msgs)
	}

	// Completing twice must not deduct twice
	if err := svc.Complete(context.Background(), w.ID, "tx-abc"); !errors.Is(err, ErrWithdrawalProcessed) {
		t.Fatalf("want ErrWithdrawalProcessed, got %v", err)
	}
	if acct.Balance != 3000 {
		t.Fatalf("double deduction: balance = %d", acct.Balance)
	}
}

func TestCompleteWithdrawal_NotFound(t *testing.T) {
	svc, _, _ := withdrawalsForTest(newMemAccounts())
	if err := svc.Complete(context.Background(), 42, "tx"); !errors.Is(err, ErrWithdrawalNotFound) {
		t.Fatalf("want ErrWithdrawalNotFound, got %v", err)
	}
}

func TestRejectWithdrawal_NoDeductionNoRefund(t *testing.T) {
	acct := richAccount(1, 100, 5000)
	svc, store, notifier := withdrawalsForTest(newMemAccounts(acct))

	w, _ := svc.Create(context.Background(), 1, 2000, "lightning", "lnbc1...")
	if err := svc.Reject(context.Background(), w.ID, "suspicious destination"); err != nil {
		t.Fatal(err)
	}

	// Nothing was deducted at creation, so nothing is refunded
	if acct.Balance != 5000 {
		t.Fatalf("balance = %d, want 5000", acct.Balance)
	}
	got, _ := store.GetByID(context.Background(), w.ID)
	if got.Status != domain.WithdrawalStatusRejected {
		t.Fatalf("status = %s, want rejected", got.Status)
	}
	if msgs := notifier.sent[acct.TgID]; len(msgs) != 1 {
		t.Fatal("user not notified of rejection")
	}
}

func TestRejectAfterComplete_IsRejected(t *testing.T) {
	acct := richAccount(1, 100, 5000)
	svc, _, _ := withdrawalsForTest(newMemAccounts(acct))

	w, _ := svc.Create(context.Background(), 1, 2000, "lightning", "lnbc1...")
	if err := svc.Complete(context.Background(), w.ID, "tx"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reject(context.Background(), w.ID, "nope"); !errors.Is(err, ErrWithdrawalProcessed) {
		t.Fatalf("terminal status must refuse transition, got %v", err)
	}
	if acct.Balance != 3000 {
		t.Fatalf("balance changed by refused transition: %d", acct.Balance)
	}
}

func TestDeclineRefundsDeductedWithdrawalOnce(t *testing.T) {
	// A withdrawal that was deducted up-front (legacy row) is refunded exactly
	// once when declined.
	acct := richAccount(1, 100, 3000)
	svc, store, _ := withdrawalsForTest(newMemAccounts(acct))

	w := &domain.Withdrawal{AccountID: 1, Amount: 2000, Method: "lightning", Destination: "lnbc1..."}
	_ = store.Create(context.Background(), w)
	store.rows[w.ID].Deducted = true

	if err := svc.Fail(context.Background(), w.ID, "node unreachable"); err != nil {
		t.Fatal(err)
	}
	if acct.Balance != 5000 {
		t.Fatalf("refund not applied, balance = %d", acct.Balance)
	}
	got, _ := store.GetByID(context.Background(), w.ID)
	if !got.Refunded {
		t.Fatal("refunded flag not set")
	}
}
