package repository

import (
	"context"

	"lightning_sats/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const withdrawalColumns = `id, account_id, amount, method, destination, status,
	COALESCE(admin_notes, ''), COALESCE(tx_hash, ''), deducted, refunded, created_at, updated_at`

type WithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// GetByID returns the withdrawal or nil when it does not exist
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	row := r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id)
	w, err := scanWithdrawalRow(row)
	if isNoRows(err) {
		return nil, nil
	}
	return w, err
}

// GetByAccount returns an account's withdrawals, newest first
func (r *WithdrawalRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWithdrawals(rows)
}

// GetPending returns the admin review queue, oldest first
func (r *WithdrawalRepository) GetPending(ctx context.Context) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE status = 'pending'
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWithdrawals(rows)
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *domain.Withdrawal) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO withdrawals (account_id, amount, method, destination, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING id, created_at, updated_at
	`, w.AccountID, w.Amount, w.Method, w.Destination).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

// MarkCompleted transitions pending -> completed and sets the deducted flag in
// the same statement, so the balance debit that follows happens at most once.
// Returns false when the withdrawal was not pending anymore.
func (r *WithdrawalRepository) MarkCompleted(ctx context.Context, id int64, txHash string) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE withdrawals
		SET status = 'completed', tx_hash = NULLIF($2, ''), deducted = true, updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND deducted = false
	`, id, txHash)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// MarkRejected transitions pending -> rejected. Returns false when the
// withdrawal was not pending anymore.
func (r *WithdrawalRepository) MarkRejected(ctx context.Context, id int64, notes string) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE withdrawals
		SET status = 'rejected', admin_notes = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, notes)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// MarkFailed transitions pending -> failed
func (r *WithdrawalRepository) MarkFailed(ctx context.Context, id int64, notes string) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE withdrawals
		SET status = 'failed', admin_notes = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, notes)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// MarkRefunded sets the refunded flag once for a deducted withdrawal.
// Returns false when the refund had already happened (or nothing was deducted).
func (r *WithdrawalRepository) MarkRefunded(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE withdrawals SET refunded = true, updated_at = NOW()
		WHERE id = $1 AND deducted = true AND refunded = false
	`, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// HasPending checks if the account already has a request in the queue
func (r *WithdrawalRepository) HasPending(ctx context.Context, accountID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM withdrawals WHERE account_id = $1 AND status = 'pending')
	`, accountID).Scan(&exists)
	return exists, err
}

func scanWithdrawalRow(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	if err := row.Scan(
		&w.ID, &w.AccountID, &w.Amount, &w.Method, &w.Destination, &w.Status,
		&w.AdminNotes, &w.TxHash, &w.Deducted, &w.Refunded, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &w, nil
}

func scanWithdrawals(rows pgx.Rows) ([]domain.Withdrawal, error) {
	var withdrawals []domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawalRow(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, *w)
	}
	return withdrawals, rows.Err()
}
