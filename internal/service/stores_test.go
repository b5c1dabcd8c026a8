package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"lightning_sats/internal/domain"
)

// In-memory fakes for the store interfaces. Error injection via the err field
// makes every lookup fail, which is how the fail-open paths are exercised.

type memAccounts struct {
	mu       sync.Mutex
	accounts map[int64]*domain.Account
	err      error
}

func newMemAccounts(accounts ...*domain.Account) *memAccounts {
	m := &memAccounts{accounts: make(map[int64]*domain.Account)}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *memAccounts) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.accounts[id], nil
}

func (m *memAccounts) GetByTgID(_ context.Context, tgID int64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.accounts {
		if a.TgID == tgID {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memAccounts) GetByReferralCode(_ context.Context, code string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.accounts {
		if a.ReferralCode == code {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memAccounts) FindByDeviceID(_ context.Context, deviceID string) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.filter(func(a *domain.Account) bool { return a.DeviceID == deviceID }), nil
}

func (m *memAccounts) FindByLastLoginIP(_ context.Context, ip string) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.filter(func(a *domain.Account) bool { return a.LastLoginIP == ip }), nil
}

// filter returns matches ordered by creation time, oldest first
func (m *memAccounts) filter(match func(*domain.Account) bool) []domain.Account {
	var out []domain.Account
	for _, a := range m.accounts {
		if match(a) {
			out = append(out, *a)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.Before(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (m *memAccounts) UpdateLoginMeta(_ context.Context, id int64, info domain.DeviceInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		if info.DeviceID != "" {
			a.DeviceID = info.DeviceID
		}
		if info.IP != "" {
			a.LastLoginIP = info.IP
		}
	}
	return nil
}

func (m *memAccounts) SetBanned(_ context.Context, id int64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return errors.New("not found")
	}
	a.IsBanned = true
	a.BanReason = reason
	a.IsPrimary = false
	return nil
}

func (m *memAccounts) SetUnbanned(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return errors.New("not found")
	}
	a.IsBanned = false
	a.BanReason = ""
	a.BannedAt = nil
	return nil
}

func (m *memAccounts) Credit(_ context.Context, id int64, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return 0, errors.New("not found")
	}
	a.Balance += amount
	a.TotalEarned += amount
	return a.Balance, nil
}

func (m *memAccounts) Debit(_ context.Context, id int64, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return 0, errors.New("not found")
	}
	if a.Balance < amount {
		return 0, errors.New("insufficient funds")
	}
	a.Balance -= amount
	return a.Balance, nil
}

func (m *memAccounts) Refund(_ context.Context, id int64, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return 0, errors.New("not found")
	}
	a.Balance += amount
	return a.Balance, nil
}

func (m *memAccounts) RecordAdWatch(_ context.Context, id int64, reward int64, resetDay bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return errors.New("not found")
	}
	a.Balance += reward
	a.TotalEarned += reward
	a.AdsWatchedTotal++
	if resetDay {
		a.AdsWatchedToday = 1
	} else {
		a.AdsWatchedToday++
	}
	now := time.Now()
	a.LastAdAt = &now
	return nil
}

func (m *memAccounts) UpdateStreak(_ context.Context, id int64, count int, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return errors.New("not found")
	}
	a.StreakCount = count
	a.LastStreakDate = &date
	return nil
}

type memBanLogs struct {
	mu   sync.Mutex
	logs []domain.BanLog
	err  error
}

func (m *memBanLogs) Create(_ context.Context, log *domain.BanLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	log.ID = int64(len(m.logs) + 1)
	log.CreatedAt = time.Now()
	m.logs = append(m.logs, *log)
	return nil
}

type memEarnings struct {
	mu   sync.Mutex
	rows []domain.Earning
}

func (m *memEarnings) Create(_ context.Context, e *domain.Earning) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.rows) + 1)
	e.CreatedAt = time.Now()
	m.rows = append(m.rows, *e)
	return nil
}

func (m *memEarnings) bySource(source domain.EarningSource) []domain.Earning {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Earning
	for _, e := range m.rows {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}

type memReferrals struct {
	mu         sync.Mutex
	byReferred map[int64]*domain.Referral
	nextID     int64
}

func newMemReferrals() *memReferrals {
	return &memReferrals{byReferred: make(map[int64]*domain.Referral)}
}

func (m *memReferrals) Create(_ context.Context, referrerID, referredID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byReferred[referredID]; exists {
		return nil
	}
	m.nextID++
	m.byReferred[referredID] = &domain.Referral{
		ID:         m.nextID,
		ReferrerID: referrerID,
		ReferredID: referredID,
		Status:     domain.ReferralStatusPending,
		CreatedAt:  time.Now(),
	}
	return nil
}

func (m *memReferrals) GetByReferredID(_ context.Context, referredID int64) (*domain.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byReferred[referredID], nil
}

func (m *memReferrals) MarkCompleted(_ context.Context, referralID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byReferred {
		if r.ID == referralID && r.Status == domain.ReferralStatusPending {
			r.Status = domain.ReferralStatusCompleted
		}
	}
	return nil
}

func (m *memReferrals) AddReward(_ context.Context, referralID int64, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byReferred {
		if r.ID == referralID {
			r.RewardAmount += amount
		}
	}
	return nil
}

type memWithdrawals struct {
	mu     sync.Mutex
	rows   map[int64]*domain.Withdrawal
	nextID int64
}

func newMemWithdrawals() *memWithdrawals {
	return &memWithdrawals{rows: make(map[int64]*domain.Withdrawal)}
}

func (m *memWithdrawals) GetByID(_ context.Context, id int64) (*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (m *memWithdrawals) Create(_ context.Context, w *domain.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	w.ID = m.nextID
	w.Status = domain.WithdrawalStatusPending
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	cp := *w
	m.rows[w.ID] = &cp
	return nil
}

func (m *memWithdrawals) MarkCompleted(_ context.Context, id int64, txHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.rows[id]
	if !ok || w.Status != domain.WithdrawalStatusPending || w.Deducted {
		return false, nil
	}
	w.Status = domain.WithdrawalStatusCompleted
	w.TxHash = txHash
	w.Deducted = true
	return true, nil
}

func (m *memWithdrawals) MarkRejected(_ context.Context, id int64, notes string) (bool, error) {
	return m.decline(id, notes, domain.WithdrawalStatusRejected)
}

func (m *memWithdrawals) MarkFailed(_ context.Context, id int64, notes string) (bool, error) {
	return m.decline(id, notes, domain.WithdrawalStatusFailed)
}

func (m *memWithdrawals) decline(id int64, notes string, status domain.WithdrawalStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.rows[id]
	if !ok || w.Status != domain.WithdrawalStatusPending {
		return false, nil
	}
	w.Status = status
	w.AdminNotes = notes
	return true, nil
}

func (m *memWithdrawals) MarkRefunded(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.rows[id]
	if !ok || !w.Deducted || w.Refunded {
		return false, nil
	}
	w.Refunded = true
	return true, nil
}

func (m *memWithdrawals) HasPending(_ context.Context, accountID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.rows {
		if w.AccountID == accountID && w.Status == domain.WithdrawalStatusPending {
			return true, nil
		}
	}
	return false, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	sent     map[int64][]string
	adminMsg []string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(map[int64][]string)}
}

func (n *recordingNotifier) Send(chatID int64, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[chatID] = append(n.sent[chatID], text)
}

func (n *recordingNotifier) NotifyAdmins(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.adminMsg = append(n.adminMsg, text)
}
