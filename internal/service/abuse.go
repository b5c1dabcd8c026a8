package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lightning_sats/internal/domain"
	"lightning_sats/internal/logger"
)

var ErrCannotBanAdmin = errors.New("cannot ban an administrator")

const multiAccountReason = "multiple accounts detected on the same device/network"

// ValidationResult is the outcome of device/duplicate validation
type ValidationResult struct {
	IsValid             bool    `json:"is_valid"`
	ShouldBan           bool    `json:"should_ban"`
	PrimaryAccountID    int64   `json:"primary_account_id,omitempty"`
	DuplicateAccountIDs []int64 `json:"duplicate_account_ids,omitempty"`
	Reason              string  `json:"reason,omitempty"`
}

// SelfReferralResult is the outcome of self-referral detection
type SelfReferralResult struct {
	IsSelfReferral bool   `json:"is_self_referral"`
	ShouldBan      bool   `json:"should_ban"`
	ReferrerID     int64  `json:"referrer_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// AdAbuseResult is the outcome of ad-watching abuse detection
type AdAbuseResult struct {
	IsAbuse           bool    `json:"is_abuse"`
	ShouldBan         bool    `json:"should_ban"`
	Reason            string  `json:"reason,omitempty"`
	RelatedAccountIDs []int64 `json:"related_account_ids,omitempty"`
}

// AbuseService decides whether an acting identity is a legitimate single-owner
// account or part of a multi-account pattern, and applies bans.
//
// Failure policy: every public method recovers lookup errors into the
// permissive outcome (valid / no ban) instead of failing closed. A transient
// database outage must never produce false-positive bans; real abuse missed
// during an outage is caught on the next event.
//
// The check-related-accounts-then-write sequence is not wrapped in a
// transaction; two simultaneous first registrations on one device can both
// pass. Ban decisions are admin-reversible, so the race is accepted.
type AbuseService struct {
	accounts AccountStore
	banLogs  BanLogStore
	admins   *AdminDirectory
	notifier Notifier

	abuseThreshold   float64 // fingerprint similarity that gets logged as a secondary signal
	selfRefThreshold float64 // fingerprint similarity that flags a self-referral

	log *slog.Logger
}

func NewAbuseService(accounts AccountStore, banLogs BanLogStore, admins *AdminDirectory, notifier Notifier, abuseThreshold, selfRefThreshold float64) *AbuseService {
	return &AbuseService{
		accounts:         accounts,
		banLogs:          banLogs,
		admins:           admins,
		notifier:         notifier,
		abuseThreshold:   abuseThreshold,
		selfRefThreshold: selfRefThreshold,
		log:              logger.With("component", "abuse"),
	}
}

// ValidateDeviceAndDetectDuplicate decides whether a login/action event from
// tgID on the described device belongs to a single-owner account.
// accountID may be 0 when the account is not resolved yet (first login).
func (s *AbuseService) ValidateDeviceAndDetectDuplicate(ctx context.Context, tgID int64, info domain.DeviceInfo, accountID int64) ValidationResult {
	if s.admins.IsAdminTgID(tgID) {
		return ValidationResult{IsValid: true}
	}
	if accountID != 0 {
		if acct, err := s.accounts.GetByID(ctx, accountID); err == nil && s.admins.IsAdminAccount(acct) {
			return ValidationResult{IsValid: true}
		}
	}

	if info.DeviceID == "" {
		return ValidationResult{IsValid: false, Reason: "no device id"}
	}

	related, err := s.relatedAccounts(ctx, info)
	if err != nil {
		s.log.Error("related-account lookup failed, allowing", "tg_id", tgID, "error", err)
		return ValidationResult{IsValid: true}
	}

	if len(related) == 0 {
		// first time seeing this device and network
		return ValidationResult{IsValid: true}
	}

	// Same user returning on a known device?
	for i := range related {
		if related[i].TgID == tgID || (accountID != 0 && related[i].ID == accountID) {
			own := &related[i]
			if err := s.accounts.UpdateLoginMeta(ctx, own.ID, info); err != nil {
				s.log.Warn("login meta update failed", "account_id", own.ID, "error", err)
			}
			if own.IsBanned {
				return ValidationResult{IsValid: false, ShouldBan: true, Reason: own.BanReason}
			}
			return ValidationResult{IsValid: true}
		}
	}

	// Another identity already owns this device/network
	primary := s.pickPrimary(related)
	s.logFingerprintSignal(primary, info)

	var duplicates []int64
	for _, a := range s.admins.filterAdmins(related) {
		if !a.IsBanned {
			duplicates = append(duplicates, a.ID)
		}
	}

	return ValidationResult{
		IsValid:             false,
		ShouldBan:           true,
		PrimaryAccountID:    primary.ID,
		DuplicateAccountIDs: duplicates,
		Reason:              multiAccountReason,
	}
}

// BanForMultipleAccounts bans one account for the multi-account pattern.
// No-op when the target is an administrator. Exactly one audit row is written
// per new ban; re-banning an already banned account updates fields only.
func (s *AbuseService) BanForMultipleAccounts(ctx context.Context, accountID int64, reason string, info domain.DeviceInfo, relatedIDs []int64) error {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		s.log.Error("ban target lookup failed", "account_id", accountID, "error", err)
		return nil
	}
	if acct == nil {
		return nil
	}
	if s.admins.IsAdminAccount(acct) {
		s.log.Warn("refusing to ban administrator", "account_id", accountID)
		return nil
	}

	wasBanned := acct.IsBanned
	if err := s.accounts.SetBanned(ctx, accountID, reason); err != nil {
		s.log.Error("ban write failed", "account_id", accountID, "error", err)
		return nil
	}

	if wasBanned {
		return nil
	}

	log := &domain.BanLog{
		AccountID:         accountID,
		ReferralCode:      acct.ReferralCode,
		IP:                info.IP,
		DeviceID:          info.DeviceID,
		UserAgent:         info.UserAgent,
		Fingerprint:       info.Fingerprint,
		Reason:            reason,
		Type:              domain.BanTypeAutomatic,
		RelatedAccountIDs: s.dropAdminIDs(ctx, relatedIDs),
	}
	if err := s.banLogs.Create(ctx, log); err != nil {
		s.log.Error("ban audit write failed", "account_id", accountID, "error", err)
	}

	s.notifier.NotifyAdmins(fmt.Sprintf("🚫 Auto-ban: account %d (%s)", accountID, reason))
	return nil
}

// BanMany bans each non-admin id individually
func (s *AbuseService) BanMany(ctx context.Context, ids []int64, reason string, info domain.DeviceInfo) {
	var banned, protected int
	for _, id := range ids {
		acct, err := s.accounts.GetByID(ctx, id)
		if err != nil || acct == nil {
			continue
		}
		if s.admins.IsAdminAccount(acct) {
			protected++
			continue
		}
		if err := s.BanForMultipleAccounts(ctx, id, reason, info, nil); err == nil {
			banned++
		}
	}
	s.log.Info("bulk ban finished", "banned", banned, "protected", protected)
}

// ManualBan is the admin-invoked ban. Unlike the heuristics it refuses loudly
// when the target is an administrator.
func (s *AbuseService) ManualBan(ctx context.Context, accountID int64, reason string, actorID int64, info domain.DeviceInfo) error {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acct == nil {
		return fmt.Errorf("account %d not found", accountID)
	}
	if s.admins.IsAdminAccount(acct) {
		return ErrCannotBanAdmin
	}

	if err := s.accounts.SetBanned(ctx, accountID, reason); err != nil {
		return err
	}

	return s.banLogs.Create(ctx, &domain.BanLog{
		AccountID:    accountID,
		ReferralCode: acct.ReferralCode,
		IP:           info.IP,
		DeviceID:     info.DeviceID,
		UserAgent:    info.UserAgent,
		Fingerprint:  info.Fingerprint,
		Reason:       reason,
		Type:         domain.BanTypeManual,
		ActorID:      &actorID,
	})
}

// ManualUnban lifts a ban and appends an unban audit row
func (s *AbuseService) ManualUnban(ctx context.Context, accountID int64, actorID int64) error {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acct == nil {
		return fmt.Errorf("account %d not found", accountID)
	}

	if err := s.accounts.SetUnbanned(ctx, accountID); err != nil {
		return err
	}

	return s.banLogs.Create(ctx, &domain.BanLog{
		AccountID:    accountID,
		ReferralCode: acct.ReferralCode,
		Reason:       "unbanned by admin",
		Type:         domain.BanTypeManual,
		ActorID:      &actorID,
		Unban:        true,
	})
}

// DetectSelfReferral checks whether referrerCode belongs to the same person as
// the acting account. Rules are checked in order: device id, IP, fingerprint.
func (s *AbuseService) DetectSelfReferral(ctx context.Context, accountID int64, referrerCode string, info domain.DeviceInfo) SelfReferralResult {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		s.log.Error("self-referral lookup failed, allowing", "account_id", accountID, "error", err)
		return SelfReferralResult{}
	}
	referrer, err := s.accounts.GetByReferralCode(ctx, referrerCode)
	if err != nil {
		s.log.Error("self-referral lookup failed, allowing", "code", referrerCode, "error", err)
		return SelfReferralResult{}
	}
	if acct == nil || referrer == nil {
		return SelfReferralResult{}
	}

	deviceID := info.DeviceID
	if deviceID == "" {
		deviceID = acct.DeviceID
	}
	if deviceID != "" && referrer.DeviceID == deviceID {
		return SelfReferralResult{
			IsSelfReferral: true,
			ShouldBan:      true,
			ReferrerID:     referrer.ID,
			Reason:         "referrer and referee share the same device",
		}
	}

	ip := info.IP
	if ip == "" {
		ip = acct.LastLoginIP
	}
	if ip != "" && referrer.LastLoginIP == ip {
		return SelfReferralResult{
			IsSelfReferral: true,
			ShouldBan:      true,
			ReferrerID:     referrer.ID,
			Reason:         "referrer and referee share the same IP",
		}
	}

	fp := info.Fingerprint
	if fp.IsEmpty() {
		fp = acct.Fingerprint
	}
	if !fp.IsEmpty() && !referrer.Fingerprint.IsEmpty() {
		if sim := fp.Similarity(referrer.Fingerprint); sim > s.selfRefThreshold {
			return SelfReferralResult{
				IsSelfReferral: true,
				ShouldBan:      true,
				ReferrerID:     referrer.ID,
				Reason:         fmt.Sprintf("referrer and referee fingerprints match (%.2f)", sim),
			}
		}
	}

	return SelfReferralResult{}
}

// DetectAdWatchingAbuse checks whether more than one active account is
// earning from ads on the same device.
func (s *AbuseService) DetectAdWatchingAbuse(ctx context.Context, accountID int64, deviceID string) AdAbuseResult {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		s.log.Error("ad-abuse lookup failed, allowing", "account_id", accountID, "error", err)
		return AdAbuseResult{}
	}
	if s.admins.IsAdminAccount(acct) {
		return AdAbuseResult{}
	}

	if deviceID == "" && acct != nil {
		deviceID = acct.DeviceID
	}
	if deviceID == "" {
		return AdAbuseResult{}
	}

	related, err := s.accounts.FindByDeviceID(ctx, deviceID)
	if err != nil {
		s.log.Error("ad-abuse lookup failed, allowing", "device_id", deviceID, "error", err)
		return AdAbuseResult{}
	}
	if len(related) <= 1 {
		return AdAbuseResult{}
	}

	var active []domain.Account
	for _, a := range related {
		if a.AdsWatchedTotal > 0 && !a.IsBanned {
			active = append(active, a)
		}
	}
	if len(active) <= 1 {
		return AdAbuseResult{}
	}

	primary := s.pickPrimary(related)
	if primary.ID == accountID {
		return AdAbuseResult{}
	}

	var relatedIDs []int64
	for _, a := range s.admins.filterAdmins(related) {
		if a.ID != accountID {
			relatedIDs = append(relatedIDs, a.ID)
		}
	}

	return AdAbuseResult{
		IsAbuse:           true,
		ShouldBan:         true,
		Reason:            "multiple active accounts watching ads on the same device",
		RelatedAccountIDs: relatedIDs,
	}
}

// relatedAccounts unions device-id and last-login-IP matches, deduplicated
func (s *AbuseService) relatedAccounts(ctx context.Context, info domain.DeviceInfo) ([]domain.Account, error) {
	byDevice, err := s.accounts.FindByDeviceID(ctx, info.DeviceID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(byDevice))
	related := byDevice
	for _, a := range byDevice {
		seen[a.ID] = struct{}{}
	}

	if info.IP != "" {
		byIP, err := s.accounts.FindByLastLoginIP(ctx, info.IP)
		if err != nil {
			return nil, err
		}
		for _, a := range byIP {
			if _, ok := seen[a.ID]; !ok {
				seen[a.ID] = struct{}{}
				related = append(related, a)
			}
		}
	}

	return related, nil
}

// pickPrimary chooses the account kept when duplicates are banned: an admin
// account if one is present (always protected), else the explicitly flagged
// primary, else the earliest created.
func (s *AbuseService) pickPrimary(related []domain.Account) *domain.Account {
	for i := range related {
		if s.admins.IsAdminAccount(&related[i]) {
			return &related[i]
		}
	}
	for i := range related {
		if related[i].IsPrimary {
			return &related[i]
		}
	}
	earliest := &related[0]
	for i := range related {
		if related[i].CreatedAt.Before(earliest.CreatedAt) {
			earliest = &related[i]
		}
	}
	return earliest
}

// logFingerprintSignal records high similarity as a secondary signal.
// Similarity alone never bans.
func (s *AbuseService) logFingerprintSignal(primary *domain.Account, info domain.DeviceInfo) {
	if info.IP == "" || info.Fingerprint.IsEmpty() || primary.Fingerprint.IsEmpty() {
		return
	}
	if sim := info.Fingerprint.Similarity(primary.Fingerprint); sim > s.abuseThreshold {
		s.log.Info("high fingerprint similarity with primary account",
			"primary_id", primary.ID, "similarity", sim)
	}
}

func (s *AbuseService) dropAdminIDs(ctx context.Context, ids []int64) []int64 {
	var out []int64
	for _, id := range ids {
		acct, err := s.accounts.GetByID(ctx, id)
		if err != nil || acct == nil {
			continue
		}
		if !s.admins.IsAdminAccount(acct) {
			out = append(out, id)
		}
	}
	return out
}
