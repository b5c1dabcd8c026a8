package service

import (
	"lightning_sats/internal/domain"
)

// AdminDirectory answers "is this identity an administrator". Admins are
// recognized either by the configured Telegram ids or by the stored role flag,
// and are exempt from every abuse heuristic and the country gate.
type AdminDirectory struct {
	tgIDs map[int64]struct{}
}

func NewAdminDirectory(adminTgIDs []int64) *AdminDirectory {
	ids := make(map[int64]struct{}, len(adminTgIDs))
	for _, id := range adminTgIDs {
		ids[id] = struct{}{}
	}
	return &AdminDirectory{tgIDs: ids}
}

// IsAdminTgID checks the configured admin identity list
func (d *AdminDirectory) IsAdminTgID(tgID int64) bool {
	_, ok := d.tgIDs[tgID]
	return ok
}

// IsAdminAccount checks both the stored role and the configured list
func (d *AdminDirectory) IsAdminAccount(a *domain.Account) bool {
	if a == nil {
		return false
	}
	return a.IsAdmin || d.IsAdminTgID(a.TgID)
}

// filterAdmins drops admin accounts from a related-account set so they never
// appear as implicated duplicates
func (d *AdminDirectory) filterAdmins(accounts []domain.Account) []domain.Account {
	out := accounts[:0:0]
	for _, a := range accounts {
		a := a
		if !d.IsAdminAccount(&a) {
			out = append(out, a)
		}
	}
	return out
}
