package domain

// DeviceFingerprint is the browser/device descriptor captured on login.
type DeviceFingerprint struct {
	UserAgent        string `db:"fp_user_agent" json:"user_agent,omitempty"`
	Platform         string `db:"fp_platform" json:"platform,omitempty"`
	Language         string `db:"fp_language" json:"language,omitempty"`
	ScreenResolution string `db:"fp_screen_resolution" json:"screen_resolution,omitempty"`
	Timezone         string `db:"fp_timezone" json:"timezone,omitempty"`
}

// IsEmpty reports whether no field is set
func (f DeviceFingerprint) IsEmpty() bool {
	return f == DeviceFingerprint{}
}

// Similarity returns the fraction of matching fields in [0,1].
// Only pairs where at least one side has a value are counted, so two
// mostly-empty fingerprints do not score as near-identical.
func (f DeviceFingerprint) Similarity(other DeviceFingerprint) float64 {
	pairs := [][2]string{
		{f.UserAgent, other.UserAgent},
		{f.Platform, other.Platform},
		{f.Language, other.Language},
		{f.ScreenResolution, other.ScreenResolution},
		{f.Timezone, other.Timezone},
	}

	var compared, matched int
	for _, p := range pairs {
		if p[0] == "" && p[1] == "" {
			continue
		}
		compared++
		if p[0] == p[1] {
			matched++
		}
	}

	if compared == 0 {
		return 0
	}
	return float64(matched) / float64(compared)
}
