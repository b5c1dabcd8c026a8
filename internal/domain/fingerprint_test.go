package domain

import "testing"

func TestFingerprintSimilarity(t *testing.T) {
	full := DeviceFingerprint{
		UserAgent:        "Mozilla/5.0",
		Platform:         "Linux x86_64",
		Language:         "en-US",
		ScreenResolution: "1920x1080",
		Timezone:         "Europe/Berlin",
	}

	cases := []struct {
		name string
		a, b DeviceFingerprint
		want float64
	}{
		{"identical", full, full, 1.0},
		{"both empty", DeviceFingerprint{}, DeviceFingerprint{}, 0},
		{"one empty", full, DeviceFingerprint{}, 0},
		{
			"one field differs",
			full,
			DeviceFingerprint{
				UserAgent:        "Mozilla/5.0",
				Platform:         "Linux x86_64",
				Language:         "en-US",
				ScreenResolution: "1366x768",
				Timezone:         "Europe/Berlin",
			},
			0.8,
		},
		{
			"only shared fields are compared",
			DeviceFingerprint{Language: "en-US", Timezone: "Europe/Berlin"},
			DeviceFingerprint{Language: "en-US", Timezone: "Europe/Berlin"},
			1.0,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.Similarity(c.b); got != c.want {
				t.Errorf("Similarity = %v, want %v", got, c.want)
			}
		})
	}
}

func TestFingerprintSimilarity_OneEmptyCountsAgainst(t *testing.T) {
	// A populated vs a sparse fingerprint should not look identical
	full := DeviceFingerprint{
		UserAgent: "Mozilla/5.0",
		Platform:  "Linux x86_64",
		Language:  "en-US",
	}
	sparse := DeviceFingerprint{Language: "en-US"}

	got := full.Similarity(sparse)
	if got >= 0.5 {
		t.Fatalf("sparse overlap scored too high: %v", got)
	}
}

func TestFingerprintIsEmpty(t *testing.T) {
	if !(DeviceFingerprint{}).IsEmpty() {
		t.Fatal("zero fingerprint should be empty")
	}
	if (DeviceFingerprint{Timezone: "UTC"}).IsEmpty() {
		t.Fatal("fingerprint with a field should not be empty")
	}
}
