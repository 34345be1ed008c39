package lyclicense

import (
	"testing"
	"time"
)

func TestResolver_HasFeature(t *testing.T) {
	issued := time.Now().UTC().Truncate(time.Second)
	payload := LicensePayload{
		PluginID:  "grid-export",
		Features:  []string{"csv", "xlsx"},
		IssuedAt:  issued,
		ExpiresAt: issued.AddDate(1, 0, 0),
	}
	key, pub := issueTestKey(t, payload)
	r := NewResolver(NewValidator(WithTrustedPublicKey(pub)))

	if !r.HasFeature(key, "grid-export", "csv") {
		t.Error("csv should be granted")
	}
	if r.HasFeature(key, "grid-export", "pdf") {
		t.Error("pdf is not in the feature set")
	}
	if r.HasFeature(key, "other-plugin", "csv") {
		t.Error("wrong plugin must deny")
	}
}

func TestResolver_FailsClosedOnEveryInvalidReason(t *testing.T) {
	issued := time.Now().UTC().Truncate(time.Second)
	valid := LicensePayload{
		PluginID:  "grid-export",
		Features:  []string{"csv"},
		IssuedAt:  issued,
		ExpiresAt: issued.AddDate(1, 0, 0),
	}
	validKey, pub := issueTestKey(t, valid)

	expired := valid
	expired.IssuedAt = issued.Add(-48 * time.Hour)
	expired.ExpiresAt = issued.Add(-24 * time.Hour)
	expiredKey, _ := issueTestKey(t, expired)

	forged, _ := issueTestKey(t, valid) // signed by a different key than pub

	r := NewResolver(NewValidator(WithTrustedPublicKey(pub)))

	cases := []struct {
		name     string
		key      string
		pluginID string
	}{
		{"invalid format", "nope", "grid-export"},
		{"invalid encoding", validKey[:len(validKey)-1] + "?", "grid-export"},
		{"invalid structure", "LYC-" + b64("{}"), "grid-export"},
		{"plugin mismatch", validKey, "other-plugin"},
		{"expired", expiredKey, "grid-export"},
		{"signature invalid", forged, "grid-export"},
	}
	for _, tc := range cases {
		if r.HasFeature(tc.key, tc.pluginID, "csv") {
			t.Errorf("%s: access must be denied", tc.name)
		}
	}
}

func TestResolver_EmptyFeatureSetPolicy(t *testing.T) {
	issued := time.Now().UTC().Truncate(time.Second)
	payload := LicensePayload{
		PluginID: "grid-export",
		IssuedAt: issued,
	}
	key, pub := issueTestKey(t, payload)
	v := NewValidator(WithTrustedPublicKey(pub))

	// Strict by default: an empty set grants nothing.
	if NewResolver(v).HasFeature(key, "grid-export", "csv") {
		t.Error("strict policy must deny on an empty feature set")
	}

	// Legacy opt-in: an empty set grants everything.
	legacy := NewResolver(v, WithAllFeaturesWhenEmpty())
	if !legacy.HasFeature(key, "grid-export", "csv") {
		t.Error("legacy policy must grant on an empty feature set")
	}
	// The legacy policy still requires a valid license.
	if legacy.HasFeature(key, "other-plugin", "csv") {
		t.Error("legacy policy must not override validation")
	}
}
