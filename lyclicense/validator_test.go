package lyclicense

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// issueTestKey signs a payload with a fresh ECDSA-P256 key and returns
// the license key string plus the public key PEM.
func issueTestKey(t *testing.T, payload LicensePayload) (string, []byte) {
	t.Helper()
	kp, err := GenerateKeyPair(AlgECDSAP256, 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	issuer, err := NewIssuer(kp.PrivateKeyPEM, AlgECDSAP256)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	key, err := issuer.Issue(context.Background(), payload)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return key, kp.PublicKeyPEM
}

func TestValidator_GridExportScenario(t *testing.T) {
	// The reference scenario: {grid-export, [csv]}, one-year window,
	// signed with a generated RSA-2048 key.
	issued := time.Now().UTC().Truncate(time.Second)
	payload := LicensePayload{
		PluginID:  "grid-export",
		Features:  []string{"csv"},
		IssuedAt:  issued,
		ExpiresAt: issued.AddDate(0, 0, 365),
	}
	kp, err := GenerateKeyPair(AlgRSA2048, 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	issuer, err := NewIssuer(kp.PrivateKeyPEM, AlgRSA2048)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	key, err := issuer.Issue(context.Background(), payload)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(key, "LYC-") {
		t.Fatalf("license key missing LYC- prefix: %s", key)
	}

	v := NewValidator(WithTrustedPublicKey(kp.PublicKeyPEM))

	got, result := v.Validate(key, "grid-export")
	if !result.Valid {
		t.Fatalf("expected valid, got reason %s", result.Reason)
	}
	if got.PluginID != "grid-export" || len(got.Features) != 1 || got.Features[0] != "csv" {
		t.Errorf("unexpected payload: %+v", got)
	}

	if _, result := v.Validate(key, "other-plugin"); result.Reason != ReasonPluginMismatch {
		t.Errorf("expected plugin_mismatch, got %s", result.Reason)
	}
}

func TestValidator_Expired(t *testing.T) {
	issued := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	payload := LicensePayload{
		PluginID:  "grid-export",
		Features:  []string{"csv"},
		IssuedAt:  issued,
		ExpiresAt: issued.Add(24 * time.Hour), // expired yesterday
	}
	key, pub := issueTestKey(t, payload)

	// Expiry fires regardless of whether signatures are being checked.
	for _, v := range []*Validator{
		NewValidator(WithTrustedPublicKey(pub)),
		NewValidator(),
	} {
		got, result := v.Validate(key, "grid-export")
		if result.Reason != ReasonExpired {
			t.Errorf("expected expired, got %s", result.Reason)
		}
		if got == nil {
			t.Error("payload should be returned for diagnostics")
		}
	}
}

func TestValidator_ExpiredWinsOverClock(t *testing.T) {
	payload := LicensePayload{
		PluginID:  "grid-export",
		IssuedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	key, pub := issueTestKey(t, payload)

	past := func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	future := func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }

	if _, result := NewValidator(WithTrustedPublicKey(pub), WithClock(past)).Validate(key, "grid-export"); !result.Valid {
		t.Errorf("expected valid inside the window, got %s", result.Reason)
	}
	if _, result := NewValidator(WithTrustedPublicKey(pub), WithClock(future)).Validate(key, "grid-export"); result.Reason != ReasonExpired {
		t.Errorf("expected expired outside the window, got %s", result.Reason)
	}
}

func TestValidator_InvalidFormat(t *testing.T) {
	v := NewValidator()
	for _, key := range []string{"", "ABC-xxxx", "lyc-lowercase", "LYCmissingdash"} {
		if _, result := v.Validate(key, "grid-export"); result.Reason != ReasonInvalidFormat {
			t.Errorf("%q: expected invalid_format, got %s", key, result.Reason)
		}
	}
}

func TestValidator_CorruptedTrailingCharacter(t *testing.T) {
	key, pub := issueTestKey(t, testPayload())

	corrupted := key[:len(key)-1] + "?" // not a base64 character
	if _, result := NewValidator(WithTrustedPublicKey(pub)).Validate(corrupted, "grid-export"); result.Reason != ReasonInvalidEncoding {
		t.Errorf("expected invalid_encoding, got %s", result.Reason)
	}
}

func TestValidator_InvalidStructure(t *testing.T) {
	v := NewValidator()
	cases := []string{
		"LYC-" + b64("not json"),
		"LYC-" + b64(`{"algorithm":"ECDSA-P256","hash":"SHA-256"}`), // no payload/signature
		"LYC-" + b64(`{"algorithm":"ECDSA-P256","hash":"SHA-256","payload":{"plugin_id":""},"signature":"c2ln"}`), // bad payload
	}
	for _, key := range cases {
		if _, result := v.Validate(key, "grid-export"); result.Reason != ReasonInvalidStructure {
			t.Errorf("%q: expected invalid_structure, got %s", key, result.Reason)
		}
	}
}

func TestValidator_SignatureInvalid(t *testing.T) {
	payload := testPayload()
	payload.ExpiresAt = time.Now().UTC().AddDate(1, 0, 0).Truncate(time.Second)
	payload.IssuedAt = time.Now().UTC().Truncate(time.Second)
	key, _ := issueTestKey(t, payload)

	// Validate against a different key pair's public key.
	other, err := GenerateKeyPair(AlgECDSAP256, 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	v := NewValidator(WithTrustedPublicKey(other.PublicKeyPEM))
	got, result := v.Validate(key, payload.PluginID)
	if result.Reason != ReasonSignatureInvalid {
		t.Errorf("expected signature_invalid, got %s", result.Reason)
	}
	if got == nil {
		t.Error("payload should be returned for diagnostics")
	}

	// A key that cannot be parsed also fails closed as signature_invalid.
	v = NewValidator(WithTrustedPublicKey([]byte("garbage")))
	if _, result := v.Validate(key, payload.PluginID); result.Reason != ReasonSignatureInvalid {
		t.Errorf("expected signature_invalid for bad key, got %s", result.Reason)
	}
}

func TestValidator_NoPublicKeySkipsSignatureCheck(t *testing.T) {
	payload := testPayload()
	payload.IssuedAt = time.Now().UTC().Truncate(time.Second)
	payload.ExpiresAt = payload.IssuedAt.AddDate(1, 0, 0)
	key, _ := issueTestKey(t, payload)

	// No trusted key configured: structural and identity checks only.
	if _, result := NewValidator().Validate(key, payload.PluginID); !result.Valid {
		t.Errorf("expected valid in no-key mode, got %s", result.Reason)
	}
}
