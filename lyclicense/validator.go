package lyclicense

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// KeyPrefix is the fixed prefix of every distributed license key string.
const KeyPrefix = "LYC-"

// Validator checks distributed license key strings for a consuming host.
// The zero-option form performs structural, identity, and expiry checks
// only; configure WithTrustedPublicKey to also verify signatures.
//
// Every method is a pure computation over the inputs: no shared state, no
// caching, safe for concurrent use.
type Validator struct {
	trustedPublicKeyPEM []byte
	now                 func() time.Time
}

// NewValidator creates a license validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the full validation pipeline over a license key string and
// reports whether it grants anything for expectedPluginID. Each stage
// short-circuits with its own reason:
//
//  1. the "LYC-" prefix (ReasonInvalidFormat)
//  2. base64 decoding of the remainder (ReasonInvalidEncoding)
//  3. structural decoding of the signed envelope and its payload
//     (ReasonInvalidStructure)
//  4. payload.PluginID == expectedPluginID (ReasonPluginMismatch)
//  5. the expiry window, when the payload carries one (ReasonExpired)
//  6. the signature, when a trusted public key is configured
//     (ReasonSignatureInvalid)
//
// Without a trusted public key stage 6 is skipped. That mode only proves
// the token is well-formed and names the right plugin: fine for local
// feature gating, useless against forgery. Production hosts should always
// supply the issuer's public key.
//
// The payload is returned whenever stage 3 succeeds, including for
// identity, expiry, and signature failures, so callers can surface
// diagnostics. Every branch resolves to a ValidationResult; nothing panics.
func (v *Validator) Validate(licenseKey, expectedPluginID string) (*LicensePayload, ValidationResult) {
	// 1. Prefix
	if !strings.HasPrefix(licenseKey, KeyPrefix) {
		return nil, invalidResult(ReasonInvalidFormat)
	}

	// 2. Base64
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(licenseKey, KeyPrefix))
	if err != nil {
		return nil, invalidResult(ReasonInvalidEncoding)
	}

	// 3. Structure
	var env signedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, invalidResult(ReasonInvalidStructure)
	}
	if len(env.Payload) == 0 || env.Signature == "" || env.Algorithm == "" || env.Hash == "" {
		return nil, invalidResult(ReasonInvalidStructure)
	}
	payload, err := DecodePayload(env.Payload)
	if err != nil {
		return nil, invalidResult(ReasonInvalidStructure)
	}

	// 4. Identity
	if payload.PluginID != expectedPluginID {
		return payload, invalidResult(ReasonPluginMismatch)
	}

	// 5. Expiry
	if payload.HasExpiry() && v.now().After(payload.ExpiresAt) {
		return payload, invalidResult(ReasonExpired)
	}

	// 6. Signature, against the exact payload bytes from the envelope
	if len(v.trustedPublicKeyPEM) > 0 {
		sig, err := base64.StdEncoding.DecodeString(env.Signature)
		if err != nil {
			return payload, invalidResult(ReasonInvalidStructure)
		}
		ok, err := verifyBytes(env.Payload, sig, v.trustedPublicKeyPEM, env.Algorithm, env.Hash)
		if err != nil || !ok {
			// Fail closed: a key or algorithm problem is indistinguishable
			// from forgery as far as granting access goes.
			return payload, invalidResult(ReasonSignatureInvalid)
		}
	}

	return payload, validResult()
}
