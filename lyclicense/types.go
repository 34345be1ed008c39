package lyclicense

import (
	"encoding/json"
	"time"
)

// Algorithm identifies a supported signing key algorithm and strength.
type Algorithm string

const (
	AlgRSA2048   Algorithm = "RSA-2048"
	AlgRSA4096   Algorithm = "RSA-4096"
	AlgECDSAP256 Algorithm = "ECDSA-P256"
	AlgECDSAP384 Algorithm = "ECDSA-P384"
)

// Hash identifies the digest used when computing a signature.
type Hash string

const (
	HashSHA256 Hash = "SHA-256"
	HashSHA384 Hash = "SHA-384"
	HashSHA512 Hash = "SHA-512"
)

// DefaultHash returns the digest conventionally paired with an algorithm:
// SHA-256 everywhere except ECDSA-P384, which pairs with SHA-384.
func DefaultHash(alg Algorithm) Hash {
	if alg == AlgECDSAP384 {
		return HashSHA384
	}
	return HashSHA256
}

// KeyPair holds a freshly generated signing key pair in PEM form.
// The private key belongs exclusively to the issuer process and must
// never be embedded in a distributed license or logged.
type KeyPair struct {
	Algorithm     Algorithm
	PublicKeyPEM  []byte
	PrivateKeyPEM []byte
}

// LicensePayload is the entitlement data a license grants for one plugin.
// ExpiresAt is optional; the zero time means the license never expires.
type LicensePayload struct {
	PluginID   string
	Features   []string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	LicenseeID string
}

// HasExpiry reports whether the payload carries an expiration time.
func (p LicensePayload) HasExpiry() bool {
	return !p.ExpiresAt.IsZero()
}

// signedEnvelope is the wire structure serialized inside a license key
// string. The payload is kept as raw JSON to preserve the exact bytes the
// signature was computed over; re-marshalling before verification would
// make verification depend on encoder quirks instead of the signed bytes.
// Field names are alphabetical so the envelope encoding is canonical.
type signedEnvelope struct {
	Algorithm Algorithm       `json:"algorithm"`
	Hash      Hash            `json:"hash"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// Reason classifies why a license failed validation.
type Reason string

const (
	ReasonInvalidFormat    Reason = "invalid_format"
	ReasonInvalidEncoding  Reason = "invalid_encoding"
	ReasonInvalidStructure Reason = "invalid_structure"
	ReasonPluginMismatch   Reason = "plugin_mismatch"
	ReasonExpired          Reason = "expired"
	ReasonSignatureInvalid Reason = "signature_invalid"
)

// ValidationResult is the outcome of validating one license key string.
// It is computed per call and never persisted. Reason is empty when
// Valid is true.
type ValidationResult struct {
	Valid  bool
	Reason Reason
}

func validResult() ValidationResult {
	return ValidationResult{Valid: true}
}

func invalidResult(reason Reason) ValidationResult {
	return ValidationResult{Valid: false, Reason: reason}
}
