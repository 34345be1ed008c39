package lyclicense

import "time"

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithTrustedPublicKey sets the issuer's PEM public key. When set, Validate
// verifies the envelope signature against it; when unset, signatures are not
// checked at all. Always set this in production to prevent forged tokens.
func WithTrustedPublicKey(publicKeyPEM []byte) ValidatorOption {
	return func(v *Validator) {
		v.trustedPublicKeyPEM = publicKeyPEM
	}
}

// WithClock overrides the time source used for expiry checks. Intended for
// tests.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}
