package lyclicense

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LycWorks/lyc-license-sdk/lyclicense/issueregistry"
)

// Issuer produces distributable license key strings. It owns the private
// key for the lifetime of the issuing session; the key is never embedded in
// a token, logged, or handed to consumers.
type Issuer struct {
	privateKeyPEM []byte
	algorithm     Algorithm
	hash          Hash
	registry      issueregistry.IssueRegistry
	now           func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithHash overrides the digest paired with the issuer's algorithm.
// Default: DefaultHash(alg).
func WithHash(h Hash) IssuerOption {
	return func(i *Issuer) {
		i.hash = h
	}
}

// WithIssueRegistry records every issued license in a registry, keyed by a
// digest of the token rather than the token itself.
func WithIssueRegistry(r issueregistry.IssueRegistry) IssuerOption {
	return func(i *Issuer) {
		i.registry = r
	}
}

// WithIssuerClock overrides the time source used to stamp issuance.
// Intended for tests.
func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer creates an issuer for the given PEM private key. The key must
// match alg, checked up front so a misconfigured issuer fails at
// construction instead of on the first Issue call.
func NewIssuer(privateKeyPEM []byte, alg Algorithm, opts ...IssuerOption) (*Issuer, error) {
	key, err := parsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, err
	}
	if err := checkPrivateKeyAlgorithm(key, alg); err != nil {
		return nil, err
	}

	i := &Issuer{
		privateKeyPEM: privateKeyPEM,
		algorithm:     alg,
		hash:          DefaultHash(alg),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	if _, err := cryptoHash(i.hash); err != nil {
		return nil, err
	}
	return i, nil
}

// Issue signs a payload and wraps it into a license key string
// ("LYC-" + base64 of the signed envelope). A zero IssuedAt is stamped with
// the current time. When a registry is configured the issuance is recorded;
// a registry write failure fails the whole call so bookkeeping can't
// silently drift from what was handed out.
func (i *Issuer) Issue(ctx context.Context, payload LicensePayload) (string, error) {
	if payload.IssuedAt.IsZero() {
		payload.IssuedAt = i.now().UTC().Truncate(time.Second)
	}

	encoded, err := EncodePayload(payload)
	if err != nil {
		return "", err
	}
	sig, err := signBytes(encoded, i.privateKeyPEM, i.algorithm, i.hash)
	if err != nil {
		return "", err
	}

	env := signedEnvelope{
		Algorithm: i.algorithm,
		Hash:      i.hash,
		Payload:   json.RawMessage(encoded),
		Signature: base64.StdEncoding.EncodeToString(sig),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	licenseKey := KeyPrefix + base64.StdEncoding.EncodeToString(raw)

	if i.registry != nil {
		rec := issueregistry.IssueRecord{
			ID:         uuid.NewString(),
			PluginID:   payload.PluginID,
			LicenseeID: payload.LicenseeID,
			KeyDigest:  issueregistry.KeyDigest(licenseKey),
			IssuedAt:   payload.IssuedAt,
			ExpiresAt:  payload.ExpiresAt,
		}
		if _, err := i.registry.Record(ctx, rec); err != nil {
			return "", fmt.Errorf("record issuance: %w", err)
		}
	}

	return licenseKey, nil
}

// Revoke marks a previously issued license as revoked in the registry.
func (i *Issuer) Revoke(ctx context.Context, licenseKey string) error {
	if i.registry == nil {
		return fmt.Errorf("issue registry is required for Revoke")
	}
	return i.registry.Revoke(ctx, issueregistry.KeyDigest(licenseKey))
}
