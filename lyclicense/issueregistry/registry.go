// Package issueregistry provides interfaces and implementations for
// issuer-side bookkeeping of distributed license keys.
package issueregistry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned when no record matches the requested key digest.
var ErrNotFound = errors.New("issue record not found")

// KeyDigest returns the hex SHA-256 of a license key string. Registries
// store this digest instead of the distributable token so a leaked
// registry cannot be replayed as working licenses.
func KeyDigest(licenseKey string) string {
	sum := sha256.Sum256([]byte(licenseKey))
	return hex.EncodeToString(sum[:])
}

// IssueRecord is one issued license as tracked by the issuer.
type IssueRecord struct {
	ID         string    `json:"id" bson:"id"`
	PluginID   string    `json:"plugin_id" bson:"plugin_id"`
	LicenseeID string    `json:"licensee_id" bson:"licensee_id"`
	KeyDigest  string    `json:"key_digest" bson:"key_digest"`
	IssuedAt   time.Time `json:"issued_at" bson:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at,omitzero" bson:"expires_at,omitempty"`
	RevokedAt  time.Time `json:"revoked_at,omitzero" bson:"revoked_at,omitempty"`
}

// IssueRegistry tracks issued licenses for audit and revocation.
type IssueRegistry interface {
	// Record stores an issuance (upsert by key digest).
	Record(ctx context.Context, rec IssueRecord) (*IssueRecord, error)

	// Revoke marks the record with the given key digest as revoked.
	Revoke(ctx context.Context, keyDigest string) error

	// IsRevoked reports whether the record with the given key digest has
	// been revoked. Unknown digests are not revoked.
	IsRevoked(ctx context.Context, keyDigest string) (bool, error)

	// Get returns the record for a key digest, or ErrNotFound.
	Get(ctx context.Context, keyDigest string) (*IssueRecord, error)

	// ListByPlugin returns all records issued for a plugin.
	ListByPlugin(ctx context.Context, pluginID string) ([]IssueRecord, error)

	// CountActive returns the number of unrevoked records for a plugin.
	CountActive(ctx context.Context, pluginID string) (int, error)

	// PruneExpired removes records whose expiry is before the cutoff.
	// Returns the number of records removed.
	PruneExpired(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases any resources held by the registry.
	Close(ctx context.Context) error
}
