package lyclicense

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// payloadWire is the canonical JSON form of a LicensePayload. Fields are
// alphabetical and timestamps are Unix seconds so the same payload always
// marshals to the same bytes, which is what makes signatures reproducible
// across issuer and consumer.
type payloadWire struct {
	ExpiresAt  int64    `json:"expires_at,omitempty"`
	Features   []string `json:"features"`
	IssuedAt   int64    `json:"issued_at"`
	LicenseeID string   `json:"licensee_id,omitempty"`
	PluginID   string   `json:"plugin_id"`
}

// EncodePayload serializes a payload into its canonical byte form: the form
// that gets signed at issuance and recomputed at verification. Features are
// sorted and de-duplicated, timestamps truncated to whole UTC seconds.
// Returns ErrMalformedPayload when the payload breaks its invariants
// (empty plugin id, missing issued_at, expires_at not after issued_at).
func EncodePayload(p LicensePayload) ([]byte, error) {
	if err := checkPayload(p); err != nil {
		return nil, err
	}

	wire := payloadWire{
		Features:   normalizeFeatures(p.Features),
		IssuedAt:   p.IssuedAt.Unix(),
		LicenseeID: p.LicenseeID,
		PluginID:   p.PluginID,
	}
	if p.HasExpiry() {
		wire.ExpiresAt = p.ExpiresAt.Unix()
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// DecodePayload parses canonical payload bytes back into a LicensePayload.
// Schema violations surface as ErrMalformedPayload.
func DecodePayload(data []byte) (*LicensePayload, error) {
	var wire payloadWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	p := LicensePayload{
		PluginID:   wire.PluginID,
		Features:   normalizeFeatures(wire.Features),
		IssuedAt:   time.Unix(wire.IssuedAt, 0).UTC(),
		LicenseeID: wire.LicenseeID,
	}
	if wire.IssuedAt == 0 {
		p.IssuedAt = time.Time{}
	}
	if wire.ExpiresAt != 0 {
		p.ExpiresAt = time.Unix(wire.ExpiresAt, 0).UTC()
	}

	if err := checkPayload(p); err != nil {
		return nil, err
	}
	return &p, nil
}

func checkPayload(p LicensePayload) error {
	if p.PluginID == "" {
		return fmt.Errorf("%w: plugin id is empty", ErrMalformedPayload)
	}
	if p.IssuedAt.IsZero() {
		return fmt.Errorf("%w: issued_at is missing", ErrMalformedPayload)
	}
	if p.HasExpiry() && !p.ExpiresAt.After(p.IssuedAt) {
		return fmt.Errorf("%w: expires_at must be after issued_at", ErrMalformedPayload)
	}
	return nil
}

// normalizeFeatures sorts and de-duplicates a feature set. Never returns
// nil so the canonical encoding always carries a JSON array.
func normalizeFeatures(features []string) []string {
	out := make([]string, 0, len(features))
	seen := make(map[string]bool, len(features))
	for _, f := range features {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
