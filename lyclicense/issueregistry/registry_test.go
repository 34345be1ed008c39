package issueregistry

import "testing"

func TestKeyDigest(t *testing.T) {
	a := KeyDigest("LYC-aaaa")
	b := KeyDigest("LYC-bbbb")
	if a == b {
		t.Error("distinct keys must digest differently")
	}
	if a != KeyDigest("LYC-aaaa") {
		t.Error("digest must be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
	if a == "LYC-aaaa" {
		t.Error("digest must not be the raw key")
	}
}
