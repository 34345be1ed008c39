package lyclicense

import (
	"errors"
	"testing"
)

func TestSignVerify_AllAlgorithms(t *testing.T) {
	payload := testPayload()
	cases := []struct {
		alg  Algorithm
		hash Hash
	}{
		{AlgRSA2048, HashSHA256},
		{AlgECDSAP256, HashSHA256},
		{AlgECDSAP384, HashSHA384},
		{AlgECDSAP256, HashSHA512},
	}
	for _, tc := range cases {
		kp, err := GenerateKeyPair(tc.alg, 0)
		if err != nil {
			t.Fatalf("%s: generate: %v", tc.alg, err)
		}
		sig, err := Sign(payload, kp.PrivateKeyPEM, tc.alg, tc.hash)
		if err != nil {
			t.Fatalf("%s/%s: sign: %v", tc.alg, tc.hash, err)
		}
		ok, err := VerifySignature(payload, sig, kp.PublicKeyPEM, tc.alg, tc.hash)
		if err != nil {
			t.Fatalf("%s/%s: verify: %v", tc.alg, tc.hash, err)
		}
		if !ok {
			t.Errorf("%s/%s: signature should verify", tc.alg, tc.hash)
		}
	}
}

func TestVerify_TamperedPayloadBytes(t *testing.T) {
	payload := testPayload()
	kp, err := GenerateKeyPair(AlgECDSAP256, 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	encoded, err := EncodePayload(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	sig, err := signBytes(encoded, kp.PrivateKeyPEM, AlgECDSAP256, HashSHA256)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// Flipping any single byte of the encoded form must break verification.
	for i := range encoded {
		mutated := make([]byte, len(encoded))
		copy(mutated, encoded)
		mutated[i] ^= 0x01
		ok, err := verifyBytes(mutated, sig, kp.PublicKeyPEM, AlgECDSAP256, HashSHA256)
		if err != nil {
			t.Fatalf("byte %d: verify: %v", i, err)
		}
		if ok {
			t.Fatalf("byte %d: tampered payload verified", i)
		}
	}
}

func TestVerify_WrongKeyReturnsFalse(t *testing.T) {
	payload := testPayload()
	kp1, _ := GenerateKeyPair(AlgECDSAP256, 0)
	kp2, _ := GenerateKeyPair(AlgECDSAP256, 0)

	sig, err := Sign(payload, kp1.PrivateKeyPEM, AlgECDSAP256, HashSHA256)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ok, err := VerifySignature(payload, sig, kp2.PublicKeyPEM, AlgECDSAP256, HashSHA256)
	if err != nil {
		t.Fatalf("verify with wrong key should not error: %v", err)
	}
	if ok {
		t.Error("signature verified under an unrelated key")
	}
}

func TestSign_KeyMismatch(t *testing.T) {
	payload := testPayload()

	ec, _ := GenerateKeyPair(AlgECDSAP256, 0)
	if _, err := Sign(payload, ec.PrivateKeyPEM, AlgRSA2048, HashSHA256); !errors.Is(err, ErrKeyMismatch) {
		t.Errorf("ECDSA key for RSA-2048: expected ErrKeyMismatch, got %v", err)
	}
	if _, err := Sign(payload, ec.PrivateKeyPEM, AlgECDSAP384, HashSHA384); !errors.Is(err, ErrKeyMismatch) {
		t.Errorf("P-256 key for ECDSA-P384: expected ErrKeyMismatch, got %v", err)
	}
}

func TestSign_UnsupportedHash(t *testing.T) {
	kp, _ := GenerateKeyPair(AlgECDSAP256, 0)
	if _, err := Sign(testPayload(), kp.PrivateKeyPEM, AlgECDSAP256, Hash("MD5")); !errors.Is(err, ErrUnsupportedHash) {
		t.Errorf("expected ErrUnsupportedHash, got %v", err)
	}
}

func TestVerify_UndecodableKeyIsError(t *testing.T) {
	payload := testPayload()
	kp, _ := GenerateKeyPair(AlgECDSAP256, 0)
	sig, _ := Sign(payload, kp.PrivateKeyPEM, AlgECDSAP256, HashSHA256)

	if _, err := VerifySignature(payload, sig, []byte("garbage"), AlgECDSAP256, HashSHA256); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}
