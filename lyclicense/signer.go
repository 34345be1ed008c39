package lyclicense

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
)

// cryptoHash maps a Hash name to the stdlib digest implementing it.
func cryptoHash(h Hash) (crypto.Hash, error) {
	switch h {
	case HashSHA256:
		return crypto.SHA256, nil
	case HashSHA384:
		return crypto.SHA384, nil
	case HashSHA512:
		return crypto.SHA512, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedHash, h)
	}
}

func digest(data []byte, h crypto.Hash) []byte {
	hasher := h.New()
	hasher.Write(data)
	return hasher.Sum(nil)
}

// Sign computes a signature over the canonical encoding of payload using the
// PEM private key. Signing always goes through EncodePayload so the signed
// bytes and the verified bytes come from the same canonicalization.
//
// RSA variants sign with PKCS#1 v1.5, ECDSA variants with ASN.1 DER
// (SignASN1). A private key whose family or strength does not match alg
// fails with ErrKeyMismatch. Key material never appears in error text.
func Sign(payload LicensePayload, privateKeyPEM []byte, alg Algorithm, h Hash) ([]byte, error) {
	encoded, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	return signBytes(encoded, privateKeyPEM, alg, h)
}

// signBytes signs already-canonical bytes. Split out so the issuer can sign
// the exact bytes it embeds in the envelope.
func signBytes(encoded, privateKeyPEM []byte, alg Algorithm, h Hash) ([]byte, error) {
	ch, err := cryptoHash(h)
	if err != nil {
		return nil, err
	}
	key, err := parsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, err
	}
	if err := checkPrivateKeyAlgorithm(key, alg); err != nil {
		return nil, err
	}

	sum := digest(encoded, ch)
	switch k := key.(type) {
	case *rsa.PrivateKey:
		sig, err := rsa.SignPKCS1v15(rand.Reader, k, ch, sum)
		if err != nil {
			return nil, fmt.Errorf("rsa sign: %w", err)
		}
		return sig, nil
	case *ecdsa.PrivateKey:
		sig, err := ecdsa.SignASN1(rand.Reader, k, sum)
		if err != nil {
			return nil, fmt.Errorf("ecdsa sign: %w", err)
		}
		return sig, nil
	default:
		return nil, fmt.Errorf("%w: unsupported private key type", ErrKeyMismatch)
	}
}
