package lyclicense

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
)

// VerifySignature recomputes the canonical encoding of payload and checks
// sig against it with the PEM public key. A signature that simply does not
// match returns (false, nil); only malformed inputs (an undecodable key, a
// mismatched algorithm, an unknown hash) surface as errors.
//
// Comparison happens inside the signature primitives themselves
// (rsa.VerifyPKCS1v15 / ecdsa.VerifyASN1), not by comparing raw bytes, so
// timing behavior is that of the underlying scheme.
func VerifySignature(payload LicensePayload, sig, publicKeyPEM []byte, alg Algorithm, h Hash) (bool, error) {
	encoded, err := EncodePayload(payload)
	if err != nil {
		return false, err
	}
	return verifyBytes(encoded, sig, publicKeyPEM, alg, h)
}

// verifyBytes checks a signature over already-canonical bytes. The validator
// uses this form so it verifies the exact payload bytes carried in the
// envelope rather than a re-encoding.
func verifyBytes(encoded, sig, publicKeyPEM []byte, alg Algorithm, h Hash) (bool, error) {
	ch, err := cryptoHash(h)
	if err != nil {
		return false, err
	}
	key, err := parsePublicKey(publicKeyPEM)
	if err != nil {
		return false, err
	}
	if err := checkPublicKeyAlgorithm(key, alg); err != nil {
		return false, err
	}

	sum := digest(encoded, ch)
	switch k := key.(type) {
	case *rsa.PublicKey:
		return rsa.VerifyPKCS1v15(k, ch, sum, sig) == nil, nil
	case *ecdsa.PublicKey:
		return ecdsa.VerifyASN1(k, sum, sig), nil
	default:
		return false, fmt.Errorf("%w: unsupported public key type", ErrKeyMismatch)
	}
}
