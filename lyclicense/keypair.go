package lyclicense

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// rsaBits returns the nominal modulus size for an RSA variant, or 0 for
// non-RSA algorithms.
func rsaBits(alg Algorithm) int {
	switch alg {
	case AlgRSA2048:
		return 2048
	case AlgRSA4096:
		return 4096
	default:
		return 0
	}
}

// GenerateKeyPair produces a signing key pair for the given algorithm using
// crypto/rand. For RSA variants, keySize 0 selects the variant's nominal
// modulus size; an explicit keySize below that minimum is rejected. ECDSA
// variants fix the curve by name and accept only keySize 0 (or the curve's
// own bit size).
//
// The pair is returned in PEM form: PKCS#8 for the private key, PKIX for
// the public key. Nothing is persisted.
func GenerateKeyPair(alg Algorithm, keySize int) (*KeyPair, error) {
	switch alg {
	case AlgRSA2048, AlgRSA4096:
		min := rsaBits(alg)
		if keySize == 0 {
			keySize = min
		}
		if keySize < min {
			return nil, fmt.Errorf("%w: %s requires at least %d bits, got %d", ErrUnsupportedAlgorithm, alg, min, keySize)
		}
		key, err := rsa.GenerateKey(rand.Reader, keySize)
		if err != nil {
			return nil, fmt.Errorf("generate RSA key: %w", err)
		}
		return encodeKeyPair(alg, key, &key.PublicKey)

	case AlgECDSAP256, AlgECDSAP384:
		curve := elliptic.P256()
		if alg == AlgECDSAP384 {
			curve = elliptic.P384()
		}
		if keySize != 0 && keySize != curve.Params().BitSize {
			return nil, fmt.Errorf("%w: %s fixes the key size to %d bits", ErrUnsupportedAlgorithm, alg, curve.Params().BitSize)
		}
		key, err := ecdsa.GenerateKey(curve, rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate ECDSA key: %w", err)
		}
		return encodeKeyPair(alg, key, &key.PublicKey)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
}

func encodeKeyPair(alg Algorithm, priv crypto.PrivateKey, pub crypto.PublicKey) (*KeyPair, error) {
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return &KeyPair{
		Algorithm: alg,
		PrivateKeyPEM: pem.EncodeToMemory(&pem.Block{
			Type:  "PRIVATE KEY",
			Bytes: privDER,
		}),
		PublicKeyPEM: pem.EncodeToMemory(&pem.Block{
			Type:  "PUBLIC KEY",
			Bytes: pubDER,
		}),
	}, nil
}

// parsePrivateKey decodes a PEM private key. PKCS#8 is the native form;
// PKCS#1 and SEC 1 blocks are accepted for keys generated by other tools.
// Error text deliberately excludes the key bytes.
func parsePrivateKey(pemBytes []byte) (crypto.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}
	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse PKCS#8 private key", ErrInvalidKey)
		}
		return key, nil
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse PKCS#1 private key", ErrInvalidKey)
		}
		return key, nil
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse EC private key", ErrInvalidKey)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrInvalidKey, block.Type)
	}
}

// parsePublicKey decodes a PEM public key (PKIX, with PKCS#1 accepted).
func parsePublicKey(pemBytes []byte) (crypto.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}
	switch block.Type {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse PKIX public key", ErrInvalidKey)
		}
		return key, nil
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse PKCS#1 public key", ErrInvalidKey)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrInvalidKey, block.Type)
	}
}

// checkPrivateKeyAlgorithm verifies that a parsed private key belongs to the
// family and strength named by alg.
func checkPrivateKeyAlgorithm(key crypto.PrivateKey, alg Algorithm) error {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		min := rsaBits(alg)
		if min == 0 {
			return fmt.Errorf("%w: RSA key supplied for %s", ErrKeyMismatch, alg)
		}
		if k.N.BitLen() < min {
			return fmt.Errorf("%w: RSA key is %d bits, %s requires at least %d", ErrKeyMismatch, k.N.BitLen(), alg, min)
		}
		return nil
	case *ecdsa.PrivateKey:
		return checkCurve(k.Curve, alg)
	default:
		return fmt.Errorf("%w: unsupported private key type", ErrKeyMismatch)
	}
}

// checkPublicKeyAlgorithm is the public-key counterpart of
// checkPrivateKeyAlgorithm.
func checkPublicKeyAlgorithm(key crypto.PublicKey, alg Algorithm) error {
	switch k := key.(type) {
	case *rsa.PublicKey:
		min := rsaBits(alg)
		if min == 0 {
			return fmt.Errorf("%w: RSA key supplied for %s", ErrKeyMismatch, alg)
		}
		if k.N.BitLen() < min {
			return fmt.Errorf("%w: RSA key is %d bits, %s requires at least %d", ErrKeyMismatch, k.N.BitLen(), alg, min)
		}
		return nil
	case *ecdsa.PublicKey:
		return checkCurve(k.Curve, alg)
	default:
		return fmt.Errorf("%w: unsupported public key type", ErrKeyMismatch)
	}
}

func checkCurve(curve elliptic.Curve, alg Algorithm) error {
	var want elliptic.Curve
	switch alg {
	case AlgECDSAP256:
		want = elliptic.P256()
	case AlgECDSAP384:
		want = elliptic.P384()
	default:
		return fmt.Errorf("%w: ECDSA key supplied for %s", ErrKeyMismatch, alg)
	}
	if curve != want {
		return fmt.Errorf("%w: key uses curve %s, %s requires %s", ErrKeyMismatch, curve.Params().Name, alg, want.Params().Name)
	}
	return nil
}
