package lyclicense

import "errors"

// Sentinel errors for key generation and signing.
var (
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	ErrUnsupportedHash      = errors.New("unsupported hash algorithm")
	ErrKeyMismatch          = errors.New("key does not match requested algorithm")
)

// Sentinel errors for encoding and key parsing.
var (
	ErrMalformedPayload = errors.New("malformed license payload")
	ErrInvalidKey       = errors.New("invalid PEM key")
)
