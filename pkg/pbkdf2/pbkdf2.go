// Package pbkdf2 derives JWE PBES2 key-wrapping keys from a password,
// as defined in RFC 7518 section 4.8 and RFC 8018 section 5.2.
//
// The salt-framing and bookkeeping here are ported from the original
// nimbus-jose-jwt PBKDF2 helper (formatSalt, minimum salt length, the
// (2^32-1)*hLen derived-key-length ceiling); the PBKDF2 block arithmetic
// itself is delegated to golang.org/x/crypto/pbkdf2, a real
// third-party implementation rather than a hand rolled one.
package pbkdf2

import (
	"hash"

	"golang.org/x/crypto/pbkdf2"

	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/base64"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwa"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/joseerr"
)

// MinSaltLength is the minimum permitted length, in bytes, of the
// "p2s" salt input before algorithm-name framing.
const MinSaltLength = 8

// maxDerivedKeyLength is (2^32)-1; Derive rejects a dkLen above it
// times the PRF output length, the RFC 8018 section 5.2 ceiling.
const maxDerivedKeyLength = 4294967295

// FormatSalt returns the PBKDF2 salt value RFC 7518 section 4.8.1.1
// requires: UTF8(alg) || 0x00 || salt. alg must be one of the
// PBES2-HS*+A*KW key management algorithms, and salt must be at least
// MinSaltLength bytes.
func FormatSalt(alg jwa.KeyManagementAlgorithm, salt []byte) ([]byte, error) {
	if len(salt) < MinSaltLength {
		return nil, joseerr.Newf(joseerr.InvalidSalt, "pbkdf2: salt must be at least %d bytes long", MinSaltLength)
	}

	return base64.Concat([]byte(alg), []byte{0x00}, salt), nil
}

// Derive runs PBKDF2 over password and formattedSalt (as produced by
// FormatSalt), using prf as the underlying HMAC hash and returning
// dkLen bytes of derived key material.
func Derive(password, formattedSalt []byte, iterations, dkLen int, prf func() hash.Hash) ([]byte, error) {
	if iterations < 1 {
		return nil, joseerr.New(joseerr.InvalidIterationCount, "pbkdf2: iteration count must be positive")
	}
	if dkLen < 1 || int64(dkLen) > maxDerivedKeyLength*int64(prf().Size()) {
		return nil, joseerr.New(joseerr.ProviderError, "pbkdf2: derived key length out of range")
	}

	return pbkdf2.Key(password, formattedSalt, iterations, dkLen, prf), nil
}
