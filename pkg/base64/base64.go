// Package base64 provides base64url encoding and decoding functions
// as defined in RFC 4648 Section 5, specifically for use in JSON Web
// Signatures (JWS) and JSON Web Tokens (JWT) as specified in RFC 7515.
//
// The key difference from standard base64 encoding is:
//   - Uses URL-safe characters (- and _ instead of + and /)
//   - Omits padding characters (=) in the encoded output
//   - Automatically handles padding when decoding
//
// This implementation is designed for cryptographic applications where
// base64url encoding is required for web-safe transmission of binary data.
//
// http://www.rfc-editor.org/rfc/rfc4648#section-5
package base64

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// Encode returns the base64url encoded string from the given input,
// with padding characters removed as required by the JOSE compact
// serialization. Encoding never fails: every byte sequence has a
// valid base64url representation.
func Encode(input []byte) string {
	if len(input) == 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(input)
}

// Decode returns the base64url decoded bytes from the given input.
//
// It rejects any character outside the base64url alphabet and any
// input whose length is congruent to 1 (mod 4), since no padding
// scheme can make such an input valid. Decoding an empty string
// yields an empty, non-nil byte slice, since some JOSE segments
// (e.g. the JWE encrypted key for "alg":"dir") are legally empty.
func Decode(input string) ([]byte, error) {
	if len(input) == 0 {
		return []byte{}, nil
	}

	if len(input)%4 == 1 {
		return nil, fmt.Errorf("base64: invalid base64url length %d", len(input))
	}

	result, err := base64.RawURLEncoding.DecodeString(input)
	if err != nil {
		return nil, fmt.Errorf("base64: invalid base64url input: %w", err)
	}
	return result, nil
}

// Concat returns the concatenation of the given byte segments, skipping
// any nil or empty segments. It never returns nil.
func Concat(segments ...[]byte) []byte {
	total := 0
	for _, s := range segments {
		total += len(s)
	}

	out := make([]byte, 0, total)
	for _, s := range segments {
		if len(s) == 0 {
			continue
		}
		out = append(out, s...)
	}
	return out
}

// SubArray returns a copy of src[offset:offset+length].
//
// Callers must ensure offset and length describe a valid window into
// src; an out-of-bounds window is an implementation bug, not a user
// error, so SubArray panics rather than returning an error.
func SubArray(src []byte, offset, length int) []byte {
	if offset < 0 || length < 0 || offset+length > len(src) {
		panic(fmt.Sprintf("base64: SubArray out of bounds: offset=%d length=%d len(src)=%d", offset, length, len(src)))
	}

	out := make([]byte, length)
	copy(out, src[offset:offset+length])
	return out
}

// ConstantTimeEqual reports whether a and b hold the same bytes, using a
// comparison whose running time does not depend on where the first
// mismatch occurs. It is used for every signature and authentication
// tag comparison in pkg/jws and pkg/jwe, so that failed verification
// never leaks timing information about how close a guess was to the
// true value.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		// Still perform a same-cost comparison so a length mismatch
		// doesn't resolve visibly faster than a same-length mismatch.
		_ = subtle.ConstantTimeCompare(a, a)
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
