// Package concatkdf implements the Concatenation Key Derivation
// Function from NIST SP 800-56A section 5.8.1, as profiled for
// ECDH-ES by RFC 7518 section 4.6.
//
// No repo in the retrieved corpus carries a usable implementation, so
// this is written directly against the NIST specification and RFC
// 7518's OtherInfo layout: AlgorithmID || PartyUInfo || PartyVInfo ||
// SuppPubInfo || SuppPrivInfo. AlgorithmID, PartyUInfo and PartyVInfo
// are each length-prefixed with a 4-byte big-endian count; SuppPubInfo
// is the fixed 4-byte big-endian key length; SuppPrivInfo, which this
// profile never uses, is appended as given.
package concatkdf

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/joseerr"
)

// Derive runs the Concat KDF over z (the shared secret from ECDH) and
// returns keyDataLenBits/8 bytes of derived key material. algorithmID
// is the JWE "enc" or "alg" value identifying the algorithm the
// derived key will be used with, already encoded as length-prefixed
// octets per RFC 7518 section 4.6.2 (Datalen || Data); partyUInfo and
// partyVInfo are similarly pre-framed, an omitted "apu"/"apv" being
// LengthPrefixed(nil), a zero-length field; suppPubInfo is
// SuppPubInfo(keyDataLenBits). Derive adds no framing of its own.
func Derive(z []byte, keyDataLenBits int, algorithmID, partyUInfo, partyVInfo, suppPubInfo, suppPrivInfo []byte) ([]byte, error) {
	if keyDataLenBits <= 0 || keyDataLenBits%8 != 0 {
		return nil, joseerr.New(joseerr.ProviderError, "concatkdf: key data length must be a positive multiple of 8 bits")
	}

	otherInfo := concatWithLenPrefix(algorithmID, partyUInfo, partyVInfo, suppPubInfo)
	otherInfo = append(otherInfo, suppPrivInfo...)

	h := sha256.New()
	return deriveWithHash(h, z, keyDataLenBits/8, otherInfo)
}

// concatWithLenPrefix concatenates the four fixed OtherInfo fields in
// order. The caller has already framed them per RFC 7518 section
// 4.6.2 (the first three length-prefixed, SuppPubInfo in its fixed
// 4-byte form); it exists only to make the assembly order explicit at
// the call site.
func concatWithLenPrefix(fields ...[]byte) []byte {
	var out []byte
	for _, f := range fields {
		out = append(out, f...)
	}
	return out
}

// deriveWithHash implements NIST SP 800-56A section 5.8.1's single-step
// KDF: repeatedly hash a 4-byte big-endian counter, z, and otherInfo,
// concatenating the digests until enough octets have been produced,
// then truncating to the requested length.
func deriveWithHash(h hash.Hash, z []byte, outLen int, otherInfo []byte) ([]byte, error) {
	hashLen := h.Size()
	reps := (outLen + hashLen - 1) / hashLen
	if reps > 0xFFFFFFFF {
		return nil, joseerr.New(joseerr.ProviderError, "concatkdf: requested output too large")
	}

	derived := make([]byte, 0, reps*hashLen)
	for counter := uint32(1); counter <= uint32(reps); counter++ {
		h.Reset()

		var counterBytes [4]byte
		binary.BigEndian.PutUint32(counterBytes[:], counter)

		h.Write(counterBytes[:])
		h.Write(z)
		h.Write(otherInfo)

		derived = h.Sum(derived)
	}

	return derived[:outLen], nil
}

// LengthPrefixed returns data prefixed with its length as a 4-byte
// big-endian integer, the framing RFC 7518 section 4.6.2 requires for
// variable-length OtherInfo field (AlgorithmID, PartyUInfo,
// PartyVInfo). SuppPubInfo is not length-prefixed; see SuppPubInfo.
func LengthPrefixed(data []byte) []byte {
	out := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(out[:4], uint32(len(data)))
	copy(out[4:], data)
	return out
}

// SuppPubInfo returns the fixed 4-byte big-endian encoding of the
// derived key length in bits, as required for the SuppPubInfo field
// of the ECDH-ES OtherInfo by RFC 7518 section 4.6.2.
func SuppPubInfo(keyDataLenBits int) []byte {
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], uint32(keyDataLenBits))
	return out[:]
}
