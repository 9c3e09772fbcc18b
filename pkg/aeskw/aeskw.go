// Package aeskw implements the AES Key Wrap algorithm from RFC 3394,
// used by the JWE A128KW/A192KW/A256KW key management algorithms
// defined in RFC 7518 section 4.4, and as the wrapping step of
// ECDH-ES+A*KW (section 4.6) and PBES2 (section 4.8). The A*GCMKW
// algorithms (section 4.7) use AES-GCM instead.
//
// No example repo in the retrieved corpus carries a usable Key Wrap
// implementation, so this is written directly against RFC 3394
// sections 2.2.1 and 2.2.2, delegating the block cipher itself to
// crypto/aes.
package aeskw

import (
	"crypto/aes"
	"encoding/binary"

	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/base64"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/joseerr"
)

// defaultIV is the initial value specified in RFC 3394 section 2.2.3.1.
var defaultIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// Wrap encrypts cek (the key-encryption-key's target, conventionally
// the content encryption key) under kek using the AES Key Wrap
// algorithm. cek must be a multiple of 8 bytes and at least 16 bytes
// long.
func Wrap(kek, cek []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, joseerr.Wrap(joseerr.InvalidKeyLength, err, "aeskw: invalid key-encryption key")
	}

	if len(cek) < 16 || len(cek)%8 != 0 {
		return nil, joseerr.New(joseerr.InvalidKeyLength, "aeskw: plaintext key length must be a multiple of 8 bytes, at least 16")
	}

	n := len(cek) / 8

	// 1) Initialize variables.
	var a [8]byte
	copy(a[:], defaultIV[:])

	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], cek[i*8:(i+1)*8])
	}

	// 2) Calculate intermediate values.
	var buf [16]byte
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], a[:])
			copy(buf[8:], r[i-1][:])

			block.Encrypt(buf[:], buf[:])

			copy(a[:], buf[:8])
			t := uint64(n*j + i)
			xorUint64(&a, t)

			copy(r[i-1][:], buf[8:])
		}
	}

	// 3) Output the results.
	out := make([]byte, 8+len(cek))
	copy(out[:8], a[:])
	for i := 0; i < n; i++ {
		copy(out[8+i*8:8+(i+1)*8], r[i][:])
	}
	return out, nil
}

// Unwrap decrypts a value previously produced by Wrap. It returns
// joseerr.DecryptionFailed (never a finer-grained reason) if the
// integrity check value does not match, since an unwrap failure here
// is cryptographically equivalent to a JWE authentication failure and
// must not become a decryption oracle.
func Unwrap(kek, wrapped []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, joseerr.Wrap(joseerr.InvalidKeyLength, err, "aeskw: invalid key-encryption key")
	}

	if len(wrapped) < 24 || len(wrapped)%8 != 0 {
		return nil, joseerr.New(joseerr.DecryptionFailed, "aeskw: wrapped key has invalid length")
	}

	n := len(wrapped)/8 - 1

	var a [8]byte
	copy(a[:], wrapped[:8])

	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], wrapped[8+i*8:8+(i+1)*8])
	}

	var buf [16]byte
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			xorUint64(&a, t)

			copy(buf[:8], a[:])
			copy(buf[8:], r[i-1][:])

			block.Decrypt(buf[:], buf[:])

			copy(a[:], buf[:8])
			copy(r[i-1][:], buf[8:])
		}
	}

	if !base64.ConstantTimeEqual(a[:], defaultIV[:]) {
		return nil, joseerr.New(joseerr.DecryptionFailed, "aeskw: integrity check failed")
	}

	out := make([]byte, n*8)
	for i := 0; i < n; i++ {
		copy(out[i*8:(i+1)*8], r[i][:])
	}
	return out, nil
}

func xorUint64(a *[8]byte, t uint64) {
	var tb [8]byte
	binary.BigEndian.PutUint64(tb[:], t)
	for i := range a {
		a[i] ^= tb[i]
	}
}

