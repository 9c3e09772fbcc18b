package jwe

import "crypto/rand"

// readRandom fills b with cryptographically secure random bytes, the
// same source the teacher uses for key generation and signing nonces
// (crypto/rand.Reader) rather than a package-level PRNG.
func readRandom(b []byte) (int, error) {
	return rand.Read(b)
}
