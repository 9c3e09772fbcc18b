package jwa

// https://datatracker.ietf.org/doc/html/rfc7518#section-3.1
type Algorithm = string

// HMAC with SHA-2 Functions
//
// These algorithms are used to construct a MAC using a shared secret
// and the Hash-based Message Authentication Code (HMAC) construction
// [RFC2104] employing SHA-2 [SHS] hash functions.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.2
const (
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
)

// RSASSA-PKCS1-v1_5
//
// These algorithms are used to digitally sign a JWS and produce a
// JWS Signature using PKCS #1 v1.5 methods.
//
// # RSA Key Size
//
// A key of size 2048 bits or larger MUST be used with these algorithms.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.3
const (
	RS256 Algorithm = "RS256"
	RS384 Algorithm = "RS384"
	RS512 Algorithm = "RS512"
)

// ECDSA
//
// These algorithms are used to digitally sign a JWS and produce a
// JWS Signature using ECDSA algorithms.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.4
const (
	ES256 Algorithm = "ES256"
	ES384 Algorithm = "ES384"
	ES512 Algorithm = "ES512"
)

// RSASSA-PSS
//
// These algorithms are used to digitally sign a JWS and produce a
// JWS Signature using the RSASSA-PSS algorithms.
//
// # RSA Key Size
//
// A key of size 2048 bits or larger MUST be used with these algorithms.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.5
const (
	PS256 Algorithm = "PS256"
	PS384 Algorithm = "PS384"
	PS512 Algorithm = "PS512"
)

// No signature or MAC performed (unprotected JWS). This algorithm is
// intended to be used to create a JWS that is not integrity protected.
//
// # Warning
//
// The use of this algorithm is considered dangerous. Do NOT use this
// algorithm, it's only implemented for completeness.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.6
const None Algorithm = "none"

// I have no idea where these are documented, but other libraries implement them?
const (
	ES256K Algorithm = "ES256K"
	EdDSA  Algorithm = "EdDSA"
)

// AllowedAlgorithms is a closed set of JWS/JWT "alg" values a verifier
// will accept, used to prevent algorithm confusion attacks (e.g. an
// attacker re-signing a token with "alg":"none" or substituting an
// HMAC signature verified under a public key meant for RS256).
type AllowedAlgorithms []Algorithm

// NewAllowedAlgorithms returns an AllowedAlgorithms set containing algs.
func NewAllowedAlgorithms(algs ...Algorithm) AllowedAlgorithms {
	return AllowedAlgorithms(algs)
}

// List returns the algorithms in the set.
func (a AllowedAlgorithms) List() []Algorithm {
	return []Algorithm(a)
}

// Allowed reports whether every algorithm in algs is a member of the
// set. An empty algs is vacuously allowed; an empty set never allows
// anything.
func (a AllowedAlgorithms) Allowed(algs ...Algorithm) bool {
	for _, want := range algs {
		found := false
		for _, have := range a {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// DefaultAllowedAlgorithms returns the algorithms allowed to be used
// absent any more specific policy: RS256 and ES256.
func DefaultAllowedAlgorithms() AllowedAlgorithms {
	return AllowedAlgorithms{
		RS256, ES256,
	}
}

// KeyManagementAlgorithm identifies a JWE "alg" value: how the Content
// Encryption Key (CEK) is determined and transmitted.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.1
type KeyManagementAlgorithm = string

const (
	// RSA1_5 is RSAES-PKCS1-v1_5, deprecated since RFC 8017 and
	// vulnerable to Bleichenbacher padding oracles if implemented
	// naively. Disabled unless Config.AllowRSA1_5 is set.
	RSA1_5 KeyManagementAlgorithm = "RSA1_5"

	// RSAOAEP is RSAES OAEP using default parameters.
	RSAOAEP KeyManagementAlgorithm = "RSA-OAEP"

	// RSAOAEP256 is RSAES OAEP using SHA-256 and MGF1 with SHA-256.
	RSAOAEP256 KeyManagementAlgorithm = "RSA-OAEP-256"

	// A128KW, A192KW, A256KW wrap the CEK with AES Key Wrap (RFC 3394)
	// under a 128/192/256-bit shared symmetric key.
	A128KW KeyManagementAlgorithm = "A128KW"
	A192KW KeyManagementAlgorithm = "A192KW"
	A256KW KeyManagementAlgorithm = "A256KW"

	// Dir uses the shared symmetric key directly as the CEK; no
	// "encrypted key" segment is produced.
	Dir KeyManagementAlgorithm = "dir"

	// ECDHES derives the CEK directly via Concat KDF over an
	// Elliptic Curve Diffie-Hellman Ephemeral Static shared secret.
	ECDHES KeyManagementAlgorithm = "ECDH-ES"

	// ECDHESA128KW, ECDHESA192KW, ECDHESA256KW derive a key-wrapping
	// key via ECDH-ES and use it to wrap the CEK with AES Key Wrap.
	ECDHESA128KW KeyManagementAlgorithm = "ECDH-ES+A128KW"
	ECDHESA192KW KeyManagementAlgorithm = "ECDH-ES+A192KW"
	ECDHESA256KW KeyManagementAlgorithm = "ECDH-ES+A256KW"

	// A128GCMKW, A192GCMKW, A256GCMKW wrap the CEK with AES-GCM under
	// a 128/192/256-bit shared symmetric key, carrying the GCM IV and
	// authentication tag in the "iv"/"tag" header parameters.
	A128GCMKW KeyManagementAlgorithm = "A128GCMKW"
	A192GCMKW KeyManagementAlgorithm = "A192GCMKW"
	A256GCMKW KeyManagementAlgorithm = "A256GCMKW"

	// PBES2HS256A128KW, PBES2HS384A192KW, PBES2HS512A256KW derive a
	// key-wrapping key from a password via PBKDF2 with the named PRF,
	// then wrap the CEK with the named AES Key Wrap variant.
	PBES2HS256A128KW KeyManagementAlgorithm = "PBES2-HS256+A128KW"
	PBES2HS384A192KW KeyManagementAlgorithm = "PBES2-HS384+A192KW"
	PBES2HS512A256KW KeyManagementAlgorithm = "PBES2-HS512+A256KW"
)

// EncryptionAlgorithm identifies a JWE "enc" value: how the plaintext
// is encrypted and authenticated under the Content Encryption Key.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-5.1
type EncryptionAlgorithm = string

const (
	// A128CBCHS256, A192CBCHS384, A256CBCHS512 are AES_CBC_HMAC_SHA2,
	// an authenticated encryption algorithm combining AES-CBC with an
	// HMAC as described in RFC 7518 section 5.2.
	A128CBCHS256 EncryptionAlgorithm = "A128CBC-HS256"
	A192CBCHS384 EncryptionAlgorithm = "A192CBC-HS384"
	A256CBCHS512 EncryptionAlgorithm = "A256CBC-HS512"

	// A128GCM, A192GCM, A256GCM are AES in Galois/Counter Mode with a
	// 128-bit authentication tag, as described in RFC 7518 section 5.3.
	A128GCM EncryptionAlgorithm = "A128GCM"
	A192GCM EncryptionAlgorithm = "A192GCM"
	A256GCM EncryptionAlgorithm = "A256GCM"
)

// CEKBitSize returns the Content Encryption Key size in bits that enc
// requires, or 0 if enc is not recognized.
func CEKBitSize(enc EncryptionAlgorithm) int {
	switch enc {
	case A128CBCHS256:
		return 256
	case A192CBCHS384:
		return 384
	case A256CBCHS512:
		return 512
	case A128GCM:
		return 128
	case A192GCM:
		return 192
	case A256GCM:
		return 256
	default:
		return 0
	}
}

// Registry maps a closed-world key K (an Algorithm, KeyManagementAlgorithm,
// or EncryptionAlgorithm) to a handler value V, replacing the switch-per-
// call-site dispatch that would otherwise be repeated across pkg/jws and
// pkg/jwe. It is safe for concurrent reads once built; Register is not
// safe to call concurrently with Get.
type Registry[K comparable, V any] struct {
	entries map[K]V
}

// NewRegistry returns an empty Registry.
func NewRegistry[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{entries: make(map[K]V)}
}

// Register associates key with handler, overwriting any existing
// association.
func (r *Registry[K, V]) Register(key K, handler V) {
	r.entries[key] = handler
}

// Get returns the handler registered for key and true, or the zero
// value and false if no handler is registered.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	v, ok := r.entries[key]
	return v, ok
}

// Keys returns the set of registered keys in unspecified order.
func (r *Registry[K, V]) Keys() []K {
	keys := make([]K, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	return keys
}
