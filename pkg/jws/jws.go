// Package jws implements JSON Web Signature (RFC 7515) compact
// serialization: signing input assembly, per-algorithm signature
// generation/verification, and message framing.
//
// The per-algorithm signature logic here was originally written
// inline against *jwt.Token in this module's jwt package; it is
// lifted out to this package so the signing/verification engine has a
// single owner and can be reused by the JWT facade without a JWT
// object in scope, and extended with RSASSA-PSS support.
package jws

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/base64"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/header"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwa"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/joseerr"
)

// Header is the JOSE header of a JWS, an alias kept for call sites
// that predate this package owning header.Parameters directly.
type Header = header.Parameters

// Message is a parsed or constructed JWS: header, payload, and
// signature octets, independent of any particular compact-serialization
// string.
type Message struct {
	Header    header.Parameters
	Payload   []byte
	Signature []byte

	// raw caches the original compact-serialization string, when Message
	// came from Parse, so Verify can recompute the signing input exactly
	// as transmitted instead of re-encoding (required when the sender
	// used non-canonical JSON whitespace in its protected header).
	raw string
}

// algHash maps a JWS "alg" to the hash function its signature scheme
// uses. EdDSA performs no pre-hashing; it signs the message directly.
var algHash = map[jwa.Algorithm]crypto.Hash{
	jwa.HS256: crypto.SHA256,
	jwa.HS384: crypto.SHA384,
	jwa.HS512: crypto.SHA512,
	jwa.RS256: crypto.SHA256,
	jwa.RS384: crypto.SHA384,
	jwa.RS512: crypto.SHA512,
	jwa.PS256: crypto.SHA256,
	jwa.PS384: crypto.SHA384,
	jwa.PS512: crypto.SHA512,
	jwa.ES256: crypto.SHA256,
	jwa.ES384: crypto.SHA384,
	jwa.ES512: crypto.SHA512,
	jwa.EdDSA: crypto.Hash(0),
}

// SigningInput returns the octets that are signed or MACed: the ASCII
// bytes of "<protected-header-b64>.<payload-b64>", per RFC 7515
// section 5.1 step 8.
func SigningInput(protectedB64, payloadB64 string) []byte {
	return []byte(protectedB64 + "." + payloadB64)
}

// signingInput returns the signing input for msg, preferring the raw
// protected-header segment it was parsed from (if any) over
// re-encoding msg.Header, since RFC 7515 signs the exact received
// octets, not a canonicalized re-serialization of them.
func (m *Message) signingInput() ([]byte, error) {
	if m.raw != "" {
		parts := strings.SplitN(m.raw, ".", 3)
		if len(parts) >= 2 {
			return SigningInput(parts[0], parts[1]), nil
		}
	}

	protectedB64, err := m.Header.Base64URLString()
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedEncoding, err, "jws: failed to encode protected header")
	}
	return SigningInput(protectedB64, base64.Encode(m.Payload)), nil
}

// Sign produces a JWS Message for payload under h, which must carry an
// "alg" header parameter naming the signature algorithm key is valid
// for. For "alg":"none", key is ignored; callers decide separately
// whether unsecured JWS is permitted at all.
func Sign(h header.Parameters, payload []byte, key any) (*Message, error) {
	alg, err := h.Algorithm()
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedEncoding, err, "jws: missing alg header")
	}

	msg := &Message{Header: h, Payload: payload}

	input, err := msg.signingInput()
	if err != nil {
		return nil, err
	}

	sig, err := sign(alg, input, key)
	if err != nil {
		return nil, err
	}

	msg.Signature = sig
	return msg, nil
}

func sign(alg jwa.Algorithm, input []byte, key any) ([]byte, error) {
	switch alg {
	case jwa.None:
		return []byte{}, nil
	case jwa.HS256, jwa.HS384, jwa.HS512:
		return signHMAC(algHash[alg], input, key)
	case jwa.RS256, jwa.RS384, jwa.RS512:
		privateKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, joseerr.Newf(joseerr.KeyTypeMismatch, "jws: %s requires an *rsa.PrivateKey, got %T", alg, key)
		}
		return signRSAPKCS1v15(algHash[alg], input, privateKey)
	case jwa.PS256, jwa.PS384, jwa.PS512:
		privateKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, joseerr.Newf(joseerr.KeyTypeMismatch, "jws: %s requires an *rsa.PrivateKey, got %T", alg, key)
		}
		return signRSAPSS(algHash[alg], input, privateKey)
	case jwa.ES256, jwa.ES384, jwa.ES512:
		privateKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, joseerr.Newf(joseerr.KeyTypeMismatch, "jws: %s requires an *ecdsa.PrivateKey, got %T", alg, key)
		}
		return signECDSA(algHash[alg], input, privateKey)
	case jwa.EdDSA:
		privateKey, ok := key.(ed25519.PrivateKey)
		if !ok {
			return nil, joseerr.Newf(joseerr.KeyTypeMismatch, "jws: EdDSA requires an ed25519.PrivateKey, got %T", key)
		}
		return signEdDSA(input, privateKey)
	default:
		return nil, joseerr.Newf(joseerr.UnsupportedAlgorithm, "jws: unsupported alg %q", alg)
	}
}

// Verify checks msg's signature against every key in keys, succeeding
// if any one of them verifies, and requires msg's "alg" to be a member
// of allowed. A message without "alg" returns joseerr.MalformedEncoding
// and an "alg" outside allowed returns joseerr.UnsupportedAlgorithm.
// Every key-level failure returns joseerr.SignatureInvalid: a
// malformed key, a wrong key type, and a genuine cryptographic mismatch
// are indistinguishable to the caller, so attempting to verify with
// the wrong kind of key cannot be used to probe for information about
// a correct one.
func Verify(msg *Message, allowed jwa.AllowedAlgorithms, keys ...any) error {
	return verifyMessage(msg, allowed, DefaultConfig(), keys...)
}

// VerifyWithConfig is Verify with an explicit policy, for callers that
// need to enforce something beyond the default (such as
// ECDSARequireLowS) rather than accepting a RFC 7515-compliant
// signature unconditionally.
func VerifyWithConfig(msg *Message, allowed jwa.AllowedAlgorithms, cfg Config, keys ...any) error {
	return verifyMessage(msg, allowed, cfg, keys...)
}

func verifyMessage(msg *Message, allowed jwa.AllowedAlgorithms, cfg Config, keys ...any) error {
	alg, err := msg.Header.Algorithm()
	if err != nil {
		return joseerr.Wrap(joseerr.MalformedEncoding, err, "jws: missing alg header")
	}

	if !allowed.Allowed(alg) {
		return joseerr.Newf(joseerr.UnsupportedAlgorithm, "jws: alg %q is not in the allowed set", alg)
	}

	if alg == jwa.None {
		return nil
	}

	if len(keys) == 0 {
		return joseerr.New(joseerr.SignatureInvalid, "jws: no verification key supplied")
	}

	input, err := msg.signingInput()
	if err != nil {
		return joseerr.Wrap(joseerr.MalformedEncoding, err, "jws: failed to recompute signing input")
	}

	for _, key := range keys {
		if verifyOne(cfg, alg, input, msg.Signature, key) {
			return nil
		}
	}

	return joseerr.New(joseerr.SignatureInvalid, "jws: signature did not verify with any supplied key")
}

// SignInput signs input directly under alg with key, bypassing header
// and payload framing. It exists for callers, such as the jwt package,
// that assemble their own signing input (to preserve the exact octets
// of a parsed token) but still want to reuse this package's per-algorithm
// signature primitives rather than duplicate them.
func SignInput(alg jwa.Algorithm, input []byte, key any) ([]byte, error) {
	return sign(alg, input, key)
}

// VerifyInput checks sig against input under alg with key, the
// signing-input-level counterpart to SignInput.
func VerifyInput(alg jwa.Algorithm, input, sig []byte, key any, opts ...Option) bool {
	return verifyOne(resolveConfig(opts), alg, input, sig, key)
}

func verifyOne(cfg Config, alg jwa.Algorithm, input, sig []byte, key any) bool {
	switch alg {
	case jwa.HS256, jwa.HS384, jwa.HS512:
		computed, err := signHMAC(algHash[alg], input, key)
		if err != nil {
			return false
		}
		return base64.ConstantTimeEqual(computed, sig)
	case jwa.RS256, jwa.RS384, jwa.RS512:
		publicKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return false
		}
		return verifyRSAPKCS1v15(algHash[alg], input, sig, publicKey)
	case jwa.PS256, jwa.PS384, jwa.PS512:
		publicKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return false
		}
		return verifyRSAPSS(algHash[alg], input, sig, publicKey)
	case jwa.ES256, jwa.ES384, jwa.ES512:
		publicKey, ok := key.(*ecdsa.PublicKey)
		if !ok {
			return false
		}
		return verifyECDSA(algHash[alg], input, sig, publicKey, cfg.ECDSARequireLowS)
	case jwa.EdDSA:
		publicKey, ok := key.(ed25519.PublicKey)
		if !ok {
			return false
		}
		return ed25519.Verify(publicKey, input, sig)
	default:
		return false
	}
}

func signHMAC(hash crypto.Hash, input []byte, key any) ([]byte, error) {
	var secret []byte
	switch k := key.(type) {
	case []byte:
		secret = k
	case string:
		secret = []byte(k)
	default:
		return nil, joseerr.Newf(joseerr.KeyTypeMismatch, "jws: HMAC key must be []byte or string, got %T", key)
	}

	if len(secret) == 0 {
		return nil, joseerr.New(joseerr.InvalidKeyLength, "jws: HMAC key must not be empty")
	}
	if !hash.Available() {
		return nil, joseerr.New(joseerr.ProviderError, "jws: requested hash is not available")
	}

	h := hmac.New(hash.New, secret)
	h.Write(input)
	return h.Sum(nil), nil
}

func signRSAPKCS1v15(hash crypto.Hash, input []byte, key *rsa.PrivateKey) ([]byte, error) {
	if !hash.Available() {
		return nil, joseerr.New(joseerr.ProviderError, "jws: requested hash is not available")
	}
	h := hash.New()
	h.Write(input)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, hash, h.Sum(nil))
	if err != nil {
		return nil, joseerr.Wrap(joseerr.ProviderError, err, "jws: RSA PKCS1v15 signing failed")
	}
	return sig, nil
}

func verifyRSAPKCS1v15(hash crypto.Hash, input, sig []byte, key *rsa.PublicKey) bool {
	if !hash.Available() || key == nil {
		return false
	}
	h := hash.New()
	h.Write(input)
	return rsa.VerifyPKCS1v15(key, hash, h.Sum(nil), sig) == nil
}

func signRSAPSS(hash crypto.Hash, input []byte, key *rsa.PrivateKey) ([]byte, error) {
	if !hash.Available() {
		return nil, joseerr.New(joseerr.ProviderError, "jws: requested hash is not available")
	}
	h := hash.New()
	h.Write(input)
	opts := &rsa.PSSOptions{SaltLength: hash.Size(), Hash: hash}
	sig, err := rsa.SignPSS(rand.Reader, key, hash, h.Sum(nil), opts)
	if err != nil {
		return nil, joseerr.Wrap(joseerr.ProviderError, err, "jws: RSASSA-PSS signing failed")
	}
	return sig, nil
}

func verifyRSAPSS(hash crypto.Hash, input, sig []byte, key *rsa.PublicKey) bool {
	if !hash.Available() || key == nil {
		return false
	}
	h := hash.New()
	h.Write(input)
	opts := &rsa.PSSOptions{SaltLength: hash.Size(), Hash: hash}
	return rsa.VerifyPSS(key, hash, h.Sum(nil), sig, opts) == nil
}

// ecdsaKeyBytes returns the fixed octet width of R and S for the curve
// size associated with hash, per RFC 7518 section 3.4: 32 bytes for
// ES256, 48 for ES384, 66 for ES512.
func ecdsaKeyBytes(hash crypto.Hash) (int, error) {
	switch hash {
	case crypto.SHA256:
		return 32, nil
	case crypto.SHA384:
		return 48, nil
	case crypto.SHA512:
		return 66, nil
	default:
		return 0, fmt.Errorf("jws: unsupported ECDSA hash %v", hash)
	}
}

func signECDSA(hash crypto.Hash, input []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	if !hash.Available() {
		return nil, joseerr.New(joseerr.ProviderError, "jws: requested hash is not available")
	}
	keyBytes, err := ecdsaKeyBytes(hash)
	if err != nil {
		return nil, joseerr.Wrap(joseerr.KeyTypeMismatch, err, "jws: ecdsa key size mismatch")
	}

	h := hash.New()
	h.Write(input)

	r, s, err := ecdsa.Sign(rand.Reader, key, h.Sum(nil))
	if err != nil {
		return nil, joseerr.Wrap(joseerr.ProviderError, err, "jws: ECDSA signing failed")
	}

	// JWS concatenates R and S as fixed-width big-endian octet strings
	// (RFC 7518 section 3.4), the transcoding crypto/ecdsa itself never
	// performs since Sign already returns the integers separately
	// rather than an ASN.1 DER SEQUENCE{r, s}.
	out := make([]byte, 2*keyBytes)
	r.FillBytes(out[:keyBytes])
	s.FillBytes(out[keyBytes:])
	return out, nil
}

func verifyECDSA(hash crypto.Hash, input, sig []byte, key *ecdsa.PublicKey, requireLowS bool) bool {
	if !hash.Available() || key == nil {
		return false
	}
	keyBytes, err := ecdsaKeyBytes(hash)
	if err != nil || len(sig) != 2*keyBytes {
		return false
	}

	r := new(big.Int).SetBytes(sig[:keyBytes])
	s := new(big.Int).SetBytes(sig[keyBytes:])

	if requireLowS {
		halfOrder := new(big.Int).Rsh(key.Curve.Params().N, 1)
		if s.Cmp(halfOrder) > 0 {
			return false
		}
	}

	h := hash.New()
	h.Write(input)
	return ecdsa.Verify(key, h.Sum(nil), r, s)
}

func signEdDSA(input []byte, key ed25519.PrivateKey) ([]byte, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, joseerr.New(joseerr.InvalidKeyLength, "jws: invalid Ed25519 private key size")
	}
	return ed25519.Sign(key, input), nil
}

// Parse decodes a three-segment JWS compact serialization into a
// Message, without verifying its signature.
func Parse(compact string) (*Message, error) {
	parts := strings.Split(compact, ".")
	if len(parts) != 3 {
		return nil, joseerr.Newf(joseerr.MalformedEncoding, "jws: expected 3 segments, got %d", len(parts))
	}

	headerBytes, err := base64.Decode(parts[0])
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedEncoding, err, "jws: invalid protected header encoding")
	}

	var h header.Parameters
	if err := json.Unmarshal(headerBytes, &h); err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedEncoding, err, "jws: invalid protected header JSON")
	}

	payload, err := base64.Decode(parts[1])
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedEncoding, err, "jws: invalid payload encoding")
	}

	sig, err := base64.Decode(parts[2])
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedEncoding, err, "jws: invalid signature encoding")
	}

	return &Message{Header: h, Payload: payload, Signature: sig, raw: compact}, nil
}

// CompactSerialize renders msg as a three-segment JWS compact
// serialization string.
func CompactSerialize(msg *Message) (string, error) {
	protectedB64, err := msg.Header.Base64URLString()
	if err != nil {
		return "", joseerr.Wrap(joseerr.MalformedEncoding, err, "jws: failed to encode protected header")
	}

	return protectedB64 + "." + base64.Encode(msg.Payload) + "." + base64.Encode(msg.Signature), nil
}
