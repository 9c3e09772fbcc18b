package jwt

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/base64"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/header"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwa"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwe"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jws"
	"golang.org/x/exp/slices"
)

// Type "JWT" is the media type used by JSON Web Token (JWT).
//
// # Example
//
//	header := header.Parameters{
//		header.Type:      jwt.Type,
//		header.Algorithm: jwa.HS256,
//	}
//
// https://www.rfc-editor.org/rfc/rfc7515.html#section-3.3
const Type header.ParamaterName = "JWT"

// Token is a decoded JSON Web Token, a string representing a
// set of claims as a JSON object that is encoded in a JWS or
// JWE, enabling the claims to be digitally signed or MACed
// and/or encrypted.
//
// A Token is plain, signed (JWS) or encrypted (JWE); Kind says which.
//
// JWS JWTs contain three parts, separated by dots (".") which are:
//
//  1. Header
//  2. Claims (Payload)
//  3. Signature
//
// https://datatracker.ietf.org/doc/html/rfc7519#section-1
type Token struct {
	// Header is the set of parameters that are used to describe
	// the cryptographic operations applied to the JWT claims set.
	Header header.Parameters

	// Claims is the set of claims that are asserted by the JWT.
	//
	// This is sometimes referred to as the "payload".
	Claims ClaimsSet

	// Signature is the cryptographic signature or MAC value
	// that is used to validate the JWT.
	Signature []byte

	// Kind classifies how this token is carried: plain ("alg":"none"),
	// JWS-signed, or JWE-encrypted. Set once, at parse or construction
	// time; see Accept and the Handler interface in handler.go.
	Kind Kind

	// Raw is the (original) string representation of the JWT.
	raw string

	// encrypted holds the parsed JWE message for a Kind == KindEncrypted
	// token, until DecryptClaims recovers its plaintext claims. Nil for
	// every other Kind.
	encrypted *jwe.Message
}

// New can be used to create a signed Token object. If this fails for any
// reason, an error is returned with a nil token.
//
// Using this function does not require the given header parameters define
// the "typ" (header.Type), which is always set to "JWT" (header.TypeJWT), but
// callers can include it if they like.
//
// The claims set must not be empty, or will return an error.
//
// The given key can be a symmetric or asymmetric (private) key. The type for this
// argument depends on the algorithm "alg" defined in the header.
//
// Algorithm(s) to Supported Key Type(s):
//   - HS256, HS384, HS512: []byte or string
//   - RS256, RS384, RS512, PS256, PS384, PS512: *rsa.PrivateKey
//   - ES256, ES384, ES512: *ecdsa.PrivateKey
//   - EdDSA: ed25519.PrivateKey
func New(params header.Parameters, claims ClaimsSet, key any) (*Token, error) {
	// Given params set cannot be empty.
	if len(params) == 0 {
		return nil, fmt.Errorf("cannot create token with empty header parameters")
	}

	// Given claims set cannot be emtpy.
	if len(claims) == 0 {
		return nil, fmt.Errorf("cannot create token with empty claims set")
	}

	// Verify or otherwise handle registered claim types nicely.
	for name, value := range claims {
		switch name {
		case ExpirationTime, NotBefore, IssuedAt:
			switch v := value.(type) {
			// good
			case int64:
			// ok
			case time.Time:
				claims[name] = v.Unix()
			// bad
			default:
				return nil, fmt.Errorf("cannot use %T with %q", v, name)
			}
		case Issuer, Subject, Audience:
			switch v := value.(type) {
			// good
			case string:
			// ok
			case []string:
			case fmt.Stringer:
				claims[name] = v.String()
			// bad
			default:
				return nil, fmt.Errorf("cannot use %T with %q", v, name)
			}
		}
	}

	// Ensure the "typ" header parameter is set to "JWT", as it is required.
	if _, ok := params[header.Type]; !ok {
		params[header.Type] = Type
	} else if params[header.Type] != Type {
		return nil, fmt.Errorf("header type %q is not supported", params[header.Type])
	}

	// Create a token, in preparation to sign it.
	token := &Token{
		Header: params,
		Claims: claims,
	}

	// Sign it.
	_, err := token.Sign(key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if kind, err := header.Classify(token.Header); err == nil {
		token.Kind = kind
	}

	return token, nil
}

// computeString computes the string representation of the token,
// which is used for signing and verifying the token.
func (t *Token) computeString() string {
	buff := bytes.NewBuffer(nil)

	header, err := t.Header.Base64URLString()
	if err != nil {
		buff.Write([]byte(fmt.Sprintf("<invalid-header %#+v>.", header)))
	} else {
		buff.Write([]byte(header + "."))
	}

	if len(t.Claims) > 0 {
		buff.WriteString(t.Claims.String())
	}

	if len(t.Signature) != 0 {
		buff.Write([]byte("."))
		buff.WriteString(base64.Encode(t.Signature))
	}

	if len(t.raw) == 0 {
		t.raw = buff.String()
	}

	return buff.String()
}

// String returns the string representation of the token, which is
// the raw JWT string of three base64url encoded parts, separated
// by a period.
func (t *Token) String() string {
	// Return the raw string if it is set.
	if len(t.raw) != 0 {
		return t.raw
	}

	// If there raw string is not set, compute it.
	return t.computeString()
}

// signingInput reconstructs the exact octets that were (or will be)
// signed: the protected header and payload, base64url encoded, joined
// by a single period. When t.raw already holds a compact-serialized
// token, its first two dot-segments are reused verbatim, so a token
// parsed from the wire signs/verifies against the bytes it actually
// carried rather than a re-marshaled (and potentially
// differently-whitespaced or differently-ordered) reconstruction.
func (t *Token) signingInput() ([]byte, error) {
	if t.raw != "" {
		if parts := strings.SplitN(t.raw, ".", 3); len(parts) >= 2 {
			return jws.SigningInput(parts[0], parts[1]), nil
		}
	}

	protected, err := t.Header.Base64URLString()
	if err != nil {
		return nil, fmt.Errorf("failed to encode JOSE header: %w", err)
	}

	return jws.SigningInput(protected, t.Claims.String()), nil
}

// PrivateKey is a type that can be used to sign a JWT,
// such as a *rsa.PrivateKey or *ecdsa.PrivateKey.
//
// This may be a shared secret key, such as a []byte or string, but
// this is not recommended.
type PrivateKey interface {
	*rsa.PrivateKey | *ecdsa.PrivateKey | ed25519.PrivateKey | []byte | string
}

// PublicKey is a type that can be used to verify a JWT using
// an asymmetric algorithm, such as *rsa.PublicKey or *ecdsa.PublicKey.
type PublicKey interface {
	*rsa.PublicKey | *ecdsa.PublicKey | ed25519.PublicKey
}

// SymmetricKey is a type that can be used to sign or verify a JWT using
// a symmetric algorithm, such as HMAC.
type SymmetricKey interface {
	[]byte | string
}

// VerifyKey is a type that can be used to verify a JWT using
// either a symmetric or asymmetric algorithm.
type VerifyKey interface {
	PublicKey | SymmetricKey
}

// SigningKey is a type that can be used to sign a JWT using
// either a symmetric or asymmetric algorithm.
type SigningKey interface {
	PrivateKey | SymmetricKey
}

// Parseable is a type that can be parsed into a JWT,
// either a string or byte slice.
type Parseable interface {
	~string | ~[]byte
}

// Parse parses a given JWT, and returns a Token or an error
// if the JWT fails to parse.
//
// # Warning
//
// This is a low-level function that does not verify the
// signature of the token. Use ParseAndVerify to parse
// and verify the signature of a token in one step.
// Otherwise, use Parse to parse a token, and then
// use the VerifySignature method to verify the signature.
func Parse[T Parseable](input T) (*Token, error) {
	return ParseString(string(input))
}

// ParseAndVerify parses a given JWT, and verifies the signature
// using the given verification configuration options.
func ParseAndVerify[T Parseable](input T, veryifyOptions ...VerifyOption) (*Token, error) {
	token, err := Parse(input)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	err = token.Verify(veryifyOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to verify JWT signature: %w", err)
	}

	return token, nil
}

// ParseString parses a given JWT string, and returns a Token
// or an error if the JWT fails to parse.
//
// # Warning
//
// This is a low-level function that does not verify the
// signature of the token. Use ParseAndVerify to parse
// and verify the signature of a token in one step.
// Otherwise, use Parse to parse a token, and then
// use the VerifySignature method to verify the signature.
func ParseString(input string) (*Token, error) {
	token := &Token{}

	token.raw = input

	// Split on the first two periods only: anything after the second
	// period, including further periods, belongs to the signature
	// segment. This matches compact serialization, where the
	// signature is whatever remains after header and payload.
	fields := strings.SplitN(input, ".", 3)

	if len(fields) != 3 {
		return nil, fmt.Errorf("incorrect number of JWT parts: %d", len(fields))
	}

	b, err := base64.Decode(fields[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode JOSE header base64: %w", err)
	}
	h := jws.Header{}
	err = json.NewDecoder(bytes.NewReader(b)).Decode(&h)
	if err != nil {
		return nil, fmt.Errorf("failed to decode JOSE header JSON: %w", err)
	}
	token.Header = h

	// ensure using JWA types instead of raw string
	if _, ok := token.Header[header.Algorithm]; ok {
		token.Header[header.Algorithm] = jwa.Algorithm(fmt.Sprintf("%v", token.Header[header.Algorithm]))
	}

	b, err = base64.Decode(fields[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode claims base64: %w", err)
	}
	claims := ClaimsSet{}
	err = json.NewDecoder(bytes.NewReader(b)).Decode(&claims)
	if err != nil {
		return nil, fmt.Errorf("failed to decode claims JSON: %w", err)
	}
	token.Claims = claims

	for claimName, claimValue := range token.Claims {
		// parsing JSON values into an interface can be tricky
		switch claimName {
		case IssuedAt, ExpirationTime, NotBefore:
			switch v := claimValue.(type) {
			case int64: // good
			case float64: // ok
				token.Claims[claimName] = int64(v)
			default: // bad
				return nil, fmt.Errorf("invalid type %T used for %q", v, claimName)
			}
		}
	}

	b, err = base64.Decode(fields[2])
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature base64: %w", err)
	}
	token.Signature = b

	kind, err := header.Classify(token.Header)
	if err != nil {
		return nil, fmt.Errorf("failed to classify token: %w", err)
	}
	token.Kind = kind

	return token, nil
}

// Set is a set of comparable values for JWT operations.
type Set[T comparable] map[T]struct{}

// NewSet creates a new set of strings.
func NewSet(strings ...string) Set[string] {
	m := make(Set[string])
	for _, s := range strings {
		m[s] = struct{}{}
	}
	return m
}

// Issuers is a set of issuers.
type Issuers = []string

// VerifyConfig is a configuration type for verifying JWTs.
type VerifyConfig struct {
	// InsecureAllowNone allows the "none" algorithm to be used, which
	// is considered insecure, dangerous, and disabled by default. It must be
	// set in addition to being enabled in the allowed algorithms.
	InsecureAllowNone bool

	// AllowedAlgorithms is a set of allowed algorithms for the JWT.
	//
	// If not set, then jwt.DefaultAllowedAlgorithms will be used.
	AllowedAlgorithms []jwa.Algorithm

	// AllowedIssuers is a set of allowed issuers for the JWT.
	//
	// If not set, then any issuers are allowed.
	AllowedIssuers []string

	// AllowedAudiences is a set of allowed audiences for the JWT.
	//
	// If not set, then any audiences are allowed.
	AllowedAudiences []string

	// AllowedKeys is a set of allowed keys for the JWT.
	//
	// If not set, then verification will fail if the algorithm
	// is not "none".
	AllowedKeys []any

	// Clock is a function that returns the current time.
	//
	// This is used to verify the "exp", "nbf", and "iat" claims.
	//
	// If not set, then time.Now will be used.
	Clock func() time.Time

	// ClockSkewTolerance relaxes "exp" and "nbf" validation by the
	// given duration, to absorb clock drift between the issuer and
	// the verifier. A token is treated as not-yet-expired as long as
	// exp+tolerance is still in the future, and as already-usable as
	// long as nbf-tolerance is no later than now.
	ClockSkewTolerance time.Duration

	// SupportedCriticalHeaders names the extension header parameters
	// this verifier understands. It is consulted only when the token
	// carries a "crit" header parameter; any name listed there that
	// isn't in this set causes verification to fail.
	SupportedCriticalHeaders []string

	// ECDSARequireLowS rejects ES256/ES384/ES512 signatures whose S
	// value is not in the lower half of the curve order, closing the
	// one bit of signature malleability ECDSA otherwise permits. Off
	// by default since RFC 7518 does not require canonical S values.
	ECDSARequireLowS bool
}

// VerifyOption is a functional option type used to configure
// the verification requirements for JWTs.
type VerifyOption func(*VerifyConfig) error

// WithAllowInsecureNoneAlgorithm allows the "none" algorithm to be used.
// Users must explicitly enable this option, as it is
// considered insecure, dangerous, and disabled by default.
//
// # WARNING
//
// This is not recommended, and should only be used
// for testing purposes.
func WithAllowInsecureNoneAlgorithm(value bool) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.InsecureAllowNone = value
		return nil
	}
}

// WithAllowedIssuers sets the allowed issuers for the JWT.
func WithAllowedIssuers(issuers ...string) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.AllowedIssuers = issuers
		return nil
	}
}

// WithAllowedAudiences sets the allowed audiences for the JWT.
func WithAllowedAudiences(audiences ...string) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.AllowedAudiences = audiences
		return nil
	}
}

// WithAllowedAlgorithms sets the allowed algorithms for the JWT.
func WithAllowedAlgorithms(algs ...jwa.Algorithm) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.AllowedAlgorithms = algs
		return nil
	}
}

// WithKey appends a key to the set of allowed keys for the JWT.
//
// This is the preferred way to add a key to the set of allowed keys,
// because it will ensure that the givne key is of the correct type
// at compile time.
func WithKey[T VerifyKey](key T) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.AllowedKeys = append(vc.AllowedKeys, key)
		return nil
	}
}

// WithKeys sets the allowed keys for the JWT.
func WithKeys(values ...any) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.AllowedKeys = values
		return nil
	}
}

// WithClock sets the clock function for verifying the JWT.
func WithClock(clock Clock) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.Clock = clock
		return nil
	}
}

// WithDefaultClock sets the clock function for verifying the JWT
// to time.Now.
func WithDefaultClock() VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.Clock = time.Now
		return nil
	}
}

// WithClockSkewTolerance allows a token's "exp" and "nbf" claims to be
// evaluated with the given amount of slack, to tolerate clock drift
// between systems that issue and verify tokens.
func WithClockSkewTolerance(d time.Duration) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.ClockSkewTolerance = d
		return nil
	}
}

// WithSupportedCriticalHeaders declares the extension header
// parameter names this verifier understands, so a "crit" header
// naming only supported extensions does not cause verification to
// fail.
func WithSupportedCriticalHeaders(names ...string) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.SupportedCriticalHeaders = names
		return nil
	}
}

// WithECDSARequireLowS requires ES256/ES384/ES512 signatures to carry
// a canonical low-S value, rejecting the high-S malleable counterpart
// of an otherwise-valid signature.
func WithECDSARequireLowS(require bool) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.ECDSARequireLowS = require
		return nil
	}
}

// Clock is type used to represent a function that returns the current time.
type Clock func() time.Time

// Expired returns true if the token is expired, false otherwise.
// If an error occurs while checking expiration, it is returned.
//
// Only use the boolean value if error is nil.
func (t *Token) Expired(clock Clock) (bool, error) {
	expValue, ok := t.Claims[ExpirationTime]
	if !ok {
		return false, nil
	}
	expInt, ok := expValue.(int64)
	if !ok {
		return false, fmt.Errorf("invalid value %q for %q", expValue, ExpirationTime)
	}
	exp := time.Unix(expInt, 0)

	return exp.Before(clock()), nil
}

// Expires returns true if the token has an expiration time claim,
// false otherwise. If an error occurs while checking expiration,
// it is returned.
//
// Only use the boolean value if error is nil.
func (t *Token) Expires() (bool, error) {
	expValue, ok := t.Claims[ExpirationTime]
	if !ok {
		return false, nil
	}
	_, ok = expValue.(int64)
	if !ok {
		return false, fmt.Errorf("invalid value %q for %q", expValue, ExpirationTime)
	}
	return true, nil
}

// algorithm to corresponding hash function
var algHash = map[jwa.Algorithm]crypto.Hash{
	jwa.HS256: crypto.SHA256,
	jwa.HS384: crypto.SHA384,
	jwa.HS512: crypto.SHA512,
	jwa.RS256: crypto.SHA256,
	jwa.RS384: crypto.SHA384,
	jwa.RS512: crypto.SHA512,
	jwa.ES256: crypto.SHA256,
	jwa.ES384: crypto.SHA384,
	jwa.ES512: crypto.SHA512,
	jwa.PS256: crypto.SHA256,
	jwa.PS384: crypto.SHA384,
	jwa.PS512: crypto.SHA512,
	jwa.EdDSA: crypto.Hash(0), // no hashing for EdDSA
}

// hash to algorithm, per family, used to delegate per-algorithm
// signing/verification primitives to pkg/jws.
var (
	hmacAlgByHash = map[crypto.Hash]jwa.Algorithm{
		crypto.SHA256: jwa.HS256,
		crypto.SHA384: jwa.HS384,
		crypto.SHA512: jwa.HS512,
	}
	rsaPKCS1AlgByHash = map[crypto.Hash]jwa.Algorithm{
		crypto.SHA256: jwa.RS256,
		crypto.SHA384: jwa.RS384,
		crypto.SHA512: jwa.RS512,
	}
	rsaPSSAlgByHash = map[crypto.Hash]jwa.Algorithm{
		crypto.SHA256: jwa.PS256,
		crypto.SHA384: jwa.PS384,
		crypto.SHA512: jwa.PS512,
	}
	ecdsaAlgByHash = map[crypto.Hash]jwa.Algorithm{
		crypto.SHA256: jwa.ES256,
		crypto.SHA384: jwa.ES384,
		crypto.SHA512: jwa.ES512,
	}
)

// minRSAKeyBytes is the smallest RSA modulus size this package will
// sign or verify with, 2048 bits, the floor recommended by RFC 7518
// section 3.3 for RS* and PS* signatures.
const minRSAKeyBytes = 256

// validateRSAKeySize rejects RSA keys below the 2048-bit minimum
// recommended for JWS signatures, whether the key is used for signing
// (a *rsa.PrivateKey) or verification (a *rsa.PublicKey).
func validateRSAKeySize(key any) error {
	var n *big.Int

	switch k := key.(type) {
	case *rsa.PrivateKey:
		n = k.N
	case *rsa.PublicKey:
		n = k.N
	default:
		return fmt.Errorf("invalid RSA key type: %T", key)
	}

	size := (n.BitLen() + 7) / 8
	if size < minRSAKeyBytes {
		return fmt.Errorf("RSA key size %d bytes (%d bits) is below minimum required %d bytes (%d bits)", size, size*8, minRSAKeyBytes, minRSAKeyBytes*8)
	}

	return nil
}

// VerifySignature verifies the signature of the token using the
// given verification configuration options.
//
// # Warning
//
// This only verifies the signature, and does not verify any
// other claims, such as expiration time, issuer, audience, etc.
func (t *Token) VerifySignature(allowedAlgs []string, allowedKeys ...any) error {
	return t.verifySignature(allowedAlgs, false, allowedKeys...)
}

func (t *Token) verifySignature(allowedAlgs []string, ecdsaRequireLowS bool, allowedKeys ...any) error {
	alg, err := t.Header.Algorithm()
	if err != nil {
		return fmt.Errorf("failed to verify alg: %w", err)
	}

	if !slices.Contains(allowedAlgs, alg) {
		return fmt.Errorf("requested algorithm %q is not allowed", alg)
	}

	if alg == jwa.None {
		if len(t.Signature) != 0 {
			return fmt.Errorf("signature must be empty for algorithm %q", alg)
		}
		return nil
	}

	// Require a key (symmetric or asymmetric) for all algorithms except "none".
	if len(allowedKeys) == 0 {
		return fmt.Errorf("no key provided to verify signature using algorithm %q", alg)
	}

	// Verify the signature based on the algorithm.
	switch alg {
	case jwa.HS256, jwa.HS384, jwa.HS512:
		for _, key := range allowedKeys {
			err := t.VerifyHMACSignature(algHash[alg], key)
			if err == nil {
				return nil
			}
		}
		return fmt.Errorf("failed to verify HMAC signature using any of the allowed keys")
	case jwa.RS256, jwa.RS384, jwa.RS512:
		for _, key := range allowedKeys {
			publicKey, ok := key.(*rsa.PublicKey)
			if !ok {
				continue
			}
			err := t.VerifyRSASignature(algHash[alg], publicKey)
			if err == nil {
				return nil
			}
			if strings.Contains(err.Error(), "RSA key validation failed") {
				return err
			}
		}
		return fmt.Errorf("failed to verify RSA signature using any of the allowed keys")
	case jwa.PS256, jwa.PS384, jwa.PS512:
		for _, key := range allowedKeys {
			publicKey, ok := key.(*rsa.PublicKey)
			if !ok {
				continue
			}
			err := t.VerifyRSAPSSSignature(algHash[alg], publicKey)
			if err == nil {
				return nil
			}
			if strings.Contains(err.Error(), "RSA key validation failed") {
				return err
			}
		}
		return fmt.Errorf("failed to verify RSA signature using any of the allowed keys")
	case jwa.ES256, jwa.ES384, jwa.ES512:
		for _, key := range allowedKeys {
			publicKey, ok := key.(*ecdsa.PublicKey)
			if !ok {
				continue
			}
			err := t.verifyECDSASignature(algHash[alg], publicKey, ecdsaRequireLowS)
			if err == nil {
				return nil
			}
		}
		return fmt.Errorf("failed to verify ECDSA signature using any of the allowed keys")
	case jwa.EdDSA:
		for _, key := range allowedKeys {
			publicKey, ok := key.(ed25519.PublicKey)
			if !ok {
				continue
			}
			err := t.VerifyEdDSASignature(publicKey)
			if err == nil {
				return nil
			}
		}
		return fmt.Errorf("failed to verify EdDSA signature using any of the allowed keys")
	default:
		return fmt.Errorf("algorithm %q not implemented or allowed", alg)
	}
}

// HMACSignature returns the HMAC signature of the token using the
// given hash and key.
func (t *Token) HMACSignature(hash crypto.Hash, key any) ([]byte, error) {
	var secretKey []byte

	// If the key is a string, convert it to a byte slice.
	switch keyTyped := key.(type) {
	case []byte:
		secretKey = keyTyped
	case string:
		secretKey = []byte(keyTyped)
	default:
		return nil, fmt.Errorf("secret key is %T, not a byte slice or string", key)
	}

	// Ensure the secret key is not empty.
	if len(secretKey) == 0 {
		return nil, fmt.Errorf("no secret key provided, cannot complete operation")
	}

	// Ensure the hash is available.
	if !hash.Available() {
		return nil, fmt.Errorf("requested hash is not available")
	}

	// RFC 7518 section 3.2 requires an HMAC key at least as long as
	// the hash output it is used with.
	if minBytes := hash.Size(); len(secretKey) < minBytes {
		return nil, fmt.Errorf("HMAC key must be at least %d bytes, got %d", minBytes, len(secretKey))
	}

	alg, ok := hmacAlgByHash[hash]
	if !ok {
		return nil, fmt.Errorf("unsupported HMAC hash %v", hash)
	}

	input, err := t.signingInput()
	if err != nil {
		return nil, err
	}

	sig, err := jws.SignInput(alg, input, secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to compute HMAC signature: %w", err)
	}

	return sig, nil
}

// VerifyHMACSignature verifies the HMAC signature of the token using the
// given hash and key.
func (t *Token) VerifyHMACSignature(hash crypto.Hash, key any) error {
	// Compute the HMAC signature.
	sig, err := t.HMACSignature(hash, key)
	if err != nil {
		return fmt.Errorf("failed to generate HMAC signature: %w", err)
	}

	// Compare the signature to the token's signature.
	if !hmac.Equal(t.Signature, sig) {
		return fmt.Errorf("invalid HMAC signature")
	}

	return nil
}

// VerifyRSASignature verifies the RSASSA-PKCS1-v1_5 signature of the
// token using the given hash and public key.
func (t *Token) VerifyRSASignature(hash crypto.Hash, publicKey *rsa.PublicKey) error {
	if !hash.Available() {
		return fmt.Errorf("requested hash is not available")
	}

	if publicKey == nil {
		return fmt.Errorf("no RSA public key")
	}

	if err := validateRSAKeySize(publicKey); err != nil {
		return fmt.Errorf("RSA key validation failed: %w", err)
	}

	alg, ok := rsaPKCS1AlgByHash[hash]
	if !ok {
		return fmt.Errorf("unsupported RSA hash %v", hash)
	}

	input, err := t.signingInput()
	if err != nil {
		return fmt.Errorf("failed to compute signing input: %w", err)
	}

	if !jws.VerifyInput(alg, input, t.Signature, publicKey) {
		return fmt.Errorf("failed to verify RSA signature")
	}

	return nil
}

// RSASignature returns the RSASSA-PKCS1-v1_5 signature of the token
// using the given hash and private key.
func (t *Token) RSASignature(hash crypto.Hash, privateKey *rsa.PrivateKey) ([]byte, error) {
	if !hash.Available() {
		return nil, fmt.Errorf("requested hash is not available")
	}

	if privateKey == nil {
		return nil, fmt.Errorf("no RSA private key")
	}

	if err := validateRSAKeySize(privateKey); err != nil {
		return nil, fmt.Errorf("RSA key validation failed: %w", err)
	}

	alg, ok := rsaPKCS1AlgByHash[hash]
	if !ok {
		return nil, fmt.Errorf("unsupported RSA hash %v", hash)
	}

	input, err := t.signingInput()
	if err != nil {
		return nil, err
	}

	return jws.SignInput(alg, input, privateKey)
}

// VerifyRSAPSSSignature verifies the RSASSA-PSS signature of the
// token using the given hash and public key.
func (t *Token) VerifyRSAPSSSignature(hash crypto.Hash, publicKey *rsa.PublicKey) error {
	if !hash.Available() {
		return fmt.Errorf("requested hash is not available")
	}

	if publicKey == nil {
		return fmt.Errorf("no RSA public key")
	}

	if err := validateRSAKeySize(publicKey); err != nil {
		return fmt.Errorf("RSA key validation failed: %w", err)
	}

	alg, ok := rsaPSSAlgByHash[hash]
	if !ok {
		return fmt.Errorf("unsupported RSA-PSS hash %v", hash)
	}

	input, err := t.signingInput()
	if err != nil {
		return fmt.Errorf("failed to compute signing input: %w", err)
	}

	if !jws.VerifyInput(alg, input, t.Signature, publicKey) {
		return fmt.Errorf("failed to verify RSA-PSS signature")
	}

	return nil
}

// RSAPSSSignature returns the RSASSA-PSS signature of the token using
// the given hash and private key.
func (t *Token) RSAPSSSignature(hash crypto.Hash, privateKey *rsa.PrivateKey) ([]byte, error) {
	if !hash.Available() {
		return nil, fmt.Errorf("requested hash is not available")
	}

	if privateKey == nil {
		return nil, fmt.Errorf("no RSA private key")
	}

	if err := validateRSAKeySize(privateKey); err != nil {
		return nil, fmt.Errorf("RSA key validation failed: %w", err)
	}

	alg, ok := rsaPSSAlgByHash[hash]
	if !ok {
		return nil, fmt.Errorf("unsupported RSA-PSS hash %v", hash)
	}

	input, err := t.signingInput()
	if err != nil {
		return nil, err
	}

	return jws.SignInput(alg, input, privateKey)
}

// VerifyECDSASignature verifies the ECDSA signature of the token using the
// given hash and public key.
func (t *Token) VerifyECDSASignature(hash crypto.Hash, publicKey *ecdsa.PublicKey) error {
	return t.verifyECDSASignature(hash, publicKey, false)
}

func (t *Token) verifyECDSASignature(hash crypto.Hash, publicKey *ecdsa.PublicKey, requireLowS bool) error {
	if !hash.Available() {
		return fmt.Errorf("requested hash is not available")
	}

	if publicKey == nil {
		return fmt.Errorf("no ECDSA public key")
	}

	alg, ok := ecdsaAlgByHash[hash]
	if !ok {
		return fmt.Errorf("invalid hash: %v", hash)
	}

	input, err := t.signingInput()
	if err != nil {
		return fmt.Errorf("failed to compute signing input: %w", err)
	}

	if !jws.VerifyInput(alg, input, t.Signature, publicKey, jws.WithECDSARequireLowS(requireLowS)) {
		return fmt.Errorf("failed to verify ECDSA signature")
	}

	return nil
}

// ECDSASignature returns the ECDSA signature of the token using the
// given hash and private key.
func (t *Token) ECDSASignature(hash crypto.Hash, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if !hash.Available() {
		return nil, fmt.Errorf("requested hash %v is not available", hash)
	}

	if privateKey == nil {
		return nil, fmt.Errorf("no ECDSA private key")
	}

	alg, ok := ecdsaAlgByHash[hash]
	if !ok {
		return nil, fmt.Errorf("invalid hash %v requested", hash)
	}

	input, err := t.signingInput()
	if err != nil {
		return nil, err
	}

	return jws.SignInput(alg, input, privateKey)
}

// VerifyEdDSASignature verifies the EdDSA signature of the token using the
// given public key.
func (t *Token) VerifyEdDSASignature(publicKey ed25519.PublicKey) error {
	if len(publicKey) == 0 {
		return fmt.Errorf("no EdDSA public key")
	}

	if len(publicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid Ed25519 public key size")
	}

	input, err := t.signingInput()
	if err != nil {
		return fmt.Errorf("failed to compute signing input: %w", err)
	}

	if !jws.VerifyInput(jwa.EdDSA, input, t.Signature, publicKey) {
		return fmt.Errorf("failed to validate EdDSA signature")
	}

	return nil
}

// EdDSASignature returns the EdDSA signature of the token using the
// given private key.
func (t *Token) EdDSASignature(privateKey ed25519.PrivateKey) ([]byte, error) {
	if len(privateKey) == 0 {
		return nil, fmt.Errorf("no EdDSA private key")
	}

	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid EdDSA private key size")
	}

	input, err := t.signingInput()
	if err != nil {
		return nil, err
	}

	return jws.SignInput(jwa.EdDSA, input, privateKey)
}

// Sign returns the signature of the token using the given options.
func (t *Token) Sign(key any) ([]byte, error) {
	typ, err := t.Header.Type()
	if err != nil {
		return nil, fmt.Errorf("invalid JWT header type: %w", err)
	}

	if typ != Type {
		return nil, fmt.Errorf("invalid JWT header type: %q", typ)
	}

	alg, err := t.Header.Algorithm()
	if err != nil {
		return nil, fmt.Errorf("missing JWT header algorithm: %w", err)
	}

	switch alg {
	case jwa.HS256, jwa.HS384, jwa.HS512:
		sig, err := t.HMACSignature(algHash[alg], key)
		if err != nil {
			return nil, err
		}
		t.Signature = sig
	case jwa.RS256, jwa.RS384, jwa.RS512:
		privateKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("invalid secret key type %T for %s", key, alg)
		}
		sig, err := t.RSASignature(algHash[alg], privateKey)
		if err != nil {
			return nil, err
		}
		t.Signature = sig
	case jwa.PS256, jwa.PS384, jwa.PS512:
		privateKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("invalid secret key type %T for %s", key, alg)
		}
		sig, err := t.RSAPSSSignature(algHash[alg], privateKey)
		if err != nil {
			return nil, err
		}
		t.Signature = sig
	case jwa.ES256, jwa.ES384, jwa.ES512:
		privateKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("invalid secret key type %T for %s", key, alg)
		}
		sig, err := t.ECDSASignature(algHash[alg], privateKey)
		if err != nil {
			return nil, err
		}
		t.Signature = sig
	case jwa.EdDSA:
		privateKey, ok := key.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("invalid secret key type %T for EdDSA", key)
		}
		sig, err := t.EdDSASignature(privateKey)
		if err != nil {
			return nil, err
		}
		t.Signature = sig
	case jwa.None:
		// no signature
	default:
		return nil, fmt.Errorf("algorithm %q not implemented", alg)
	}

	t.raw = t.computeString()

	return t.Signature, nil
}

var defaultAllowedAlgorithms = []jwa.Algorithm{
	jwa.RS256, jwa.RS384, jwa.RS512,
	jwa.ES256, jwa.ES384, jwa.ES512,
	jwa.HS256, jwa.HS384, jwa.HS512,
	jwa.PS256, jwa.PS384, jwa.PS512,
	jwa.EdDSA,
}

func DefaultAllowedAlgorithms() []jwa.Algorithm {
	return defaultAllowedAlgorithms
}

// standardHeaderParameters are the registered header parameter names
// that RFC 7515 section 4.1.11 forbids from appearing in a "crit"
// list: they're either understood implicitly or not subject to the
// crit mechanism at all.
var standardHeaderParameters = map[string]bool{
	header.Algorithm:                       true,
	header.JWKSetURL:                       true,
	header.JSONWebKey:                      true,
	header.KeyID:                           true,
	header.X509URL:                         true,
	header.X509CertificateChain:            true,
	header.X509CertificateSHA1Thumbprint:   true,
	header.X509CertificateSHA256Thumbprint: true,
	header.Type:                            true,
	header.ContentType:                     true,
	header.Critical:                        true,
}

// validateCriticalHeaders implements RFC 7515 section 4.1.11: every
// name in the "crit" header parameter must be an extension this
// verifier was told to support (via supported), must not be a
// registered header name, and must itself be present in the header.
func validateCriticalHeaders(h header.Parameters, supported []string) error {
	raw, ok := h[header.Critical]
	if !ok {
		return nil
	}

	var arr []any
	switch v := raw.(type) {
	case []any:
		arr = v
	case []string:
		arr = make([]any, len(v))
		for i, s := range v {
			arr[i] = s
		}
	default:
		return fmt.Errorf("critical header parameter %q must be an array", header.Critical)
	}

	if len(arr) == 0 {
		return fmt.Errorf("critical header parameter %q must not be empty", header.Critical)
	}

	supportedSet := make(map[string]bool, len(supported))
	for _, s := range supported {
		supportedSet[s] = true
	}

	for _, v := range arr {
		name, ok := v.(string)
		if !ok {
			return fmt.Errorf("critical header parameter names must be strings")
		}
		if standardHeaderParameters[name] {
			return fmt.Errorf("critical header parameter %q is a standard header and cannot be marked as critical", name)
		}
		if !supportedSet[name] {
			return fmt.Errorf("unsupported critical header parameter: %q", name)
		}
		if _, present := h[name]; !present {
			return fmt.Errorf("critical header parameter %q is missing from header", name)
		}
	}

	return nil
}

// audienceClaim normalizes an "aud" claim value into a list of
// strings. The second return value reports whether the original
// value was an array (as opposed to a single string), which changes
// which error wording Verify reports on a mismatch.
func audienceClaim(value any) (auds []string, isArray bool, err error) {
	switch v := value.(type) {
	case nil:
		return nil, false, nil
	case string:
		return []string{v}, false, nil
	case []string:
		return v, true, nil
	case []any:
		auds := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, true, fmt.Errorf("invalid audience type %T", e)
			}
			auds = append(auds, s)
		}
		return auds, true, nil
	default:
		return nil, false, fmt.Errorf("invalid audience type %T", v)
	}
}

// Verify is used to verify a signed Token object with the given config options.
// If this fails for any reason, an error is returned.
func (t *Token) Verify(opts ...VerifyOption) error {
	// Set default config values that can be overridden by options.
	config := &VerifyConfig{
		InsecureAllowNone: false,
		AllowedAlgorithms: defaultAllowedAlgorithms,
		Clock:             time.Now,
	}

	// Apply options.
	for _, opt := range opts {
		err := opt(config)
		if err != nil {
			return fmt.Errorf("verify option error: %w", err)
		}
	}

	// Defense in depth: refuse "none" outright unless the caller
	// explicitly opted in, regardless of what AllowedAlgorithms says.
	if alg, algErr := t.Header.Algorithm(); algErr == nil && alg == jwa.None && !config.InsecureAllowNone {
		return fmt.Errorf("%w: algorithm %q is not allowed", ErrInvalidToken, alg)
	}

	// Verify the signature of the token, which may be "none" if the
	// explictly allowed "none" algorithm is set in the config.
	if err := t.verifySignature(config.AllowedAlgorithms, config.ECDSARequireLowS, config.AllowedKeys...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if err := validateCriticalHeaders(t.Header, config.SupportedCriticalHeaders); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	// If the allowed issuers is empty, then any issuer is allowed.
	//
	// Otherwise, the issuer must be in the allowed issuers map.
	if config.AllowedIssuers != nil {
		issuer := fmt.Sprintf("%s", t.Claims[Issuer])

		if !slices.Contains(config.AllowedIssuers, issuer) {
			return fmt.Errorf("%w: requested issuer %q is not allowed", ErrInvalidToken, issuer)
		}
	}

	// If the allowed audiences is empty, then any audience is allowed.
	//
	// Otherwise, at least one requested audience must be in the
	// allowed audiences set. The "aud" claim may be a single string
	// or an array of strings (RFC 7519 section 4.1.3).
	if config.AllowedAudiences != nil {
		auds, isArray, err := audienceClaim(t.Claims[Audience])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}

		matched := false
		for _, a := range auds {
			if slices.Contains(config.AllowedAudiences, a) {
				matched = true
				break
			}
		}

		if !matched {
			if isArray {
				return fmt.Errorf("%w: none of the requested audiences %v is allowed", ErrInvalidToken, auds)
			}
			aud := ""
			if len(auds) > 0 {
				aud = auds[0]
			}
			return fmt.Errorf("%w: requested audience %q is not allowed", ErrInvalidToken, aud)
		}
	}

	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	now := clock()

	if expValue, hasExp := t.Claims[ExpirationTime]; hasExp {
		expInt, ok := expValue.(int64)
		if !ok {
			return fmt.Errorf("%w: invalid value %q for %q", ErrInvalidToken, expValue, ExpirationTime)
		}
		exp := time.Unix(expInt, 0).Add(config.ClockSkewTolerance)
		if exp.Before(now) {
			return fmt.Errorf("%w: token is expired", ErrInvalidToken)
		}
	}

	if notBeforeValue, ok := t.Claims[NotBefore]; ok {
		notBeforeInt, ok := notBeforeValue.(int64)
		if !ok {
			return fmt.Errorf("%w: token contains invalid %q value %v", ErrInvalidToken, NotBefore, notBeforeValue)
		}
		notBefore := time.Unix(notBeforeInt, 0).Add(-config.ClockSkewTolerance)
		if now.Before(notBefore) {
			return fmt.Errorf("%w: token is unable to be used before %v", ErrInvalidToken, notBefore)
		}
	}

	return nil
}

// FromHTTPAuthorizationHeader extracts a JWT string from the Authorization header of an HTTP request.
// If the Authorization header is not set, then an error is returned.
//
// # Warning
//
// This value needs to be parsed and verified before it can be used safely.
func FromHTTPAuthorizationHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid authorization header format")
	}

	if strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("invalid authorization header format")
	}

	return parts[1], nil
}

// HTTPHeaderValue is a type that can be used as a value when setting
// an HTTP request header.
type HTTPHeaderValue interface {
	string | Token
}

// SetHTTPAuthorizationHeader sets the Authorization header of an HTTP request
// to the given JWT. The JWT is prefixed with "Bearer ", as required by the
// HTTP Authorization header specification.
//
// https://tools.ietf.org/html/rfc6750#section-2.1
func SetHTTPAuthorizationHeader[T HTTPHeaderValue](r *http.Request, jwt T) {
	r.Header.Set("Authorization", fmt.Sprintf("Bearer %v", jwt))
}
