package jwt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/base64"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/header"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwe"
)

// Kind classifies a Token by which JOSE structure carried it: an
// unsecured payload ("alg":"none"), a JWS-signed payload, or a
// JWE-encrypted one. It is set once, at parse or construction time,
// and never changes afterward.
type Kind = header.Kind

// KindPlain, KindSigned, and KindEncrypted mirror header.Classify's
// result so callers outside pkg/header don't need to import it just
// to compare against a Token's Kind.
const (
	KindPlain     = header.Plain
	KindSigned    = header.Signed
	KindEncrypted = header.Encrypted
)

// Classify decodes compact's first segment far enough to report its
// Kind, without parsing or validating the rest of the token.
// ParseEncrypted uses it to reject a non-JWE string before parsing;
// ParsePlain and ParseSigned check the Kind that ParseString sets. It
// is a distinct tagged variant in place of a runtime type switch over
// a parsed value.
func Classify(compact string) (Kind, error) {
	fields := strings.SplitN(compact, ".", 2)
	if len(fields) == 0 || fields[0] == "" {
		return 0, fmt.Errorf("empty token")
	}

	b, err := base64.Decode(fields[0])
	if err != nil {
		return 0, fmt.Errorf("failed to decode JOSE header base64: %w", err)
	}

	h := header.Parameters{}
	if err := json.NewDecoder(bytes.NewReader(b)).Decode(&h); err != nil {
		return 0, fmt.Errorf("failed to decode JOSE header JSON: %w", err)
	}

	return header.Classify(h)
}

// ParsePlain parses a compact token whose header classifies as
// KindPlain ("alg":"none"), returning an error if it turns out to be
// signed or encrypted.
func ParsePlain(input string) (*Token, error) {
	token, err := ParseString(input)
	if err != nil {
		return nil, err
	}
	if token.Kind != KindPlain {
		return nil, fmt.Errorf("token is not a plain (alg none) token")
	}
	return token, nil
}

// ParseSigned parses a compact JWS token, returning an error if it
// turns out to be plain or encrypted.
func ParseSigned(input string) (*Token, error) {
	token, err := ParseString(input)
	if err != nil {
		return nil, err
	}
	if token.Kind != KindSigned {
		return nil, fmt.Errorf("token is not a signed token")
	}
	return token, nil
}

// ParseEncrypted parses a compact JWE token. The returned Token's
// Claims are nil until DecryptClaims succeeds; only Header and Kind
// are populated at this point, matching the rest of this package's
// rule that Claims reflect verified (or, here, decrypted) content
// only.
func ParseEncrypted(input string) (*Token, error) {
	kind, err := Classify(input)
	if err != nil {
		return nil, fmt.Errorf("failed to classify token: %w", err)
	}
	if kind != KindEncrypted {
		return nil, fmt.Errorf("token is not an encrypted token")
	}

	msg, err := jwe.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("failed to parse encrypted token: %w", err)
	}

	return &Token{
		Header:    msg.Header,
		Kind:      KindEncrypted,
		raw:       input,
		encrypted: msg,
	}, nil
}

// DecryptClaims decrypts an encrypted Token's JWE ciphertext with key
// and unmarshals the recovered plaintext into Claims. It is a no-op
// error for a Token that did not come from ParseEncrypted.
func (t *Token) DecryptClaims(key any, opts ...jwe.Option) error {
	if t.Kind != KindEncrypted || t.encrypted == nil {
		return fmt.Errorf("token is not an encrypted token")
	}

	plaintext, err := jwe.Decrypt(t.encrypted, key, opts...)
	if err != nil {
		return fmt.Errorf("failed to decrypt token: %w", err)
	}

	claims := ClaimsSet{}
	if err := json.Unmarshal(plaintext, &claims); err != nil {
		return fmt.Errorf("failed to decode decrypted claims JSON: %w", err)
	}

	// JSON unmarshals every bare number as float64; ParseString applies
	// the same normalization to the registered time claims so "exp"/
	// "nbf"/"iat" compare correctly as int64 seconds regardless of
	// whether a token arrived signed or encrypted.
	for claimName, claimValue := range claims {
		switch claimName {
		case IssuedAt, ExpirationTime, NotBefore:
			switch v := claimValue.(type) {
			case int64:
			case float64:
				claims[claimName] = int64(v)
			default:
				return fmt.Errorf("invalid type %T used for %q", v, claimName)
			}
		}
	}

	t.Claims = claims
	return nil
}

// Handler receives a parsed Token through exactly one of its three
// entry points, chosen by the token's Kind, in place of a caller
// switching on Kind (or, worse, a type assertion) itself. It is the
// visitor side of the Plain/Signed/Encrypted tagged variant Token
// represents.
type Handler interface {
	OnPlain(*Token) error
	OnSigned(*Token) error
	OnEncrypted(*Token) error
}

// Accept dispatches t to the one method of h matching t.Kind.
func (t *Token) Accept(h Handler) error {
	switch t.Kind {
	case KindPlain:
		return h.OnPlain(t)
	case KindSigned:
		return h.OnSigned(t)
	case KindEncrypted:
		return h.OnEncrypted(t)
	default:
		return fmt.Errorf("token has unrecognized kind %v", t.Kind)
	}
}
