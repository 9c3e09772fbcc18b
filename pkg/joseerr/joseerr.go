// Package joseerr defines the closed error taxonomy returned by every
// engine in this module (pkg/jws, pkg/jwe, pkg/jwt, pkg/pbkdf2,
// pkg/concatkdf, pkg/aeskw).
//
// The taxonomy exists so that callers can branch on *why* an operation
// failed (Is(err, joseerr.SignatureInvalid)) without engines leaking
// cryptographic details that would turn into a verification oracle: a
// CBC-HMAC padding failure and a CBC-HMAC MAC failure both collapse to
// DecryptionFailed, an RSA1_5 unwrap failure and a too-short recovered
// CEK both collapse to DecryptionFailed, and so on. See RFC 7515-7518
// and spec section 7 for the full propagation policy.
package joseerr

import (
	"github.com/cockroachdb/errors"
)

// Kind enumerates the closed set of error categories the JOSE core can
// return. New values are never added lightly: every caller-visible
// failure mode must fit one of these, collapsing finer distinctions
// that would otherwise leak side-channel information.
type Kind int

const (
	// MalformedEncoding covers a wrong segment count, invalid base64url,
	// invalid JSON, or a header field of the wrong type.
	MalformedEncoding Kind = iota

	// MalformedToken covers a JWT whose segment count doesn't agree
	// with the variant its header's "alg" selects.
	MalformedToken

	// UnsupportedAlgorithm covers an "alg" that is unrecognized or
	// disabled by policy (e.g. RSA1_5 without Config.AllowRSA1_5).
	UnsupportedAlgorithm

	// UnsupportedEncryption covers an "enc" that is unrecognized.
	UnsupportedEncryption

	// UnsupportedCritical covers a "crit" entry naming a header
	// parameter the implementation does not understand.
	UnsupportedCritical

	// KeyTypeMismatch covers a key that does not match what "alg"
	// requires (e.g. an RSA key offered for ES256).
	KeyTypeMismatch

	// InvalidKeyLength covers a symmetric key shorter than its hash
	// requires, or an RSA modulus smaller than 2048 bits.
	InvalidKeyLength

	// SignatureInvalid covers every JWS verification failure. It is
	// never split into finer reasons.
	SignatureInvalid

	// DecryptionFailed covers every JWE authentication-tag or
	// key-unwrap failure. It is never split into finer reasons.
	DecryptionFailed

	// InvalidSalt covers a PBES2 salt shorter than 8 bytes.
	InvalidSalt

	// InvalidIterationCount covers a PBKDF2 iteration count below 1,
	// and a PBES2 "p2c" below the configured minimum.
	InvalidIterationCount

	// IterationPolicyExceeded covers a PBES2 "p2c" above the configured
	// maximum.
	IterationPolicyExceeded

	// CompressionExpansionLimit covers a "zip":"DEF" payload whose
	// inflation would exceed the configured size ceiling.
	CompressionExpansionLimit

	// ProviderError wraps a host cryptography failure not otherwise
	// attributable to caller input (e.g. the system CSPRNG failing).
	ProviderError
)

func (k Kind) String() string {
	switch k {
	case MalformedEncoding:
		return "malformed encoding"
	case MalformedToken:
		return "malformed token"
	case UnsupportedAlgorithm:
		return "unsupported algorithm"
	case UnsupportedEncryption:
		return "unsupported encryption method"
	case UnsupportedCritical:
		return "unsupported critical parameter"
	case KeyTypeMismatch:
		return "key type mismatch"
	case InvalidKeyLength:
		return "invalid key length"
	case SignatureInvalid:
		return "signature invalid"
	case DecryptionFailed:
		return "decryption failed"
	case InvalidSalt:
		return "invalid salt"
	case InvalidIterationCount:
		return "invalid iteration count"
	case IterationPolicyExceeded:
		return "iteration policy exceeded"
	case CompressionExpansionLimit:
		return "compression expansion limit exceeded"
	case ProviderError:
		return "provider error"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type every exported function in this
// module returns. It carries a Kind for programmatic branching and an
// optional wrapped cause for local diagnostics.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.kind.String() + ": " + e.msg + ": " + e.cause.Error()
	}
	if e.msg != "" {
		return e.kind.String() + ": " + e.msg
	}
	return e.kind.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the error's category.
func (e *Error) Kind() Kind {
	return e.kind
}

// New returns a new *Error of the given kind with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Newf returns a new *Error of the given kind, formatting msg like
// fmt.Sprintf.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: errors.Newf(format, args...).Error()}
}

// Wrap returns a new *Error of the given kind wrapping cause. cause is
// captured with a stack trace (via github.com/cockroachdb/errors) for
// local diagnostics, but that trace is never part of Error() or of any
// value returned across a verification/decryption boundary.
func Wrap(kind Kind, cause error, msg string) *Error {
	if cause == nil {
		return New(kind, msg)
	}
	return &Error{kind: kind, msg: msg, cause: errors.WithStack(cause)}
}

// Is reports whether err is a *Error of the given Kind, unwrapping
// through any wrapper chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.kind == kind
}
