package header

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/base64"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwa"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwk"
)

// There are three classes of Header Parameter names: Registered Header
// Parameter names, Public Header Parameter names, and Private Header
// Parameter names.
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4
type (
	ParamaterName = string

	Registered = ParamaterName
	Public     = ParamaterName
	Private    = ParamaterName
)

// Registered Header Paramater Names
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4.1
const (
	Type                            Registered = "typ"
	Algorithm                       Registered = "alg"
	JWKSetURL                       Registered = "jku"
	JSONWebKey                      Registered = "jwk"
	X509URL                         Registered = "x5u"
	X509CertificateChain            Registered = "x5c"
	X509CertificateSHA1Thumbprint   Registered = "x5t"
	X509CertificateSHA256Thumbprint Registered = "x5t#S256"
	ContentType                     Registered = "cty"
	Critical                        Registered = "crit"

	// https://www.rfc-editor.org/rfc/rfc7516.html#section-4.1.2
	Encryption Registered = "enc"

	// https://www.rfc-editor.org/rfc/rfc7516.html#section-4.1.3
	Zip Registered = "zip"

	// https://www.rfc-editor.org/rfc/rfc7516.html#section-4.1.6
	KeyID Registered = "kid"
)

const TypeJWT = "JWT"

var (
	ErrParameterNotFound    = errors.New("header parameter not found")
	ErrInvalidParameterType = errors.New("invalid header parameter type")
)

// Parameters is a JSON object containing the parameters describing
// the cryptographic operations and parameters employed.
//
// The JOSE (JSON Object Signing and Encryption) Parameters is comprised
// of a set of Parameters Parameters.
type Parameters map[ParamaterName]any

func (h Parameters) Base64URLString() (string, error) {
	buff := bytes.NewBuffer(nil)
	err := json.NewEncoder(buff).Encode(h)
	if err != nil {
		return "", fmt.Errorf("failed to encode JOSE header base64 URL string: %w", err)
	}
	return base64.Encode(buff.Bytes()), nil
}

func (h Parameters) Type() (string, error) {
	value, ok := h[Type]
	if !ok {
		return "", fmt.Errorf("%q %w", Type, ErrParameterNotFound)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("header paramater %q is not a string, is %T: %w", Type, value, ErrInvalidParameterType)
	}
	return strValue, nil
}

func (h Parameters) Algorithm() (jwa.Algorithm, error) {
	value, ok := h[Algorithm]
	if !ok {
		return "", fmt.Errorf("%q %w", Algorithm, ErrParameterNotFound)
	}

	alg, ok := value.(jwa.Algorithm)
	if ok {
		return alg, nil
	}

	return "", fmt.Errorf("header paramater %q is invalid type %T: %w", Algorithm, value, ErrInvalidParameterType)
}

func (h Parameters) SymetricAlgorithm() (bool, error) {
	alg, err := h.Algorithm()
	if err != nil {
		return false, err
	}

	switch jwa.Algorithm(alg) {
	case jwa.HS256, jwa.HS384, jwa.HS512:
		return true, nil
	}

	return false, nil
}

func (h Parameters) AsymetricAlgorithm() (bool, error) {
	alg, err := h.Algorithm()
	if err != nil {
		return false, err
	}

	switch jwa.Algorithm(alg) {
	case jwa.HS256, jwa.HS384, jwa.HS512:
		return false, nil
	case jwa.PS256, jwa.PS384, jwa.PS512:
		return true, nil
	case jwa.ES256, jwa.ES384, jwa.ES512:
		return true, nil
	case jwa.RS256, jwa.RS384, jwa.RS512:
		return true, nil
	}

	return false, nil
}

func (h Parameters) Get(param ParamaterName) (interface{}, error) {
	value, ok := h[param]
	if !ok {
		return "", fmt.Errorf("%q %w", param, ErrParameterNotFound)
	}
	return value, nil
}

// Kind classifies a JOSE header as belonging to one of the three
// object kinds compact serialization can carry.
type Kind int

const (
	// Plain is an unsecured JWS: "alg":"none", two dots, no signature.
	Plain Kind = iota
	// Signed is a JWS with a real signature algorithm.
	Signed
	// Encrypted is a JWE: the header carries an "enc" parameter.
	Encrypted
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Signed:
		return "signed"
	case Encrypted:
		return "encrypted"
	default:
		return "unknown"
	}
}

// Classify determines which of Plain, Signed, or Encrypted h
// describes. Per RFC 7516 section 4.1.2, the presence of "enc" is what
// distinguishes a JWE header from a JWS header; within JWS, "alg":"none"
// identifies an unsecured JWS.
func Classify(h Parameters) (Kind, error) {
	alg, err := h.Algorithm()
	if err != nil {
		return 0, err
	}

	if _, hasEnc := h[Encryption]; hasEnc {
		return Encrypted, nil
	}

	if alg == jwa.None {
		return Plain, nil
	}

	return Signed, nil
}

// CriticalParameters returns the "crit" header parameter as a list of
// parameter names, or nil if it is absent.
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4.1.11
func (h Parameters) CriticalParameters() ([]string, error) {
	value, ok := h[Critical]
	if !ok {
		return nil, nil
	}

	raw, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("header paramater %q is not an array, is %T", Critical, value)
	}

	names := make([]string, 0, len(raw))
	for _, v := range raw {
		name, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("header paramater %q contains a non-string entry %T", Critical, v)
		}
		names = append(names, name)
	}
	return names, nil
}

// ValidateCritical checks that every name in the header's "crit" list
// is present in understood, the set of extension parameter names the
// caller's processing actually implements. Per RFC 7515 section 4.1.11,
// an implementation MUST reject a JWS/JWE whose "crit" list names a
// parameter it does not understand. "crit" listing itself is always
// rejected; any other registered parameter name is accepted or
// rejected like an extension name, by its presence in understood.
func (h Parameters) ValidateCritical(understood map[string]bool) error {
	names, err := h.CriticalParameters()
	if err != nil {
		return err
	}

	for _, name := range names {
		if name == Critical {
			return fmt.Errorf("header paramater %q must not list itself", Critical)
		}
		if !understood[name] {
			return fmt.Errorf("critical header paramater %q is not understood", name)
		}
	}
	return nil
}

// ContentEncryption returns the JWE "enc" header parameter.
func (h Parameters) ContentEncryption() (jwa.EncryptionAlgorithm, error) {
	value, ok := h[Encryption]
	if !ok {
		return "", fmt.Errorf("header does not contain a %q paramater", Encryption)
	}
	enc, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("header paramater %q is not a string, is %T", Encryption, value)
	}
	return enc, nil
}

// Compression returns the JWE "zip" header parameter, and false if it
// is absent.
func (h Parameters) Compression() (string, bool, error) {
	value, ok := h[Zip]
	if !ok {
		return "", false, nil
	}
	zip, ok := value.(string)
	if !ok {
		return "", false, fmt.Errorf("header paramater %q is not a string, is %T", Zip, value)
	}
	return zip, true, nil
}

// getBase64URLBytes fetches param as a base64url string and decodes it,
// used by the JWE-only typed accessors below.
func (h Parameters) getBase64URLBytes(param ParamaterName) ([]byte, error) {
	value, ok := h[param]
	if !ok {
		return nil, fmt.Errorf("header does not contain a %q paramater", param)
	}
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("header paramater %q is not a string, is %T", param, value)
	}
	return base64.Decode(s)
}

// IV returns the JWE "iv" header parameter (the initialization vector
// used by AES-GCM content encryption and AES-GCM key wrapping).
func (h Parameters) IV() ([]byte, error) {
	return h.getBase64URLBytes("iv")
}

// Tag returns the JWE "tag" header parameter (the authentication tag
// produced by AES-GCM key wrapping).
func (h Parameters) Tag() ([]byte, error) {
	return h.getBase64URLBytes("tag")
}

// PBES2Salt returns the JWE "p2s" header parameter (the PBES2 salt
// input, before algorithm-name framing).
func (h Parameters) PBES2Salt() ([]byte, error) {
	return h.getBase64URLBytes("p2s")
}

// PBES2Count returns the JWE "p2c" header parameter (the PBES2
// iteration count).
func (h Parameters) PBES2Count() (int, error) {
	value, ok := h["p2c"]
	if !ok {
		return 0, fmt.Errorf("header does not contain a %q paramater", "p2c")
	}

	switch v := value.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("header paramater %q is not an integer: %w", "p2c", err)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("header paramater %q is not a number, is %T", "p2c", value)
	}
}

// AgreementPartyUInfo returns the JWE "apu" header parameter, or nil
// if absent (RFC 7518 treats absence as a zero-length value).
func (h Parameters) AgreementPartyUInfo() ([]byte, error) {
	if _, ok := h["apu"]; !ok {
		return nil, nil
	}
	return h.getBase64URLBytes("apu")
}

// AgreementPartyVInfo returns the JWE "apv" header parameter, or nil
// if absent (RFC 7518 treats absence as a zero-length value).
func (h Parameters) AgreementPartyVInfo() ([]byte, error) {
	if _, ok := h["apv"]; !ok {
		return nil, nil
	}
	return h.getBase64URLBytes("apv")
}

// EphemeralKey returns the JWE "epk" header parameter: the sender's
// ephemeral public key for an ECDH-ES key agreement.
//
// https://www.rfc-editor.org/rfc/rfc7518.html#section-4.6.1.1
func (h Parameters) EphemeralKey() (jwk.Value, error) {
	value, ok := h["epk"]
	if !ok {
		return nil, fmt.Errorf("header does not contain a %q paramater", "epk")
	}

	m, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("header paramater %q is not an object, is %T", "epk", value)
	}
	return jwk.Value(m), nil
}
