package jwe

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"

	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/aeskw"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/base64"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/concatkdf"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/header"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwa"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwk"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/joseerr"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/pbkdf2"
)

// randReaderForRSA and cryptoRandReader both name crypto/rand.Reader,
// kept as distinct call sites for readability at RSA and ECDH call
// sites respectively.
func randReaderForRSA() io.Reader { return rand.Reader }
func cryptoRandReader() io.Reader { return rand.Reader }

// determineCEK runs the "alg" key management algorithm at encryption
// time: it either picks the CEK directly (dir, ECDH-ES) or generates a
// fresh random CEK and produces the JWE Encrypted Key that transports
// it (every key-wrapping alg). Header is mutated in place with any
// per-message parameters the algorithm contributes (epk, p2s, p2c, iv,
// tag).
func determineCEK(cfg Config, alg jwa.KeyManagementAlgorithm, enc jwa.EncryptionAlgorithm, cekBits int, key any, h header.Parameters) (cek, encryptedKey []byte, err error) {
	switch alg {
	case jwa.Dir:
		secret, ok := key.([]byte)
		if !ok {
			return nil, nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: dir requires a []byte shared key")
		}
		if len(secret)*8 != cekBits {
			return nil, nil, joseerr.Newf(joseerr.InvalidKeyLength, "jwe: dir key must be %d bits, got %d", cekBits, len(secret)*8)
		}
		if err := checkMaxSymmetricKeyBits(cfg, len(secret)*8); err != nil {
			return nil, nil, err
		}
		return secret, []byte{}, nil

	case jwa.A128KW, jwa.A192KW, jwa.A256KW:
		kek, ok := key.([]byte)
		if !ok {
			return nil, nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: AES key wrap requires a []byte key-encryption key")
		}
		if err := checkAESKWKeyLength(alg, kek); err != nil {
			return nil, nil, err
		}
		if err := checkMaxSymmetricKeyBits(cfg, len(kek)*8); err != nil {
			return nil, nil, err
		}
		cek = make([]byte, cekBits/8)
		if _, err := readRandom(cek); err != nil {
			return nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to generate CEK")
		}
		wrapped, err := aeskw.Wrap(kek, cek)
		if err != nil {
			return nil, nil, err
		}
		return cek, wrapped, nil

	case jwa.A128GCMKW, jwa.A192GCMKW, jwa.A256GCMKW:
		kek, ok := key.([]byte)
		if !ok {
			return nil, nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: AES-GCM key wrap requires a []byte key-encryption key")
		}
		if err := checkMaxSymmetricKeyBits(cfg, len(kek)*8); err != nil {
			return nil, nil, err
		}
		cek = make([]byte, cekBits/8)
		if _, err := readRandom(cek); err != nil {
			return nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to generate CEK")
		}
		gcm, err := newGCM(kek)
		if err != nil {
			return nil, nil, err
		}
		iv := make([]byte, gcm.NonceSize())
		if _, err := readRandom(iv); err != nil {
			return nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to generate key-wrap IV")
		}
		sealed := gcm.Seal(nil, iv, cek, nil)
		wrapped := sealed[:len(sealed)-gcm.Overhead()]
		tag := sealed[len(sealed)-gcm.Overhead():]
		h["iv"] = base64.Encode(iv)
		h["tag"] = base64.Encode(tag)
		return cek, wrapped, nil

	case jwa.RSAOAEP, jwa.RSAOAEP256:
		pub, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: RSA-OAEP requires an *rsa.PublicKey")
		}
		cek = make([]byte, cekBits/8)
		if _, err := readRandom(cek); err != nil {
			return nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to generate CEK")
		}
		wrapped, err := rsaOAEPEncrypt(alg, pub, cek)
		if err != nil {
			return nil, nil, err
		}
		return cek, wrapped, nil

	case jwa.RSA1_5:
		if !cfg.AllowRSA1_5 {
			return nil, nil, joseerr.New(joseerr.UnsupportedAlgorithm, "jwe: RSA1_5 is disabled by configuration")
		}
		pub, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: RSA1_5 requires an *rsa.PublicKey")
		}
		cek = make([]byte, cekBits/8)
		if _, err := readRandom(cek); err != nil {
			return nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to generate CEK")
		}
		wrapped, err := rsa.EncryptPKCS1v15(randReaderForRSA(), pub, cek)
		if err != nil {
			return nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: RSA1_5 encryption failed")
		}
		return cek, wrapped, nil

	case jwa.ECDHES, jwa.ECDHESA128KW, jwa.ECDHESA192KW, jwa.ECDHESA256KW:
		return determineECDHESCEK(alg, enc, cekBits, key, h)

	case jwa.PBES2HS256A128KW, jwa.PBES2HS384A192KW, jwa.PBES2HS512A256KW:
		return determinePBES2CEK(cfg, alg, cekBits, key, h)

	default:
		return nil, nil, joseerr.Newf(joseerr.UnsupportedAlgorithm, "jwe: unsupported key management algorithm %q", alg)
	}
}

// recoverCEK runs the "alg" key management algorithm at decryption
// time: it inverts determineCEK, reading back whatever per-message
// parameters the header carries.
func recoverCEK(cfg Config, alg jwa.KeyManagementAlgorithm, enc jwa.EncryptionAlgorithm, cekBits int, key any, h header.Parameters, encryptedKey []byte) ([]byte, error) {
	switch alg {
	case jwa.Dir:
		secret, ok := key.([]byte)
		if !ok {
			return nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: dir requires a []byte shared key")
		}
		if len(secret)*8 != cekBits {
			return nil, joseerr.Newf(joseerr.InvalidKeyLength, "jwe: dir key must be %d bits, got %d", cekBits, len(secret)*8)
		}
		if err := checkMaxSymmetricKeyBits(cfg, len(secret)*8); err != nil {
			return nil, err
		}
		return secret, nil

	case jwa.A128KW, jwa.A192KW, jwa.A256KW:
		kek, ok := key.([]byte)
		if !ok {
			return nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: AES key wrap requires a []byte key-encryption key")
		}
		if err := checkAESKWKeyLength(alg, kek); err != nil {
			return nil, err
		}
		if err := checkMaxSymmetricKeyBits(cfg, len(kek)*8); err != nil {
			return nil, err
		}
		return aeskw.Unwrap(kek, encryptedKey)

	case jwa.A128GCMKW, jwa.A192GCMKW, jwa.A256GCMKW:
		kek, ok := key.([]byte)
		if !ok {
			return nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: AES-GCM key wrap requires a []byte key-encryption key")
		}
		if err := checkMaxSymmetricKeyBits(cfg, len(kek)*8); err != nil {
			return nil, err
		}
		iv, err := h.IV()
		if err != nil {
			return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: missing key-wrap iv")
		}
		tag, err := h.Tag()
		if err != nil {
			return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: missing key-wrap tag")
		}
		gcm, err := newGCM(kek)
		if err != nil {
			return nil, err
		}
		sealed := append(append([]byte{}, encryptedKey...), tag...)
		cek, err := gcm.Open(nil, iv, sealed, nil)
		if err != nil {
			return nil, joseerr.Wrap(joseerr.DecryptionFailed, err, "jwe: key-wrap authentication failed")
		}
		return cek, nil

	case jwa.RSAOAEP, jwa.RSAOAEP256:
		priv, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: RSA-OAEP requires an *rsa.PrivateKey")
		}
		return rsaOAEPDecrypt(alg, priv, encryptedKey)

	case jwa.RSA1_5:
		if !cfg.AllowRSA1_5 {
			return nil, joseerr.New(joseerr.UnsupportedAlgorithm, "jwe: RSA1_5 is disabled by configuration")
		}
		priv, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: RSA1_5 requires an *rsa.PrivateKey")
		}
		// A constant-time, constant-shape fallback avoids turning a
		// PKCS#1 v1.5 padding failure into a Bleichenbacher oracle: on
		// any error, a random CEK of the right length is substituted
		// instead of returning early, so decryption always proceeds to
		// content decryption and fails only at the AEAD tag check.
		cek := make([]byte, cekBits/8)
		if _, err := readRandom(cek); err != nil {
			return nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to generate RSA1_5 fallback CEK")
		}
		// DecryptPKCS1v15SessionKey overwrites cek, in constant time,
		// only when the padding is valid and the message is exactly
		// len(cek) bytes; otherwise cek keeps its random contents.
		_ = rsa.DecryptPKCS1v15SessionKey(randReaderForRSA(), priv, encryptedKey, cek)
		return cek, nil

	case jwa.ECDHES, jwa.ECDHESA128KW, jwa.ECDHESA192KW, jwa.ECDHESA256KW:
		return recoverECDHESCEK(alg, enc, cekBits, key, h, encryptedKey)

	case jwa.PBES2HS256A128KW, jwa.PBES2HS384A192KW, jwa.PBES2HS512A256KW:
		return recoverPBES2CEK(cfg, alg, key, h, encryptedKey)

	default:
		return nil, joseerr.Newf(joseerr.UnsupportedAlgorithm, "jwe: unsupported key management algorithm %q", alg)
	}
}

// checkMaxSymmetricKeyBits enforces Config.MaxSymmetricKeyBits against a
// symmetric key's actual size, on top of whatever fixed width the key
// management algorithm itself already requires. A zero cap means no
// additional limit beyond the algorithm's own requirement.
func checkMaxSymmetricKeyBits(cfg Config, keyBits int) error {
	if cfg.MaxSymmetricKeyBits > 0 && keyBits > cfg.MaxSymmetricKeyBits {
		return joseerr.Newf(joseerr.InvalidKeyLength, "jwe: symmetric key is %d bits, exceeds configured maximum of %d", keyBits, cfg.MaxSymmetricKeyBits)
	}
	return nil
}

func checkAESKWKeyLength(alg jwa.KeyManagementAlgorithm, kek []byte) error {
	want := aesKWKeyBits(alg) / 8
	if len(kek) != want {
		return joseerr.Newf(joseerr.InvalidKeyLength, "jwe: %s requires a %d-byte key, got %d", alg, want, len(kek))
	}
	return nil
}

func aesKWKeyBits(alg jwa.KeyManagementAlgorithm) int {
	switch alg {
	case jwa.A128KW, jwa.ECDHESA128KW:
		return 128
	case jwa.A192KW, jwa.ECDHESA192KW:
		return 192
	case jwa.A256KW, jwa.ECDHESA256KW:
		return 256
	default:
		return 0
	}
}

func rsaOAEPEncrypt(alg jwa.KeyManagementAlgorithm, pub *rsa.PublicKey, cek []byte) ([]byte, error) {
	h := sha1.New()
	if alg == jwa.RSAOAEP256 {
		h = sha256.New()
	}
	ct, err := rsa.EncryptOAEP(h, randReaderForRSA(), pub, cek, nil)
	if err != nil {
		return nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: RSA-OAEP encryption failed")
	}
	return ct, nil
}

func rsaOAEPDecrypt(alg jwa.KeyManagementAlgorithm, priv *rsa.PrivateKey, encryptedKey []byte) ([]byte, error) {
	h := sha1.New()
	if alg == jwa.RSAOAEP256 {
		h = sha256.New()
	}
	cek, err := rsa.DecryptOAEP(h, randReaderForRSA(), priv, encryptedKey, nil)
	if err != nil {
		return nil, joseerr.Wrap(joseerr.DecryptionFailed, err, "jwe: RSA-OAEP decryption failed")
	}
	return cek, nil
}

// ecdhCurve maps an ECDSA curve to its crypto/ecdh equivalent; ECDH-ES
// is only defined over P-256/P-384/P-521 in RFC 7518 section 4.6.
func ecdhCurve(curve elliptic.Curve) (ecdh.Curve, error) {
	switch curve {
	case elliptic.P256():
		return ecdh.P256(), nil
	case elliptic.P384():
		return ecdh.P384(), nil
	case elliptic.P521():
		return ecdh.P521(), nil
	default:
		return nil, joseerr.Newf(joseerr.UnsupportedAlgorithm, "jwe: unsupported ECDH-ES curve")
	}
}

// determineECDHESCEK generates an ephemeral key pair on the recipient's
// curve, performs ECDH, and derives either the CEK directly (ECDH-ES)
// or a key-wrapping key that then wraps a freshly generated CEK (the
// "+A*KW" variants), per RFC 7518 section 4.6. The Concat KDF AlgorithmID
// is enc for the direct case and alg itself for the "+A*KW" variants,
// per RFC 7518 section 4.6.2.
func determineECDHESCEK(alg jwa.KeyManagementAlgorithm, enc jwa.EncryptionAlgorithm, cekBits int, key any, h header.Parameters) (cek, encryptedKey []byte, err error) {
	recipientPub, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: ECDH-ES requires an *ecdsa.PublicKey")
	}

	curve, err := ecdhCurve(recipientPub.Curve)
	if err != nil {
		return nil, nil, err
	}

	recipientECDH, err := recipientPub.ECDH()
	if err != nil {
		return nil, nil, joseerr.Wrap(joseerr.KeyTypeMismatch, err, "jwe: invalid ECDH-ES recipient key")
	}

	ephemeral, err := curve.GenerateKey(cryptoRandReader())
	if err != nil {
		return nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to generate ephemeral ECDH-ES key")
	}

	z, err := ephemeral.ECDH(recipientECDH)
	if err != nil {
		return nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: ECDH agreement failed")
	}

	epkValue, err := ecdhPublicKeyToJWK(ephemeral.PublicKey())
	if err != nil {
		return nil, nil, err
	}
	h["epk"] = map[string]any(epkValue)

	apu, _ := h.AgreementPartyUInfo()
	apv, _ := h.AgreementPartyVInfo()
	framedAPU := concatkdf.LengthPrefixed(apu)
	framedAPV := concatkdf.LengthPrefixed(apv)

	if alg == jwa.ECDHES {
		algorithmID := concatkdf.LengthPrefixed([]byte(enc))
		derived, err := concatkdf.Derive(z, cekBits, algorithmID, framedAPU, framedAPV, concatkdf.SuppPubInfo(cekBits), nil)
		if err != nil {
			return nil, nil, err
		}
		return derived, []byte{}, nil
	}

	algorithmID := concatkdf.LengthPrefixed([]byte(alg))
	kwBits := aesKWKeyBits(alg)
	kek, err := concatkdf.Derive(z, kwBits, algorithmID, framedAPU, framedAPV, concatkdf.SuppPubInfo(kwBits), nil)
	if err != nil {
		return nil, nil, err
	}

	cek = make([]byte, cekBits/8)
	if _, err := readRandom(cek); err != nil {
		return nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to generate CEK")
	}
	wrapped, err := aeskw.Wrap(kek, cek)
	if err != nil {
		return nil, nil, err
	}
	return cek, wrapped, nil
}

func recoverECDHESCEK(alg jwa.KeyManagementAlgorithm, enc jwa.EncryptionAlgorithm, cekBits int, key any, h header.Parameters, encryptedKey []byte) ([]byte, error) {
	priv, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: ECDH-ES requires an *ecdsa.PrivateKey")
	}

	curve, err := ecdhCurve(priv.Curve)
	if err != nil {
		return nil, err
	}

	privECDH, err := priv.ECDH()
	if err != nil {
		return nil, joseerr.Wrap(joseerr.KeyTypeMismatch, err, "jwe: invalid ECDH-ES recipient key")
	}

	epkValue, err := h.EphemeralKey()
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: missing epk header parameter")
	}
	epkPub, _, err := jwk.ECDSAPublicKey(jwk.Value(epkValue))
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: invalid epk header parameter")
	}
	senderECDH, err := epkPub.ECDH()
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: invalid ephemeral public key")
	}
	if senderECDH.Curve() != curve {
		return nil, joseerr.New(joseerr.MalformedToken, "jwe: epk curve does not match recipient key curve")
	}

	z, err := privECDH.ECDH(senderECDH)
	if err != nil {
		return nil, joseerr.Wrap(joseerr.DecryptionFailed, err, "jwe: ECDH agreement failed")
	}

	apu, _ := h.AgreementPartyUInfo()
	apv, _ := h.AgreementPartyVInfo()
	framedAPU := concatkdf.LengthPrefixed(apu)
	framedAPV := concatkdf.LengthPrefixed(apv)

	if alg == jwa.ECDHES {
		algorithmID := concatkdf.LengthPrefixed([]byte(enc))
		return concatkdf.Derive(z, cekBits, algorithmID, framedAPU, framedAPV, concatkdf.SuppPubInfo(cekBits), nil)
	}

	algorithmID := concatkdf.LengthPrefixed([]byte(alg))
	kwBits := aesKWKeyBits(alg)
	kek, err := concatkdf.Derive(z, kwBits, algorithmID, framedAPU, framedAPV, concatkdf.SuppPubInfo(kwBits), nil)
	if err != nil {
		return nil, err
	}
	return aeskw.Unwrap(kek, encryptedKey)
}

// ecdhPublicKeyToJWK renders an ephemeral ECDH public key as an EC JWK
// value with X/Y zero-padded to the curve's coordinate size, which
// ValueFromPublicKey in pkg/jwk does not do for elliptic points (it
// only needs to round-trip signature verification keys, where leading
// zero bytes in X/Y are rare and harmless); ECDH-ES agreement requires
// the fixed-width encoding RFC 7518 assumes.
func ecdhPublicKeyToJWK(pub *ecdh.PublicKey) (jwk.Value, error) {
	raw := pub.Bytes()
	// Uncompressed SEC1 point: 0x04 || X || Y, each coordinate-size bytes.
	coordLen := (len(raw) - 1) / 2
	x := raw[1 : 1+coordLen]
	y := raw[1+coordLen:]

	var crv string
	switch pub.Curve() {
	case ecdh.P256():
		crv = "P-256"
	case ecdh.P384():
		crv = "P-384"
	case ecdh.P521():
		crv = "P-521"
	default:
		return nil, joseerr.New(joseerr.UnsupportedAlgorithm, "jwe: unsupported ECDH-ES curve")
	}

	return jwk.Value{
		jwk.KeyType: "EC",
		jwk.Curve:   crv,
		jwk.X:       base64.Encode(x),
		jwk.Y:       base64.Encode(y),
	}, nil
}

// determinePBES2CEK derives a key-wrapping key from a password via
// PBKDF2, generating a fresh salt and iteration count, then wraps a
// freshly generated CEK with the named AES Key Wrap variant, per RFC
// 7518 section 4.8.
func determinePBES2CEK(cfg Config, alg jwa.KeyManagementAlgorithm, cekBits int, key any, h header.Parameters) (cek, encryptedKey []byte, err error) {
	password, ok := key.([]byte)
	if !ok {
		return nil, nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: PBES2 requires a []byte password")
	}

	salt := make([]byte, pbkdf2.MinSaltLength*2)
	if _, err := readRandom(salt); err != nil {
		return nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to generate PBES2 salt")
	}

	// 310,000 matches OWASP's current PBKDF2-HMAC-SHA256 recommendation;
	// clamp it into whatever window this engine's Config allows.
	iterations := 310_000
	if iterations < cfg.MinPBES2Iterations {
		iterations = cfg.MinPBES2Iterations
	}
	if iterations > cfg.MaxPBES2Iterations {
		iterations = cfg.MaxPBES2Iterations
	}

	formattedSalt, err := pbkdf2.FormatSalt(alg, salt)
	if err != nil {
		return nil, nil, err
	}

	kwBits := aesKWKeyBits(kwAlgFor(alg))
	kek, err := pbkdf2.Derive(password, formattedSalt, iterations, kwBits/8, pbes2PRF(alg))
	if err != nil {
		return nil, nil, err
	}

	cek = make([]byte, cekBits/8)
	if _, err := readRandom(cek); err != nil {
		return nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to generate CEK")
	}
	wrapped, err := aeskw.Wrap(kek, cek)
	if err != nil {
		return nil, nil, err
	}

	h["p2s"] = base64.Encode(salt)
	h["p2c"] = iterations

	return cek, wrapped, nil
}

func recoverPBES2CEK(cfg Config, alg jwa.KeyManagementAlgorithm, key any, h header.Parameters, encryptedKey []byte) ([]byte, error) {
	password, ok := key.([]byte)
	if !ok {
		return nil, joseerr.New(joseerr.KeyTypeMismatch, "jwe: PBES2 requires a []byte password")
	}

	salt, err := h.PBES2Salt()
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: missing p2s header parameter")
	}
	iterations, err := h.PBES2Count()
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: missing p2c header parameter")
	}
	if iterations < cfg.MinPBES2Iterations {
		return nil, joseerr.Newf(joseerr.InvalidIterationCount, "jwe: p2c %d below minimum %d", iterations, cfg.MinPBES2Iterations)
	}
	if iterations > cfg.MaxPBES2Iterations {
		return nil, joseerr.Newf(joseerr.IterationPolicyExceeded, "jwe: p2c %d exceeds maximum %d", iterations, cfg.MaxPBES2Iterations)
	}

	formattedSalt, err := pbkdf2.FormatSalt(alg, salt)
	if err != nil {
		return nil, err
	}

	kwBits := aesKWKeyBits(kwAlgFor(alg))
	kek, err := pbkdf2.Derive(password, formattedSalt, iterations, kwBits/8, pbes2PRF(alg))
	if err != nil {
		return nil, err
	}

	return aeskw.Unwrap(kek, encryptedKey)
}

func kwAlgFor(alg jwa.KeyManagementAlgorithm) jwa.KeyManagementAlgorithm {
	switch alg {
	case jwa.PBES2HS256A128KW:
		return jwa.A128KW
	case jwa.PBES2HS384A192KW:
		return jwa.A192KW
	case jwa.PBES2HS512A256KW:
		return jwa.A256KW
	default:
		return ""
	}
}

// pbes2PRF returns the HMAC hash constructor the named PBES2 alg uses
// as its PBKDF2 pseudorandom function.
func pbes2PRF(alg jwa.KeyManagementAlgorithm) func() hash.Hash {
	switch alg {
	case jwa.PBES2HS256A128KW:
		return sha256.New
	case jwa.PBES2HS384A192KW:
		return sha512.New384
	case jwa.PBES2HS512A256KW:
		return sha512.New
	default:
		return sha256.New
	}
}
