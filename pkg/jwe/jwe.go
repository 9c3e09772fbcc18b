// Package jwe implements JSON Web Encryption (RFC 7516) compact
// serialization: key management, content encryption, compression, and
// message framing.
package jwe

import (
	"bytes"
	"compress/flate"
	"encoding/json"
	"io"
	"strings"

	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/base64"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/header"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwa"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/joseerr"
)

// Header is the JOSE header of a JWE.
type Header = header.Parameters

// Message is a parsed or constructed JWE: header, the five compact
// segments it encrypts/authenticates, and the recovered plaintext once
// decrypted.
type Message struct {
	Header       header.Parameters
	EncryptedKey []byte
	IV           []byte
	Ciphertext   []byte
	Tag          []byte

	// Plaintext is populated by Decrypt, nil on a Message built by
	// Encrypt or returned by Parse before decryption.
	Plaintext []byte

	raw string
}

// Encrypt produces a Message for payload under h, dispatching to the
// key management algorithm named by h's "alg" parameter and the
// content encryption algorithm named by its "enc" parameter. key's
// concrete type depends on alg: a []byte shared secret for dir/AES-KW/
// AES-GCMKW/PBES2 variants, an *rsa.PublicKey for RSA-OAEP/RSA1_5, or
// an *ecdsa.PublicKey for ECDH-ES and its "+A*KW" variants.
func Encrypt(h header.Parameters, payload []byte, key any, opts ...Option) (*Message, error) {
	cfg := resolveConfig(opts)

	if h == nil {
		h = header.Parameters{}
	}

	alg, err := h.Algorithm()
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: missing alg header parameter")
	}
	enc, err := h.ContentEncryption()
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: missing enc header parameter")
	}

	encryptor, err := contentEncryptorFor(enc)
	if err != nil {
		return nil, err
	}

	plaintext := payload
	if zip, present, _ := h.Compression(); present {
		if zip != "DEF" {
			return nil, joseerr.Newf(joseerr.UnsupportedAlgorithm, "jwe: unsupported zip %q", zip)
		}
		plaintext = deflate(payload)
	}

	cek, encryptedKey, err := determineCEK(cfg, alg, enc, encryptor.keyBits(), key, h)
	if err != nil {
		return nil, err
	}

	protectedB64, err := h.Base64URLString()
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: failed to encode protected header")
	}
	aad := []byte(protectedB64)

	iv, ciphertext, tag, err := encryptor.encrypt(cek, plaintext, aad)
	if err != nil {
		return nil, err
	}

	return &Message{
		Header:       h,
		EncryptedKey: encryptedKey,
		IV:           iv,
		Ciphertext:   ciphertext,
		Tag:          tag,
	}, nil
}

// Decrypt recovers and returns the plaintext of msg, also storing it in
// msg.Plaintext. key's concrete type depends on the "alg" the message
// carries; see Encrypt.
func Decrypt(msg *Message, key any, opts ...Option) ([]byte, error) {
	cfg := resolveConfig(opts)

	alg, err := msg.Header.Algorithm()
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: missing alg header parameter")
	}
	enc, err := msg.Header.ContentEncryption()
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: missing enc header parameter")
	}

	encryptor, err := contentEncryptorFor(enc)
	if err != nil {
		return nil, err
	}

	if err := msg.Header.ValidateCritical(understoodCriticalParameters); err != nil {
		return nil, joseerr.Wrap(joseerr.UnsupportedCritical, err, "jwe: unrecognized critical header parameter")
	}

	cek, err := recoverCEK(cfg, alg, enc, encryptor.keyBits(), key, msg.Header, msg.EncryptedKey)
	if err != nil {
		return nil, err
	}

	aad, err := jweAAD(msg)
	if err != nil {
		return nil, err
	}

	plaintext, err := encryptor.decrypt(cek, msg.IV, msg.Ciphertext, msg.Tag, aad)
	if err != nil {
		return nil, err
	}

	if zip, present, _ := msg.Header.Compression(); present {
		if zip != "DEF" {
			return nil, joseerr.Newf(joseerr.UnsupportedAlgorithm, "jwe: unsupported zip %q", zip)
		}
		plaintext, err = inflate(plaintext, cfg.MaxDecompressedSize)
		if err != nil {
			return nil, err
		}
	}

	msg.Plaintext = plaintext
	return plaintext, nil
}

// understoodCriticalParameters names the extension header parameters
// this engine's processing actually accounts for. None of the
// registered JWE parameters may ever legally appear in "crit" (RFC
// 7515 section 4.1.11), so this is empty until a concrete extension is
// added.
var understoodCriticalParameters = map[string]bool{}

// jweAAD recomputes the Additional Authenticated Data a JWE's content
// encryption used: the ASCII bytes of the BASE64URL-encoded protected
// header, exactly as received when msg came from Parse, or freshly
// encoded when msg was assembled programmatically.
func jweAAD(msg *Message) ([]byte, error) {
	if msg.raw != "" {
		protectedB64 := strings.SplitN(msg.raw, ".", 2)[0]
		return []byte(protectedB64), nil
	}
	protectedB64, err := msg.Header.Base64URLString()
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: failed to encode protected header")
	}
	return []byte(protectedB64), nil
}

// CompactSerialize renders msg as the five-segment JWE compact
// serialization: BASE64URL(header) + "." + BASE64URL(encrypted key) +
// "." + BASE64URL(IV) + "." + BASE64URL(ciphertext) + "." +
// BASE64URL(tag).
func CompactSerialize(msg *Message) (string, error) {
	protectedB64, err := msg.Header.Base64URLString()
	if err != nil {
		return "", joseerr.Wrap(joseerr.MalformedToken, err, "jwe: failed to encode protected header")
	}

	return strings.Join([]string{
		protectedB64,
		base64.Encode(msg.EncryptedKey),
		base64.Encode(msg.IV),
		base64.Encode(msg.Ciphertext),
		base64.Encode(msg.Tag),
	}, "."), nil
}

// Parse decodes a JWE compact serialization into a Message without
// decrypting it; call Decrypt on the result to recover the plaintext.
func Parse(compact string) (*Message, error) {
	segments := strings.Split(compact, ".")
	if len(segments) != 5 {
		return nil, joseerr.Newf(joseerr.MalformedEncoding, "jwe: compact serialization must have 5 segments, got %d", len(segments))
	}

	headerBytes, err := base64.Decode(segments[0])
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedEncoding, err, "jwe: invalid protected header encoding")
	}

	var h header.Parameters
	dec := json.NewDecoder(bytes.NewReader(headerBytes))
	dec.UseNumber()
	if err := dec.Decode(&h); err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedEncoding, err, "jwe: invalid protected header JSON")
	}

	encryptedKey, err := base64.Decode(segments[1])
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedEncoding, err, "jwe: invalid encrypted key encoding")
	}
	iv, err := base64.Decode(segments[2])
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedEncoding, err, "jwe: invalid iv encoding")
	}
	ciphertext, err := base64.Decode(segments[3])
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedEncoding, err, "jwe: invalid ciphertext encoding")
	}
	tag, err := base64.Decode(segments[4])
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedEncoding, err, "jwe: invalid tag encoding")
	}

	kind, err := header.Classify(h)
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: failed to classify header")
	}
	if kind != header.Encrypted {
		return nil, joseerr.New(joseerr.MalformedToken, "jwe: header does not describe an encrypted message")
	}

	return &Message{
		Header:       h,
		EncryptedKey: encryptedKey,
		IV:           iv,
		Ciphertext:   ciphertext,
		Tag:          tag,
		raw:          compact,
	}, nil
}

// deflate compresses data with raw DEFLATE, as RFC 7516 section 4.1.3's
// "DEF" value requires.
func deflate(data []byte) []byte {
	var buf bytes.Buffer
	w, _ := flate.NewWriter(&buf, flate.DefaultCompression)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

// inflate decompresses raw DEFLATE data, refusing to produce more than
// maxSize bytes of output so a malicious sender cannot use a small
// ciphertext to exhaust memory (a decompression bomb).
func inflate(data []byte, maxSize int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	limited := io.LimitReader(r, int64(maxSize)+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, joseerr.Wrap(joseerr.MalformedToken, err, "jwe: failed to inflate compressed payload")
	}
	if len(out) > maxSize {
		return nil, joseerr.Newf(joseerr.CompressionExpansionLimit, "jwe: decompressed payload exceeds %d byte limit", maxSize)
	}
	return out, nil
}

// SupportedEncryptionAlgorithms lists the "enc" values this engine
// supports, for callers assembling an AllowedAlgorithms-style policy
// without hardcoding the jwa constant set themselves.
func SupportedEncryptionAlgorithms() []jwa.EncryptionAlgorithm {
	return []jwa.EncryptionAlgorithm{
		jwa.A128CBCHS256, jwa.A192CBCHS384, jwa.A256CBCHS512,
		jwa.A128GCM, jwa.A192GCM, jwa.A256GCM,
	}
}
