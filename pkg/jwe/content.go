package jwe

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"hash"

	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/base64"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwa"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/joseerr"
)

// contentEncryptor performs AEAD encryption/decryption of the JWE
// plaintext under the Content Encryption Key, as selected by the
// "enc" header parameter.
type contentEncryptor interface {
	// keyBits is the CEK size this enc requires.
	keyBits() int
	encrypt(cek, plaintext, aad []byte) (iv, ciphertext, tag []byte, err error)
	decrypt(cek, iv, ciphertext, tag, aad []byte) ([]byte, error)
}

func contentEncryptorFor(enc jwa.EncryptionAlgorithm) (contentEncryptor, error) {
	switch enc {
	case jwa.A128CBCHS256:
		return cbcHMAC{encKeyBits: 128, macHash: sha256.New, macKeyBits: 128, tagBytes: 16}, nil
	case jwa.A192CBCHS384:
		return cbcHMAC{encKeyBits: 192, macHash: sha512.New384, macKeyBits: 192, tagBytes: 24}, nil
	case jwa.A256CBCHS512:
		return cbcHMAC{encKeyBits: 256, macHash: sha512.New, macKeyBits: 256, tagBytes: 32}, nil
	case jwa.A128GCM:
		return gcmEncryptor{keyBitsVal: 128}, nil
	case jwa.A192GCM:
		return gcmEncryptor{keyBitsVal: 192}, nil
	case jwa.A256GCM:
		return gcmEncryptor{keyBitsVal: 256}, nil
	default:
		return nil, joseerr.Newf(joseerr.UnsupportedEncryption, "jwe: unsupported enc %q", enc)
	}
}

// al returns the Additional Authenticated Data Length field CBC-HMAC
// appends to its MAC input: the bit length of aad, as a 64-bit
// big-endian integer, per RFC 7518 section 5.2.2.1 step 14.
func al(aad []byte) []byte {
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], uint64(len(aad))*8)
	return out[:]
}

// cbcHMAC implements AES_CBC_HMAC_SHA2 per RFC 7518 section 5.2: the
// CEK splits into a MAC key (the first half) and an encryption key
// (the second half), PKCS#7 padding, and an HMAC over
// AAD || IV || ciphertext || AL truncated to tagBytes.
type cbcHMAC struct {
	encKeyBits int
	macKeyBits int
	macHash    func() hash.Hash
	tagBytes   int
}

func (c cbcHMAC) keyBits() int { return c.encKeyBits + c.macKeyBits }

func (c cbcHMAC) splitKey(cek []byte) (macKey, encKey []byte, err error) {
	want := (c.macKeyBits + c.encKeyBits) / 8
	if len(cek) != want {
		return nil, nil, joseerr.Newf(joseerr.InvalidKeyLength, "jwe: CEK must be %d bytes, got %d", want, len(cek))
	}
	half := c.macKeyBits / 8
	return cek[:half], cek[half:], nil
}

func (c cbcHMAC) encrypt(cek, plaintext, aad []byte) (iv, ciphertext, tag []byte, err error) {
	macKey, encKey, err := c.splitKey(cek)
	if err != nil {
		return nil, nil, nil, err
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to init AES cipher")
	}

	iv = make([]byte, aes.BlockSize)
	if _, err := readRandom(iv); err != nil {
		return nil, nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to generate IV")
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	mac := hmac.New(c.macHash, macKey)
	mac.Write(aad)
	mac.Write(iv)
	mac.Write(ciphertext)
	mac.Write(al(aad))
	tag = mac.Sum(nil)[:c.tagBytes]

	return iv, ciphertext, tag, nil
}

func (c cbcHMAC) decrypt(cek, iv, ciphertext, tag, aad []byte) ([]byte, error) {
	macKey, encKey, err := c.splitKey(cek)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(c.macHash, macKey)
	mac.Write(aad)
	mac.Write(iv)
	mac.Write(ciphertext)
	mac.Write(al(aad))
	expectedTag := mac.Sum(nil)[:c.tagBytes]

	// The tag comparison happens before touching the ciphertext or its
	// padding, and failure is reported identically to a padding
	// failure below: both collapse to DecryptionFailed so a timing or
	// error-shape difference never tells an attacker which check
	// failed (the classic CBC padding oracle).
	tagOK := base64.ConstantTimeEqual(expectedTag, tag)

	if len(ciphertext)%aes.BlockSize != 0 || len(ciphertext) == 0 {
		return nil, joseerr.New(joseerr.DecryptionFailed, "jwe: ciphertext is not a multiple of the block size")
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to init AES cipher")
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, padOK := pkcs7Unpad(padded, aes.BlockSize)

	if !tagOK || !padOK {
		return nil, joseerr.New(joseerr.DecryptionFailed, "jwe: authentication failed")
	}
	return plaintext, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

// pkcs7Unpad validates and strips PKCS#7 padding in constant time with
// respect to the padding value (though not with respect to plaintext
// length), returning ok=false for any malformed padding rather than
// panicking or silently truncating incorrectly.
func pkcs7Unpad(data []byte, blockSize int) (out []byte, ok bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, false
	}

	var mismatch byte
	for i := len(data) - padLen; i < len(data); i++ {
		mismatch |= data[i] ^ byte(padLen)
	}
	if mismatch != 0 {
		return nil, false
	}

	return data[:len(data)-padLen], true
}

// gcmEncryptor implements AES-GCM content encryption per RFC 7518
// section 5.3, with a 96-bit IV and a 128-bit authentication tag.
type gcmEncryptor struct {
	keyBitsVal int
}

func (g gcmEncryptor) keyBits() int { return g.keyBitsVal }

func (g gcmEncryptor) encrypt(cek, plaintext, aad []byte) (iv, ciphertext, tag []byte, err error) {
	gcm, err := newGCM(cek)
	if err != nil {
		return nil, nil, nil, err
	}

	iv = make([]byte, gcm.NonceSize())
	if _, err := readRandom(iv); err != nil {
		return nil, nil, nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to generate IV")
	}

	sealed := gcm.Seal(nil, iv, plaintext, aad)
	ciphertext = sealed[:len(sealed)-gcm.Overhead()]
	tag = sealed[len(sealed)-gcm.Overhead():]
	return iv, ciphertext, tag, nil
}

func (g gcmEncryptor) decrypt(cek, iv, ciphertext, tag, aad []byte) ([]byte, error) {
	gcm, err := newGCM(cek)
	if err != nil {
		return nil, err
	}

	sealed := append(append([]byte{}, ciphertext...), tag...)
	plaintext, err := gcm.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, joseerr.Wrap(joseerr.DecryptionFailed, err, "jwe: GCM authentication failed")
	}
	return plaintext, nil
}

func newGCM(cek []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, joseerr.Wrap(joseerr.InvalidKeyLength, err, "jwe: invalid content encryption key")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, joseerr.Wrap(joseerr.ProviderError, err, "jwe: failed to init GCM")
	}
	return gcm, nil
}
