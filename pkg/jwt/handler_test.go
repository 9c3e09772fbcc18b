package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	jose "github.com/TanqiZhou/nimbus-jose-jwt/pkg"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/header"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwa"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwe"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwt"
)

func TestClassify(t *testing.T) {
	signed := testToken(t, header.Parameters{
		header.Type:      jwt.Type,
		header.Algorithm: jwa.HS256,
	}, jwt.ClaimsSet{jwt.Subject: "test"}, testHMACSecretKey)

	kind, err := jwt.Classify(signed.String())
	require.NoError(t, err)
	require.Equal(t, jwt.KindSigned, kind)

	plain, err := jwt.New(header.Parameters{
		header.Type:      jwt.Type,
		header.Algorithm: jwa.None,
	}, jwt.ClaimsSet{jwt.Subject: "test"}, []byte(nil))
	require.NoError(t, err)

	kind, err = jwt.Classify(plain.String())
	require.NoError(t, err)
	require.Equal(t, jwt.KindPlain, kind)
}

func TestParseSignedRejectsPlainToken(t *testing.T) {
	plain, err := jwt.New(header.Parameters{
		header.Type:      jwt.Type,
		header.Algorithm: jwa.None,
	}, jwt.ClaimsSet{jwt.Subject: "test"}, []byte(nil))
	require.NoError(t, err)

	_, err = jwt.ParseSigned(plain.String())
	require.Error(t, err)
}

func TestParsePlainRejectsSignedToken(t *testing.T) {
	signed := testToken(t, header.Parameters{
		header.Type:      jwt.Type,
		header.Algorithm: jwa.HS256,
	}, jwt.ClaimsSet{jwt.Subject: "test"}, testHMACSecretKey)

	_, err := jwt.ParsePlain(signed.String())
	require.Error(t, err)
}

func TestParseEncryptedAndDecryptClaims(t *testing.T) {
	key := []byte("0123456789abcdef")

	claims := jwt.ClaimsSet{jwt.Subject: "1234567890"}
	claimsJSON, err := claims.Bytes()
	require.NoError(t, err)

	msg, err := jwe.Encrypt(header.Parameters{
		header.Algorithm:  jwa.Dir,
		header.Encryption: jwa.A128GCM,
	}, claimsJSON, key)
	require.NoError(t, err)

	compact, err := jwe.CompactSerialize(msg)
	require.NoError(t, err)

	kind, err := jwt.Classify(compact)
	require.NoError(t, err)
	require.Equal(t, jwt.KindEncrypted, kind)

	token, err := jwt.ParseEncrypted(compact)
	require.NoError(t, err)
	require.Equal(t, jwt.KindEncrypted, token.Kind)
	require.Nil(t, token.Claims)

	require.NoError(t, token.DecryptClaims(key))
	sub, err := token.Claims.Get(jwt.Subject)
	require.NoError(t, err)
	require.Equal(t, "1234567890", sub)
}

// visitRecorder is a jwt.Handler that records which entry point fired,
// exercising the interface directly rather than through jose.Handlers.
type visitRecorder struct {
	visited string
}

func (v *visitRecorder) OnPlain(*jwt.Token) error {
	v.visited = "plain"
	return nil
}

func (v *visitRecorder) OnSigned(*jwt.Token) error {
	v.visited = "signed"
	return nil
}

func (v *visitRecorder) OnEncrypted(*jwt.Token) error {
	v.visited = "encrypted"
	return nil
}

func TestTokenAcceptDispatchesByKind(t *testing.T) {
	signed := testToken(t, header.Parameters{
		header.Type:      jwt.Type,
		header.Algorithm: jwa.HS256,
	}, jwt.ClaimsSet{jwt.Subject: "test"}, testHMACSecretKey)

	var v visitRecorder
	require.NoError(t, signed.Accept(&v))
	require.Equal(t, "signed", v.visited)
}

func TestTokenAcceptWithJoseHandlers(t *testing.T) {
	signed := testToken(t, header.Parameters{
		header.Type:      jwt.Type,
		header.Algorithm: jwa.HS256,
	}, jwt.ClaimsSet{jwt.Subject: "test"}, testHMACSecretKey)

	var calledWithCorrectKind bool
	handler := jose.Handlers{
		Signed: func(tok *jwt.Token) error {
			calledWithCorrectKind = tok.Kind == jwt.KindSigned
			return tok.Verify(jwt.WithAllowedAlgorithms(jwa.HS256), jwt.WithKey(testHMACSecretKey))
		},
		Plain: func(*jwt.Token) error {
			t.Fatal("unexpected OnPlain dispatch for a signed token")
			return nil
		},
	}

	require.NoError(t, signed.Accept(handler))
	require.True(t, calledWithCorrectKind)
}
