package token

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://issuer.example.com"
const testAudience = "karto-iam"

func newTestValidator(t *testing.T, key *rsa.PrivateKey) *Validator {
	t.Helper()

	pubJWK, err := jwk.New(key.Public())
	require.NoError(t, err)
	require.NoError(t, pubJWK.Set(jwk.KeyIDKey, "test-key"))

	set := jwk.NewSet()
	set.Add(pubJWK)

	jwks := NewJWKSCache()
	jwks.cache.Set(testIssuer, jwk.Set(set), defaultTTL)

	return NewValidator(jwks, DefaultConfig(testIssuer, testAudience))
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "test-key"

	signed, err := tok.SignedString(key)
	require.NoError(t, err)

	return signed
}

func baseClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":                testIssuer,
		"aud":                testAudience,
		"sub":                "user-123",
		"preferred_username": "alice",
		"iat":                now.Unix(),
		"exp":                now.Add(time.Hour).Unix(),
	}
}

func TestValidate_AcceptsWellFormedToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := newTestValidator(t, key)
	raw := signToken(t, key, baseClaims())

	claims, err := v.Validate(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidate_RejectsExpiredToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := newTestValidator(t, key)
	c := baseClaims()
	c["exp"] = time.Now().Add(-time.Hour).Unix()
	raw := signToken(t, key, c)

	_, err = v.Validate(context.Background(), raw)
	assert.Error(t, err)
}

func TestValidate_RejectsFutureIssuedAt(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := newTestValidator(t, key)
	c := baseClaims()
	c["iat"] = time.Now().Add(time.Hour).Unix()
	raw := signToken(t, key, c)

	_, err = v.Validate(context.Background(), raw)
	assert.Error(t, err)
}

func TestValidate_RejectsWrongIssuer(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := newTestValidator(t, key)
	c := baseClaims()
	c["iss"] = "https://not-the-issuer.example.com"
	raw := signToken(t, key, c)

	_, err = v.Validate(context.Background(), raw)
	assert.Error(t, err)
}

func TestValidate_RejectsWrongAudience(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := newTestValidator(t, key)
	c := baseClaims()
	c["aud"] = "someone-else"
	raw := signToken(t, key, c)

	_, err = v.Validate(context.Background(), raw)
	assert.Error(t, err)
}

func TestValidate_RejectsMissingUserIDClaim(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := newTestValidator(t, key)
	c := baseClaims()
	delete(c, "sub")
	raw := signToken(t, key, c)

	_, err = v.Validate(context.Background(), raw)
	assert.Error(t, err)
}

func TestValidate_RejectsSignatureFromWrongKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := newTestValidator(t, key)
	raw := signToken(t, other, baseClaims())

	_, err = v.Validate(context.Background(), raw)
	assert.Error(t, err)
}

func TestValidate_RejectsNonRS256Algorithm(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := newTestValidator(t, key)
	raw := signToken(t, key, baseClaims())
	// Tamper the header's algorithm after signing would break the
	// signature, so instead verify Validate's pre-verification algorithm
	// check on an HS256 token built with a throwaway secret.
	hsToken := jwt.NewWithClaims(jwt.SigningMethodHS256, baseClaims())
	hsRaw, err := hsToken.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), hsRaw)
	assert.Error(t, err)
	_ = raw
}
