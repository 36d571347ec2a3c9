package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_BearerJWTRoutesToToken(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	kind, extracted := Classify("Bearer "+signed, "", "karto_")
	assert.Equal(t, KindToken, kind)
	assert.Equal(t, signed, extracted)
}

func TestClassify_APIKeySecretRoutesToAPIKey(t *testing.T) {
	kind, extracted := Classify("", "karto_abcdef0123456789", "karto_")
	assert.Equal(t, KindAPIKey, kind)
	assert.Equal(t, "karto_abcdef0123456789", extracted)
}

func TestClassify_NeitherIsUnauthenticated(t *testing.T) {
	kind, _ := Classify("", "", "karto_")
	assert.Equal(t, KindUnknown, kind)
}

func TestClassify_MalformedBearerFallsThroughToAPIKey(t *testing.T) {
	kind, _ := Classify("Bearer not-a-jwt", "karto_xyz", "karto_")
	assert.Equal(t, KindAPIKey, kind)
}
