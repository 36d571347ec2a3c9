package apikey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartohq/iam/internal/apikey"
)

func TestGenerate_ProducesTaggedPrefixedSecret(t *testing.T) {
	plaintext, prefix, err := apikey.Generate(apikey.DefaultTag, apikey.DefaultEntropyBytes)
	require.NoError(t, err)

	assert.True(t, len(plaintext) > apikey.PrefixLength)
	assert.Equal(t, apikey.DefaultTag, plaintext[:len(apikey.DefaultTag)])
	assert.Equal(t, apikey.PrefixLength, len(prefix))
	assert.Equal(t, plaintext[:apikey.PrefixLength], prefix)
}

func TestGenerate_DistinctSecrets(t *testing.T) {
	seen := make(map[string]struct{}, 1000)

	for i := 0; i < 1000; i++ {
		plaintext, _, err := apikey.Generate(apikey.DefaultTag, apikey.DefaultEntropyBytes)
		require.NoError(t, err)

		_, dup := seen[plaintext]
		assert.False(t, dup, "generated a duplicate secret")
		seen[plaintext] = struct{}{}
	}
}

func TestGenerate_RejectsEmptyTag(t *testing.T) {
	_, _, err := apikey.Generate("", apikey.DefaultEntropyBytes)
	assert.ErrorIs(t, err, apikey.ErrEmptyTag)
}

func TestHashAndVerify_RoundTrip(t *testing.T) {
	plaintext, _, err := apikey.Generate(apikey.DefaultTag, apikey.DefaultEntropyBytes)
	require.NoError(t, err)

	hash, err := apikey.Hash(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, hash)

	assert.True(t, apikey.Verify(hash, plaintext))
	assert.False(t, apikey.Verify(hash, plaintext+"x"))
}

func TestVerify_NeverPanicsOnGarbage(t *testing.T) {
	assert.False(t, apikey.Verify("not-a-bcrypt-hash", "whatever"))
	assert.False(t, apikey.Verify("", ""))
	assert.False(t, apikey.Verify("$2a$10$invalidhash", "secret"))
}
