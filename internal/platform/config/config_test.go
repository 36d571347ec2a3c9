package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeLoader(overrides map[string]any) Loader {
	return func(dst any) error {
		cfg := dst.(*Config)
		if v, ok := overrides["pool_min"]; ok {
			cfg.DBPoolMin = v.(int)
		}
		if v, ok := overrides["pool_max"]; ok {
			cfg.DBPoolMax = v.(int)
		}
		return nil
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(fakeLoader(nil))
	require.NoError(t, err)
	assert.Equal(t, "sub", cfg.OIDCUserIDClaim)
	assert.Equal(t, "preferred_username", cfg.OIDCUsernameClaim)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, "karto_", cfg.APIKeyPrefix)
	assert.Equal(t, ":4004", cfg.ServerAddress)
}

func TestLoad_RejectsPoolMaxBelowMin(t *testing.T) {
	_, err := Load(fakeLoader(map[string]any{"pool_min": 10, "pool_max": 2}))
	assert.Error(t, err)
}

func TestLoad_RejectsPoolMaxAboveCeiling(t *testing.T) {
	_, err := Load(fakeLoader(map[string]any{"pool_min": 2, "pool_max": 200}))
	assert.Error(t, err)
}

func TestLoad_PropagatesLoaderError(t *testing.T) {
	boom := errPoolMaxBelowMin // reuse a sentinel just to have a distinct error value
	_, err := Load(func(dst any) error { return boom })
	assert.ErrorIs(t, err, boom)
}
