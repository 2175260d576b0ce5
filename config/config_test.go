package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SUBSONIC_PASSWORD", "secret")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, AuthModeStatic, cfg.AuthMode)
	assert.Equal(t, 10*time.Minute, cfg.SongCacheTTL)
	assert.Equal(t, 2000, cfg.SongCacheMax)
	assert.Equal(t, 8*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 12*time.Second, cfg.DetailTimeout)
	assert.False(t, cfg.RedisEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PUBLIC_URL", "https://music.example.com/")
	t.Setenv("AUTH_MODE", "LOGIN")
	t.Setenv("LOGIN_URL", "https://auth.example.com/api/login")
	t.Setenv("SONG_CACHE_TTL", "30s")
	t.Setenv("SONG_CACHE_MAX", "not-a-number")
	t.Setenv("REDIS_HOST", "redis")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "https://music.example.com", cfg.PublicURL)
	assert.Equal(t, AuthModeLogin, cfg.AuthMode)
	assert.Equal(t, 30*time.Second, cfg.SongCacheTTL)
	assert.Equal(t, 2000, cfg.SongCacheMax)
	assert.True(t, cfg.RedisEnabled())
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Port:                "abc",
		PublicURL:           "not a url",
		AuthMode:            "ldap",
		MiguAPIURL:          "https://a",
		MiguDetailAPIURL:    "https://a",
		NeteaseAPIURL:       "https://a",
		NeteaseDetailAPIURL: "https://a",
		SayqzAPIURL:         "https://a",
		FangpiURL:           "",
		SearchTimeout:       time.Second,
		DetailTimeout:       time.Second,
		SongCacheTTL:        0,
		SongCacheMax:        -1,
	}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"PORT", "PUBLIC_URL", "AUTH_MODE", "FANGPI_URL", "SONG_CACHE_TTL", "SONG_CACHE_MAX"} {
		assert.Contains(t, msg, want)
	}
}

func TestValidateStaticModeNeedsPassword(t *testing.T) {
	t.Setenv("SUBSONIC_PASSWORD", "")
	cfg := Load()
	cfg.SubsonicPassword = ""
	cfg.SubsonicPasswordHash = ""
	assert.ErrorContains(t, cfg.Validate(), "SUBSONIC_PASSWORD")
}
