package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.BannerTTL)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	assert.False(t, cfg.ExportsToR2())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("BANNER_TTL", "5s")
	t.Setenv("SCAN_RATE_BURST", "3")
	t.Setenv("EXPORT_R2_ACCOUNT_ID", "acct")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.BannerTTL)
	assert.Equal(t, 3, cfg.ScanRateBurst)
	assert.True(t, cfg.ExportsToR2())
}

func TestParseRejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "soon")

	_, err := Parse()
	require.Error(t, err)
}
