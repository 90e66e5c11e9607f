package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"ENV", "PORT", "GOOGLE_APPLICATION_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS_JSON",
		"DRIVE_CAPTURES_FOLDER_ID", "UPLOAD_BACKEND", "UPLOAD_ENDPOINT", "RASTERIZER",
		"CAPTURE_SETTLE_DELAY", "REGENERATION_PAUSE", "CAPTURE_DOM_ATTEMPTS", "CART_MAX_LINES",
		"CART_MAX_QUANTITY", "CAPTURE_VERBOSE",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("DATABASE_URL", "postgres://studio@localhost/studio")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, RasterizerChrome, cfg.Rasterizer)
	assert.Equal(t, UploadHTTP, cfg.UploadBackend)
	assert.Equal(t, 500*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 2*time.Second, cfg.RegenPause)
	assert.Equal(t, 20, cfg.DOMAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.DOMInterval)
	assert.Equal(t, 15*time.Second, cfg.UploadTimeoutPreview)
	assert.Equal(t, 60*time.Second, cfg.UploadTimeoutHD)
	assert.Equal(t, 50, cfg.MaxCartLines)
	assert.Equal(t, 99, cfg.MaxQuantity)
	assert.Equal(t, 3, cfg.AIDailyQuota)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "postgres://studio@localhost/studio", cfg.DatabaseURL)
}

func TestDatabaseURLFromParts(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "studio")
	t.Setenv("DB_NAME", "textile")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_SSLMODE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=studio password=secret dbname=textile sslmode=disable", cfg.DatabaseURL)

	t.Setenv("DB_HOST", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", ":9000")
	t.Setenv("RASTERIZER", "Native")
	t.Setenv("CAPTURE_SETTLE_DELAY", "750")
	t.Setenv("REGENERATION_PAUSE", "3s")
	t.Setenv("CAPTURE_VERBOSE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, RasterizerNative, cfg.Rasterizer)
	assert.Equal(t, 750*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 3*time.Second, cfg.RegenPause)
	assert.True(t, cfg.VerboseCaptures)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad rasterizer", map[string]string{"RASTERIZER": "gpu"}},
		{"bad backend", map[string]string{"UPLOAD_BACKEND": "ftp"}},
		{"drive without credentials", map[string]string{"UPLOAD_BACKEND": "drive"}},
		{"drive without folder", map[string]string{"UPLOAD_BACKEND": "drive", "GOOGLE_APPLICATION_CREDENTIALS": "/tmp/creds.json"}},
		{"bad int", map[string]string{"CART_MAX_LINES": "many"}},
		{"bad duration", map[string]string{"REGENERATION_PAUSE": "soon"}},
		{"zero quantity", map[string]string{"CART_MAX_QUANTITY": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
