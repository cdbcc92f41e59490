package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "search_profiles", cfg.Index.Index)
	assert.Equal(t, "web_search", cfg.Index.TemplateID)
	assert.Equal(t, 30, cfg.Index.TimeoutSecs)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocoder.BaseURL)
	assert.Equal(t, "ca", cfg.Geocoder.CountryCode)
	assert.InDelta(t, 1.0, cfg.Geocoder.PauseSecs, 0.001)
	assert.Equal(t, "CA", cfg.Postal.CountryCode)
	assert.InDelta(t, 4.0, cfg.Match.Epsilon, 0.001)
	assert.InDelta(t, 3.5, cfg.Match.Threshold, 0.001)
	assert.Equal(t, 3, cfg.Match.MaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	yaml := `
index:
  base_url: http://localhost:9200
  api_key: secret
match:
  epsilon: 6.5
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9200", cfg.Index.BaseURL)
	assert.Equal(t, "secret", cfg.Index.APIKey)
	assert.InDelta(t, 6.5, cfg.Match.Epsilon, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, "search_profiles", cfg.Index.Index)
	assert.InDelta(t, 3.5, cfg.Match.Threshold, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	yaml := `
log:
  level: debug
geocoder:
  country_code: us
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LISTINGMATCH_LOG_LEVEL", "warn")
	t.Setenv("LISTINGMATCH_GEOCODER_COUNTRY_CODE", "ca")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "ca", cfg.Geocoder.CountryCode)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	t.Setenv("LISTINGMATCH_INDEX_TIMEOUT_SECS", "60")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Index.TimeoutSecs)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
