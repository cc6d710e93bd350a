package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HUB_ENDPOINT", "https://hub.internal:8443")
	t.Setenv("HUB_API_TOKEN", "secret-token")
	t.Setenv("HUB_PAGE_SIZE", "25")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://hub.internal:8443", cfg.HubEndpoint)
	assert.Equal(t, "secret-token", cfg.APIToken)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadReadsDotenv(t *testing.T) {
	dir := t.TempDir()
	env := "HUB_ENDPOINT=https://hub.from-dotenv\nHUB_PAGE_SIZE=10\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://hub.from-dotenv", cfg.HubEndpoint)
	assert.Equal(t, 10, cfg.PageSize)
}

func TestLoadRejectsMalformedDotenv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("not a parseable line\n"), 0o600))
	t.Chdir(dir)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{HubEndpoint: "https://hub", PageSize: 50}},
		{name: "missing endpoint", cfg: Config{PageSize: 50}, wantErr: true},
		{name: "page size zero", cfg: Config{HubEndpoint: "https://hub"}, wantErr: true},
		{name: "page size too large", cfg: Config{HubEndpoint: "https://hub", PageSize: 101}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
