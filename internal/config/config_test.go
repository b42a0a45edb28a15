package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "https://www.mclemoreauction.com/uapi", cfg.AuctionAPI.BaseURL)
	assert.Equal(t, "https://api.lob.com/v1", cfg.Lob.BaseURL)
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, 22, cfg.Report.SendHourUTC)
	assert.Equal(t, "mclemore_session", cfg.Auth.CookieName)
	assert.Empty(t, cfg.Letters.ExcludedTerms)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("AM_API_KEY", "am-key")
	t.Setenv("LOB_API_KEY", "lob-key")
	t.Setenv("DATABASE_URL", "postgres://localhost/letters")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadFromEnv(writeConfig(t, "lob:\n  api_key: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "am-key", cfg.AuctionAPI.APIKey)
	assert.Equal(t, "lob-key", cfg.Lob.APIKey)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://localhost/letters", cfg.Database.URL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoad_ExcludedTerms(t *testing.T) {
	cfg, err := Load(writeConfig(t, "letters:\n  excluded_terms: [cemetery, school district]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cemetery", "school district"}, cfg.Letters.ExcludedTerms)
}
