package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("SOURCE_CACHE_TTL", "")

	cfg := Load()
	assert.Equal(t, ":5000", cfg.HTTP.Addr)
	assert.Equal(t, "Resident PII Test.xlsx", cfg.Data.ExcelPath)
	assert.Equal(t, "7569dfb7-5d2f-452d-a384-0af63b38b559", cfg.SharePoint.ListID)
	assert.Equal(t, 5*time.Minute, cfg.SharePoint.CacheTTL)
	assert.Equal(t, "pbatson@peakmade.com", cfg.Admin.Email)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CB_TEST_DOTENV_ONLY=from-file\n"), 0o600))
	t.Setenv("ENV_FILE", envFile)
	t.Setenv("PORT", "8081")
	t.Setenv("PAYMENT_SEED", "42")
	t.Cleanup(func() { os.Unsetenv("CB_TEST_DOTENV_ONLY") })

	cfg := Load()
	assert.Equal(t, "from-file", os.Getenv("CB_TEST_DOTENV_ONLY"))
	assert.Equal(t, ":8081", cfg.HTTP.Addr)
	assert.Equal(t, int64(42), cfg.Data.PaymentSeed)
}

func TestSharePointConfigured(t *testing.T) {
	assert.False(t, SharePointConfig{ClientID: "a"}.Configured())
	assert.True(t, SharePointConfig{ClientID: "a", ClientSecret: "b", TenantID: "c"}.Configured())
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 3, parseInt("3", 0))
	assert.Equal(t, 7, parseInt("x", 7))
	assert.Equal(t, int64(-1), parseInt64("nope", -1))
	assert.Equal(t, time.Second, parseDuration("bad", time.Second))
}
