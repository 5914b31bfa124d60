package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"CONFIG_FILE", "PORT", "METRICS_PORT", "DB_PATH", "STATIC_PATH", "JWT_SECRET",
	"TOKEN_DURATION", "REDIS_URL", "SETTLEMENT_CACHE_TTL", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every variable Load reads. t.Setenv restores the
// originals when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 9090, cfg.MetricsPort)
	assert.Equal(t, "./data/settleup.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.TokenDuration)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	yamlPath := writeFile(t, "settleup.yaml", `
port: 7000
db_path: /var/lib/settleup.db
jwt_secret: from-yaml
token_duration: 2h
redis_url: redis://localhost:6379/0
settlement_cache_ttl: 90s
log_format: json
`)
	t.Setenv("CONFIG_FILE", yamlPath)
	t.Setenv("PORT", "7100")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Port, "env wins over yaml")
	assert.Equal(t, "/var/lib/settleup.db", cfg.DBPath)
	assert.Equal(t, "from-yaml", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.TokenDuration)
	assert.Equal(t, 90*time.Second, cfg.SettlementCacheTTL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even to
	// the empty string, so unset the one under test.
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	envPath := writeFile(t, ".env", "JWT_SECRET=from-dotenv\n")

	cfg, err := Load(envPath)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.JWTSecret)
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
}

func TestLoad_MissingDotEnvIsFine(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_BadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "eighty")
	t.Setenv("TOKEN_DURATION", "forever")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "TOKEN_DURATION")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.JWTSecret = "s3cret"
	require.NoError(t, cfg.Validate())

	cfg.Port = 0
	cfg.JWTSecret = ""
	cfg.LogLevel = "chatty"
	cfg.LogFormat = "xml"
	cfg.RedisURL = "redis://localhost:6379"
	cfg.SettlementCacheTTL = 0

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"port 0", "JWT_SECRET", "chatty", "xml", "cache ttl"} {
		assert.Contains(t, err.Error(), want)
	}
}
