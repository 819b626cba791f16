package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// restoreValues consumes the one-time Load so later getters do not reload
// over the values a test installs, and puts the previous values back after.
func restoreValues(t *testing.T) {
	t.Helper()
	_ = Load()
	mu.RLock()
	saved := make(map[string]string, len(values))
	for k, v := range values {
		saved[k] = v
	}
	mu.RUnlock()
	t.Cleanup(func() {
		mu.Lock()
		values = saved
		mu.Unlock()
	})
}

func TestLoadFromFiles_Precedence(t *testing.T) {
	restoreValues(t)
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
		"app_port": 9000,
		"mongo_db": "from-json",
		"mongo_transactions": true,
		"cache_ttl": "1m"
	}`), 0o600))
	require.NoError(t, os.WriteFile(envPath, []byte(
		"# comment\nexport MONGO_DB=\"from-env-file\"\nJWT_TTL=2h\nbroken line\n"), 0o600))
	t.Setenv("JWT_TTL", "3h")

	require.NoError(t, loadFromFiles(jsonPath, envPath))

	assert.Equal(t, "9000", AppPort())
	assert.Equal(t, "from-env-file", MongoDatabase())
	assert.True(t, MongoTransactions())
	assert.Equal(t, time.Minute, CacheTTL())
	assert.Equal(t, 3*time.Hour, JWTTTL())
	assert.Equal(t, defaultMongoURI, MongoURI())
}

func TestLoadFromFiles_MissingFilesUseDefaults(t *testing.T) {
	restoreValues(t)
	dir := t.TempDir()

	require.NoError(t, loadFromFiles(filepath.Join(dir, "none.json"), filepath.Join(dir, "none.env")))
	assert.Equal(t, "mongo", DatabaseDriver())
	assert.Equal(t, "local", StorageDefault())
}

func TestLoadFromFiles_BadJSON(t *testing.T) {
	restoreValues(t)
	path := filepath.Join(t.TempDir(), "app.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	assert.Error(t, loadFromFiles(path, filepath.Join(t.TempDir(), ".env")))
}

func TestTypedGetters(t *testing.T) {
	restoreValues(t)

	Set("DB_DRIVER", "Memory")
	assert.Equal(t, "memory", DatabaseDriver())
	Set("DB_DRIVER", "postgres")
	assert.Equal(t, "mongo", DatabaseDriver())

	Set("CORS_ORIGINS", " https://a.io , ,https://b.io")
	assert.Equal(t, []string{"https://a.io", "https://b.io"}, CORSOrigins())

	Set("MAX_UPLOAD_BYTES", "-5")
	assert.Equal(t, int64(defaultMaxUploadBytes), MaxUploadBytes())
	Set("MAX_UPLOAD_BYTES", "1024")
	assert.Equal(t, int64(1024), MaxUploadBytes())

	Set("RATE_LIMIT_PER_MINUTE", "abc")
	assert.Equal(t, 200, RateLimitPerMinute())

	Set("APP_ENV", "Production")
	assert.True(t, IsProduction())
}

func TestCheckSecrets(t *testing.T) {
	restoreValues(t)

	Set("APP_ENV", "local")
	Set("JWT_SECRET", defaultJWTSecret)
	assert.NoError(t, CheckSecrets())

	Set("APP_ENV", "production")
	assert.ErrorContains(t, CheckSecrets(), "JWT_SECRET")

	Set("JWT_SECRET", "a-real-secret")
	assert.NoError(t, CheckSecrets())
}
