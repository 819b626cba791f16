package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultDatabaseDriver = "mongo"
	defaultMongoURI       = "mongodb://localhost:27017"
	defaultMongoDatabase  = "kabadi"
	defaultRedisAddr      = "localhost:6379"
	defaultJWTSecret      = "change-me-in-production"
	defaultJWTTTL         = 24 * time.Hour
	defaultAppPort        = "8080"
	defaultAppEnv         = "local"
	defaultCacheTTL       = 30 * time.Second
	defaultMaxUploadBytes = 10 << 20
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges config/app.json, then .env, then the process environment over
// the defaults. Only the first call reads from disk.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":      defaultAppEnv,
		"APP_PORT":     defaultAppPort,
		"DB_DRIVER":    defaultDatabaseDriver,
		"MONGO_URI":    defaultMongoURI,
		"MONGO_DB":     defaultMongoDatabase,
		"JWT_SECRET":   defaultJWTSecret,
		"REDIS_ADDR":   defaultRedisAddr,
		"STORAGE_DISK": "local",
	}
}

// ── App ──────────────────────────────────────────────────────────────────────

func AppEnv() string  { _ = Load(); return get("APP_ENV", defaultAppEnv) }
func AppPort() string { _ = Load(); return get("APP_PORT", defaultAppPort) }

// IsProduction reports whether APP_ENV names a production environment.
func IsProduction() bool {
	switch strings.ToLower(AppEnv()) {
	case "production", "prod":
		return true
	}
	return false
}

// ── Database ─────────────────────────────────────────────────────────────────

// DatabaseDriver returns "mongo" or "memory". Unknown values fall back to mongo.
func DatabaseDriver() string {
	_ = Load()

	driver := strings.ToLower(get("DB_DRIVER", defaultDatabaseDriver))
	switch driver {
	case "mongo", "memory":
		return driver
	default:
		return defaultDatabaseDriver
	}
}

func MongoURI() string      { _ = Load(); return get("MONGO_URI", defaultMongoURI) }
func MongoDatabase() string { _ = Load(); return get("MONGO_DB", defaultMongoDatabase) }

// MongoTransactions enables multi-document transactions. The server must be
// a replica set or sharded cluster.
func MongoTransactions() bool { return Bool("MONGO_TRANSACTIONS", false) }

// ── Auth ─────────────────────────────────────────────────────────────────────

func JWTSecret() string { _ = Load(); return get("JWT_SECRET", defaultJWTSecret) }

// CheckSecrets refuses the built-in JWT secret in production, where anyone
// who has read the source could sign tokens with it.
func CheckSecrets() error {
	if IsProduction() && JWTSecret() == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set when APP_ENV is %q", AppEnv())
	}
	return nil
}

// JWTTTL is the lifetime of an issued access token.
func JWTTTL() time.Duration { return Duration("JWT_TTL", defaultJWTTTL) }

func AllowAdminRegistration() bool { return Bool("ALLOW_ADMIN_REGISTRATION", false) }

// DeliveryOwnershipCheck restricts delivery status updates to the assigned
// delivery person.
func DeliveryOwnershipCheck() bool { return Bool("DELIVERY_OWNERSHIP_CHECK", false) }

func AdminEmail() string    { _ = Load(); return get("ADMIN_EMAIL", "admin@kabadi.local") }
func AdminPassword() string { _ = Load(); return get("ADMIN_PASSWORD", "") }

// ── Cache ────────────────────────────────────────────────────────────────────

func RedisAddr() string     { _ = Load(); return get("REDIS_ADDR", defaultRedisAddr) }
func RedisPassword() string { _ = Load(); return get("REDIS_PASSWORD", "") }
func CacheEnabled() bool    { return Bool("CACHE_ENABLED", false) }
func CacheTTL() time.Duration {
	return Duration("CACHE_TTL", defaultCacheTTL)
}

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string   { _ = Load(); return get("STORAGE_DISK", "local") }
func StorageLocalRoot() string { _ = Load(); return get("STORAGE_LOCAL_ROOT", "storage") }
func StorageURL() string {
	_ = Load()
	return get("STORAGE_URL", "http://localhost:"+AppPort()+"/storage")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func StorageS3URL() string      { _ = Load(); return get("S3_URL", "") }

func StorageGCSBucket() string      { _ = Load(); return get("GCS_BUCKET", "") }
func StorageGCSCredentials() string { _ = Load(); return get("GCS_CREDENTIALS_FILE", "") }

// MaxUploadBytes caps multipart item uploads.
func MaxUploadBytes() int64 {
	n, err := strconv.ParseInt(Get("MAX_UPLOAD_BYTES", ""), 10, 64)
	if err != nil || n <= 0 {
		return defaultMaxUploadBytes
	}
	return n
}

// ── HTTP ─────────────────────────────────────────────────────────────────────

// CORSOrigins returns the comma-separated CORS_ORIGINS list, default "*".
func CORSOrigins() []string {
	raw := Get("CORS_ORIGINS", "*")
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func RateLimitPerMinute() int { return Int("RATE_LIMIT_PER_MINUTE", 200) }

// TrustedProxies returns the comma-separated TRUSTED_PROXIES list of
// addresses or CIDR ranges allowed to set X-Forwarded-For. Empty by default.
func TrustedProxies() []string {
	var out []string
	for _, p := range strings.Split(Get("TRUSTED_PROXIES", ""), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ── Logging ──────────────────────────────────────────────────────────────────

func LogToMongo() bool      { return Bool("LOG_TO_MONGO", false) }
func LogCollection() string { _ = Load(); return get("LOG_COLLECTION", "logs") }

// ── Loading ──────────────────────────────────────────────────────────────────

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mergeEnviron(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		var s string
		switch v := val.(type) {
		case string:
			s = v
		case bool:
			s = strconv.FormatBool(v)
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

// mergeEnviron lets real environment variables override file values.
func mergeEnviron(out map[string]string) {
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		out[strings.ToUpper(key)] = value
	}
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Bool parses key as a boolean, returning fallback when unset or malformed.
func Bool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(Get(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

// Int parses key as an integer, returning fallback when unset or malformed.
func Int(key string, fallback int) int {
	n, err := strconv.Atoi(Get(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

// Duration parses key with time.ParseDuration.
func Duration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(Get(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Set overrides a single key at runtime. Intended for tests and CLI flags.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}
