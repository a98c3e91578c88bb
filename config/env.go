package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppPort         = "5000"
	defaultAppEnv          = "local"
	defaultMongoURI        = "mongodb://localhost:27017"
	defaultMongoDatabase   = "parcelDB"
	defaultStoreDriver     = "mongo"
	defaultRedisAddr       = "localhost:6379"
	defaultPaymentCurrency = "usd"
	defaultAuthCacheTTL    = 5 * time.Minute
	defaultShutdownTimeout = 10 * time.Second
	defaultRateLimitRPS    = 20
	defaultRateLimitBurst  = 40
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges config/app.json and .env over the defaults. It runs once;
// later calls return the first result.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_PORT":             defaultAppPort,
		"APP_ENV":              defaultAppEnv,
		"MONGO_URI":            defaultMongoURI,
		"MONGO_DATABASE":       defaultMongoDatabase,
		"STORE_DRIVER":         defaultStoreDriver,
		"REDIS_ADDR":           defaultRedisAddr,
		"REDIS_PASSWORD":       "",
		"PAYMENT_CURRENCY":     defaultPaymentCurrency,
		"CORS_ALLOWED_ORIGINS": "*",
	}
}

// ── Application ─────────────────────────────────────────────────────────────

func AppPort() string {
	_ = Load()
	return get("APP_PORT", defaultAppPort)
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// IsProduction reports whether APP_ENV names a production deployment.
func IsProduction() bool {
	switch strings.ToLower(AppEnv()) {
	case "production", "prod":
		return true
	}
	return false
}

func LogLevel() string {
	_ = Load()
	if IsProduction() {
		return strings.ToLower(get("LOG_LEVEL", "info"))
	}
	return strings.ToLower(get("LOG_LEVEL", "debug"))
}

func LogToMongo() bool {
	_ = Load()
	return getBool("LOG_TO_MONGO", false)
}

func ShutdownTimeout() time.Duration {
	_ = Load()
	return getDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
}

// ── Storage ─────────────────────────────────────────────────────────────────

// StoreDriver returns "mongo" or "memory". Unknown values fall back to mongo.
func StoreDriver() string {
	_ = Load()
	driver := strings.ToLower(get("STORE_DRIVER", defaultStoreDriver))
	switch driver {
	case "mongo", "memory":
		return driver
	default:
		return defaultStoreDriver
	}
}

func MongoURI() string {
	_ = Load()
	return get("MONGO_URI", defaultMongoURI)
}

func MongoDatabase() string {
	_ = Load()
	return get("MONGO_DATABASE", defaultMongoDatabase)
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

// ── Auth ────────────────────────────────────────────────────────────────────

func AuthKeysURL() string  { _ = Load(); return get("AUTH_KEYS_URL", "") }
func AuthIssuer() string   { _ = Load(); return get("AUTH_ISSUER", "") }
func AuthAudience() string { _ = Load(); return get("AUTH_AUDIENCE", "") }
func AuthSecret() string   { _ = Load(); return get("AUTH_SECRET", "") }

func AuthCacheTTL() time.Duration {
	_ = Load()
	return getDuration("AUTH_CACHE_TTL", defaultAuthCacheTTL)
}

// ── Payments ────────────────────────────────────────────────────────────────

func StripeSecretKey() string { _ = Load(); return get("STRIPE_SECRET_KEY", "") }

func PaymentCurrency() string {
	_ = Load()
	return strings.ToLower(get("PAYMENT_CURRENCY", defaultPaymentCurrency))
}

// ── HTTP ────────────────────────────────────────────────────────────────────

func CORSAllowedOrigins() []string {
	_ = Load()
	var origins []string
	for _, o := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// TrustedProxies lists the proxy IPs or CIDRs allowed to set forwarding
// headers (TRUSTED_PROXIES, comma separated). Empty by default.
func TrustedProxies() []string {
	_ = Load()
	var proxies []string
	for _, p := range strings.Split(get("TRUSTED_PROXIES", ""), ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}

func RateLimitRPS() float64 {
	_ = Load()
	f, err := strconv.ParseFloat(get("RATE_LIMIT_RPS", ""), 64)
	if err != nil || f <= 0 {
		return defaultRateLimitRPS
	}
	return f
}

func RateLimitBurst() int {
	_ = Load()
	return getInt("RATE_LIMIT_BURST", defaultRateLimitBurst)
}

func MaxBodyBytes() int64 {
	_ = Load()
	n, err := strconv.ParseInt(get("MAX_BODY_BYTES", ""), 10, 64)
	if err != nil || n <= 0 {
		return 4 << 20
	}
	return n
}

// ── Loading ─────────────────────────────────────────────────────────────────

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
		case float64, bool:
			s = fmt.Sprint(v)
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
	env, err := godotenv.Read(path)
	if err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return statErr
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	for key, value := range env {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(value)
	}
	return nil
}

// get resolves key from the process environment first, then the loaded files.
func get(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}

	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(get(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(get(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(get(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Set overrides a loaded value. Process environment variables still win.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	defer mu.Unlock()
	values[strings.ToUpper(key)] = value
}
