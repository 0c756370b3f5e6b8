package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"

	"siteforge/internal/edge"
)

const defaultEdgeAPIBase = "https://api.cloudflare.com/client/v4"

// Config holds all configuration
type Config struct {
	MySQL     MySQLConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Migrate   bool
	HTTPAddr  string
	Edge      EdgeConfig
	SSLWorker SSLWorkerConfig
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// EdgeConfig holds the edge provider connection parameters. Immutable once
// validated; constructed once per process and injected where needed.
type EdgeConfig struct {
	APIToken          string
	ZoneID            string
	AccountID         string
	PlatformDomain    string
	ProxySubdomain    string
	WorkerName        string
	APIBaseURL        string
	MaxRetries        int
	RetryBaseDelayMs  int
	RequestsPerSecond float64
}

// ClientConfig converts the loaded settings into the edge client's config.
func (e EdgeConfig) ClientConfig() edge.Config {
	return edge.Config{
		APIToken:       e.APIToken,
		ZoneID:         e.ZoneID,
		AccountID:      e.AccountID,
		APIBaseURL:     e.APIBaseURL,
		MaxRetries:     e.MaxRetries,
		RetryBaseDelay: time.Duration(e.RetryBaseDelayMs) * time.Millisecond,
		RateLimit:      e.RequestsPerSecond,
	}
}

// SSLWorkerConfig holds SSL status worker configuration
type SSLWorkerConfig struct {
	Enabled     bool
	IntervalSec int
	BatchSize   int
}

// Load loads configuration from environment variables. When CONFIG_FILE
// names an INI file, its values fill in anything the environment leaves
// unset (ENV > INI > default).
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	if iniPath := os.Getenv("CONFIG_FILE"); iniPath != "" {
		return LoadFromINI(iniPath)
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getEnv("MYSQL_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			ExpireMinutes: getEnvInt("JWT_EXPIRE_MINUTES", 1440),
			Issuer:        getEnv("JWT_ISSUER", "siteforge"),
		},
		Migrate:  getEnv("MIGRATE", "0") == "1",
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Edge: EdgeConfig{
			APIToken:          getEnv("EDGE_API_TOKEN", ""),
			ZoneID:            getEnv("EDGE_ZONE_ID", ""),
			AccountID:         getEnv("EDGE_ACCOUNT_ID", ""),
			PlatformDomain:    getEnv("PLATFORM_DOMAIN", ""),
			ProxySubdomain:    getEnv("PROXY_SUBDOMAIN", "site-proxy"),
			WorkerName:        getEnv("EDGE_WORKER_NAME", ""),
			APIBaseURL:        getEnv("EDGE_API_BASE_URL", defaultEdgeAPIBase),
			MaxRetries:        getEnvInt("EDGE_MAX_RETRIES", 3),
			RetryBaseDelayMs:  getEnvInt("EDGE_RETRY_BASE_DELAY_MS", 1000),
			RequestsPerSecond: getEnvFloat("EDGE_REQUESTS_PER_SECOND", 4),
		},
		SSLWorker: SSLWorkerConfig{
			Enabled:     getEnv("SSL_WORKER_ENABLED", "1") == "1",
			IntervalSec: getEnvInt("SSL_WORKER_INTERVAL_SEC", 60),
			BatchSize:   getEnvInt("SSL_WORKER_BATCH_SIZE", 20),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks required settings, reporting every missing name at once
// rather than failing on the first.
func (c *Config) validate() error {
	var missing []string

	required := []struct {
		name  string
		value string
	}{
		{"MYSQL_DSN", c.MySQL.DSN},
		{"JWT_SECRET", c.JWT.Secret},
		{"EDGE_API_TOKEN", c.Edge.APIToken},
		{"EDGE_ZONE_ID", c.Edge.ZoneID},
		{"EDGE_ACCOUNT_ID", c.Edge.AccountID},
		{"PLATFORM_DOMAIN", c.Edge.PlatformDomain},
		{"EDGE_WORKER_NAME", c.Edge.WorkerName},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Edge.RequestsPerSecond <= 0 {
		return fmt.Errorf("EDGE_REQUESTS_PER_SECOND must be positive, got %v", c.Edge.RequestsPerSecond)
	}
	if c.Edge.MaxRetries < 0 {
		return fmt.Errorf("EDGE_MAX_RETRIES must not be negative, got %d", c.Edge.MaxRetries)
	}
	if c.Edge.RetryBaseDelayMs <= 0 {
		return fmt.Errorf("EDGE_RETRY_BASE_DELAY_MS must be positive, got %d", c.Edge.RetryBaseDelayMs)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// LoadFromINI loads configuration from an INI file with environment
// variable override (ENV > INI > default).
func LoadFromINI(iniPath string) (*Config, error) {
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	getValueFloat := func(envKey, iniSection, iniKey string, defaultValue float64) float64 {
		if value := os.Getenv(envKey); value != "" {
			if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
				return floatValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Float64(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	getValueBool := func(envKey, iniSection, iniKey string, defaultValue bool) bool {
		if value := os.Getenv(envKey); value != "" {
			return value == "1" || value == "true"
		}
		if value, err := cfgFile.Section(iniSection).Key(iniKey).Bool(); err == nil {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getValue("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: getValue("REDIS_PASS", "redis", "pass", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        getValue("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: getValueInt("JWT_EXPIRE_MINUTES", "jwt", "expire_minutes", 1440),
			Issuer:        getValue("JWT_ISSUER", "jwt", "issuer", "siteforge"),
		},
		Migrate:  getValueBool("MIGRATE", "app", "migrate", false),
		HTTPAddr: getValue("HTTP_ADDR", "http", "addr", ":8080"),
		Edge: EdgeConfig{
			APIToken:          getValue("EDGE_API_TOKEN", "edge", "api_token", ""),
			ZoneID:            getValue("EDGE_ZONE_ID", "edge", "zone_id", ""),
			AccountID:         getValue("EDGE_ACCOUNT_ID", "edge", "account_id", ""),
			PlatformDomain:    getValue("PLATFORM_DOMAIN", "edge", "platform_domain", ""),
			ProxySubdomain:    getValue("PROXY_SUBDOMAIN", "edge", "proxy_subdomain", "site-proxy"),
			WorkerName:        getValue("EDGE_WORKER_NAME", "edge", "worker_name", ""),
			APIBaseURL:        getValue("EDGE_API_BASE_URL", "edge", "api_base_url", defaultEdgeAPIBase),
			MaxRetries:        getValueInt("EDGE_MAX_RETRIES", "edge", "max_retries", 3),
			RetryBaseDelayMs:  getValueInt("EDGE_RETRY_BASE_DELAY_MS", "edge", "retry_base_delay_ms", 1000),
			RequestsPerSecond: getValueFloat("EDGE_REQUESTS_PER_SECOND", "edge", "requests_per_second", 4),
		},
		SSLWorker: SSLWorkerConfig{
			Enabled:     getValueBool("SSL_WORKER_ENABLED", "ssl_worker", "enabled", true),
			IntervalSec: getValueInt("SSL_WORKER_INTERVAL_SEC", "ssl_worker", "interval_sec", 60),
			BatchSize:   getValueInt("SSL_WORKER_BATCH_SIZE", "ssl_worker", "batch_size", 20),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
