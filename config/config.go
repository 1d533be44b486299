package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	StoreAPI  StoreAPIConfig
	Session   SessionConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Checkout  CheckoutConfig
	S3        S3Config
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type LogConfig struct {
	Level  string
	Format string // json, console
}

// StoreAPIConfig points at the external REST API that owns products, orders and accounts.
type StoreAPIConfig struct {
	BaseURL string
	Timeout time.Duration
	// JWTSecret is optional. When set, access tokens are signature checked locally.
	JWTSecret string
}

type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	CookieMaxAge time.Duration
	IdleTTL      time.Duration // in-memory eviction
	Retention    time.Duration // persisted rows older than this are purged
	SweepSpec    string        // cron expression for the sweeper
}

type StorageConfig struct {
	Driver     string // memory, redis, postgres, sqlite
	SQLitePath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type CheckoutConfig struct {
	Mode           string // simulate, api
	SimulatedDelay time.Duration
	Coupons        map[string]int // code -> percent off
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

// Enabled reports whether product media uploads can be served.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

type RateLimitConfig struct {
	AuthRequests int
	AuthWindow   time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	coupons, err := parseCoupons(getEnv("COUPONS", "SAVE10:10"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", ""),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		StoreAPI: StoreAPIConfig{
			BaseURL:   strings.TrimRight(getEnv("STORE_API_BASE_URL", "http://localhost:5000/api"), "/"),
			Timeout:   parseDuration(getEnv("STORE_API_TIMEOUT", "15s"), 15*time.Second),
			JWTSecret: getEnv("STORE_API_JWT_SECRET", ""),
		},
		Session: SessionConfig{
			CookieName:   getEnv("SESSION_COOKIE_NAME", "dg_session"),
			CookieSecure: parseBool(getEnv("SESSION_COOKIE_SECURE", "false")),
			CookieMaxAge: parseDuration(getEnv("SESSION_COOKIE_MAX_AGE", "720h"), 720*time.Hour),
			IdleTTL:      parseDuration(getEnv("SESSION_IDLE_TTL", "30m"), 30*time.Minute),
			Retention:    parseDuration(getEnv("SESSION_RETENTION", "720h"), 720*time.Hour),
			SweepSpec:    getEnv("SESSION_SWEEP_SPEC", "*/10 * * * *"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getEnv("STORAGE_DRIVER", "memory")),
			SQLitePath: getEnv("SQLITE_PATH", "storefront.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Checkout: CheckoutConfig{
			Mode:           strings.ToLower(getEnv("CHECKOUT_MODE", "simulate")),
			SimulatedDelay: parseDuration(getEnv("CHECKOUT_SIMULATED_DELAY", "2s"), 2*time.Second),
			Coupons:        coupons,
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-south-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		RateLimit: RateLimitConfig{
			AuthRequests: parseInt(getEnv("AUTH_RATE_LIMIT", "10"), 10),
			AuthWindow:   parseDuration(getEnv("AUTH_RATE_WINDOW", "1m"), time.Minute),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "redis", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	switch c.Checkout.Mode {
	case "simulate", "api":
	default:
		return fmt.Errorf("unsupported CHECKOUT_MODE %q", c.Checkout.Mode)
	}
	if c.StoreAPI.BaseURL == "" {
		return fmt.Errorf("STORE_API_BASE_URL is required")
	}
	return nil
}

// LogLevel falls back to debug in development and info elsewhere.
func (c *Config) LogLevel() string {
	if c.Log.Level != "" {
		return c.Log.Level
	}
	if c.Server.Environment == "development" {
		return "debug"
	}
	return "info"
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parseCoupons reads "CODE:percent,CODE:percent".
func parseCoupons(s string) (map[string]int, error) {
	coupons := make(map[string]int)
	for _, entry := range parseSlice(s) {
		code, pct, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("invalid coupon entry %q", entry)
		}
		percent, err := strconv.Atoi(strings.TrimSpace(pct))
		if err != nil || percent <= 0 || percent > 100 {
			return nil, fmt.Errorf("invalid coupon percent in %q", entry)
		}
		coupons[strings.ToUpper(strings.TrimSpace(code))] = percent
	}
	return coupons, nil
}
