package config

import (
	"fmt"     // For errors
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort          string        // Application port
	DBDriver         string        // mysql, postgres or sqlite
	DBUser           string        // Database user
	DBPassword       string        // Database password
	DBHost           string        // Database host
	DBPort           string        // Database port, driver default when empty
	DBName           string        // Database name, file path for sqlite
	DBMaxOpenConns   int           // Connection pool size
	JWTSecret        string        // JWT secret key
	JWTTTL           time.Duration // Token lifetime
	RedisAddr        string        // Redis server address, empty disables caching
	RedisPass        string        // Redis password
	RedisDB          int           // Redis database number
	CacheTTL         time.Duration // Cached aggregate lifetime
	SMTPHost         string        // SMTP relay, empty logs emails instead
	SMTPPort         int           // SMTP port
	SMTPUser         string        // SMTP username
	SMTPPass         string        // SMTP password
	SMTPFrom         string        // Sender address
	MailTimeout      time.Duration // Bound on one email delivery
	OverdueSweepSpec string        // Cron spec for the overdue sweep, empty disables it
	LoginRatePerMin  int           // Login/register attempts per client IP per minute
	LogLevel         string        // logrus level
	LogFormat        string        // text or json
	IsProd           bool          // Is production environment
	TrustedProxies   []string      // Proxies trusted for client IP
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:          getEnv("APP_PORT", "8080"),
		DBDriver:         getEnv("DB_DRIVER", "mysql"),
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           os.Getenv("DB_PORT"),
		DBName:           getEnv("DB_NAME", "invoicing"),
		DBMaxOpenConns:   getEnvInt("DB_MAX_OPEN_CONNS", 20),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTTTL:           getEnvDuration("JWT_TTL", 7*24*time.Hour),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPass:        os.Getenv("REDIS_PASS"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		CacheTTL:         getEnvDuration("CACHE_TTL", 60*time.Second),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         getEnvInt("SMTP_PORT", 587),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPass:         os.Getenv("SMTP_PASS"),
		SMTPFrom:         getEnv("SMTP_FROM", "Invoice App <noreply@invoiceapp.com>"),
		MailTimeout:      getEnvDuration("MAIL_TIMEOUT", 30*time.Second),
		OverdueSweepSpec: getEnv("OVERDUE_SWEEP_SPEC", "@hourly"),
		LoginRatePerMin:  getEnvInt("LOGIN_RATE_PER_MIN", 10),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		IsProd:           os.Getenv("IS_PROD") == "true",
		TrustedProxies:   getEnvList("TRUSTED_PROXIES", []string{"127.0.0.1"}),
	}
}

// Validate reports settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: invalid DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// getEnv returns the variable or fallback when unset
func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// getEnvInt parses an integer variable, fallback when unset or malformed
func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// getEnvDuration parses a Go duration ("15m", "168h"), fallback when unset or malformed
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// getEnvList splits a comma separated variable
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
