package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	logrus "github.com/sirupsen/logrus"
)

// Config holds every runtime setting, read once at startup from the environment.
type Config struct {
	// Database
	DBDriver   string // "pgx" (default) or "postgres" for lib/pq
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimezone string

	// Server
	Port   string
	AppEnv string

	// CORSAllowedOrigins is empty to allow any origin
	CORSAllowedOrigins []string

	// Admin auth
	JWTSecret     string
	JWTTTL        time.Duration
	AdminEmail    string
	AdminPassword string

	// Accounts
	DefaultUserPassword string
	BcryptCost          int

	// Outbound task service
	TaskServiceURL     string
	TaskServiceTimeout time.Duration

	// Observability
	SentryDSN string
	LogFile   string
	LogLevel  string
	LogStdout bool
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, relying on env vars")
	}

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "pgx"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "field_tracker"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBTimezone: getEnv("DB_TIMEZONE", "UTC"),

		Port:               getEnv("PORT", "8080"),
		AppEnv:             getEnv("APP_ENV", "development"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),

		JWTSecret:     getEnv("JWT_SECRET", "supersecret"),
		JWTTTL:        parseDuration(getEnv("JWT_TTL", "72h"), 72*time.Hour),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		DefaultUserPassword: getEnv("DEFAULT_USER_PASSWORD", "qqqqqq"),
		BcryptCost:          parseInt(getEnv("BCRYPT_COST", "10"), 10),

		TaskServiceURL:     getEnv("TASK_SERVICE_URL", ""),
		TaskServiceTimeout: parseDuration(getEnv("TASK_SERVICE_TIMEOUT", "30s"), 30*time.Second),

		SentryDSN: getEnv("SENTRY_DSN", ""),
		LogFile:   getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogStdout: getEnv("LOG_STDOUT", "false") == "true",
	}
}

// DSN builds the key/value connection string understood by both pgx and lib/pq.
func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=" + c.DBTimezone
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return defaultValue
}

// splitList reads a comma separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		logrus.WithField("value", s).Warn("invalid duration, using default")
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		logrus.WithField("value", s).Warn("invalid integer, using default")
		return fallback
	}
	return n
}
