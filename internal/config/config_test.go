package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("DEFAULT_USER_PASSWORD", "")
	t.Setenv("TASK_SERVICE_TIMEOUT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := Load()
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "qqqqqq", cfg.DefaultUserPassword)
	assert.Equal(t, 30*time.Second, cfg.TaskServiceTimeout)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "tracker_test")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("TASK_SERVICE_URL", "http://tasks.local/internal/tasks/")
	t.Setenv("TASK_SERVICE_TIMEOUT", "5s")
	t.Setenv("LOG_STDOUT", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.com, ,http://localhost:3000")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, "http://tasks.local/internal/tasks/", cfg.TaskServiceURL)
	assert.Equal(t, 5*time.Second, cfg.TaskServiceTimeout)
	assert.True(t, cfg.LogStdout)
	assert.Equal(t, []string{"https://admin.example.com", "http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Contains(t, cfg.DSN(), "host=db.internal")
	assert.Contains(t, cfg.DSN(), "dbname=tracker_test")
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_TTL", "forever")
	t.Setenv("BCRYPT_COST", "high")

	cfg := Load()
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
}
