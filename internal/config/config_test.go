package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "DB_DRIVER", "JWT_TTL", "CACHE_TTL", "TRUSTED_PROXIES", "LOGIN_RATE_PER_MIN"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.TrustedProxies)
	assert.Equal(t, 10, cfg.LoginRatePerMin)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2,")
	t.Setenv("IS_PROD", "true")
	t.Setenv("SMTP_PORT", "not-a-number")
	cfg := LoadConfig()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.TrustedProxies)
	assert.True(t, cfg.IsProd)
	assert.Equal(t, 587, cfg.SMTPPort)
}

func TestValidate(t *testing.T) {
	assert.EqualError(t, (&Config{DBDriver: "mysql"}).Validate(), "config: JWT_SECRET is required")
	assert.EqualError(t, (&Config{JWTSecret: "s", DBDriver: "oracle"}).Validate(), `config: invalid DB_DRIVER "oracle"`)
	assert.NoError(t, (&Config{JWTSecret: "s", DBDriver: "postgres"}).Validate())
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())
	defer logrus.SetFormatter(logrus.StandardLogger().Formatter)

	SetupLogging(&Config{LogLevel: "debug", LogFormat: "json"})
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	SetupLogging(&Config{LogLevel: "loud", LogFormat: "text"})
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logrus.StandardLogger().Formatter)
}
