package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "memory", cfg.Events.Driver)
	assert.Equal(t, 5, cfg.Recommendation.DefaultLimit)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("EVENTS_DRIVER", "kafka")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 90*time.Minute, cfg.JWT.TTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Events.KafkaBrokers)
}

func TestLoadConfig_YAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
port: "7070"
log_level: warn
jwt:
  secret: from-file
  ttl: 2h
recommendation:
  default_limit: 3
  max_limit: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port, "file values win over env")
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 3, cfg.Recommendation.DefaultLimit)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "default secret in production", mutate: func(c *Config) { c.Environment = "production" }, wantErr: true},
		{name: "kafka without brokers", mutate: func(c *Config) { c.Events.Driver = "kafka" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Events.Driver = "nats" }, wantErr: true},
		{name: "casdoor without endpoint", mutate: func(c *Config) { c.Casdoor.Enabled = true }, wantErr: true},
		{name: "limits inverted", mutate: func(c *Config) { c.Recommendation.MaxLimit = 1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Port:        "8080",
				Environment: "development",
				DatabaseURL: "postgres://localhost/test",
				JWT:         JWTConfig{Secret: defaultJWTSecret, TTL: time.Hour},
				Events:      EventsConfig{Driver: "memory"},
				Recommendation: RecommendationConfig{
					DefaultLimit: 5,
					MaxLimit:     50,
				},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
