package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:             "8080",
		DBHost:           "localhost",
		DBPort:           "5433",
		DBUser:           "postgres",
		DBPassword:       "postgres",
		DBName:           "questionDb",
		DBSSLMode:        "disable",
		RedisURL:         "localhost:6379",
		JWTSecret:        "secret",
		Env:              "development",
		EventStream:      "questions:events",
		ProjectorGroup:   "search-projector",
		SearchIndex:      "questions-idx",
		OutboxIntervalMS: 500,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	mutations := map[string]func(*Config){
		"missing port":            func(c *Config) { c.Port = "" },
		"missing jwt secret":      func(c *Config) { c.JWTSecret = "" },
		"missing event stream":    func(c *Config) { c.EventStream = "" },
		"missing projector group": func(c *Config) { c.ProjectorGroup = "" },
		"zero outbox interval":    func(c *Config) { c.OutboxIntervalMS = 0 },
		"dev secret in production": func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "dev-secret-change-in-production"
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t,
		"host=localhost user=postgres password=postgres dbname=questionDb port=5433 sslmode=disable",
		cfg.DSN())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "questions:events", cfg.EventStream)
	assert.Equal(t, "search-projector", cfg.ProjectorGroup)
	assert.Equal(t, "questions-idx", cfg.SearchIndex)
	assert.Equal(t, 500, cfg.OutboxIntervalMS)
}
