// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Env            string `mapstructure:"APP_ENV"`
	EventStream    string `mapstructure:"EVENT_STREAM"`
	ProjectorGroup string `mapstructure:"PROJECTOR_GROUP"`
	SearchIndex    string `mapstructure:"SEARCH_INDEX"`
	// OutboxIntervalMS is how often the relay polls for unpublished events.
	OutboxIntervalMS int `mapstructure:"OUTBOX_INTERVAL_MS"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional; environment variables and defaults suffice.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err == nil {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	// Set default values for development
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5433")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "questionDb")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", "dev-secret-change-in-production")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("EVENT_STREAM", "questions:events")
	viper.SetDefault("PROJECTOR_GROUP", "search-projector")
	viper.SetDefault("SEARCH_INDEX", "questions-idx")
	viper.SetDefault("OUTBOX_INTERVAL_MS", 500)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and sane.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.EventStream == "" {
		return errors.New("EVENT_STREAM is required")
	}
	if c.ProjectorGroup == "" {
		return errors.New("PROJECTOR_GROUP is required")
	}
	if c.OutboxIntervalMS <= 0 {
		return errors.New("OUTBOX_INTERVAL_MS must be positive")
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction && c.JWTSecret == "dev-secret-change-in-production" {
		return errors.New("JWT_SECRET must be overridden in production")
	}

	return nil
}

// DSN returns the Postgres connection string for the authoritative store.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}
