// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

const defaultWebhookSecret = "bulletin-webhook-secret-change-me"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env                 string  `mapstructure:"APP_ENV"`
	Port                string  `mapstructure:"PORT"`
	AdminID             int64   `mapstructure:"ADMIN_ID"`
	DBDriver            string  `mapstructure:"DB_DRIVER"`
	DBPath              string  `mapstructure:"DB_PATH"`
	DBHost              string  `mapstructure:"DB_HOST"`
	DBPort              string  `mapstructure:"DB_PORT"`
	DBUser              string  `mapstructure:"DB_USER"`
	DBPassword          string  `mapstructure:"DB_PASSWORD"`
	DBName              string  `mapstructure:"DB_NAME"`
	DBSSLMode           string  `mapstructure:"DB_SSLMODE"`
	RedisURL            string  `mapstructure:"REDIS_URL"`
	WebhookSecret       string  `mapstructure:"WEBHOOK_SECRET"`
	FeatureFlags        string  `mapstructure:"FEATURE_FLAGS"`
	RateLimitPerMinute  int     `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	ComplaintBanDays    int     `mapstructure:"COMPLAINT_BAN_DAYS"`
	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional; environment variables alone are enough.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("ADMIN_ID", 0)
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_PATH", "bulletin.db")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "bulletin")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("WEBHOOK_SECRET", defaultWebhookSecret)
	viper.SetDefault("FEATURE_FLAGS", "")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("COMPLAINT_BAN_DAYS", 3)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.DBDriver = strings.ToLower(strings.TrimSpace(config.DBDriver))
	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.WebhookSecret == "" {
		return errors.New("WEBHOOK_SECRET is required")
	}
	switch c.DBDriver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported (sqlite, postgres, memory)", c.DBDriver)
	}
	if c.DBDriver == "sqlite" && c.DBPath == "" {
		return errors.New("DB_PATH is required for the sqlite driver")
	}
	if c.ComplaintBanDays <= 0 {
		return errors.New("COMPLAINT_BAN_DAYS must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE cannot be negative")
	}

	if c.IsProduction() {
		if c.AdminID <= 0 {
			return errors.New("ADMIN_ID must be set in production")
		}
		if c.WebhookSecret == defaultWebhookSecret {
			return errors.New("WEBHOOK_SECRET must be changed from the default value in production")
		}
		if len(c.WebhookSecret) < 32 {
			return errors.New("WEBHOOK_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "memory" {
			return errors.New("DB_DRIVER=memory is not durable and cannot be used in production")
		}
		if c.DBDriver == "postgres" {
			if c.DBPassword == "password" || c.DBPassword == "" {
				return errors.New("a strong DB_PASSWORD is required in production")
			}
			if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
				return errors.New("DB_SSLMODE must not be 'disable' in production")
			}
		}
	} else {
		if c.AdminID == 0 {
			log.Println("WARNING: ADMIN_ID is 0. Admin commands will only work for user id 0.")
		}
		if len(c.WebhookSecret) < 32 {
			log.Println("WARNING: WEBHOOK_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
		}
	}

	return nil
}
