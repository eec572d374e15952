package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:              "development",
		Port:             "8375",
		AdminID:          1001,
		DBDriver:         "sqlite",
		DBPath:           "bulletin.db",
		WebhookSecret:    "secure-secret-at-least-32-chars-long",
		ComplaintBanDays: 3,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Development defaults", func(c *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"Sqlite without path", func(c *Config) { c.DBPath = "" }, true},
		{"Zero complaint ban days", func(c *Config) { c.ComplaintBanDays = 0 }, true},
		{"Negative rate limit", func(c *Config) { c.RateLimitPerMinute = -1 }, true},
		{"Production without admin", func(c *Config) { c.Env = "production"; c.AdminID = 0 }, true},
		{"Production default secret", func(c *Config) { c.Env = "production"; c.WebhookSecret = defaultWebhookSecret }, true},
		{"Production short secret", func(c *Config) { c.Env = "prod"; c.WebhookSecret = "short" }, true},
		{"Production memory driver", func(c *Config) { c.Env = "production"; c.DBDriver = "memory" }, true},
		{"Production postgres without ssl", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "postgres"
			c.DBPassword = "secure-password"
			c.DBSSLMode = "disable"
		}, true},
		{"Production postgres with ssl", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "postgres"
			c.DBPassword = "secure-password"
			c.DBSSLMode = "require"
		}, false},
		{"Production sqlite", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_DRIVER")
	defer os.Unsetenv("ADMIN_ID")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_DRIVER", "  MEMORY  ")
	os.Setenv("ADMIN_ID", "4242")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", c.DBDriver)
	assert.Equal(t, int64(4242), c.AdminID)
	assert.Equal(t, 3, c.ComplaintBanDays)
	assert.Equal(t, "8375", c.Port)
}
