package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("CART_STORAGE_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "vardanCart", cfg.Storage.CartKey)
	assert.Equal(t, "919559041204", cfg.Checkout.PhoneNumber)
	assert.Equal(t, "Vardan Naturals Website", cfg.Checkout.ShopName)
	assert.Equal(t, 1500*time.Millisecond, cfg.Checkout.ClearDelay)
	assert.Equal(t, "index.html", cfg.Site.IndexPage)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.UsesRedis())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("CHECKOUT_CLEAR_DELAY", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SERVER_MAX_BODY_SIZE", "2048")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.UsesRedis())
	assert.Equal(t, "cache:6380", cfg.GetRedisAddr())
	assert.Equal(t, 2*time.Second, cfg.Checkout.ClearDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSAllowedOrigins)
	assert.Equal(t, int64(2048), cfg.Server.MaxBodySize)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("CHECKOUT_CLEAR_DELAY", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 1500*time.Millisecond, cfg.Checkout.ClearDelay)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Storage:  StorageConfig{Driver: StorageMemory, CartKey: "vardanCart"},
			JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
			Checkout: CheckoutConfig{PhoneNumber: "919559041204"},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, "JWT_SECRET"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "sqlite" }, "STORAGE_DRIVER"},
		{"redis without host", func(c *Config) { c.Storage.Driver = StorageRedis }, "REDIS_HOST"},
		{"postgres without host", func(c *Config) { c.Storage.Driver = StoragePostgres }, "DB_HOST"},
		{"empty cart key", func(c *Config) { c.Storage.CartKey = "" }, "CART_STORAGE_KEY"},
		{"empty phone", func(c *Config) { c.Checkout.PhoneNumber = "" }, "CHECKOUT_PHONE"},
		{"empty port", func(c *Config) { c.Server.Port = "" }, "APP_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", Name: "shop", SSLMode: "disable",
	}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", cfg.GetDatabaseDSN())
}
