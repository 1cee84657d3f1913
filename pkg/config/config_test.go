package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "MERCURY", cfg.Catalog.Brand)
	assert.Equal(t, 1, cfg.Catalog.Workers)
	assert.Equal(t, 24*time.Hour, cfg.Redis.SessionTTL)
	assert.False(t, cfg.Catalog.Enabled())
	assert.False(t, cfg.Inventory.StrictStock)
	assert.Equal(t, 2*time.Second, cfg.Catalog.EnrichTimeout)
	assert.Equal(t, "postgres://postgres:@localhost:5432/marina_inventario?sslmode=disable", cfg.DB.ConnectionString())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("CATALOG_URL", "https://portal.example")
	v.Set("CATALOG_USERNAME", "oficina")
	v.Set("CATALOG_BRAND", "mercury")
	v.Set("CATALOG_WORKERS", "4")
	v.Set("CATALOG_TIMEOUT", "45s")
	v.Set("REDIS_CACHE_TTL", "120")
	v.Set("DATABASE_URL", "postgres://x@db/y")
	v.Set("INVENTORY_STRICT_STOCK", "true")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.True(t, cfg.Catalog.Enabled())
	assert.Equal(t, "MERCURY", cfg.Catalog.Brand)
	assert.Equal(t, 4, cfg.Catalog.Workers)
	assert.Equal(t, 45*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "postgres://x@db/y", cfg.DB.ConnectionString())
	assert.True(t, cfg.Inventory.StrictStock)
}

func TestFromViper_ProduccionSinSecret(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", "production")
	_, err := FromViper(v)
	require.Error(t, err)
}

func TestFromViper_WorkersMinimo(t *testing.T) {
	v := viper.New()
	v.Set("CATALOG_WORKERS", 0)
	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Catalog.Workers)
}
