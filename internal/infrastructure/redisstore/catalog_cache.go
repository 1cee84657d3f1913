package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/marina-inventario/internal/application/ports"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

var _ ports.CatalogClient = (*CatalogCache)(nil)

// Fuentes reportadas a métricas.
const (
	sourceCache  = "cache"
	sourcePortal = "portal"
)

// CatalogCache decora el cliente del portal guardando los resultados por código.
// Si Redis falla se consulta el portal directamente.
type CatalogCache struct {
	next    ports.CatalogClient
	client  redis.UniversalClient
	ttl     time.Duration
	metrics ports.Metrics
	log     *logger.Logger
}

// NewCatalogCache construye el decorador.
func NewCatalogCache(next ports.CatalogClient, client redis.UniversalClient, ttl time.Duration, metrics ports.Metrics, log *logger.Logger) *CatalogCache {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &CatalogCache{
		next:    next,
		client:  client,
		ttl:     ttl,
		metrics: metrics,
		log:     log.Component("catalog_cache"),
	}
}

func catalogKey(code string) string {
	return keyPrefix + "catalog:" + strings.ToUpper(strings.TrimSpace(code))
}

// Search responde desde la caché o consulta el portal y guarda el resultado.
// Los errores del portal no se cachean.
func (c *CatalogCache) Search(ctx context.Context, code string) ([]entity.CatalogHit, error) {
	key := catalogKey(code)
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var hits []entity.CatalogHit
		if jerr := json.Unmarshal(data, &hits); jerr == nil {
			c.metrics.CatalogLookup(sourceCache, false)
			return hits, nil
		}
		c.log.Warn().Str("key", key).Msg("entrada de caché ilegible, se consulta el portal")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("caché no disponible")
	}

	hits, err := c.next.Search(ctx, code)
	c.metrics.CatalogLookup(sourcePortal, err != nil)
	if err != nil {
		return nil, err
	}
	if data, jerr := json.Marshal(hits); jerr == nil {
		if serr := c.client.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			c.log.Warn().Err(serr).Str("key", key).Msg("no se pudo guardar en caché")
		}
	}
	return hits, nil
}
