package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"take-a-paw/internal/ports/weather"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache guarda reportes de clima en redis, con la coordenada redondeada
// a 0.01° como clave: dos consultas a una cuadra de distancia comparten
// entrada. Implementa walks.WeatherCache.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Entry
}

func New(rdb *redis.Client, ttl time.Duration, log *logrus.Entry) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl, log: log}
}

func key(lat, lng float64) string {
	return fmt.Sprintf("weather:%.2f:%.2f", lat, lng)
}

func (c *Cache) Get(ctx context.Context, lat, lng float64) (weather.Report, bool) {
	raw, err := c.rdb.Get(ctx, key(lat, lng)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Warn("weather cache get failed")
		}
		return weather.Report{}, false
	}

	var rep weather.Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		c.log.WithError(err).Warn("weather cache entry corrupt")
		return weather.Report{}, false
	}
	return rep, true
}

func (c *Cache) Set(ctx context.Context, lat, lng float64, rep weather.Report) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(lat, lng), raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("weather cache set failed")
	}
}
