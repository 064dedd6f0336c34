// Package cache holds the optional Redis-backed geocode cache. Resolved
// place coordinates barely ever change, so restarts can skip the geocoding
// round-trip entirely. A cache failure is never fatal: lookups degrade to a
// miss and the live lookup proceeds.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// coordsTTL bounds staleness in case a place's canonical coordinates move.
const coordsTTL = 30 * 24 * time.Hour

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Geocode caches place name to coordinate resolutions.
type Geocode struct {
	client *redis.Client
	logger *zap.Logger
}

// NewGeocode creates the cache against the configured Redis instance.
func NewGeocode(opts Options, logger *zap.Logger) *Geocode {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &Geocode{client: rdb, logger: logger}
}

// NewGeocodeFromClient wraps an already configured client.
func NewGeocodeFromClient(client *redis.Client, logger *zap.Logger) *Geocode {
	return &Geocode{client: client, logger: logger}
}

type coords struct {
	Longitude float64 `json:"lon"`
	Latitude  float64 `json:"lat"`
}

// key scopes entries and normalizes the place name.
func key(place string) string {
	return "geocode/" + strings.ToLower(strings.ReplaceAll(place, "/", "_"))
}

// Lookup returns cached coordinates for a place. Any cache error is treated
// as a miss.
func (g *Geocode) Lookup(ctx context.Context, place string) (lon, lat float64, ok bool) {
	raw, err := g.client.Get(ctx, key(place)).Result()
	if err != nil {
		if err != redis.Nil {
			g.logger.Warn("Geocode cache lookup failed", zap.String("place", place), zap.Error(err))
		}
		return 0, 0, false
	}
	var c coords
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		g.logger.Warn("Geocode cache entry corrupt", zap.String("place", place), zap.Error(err))
		return 0, 0, false
	}
	return c.Longitude, c.Latitude, true
}

// Store records resolved coordinates. Failures are logged and swallowed.
func (g *Geocode) Store(ctx context.Context, place string, lon, lat float64) {
	raw, err := json.Marshal(coords{Longitude: lon, Latitude: lat})
	if err != nil {
		g.logger.Warn("Geocode cache encode failed", zap.String("place", place), zap.Error(err))
		return
	}
	if err := g.client.Set(ctx, key(place), raw, coordsTTL).Err(); err != nil {
		g.logger.Warn("Geocode cache store failed", zap.String("place", place), zap.Error(err))
	}
}

// Ping tests the Redis connection.
func (g *Geocode) Ping(ctx context.Context) error {
	if err := g.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("geocode cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (g *Geocode) Close() error {
	return g.client.Close()
}
