package geo

import (
	"context"
	"time"

	"github.com/dondeestamimascota/mascotas/internal/store"
	"go.uber.org/zap"
)

// PointCache persists geocoding hits. *store.DB implements it.
type PointCache interface {
	LookupPoint(query string, maxAge time.Duration) (*store.CachedPoint, error)
	SavePoint(p store.CachedPoint) error
}

// Cached serves lookups from a PointCache and falls through to next on a miss.
// Only hits are stored, so a failed or empty lookup is asked again next time.
type Cached struct {
	next   Geocoder
	cache  PointCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCached(next Geocoder, cache PointCache, ttl time.Duration, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *Cached) Address(ctx context.Context, q AddressQuery) (*Point, error) {
	return c.lookup(ctx, q.Key(), "address", func() (*Point, error) {
		return c.next.Address(ctx, q)
	})
}

func (c *Cached) Locality(ctx context.Context, q LocalityQuery) (*Point, error) {
	return c.lookup(ctx, q.Key(), "locality", func() (*Point, error) {
		return c.next.Locality(ctx, q)
	})
}

func (c *Cached) lookup(ctx context.Context, key, kind string, fetch func() (*Point, error)) (*Point, error) {
	hit, err := c.cache.LookupPoint(key, c.ttl)
	if err != nil {
		c.logger.Warn("geocode cache read failed", zap.String("query", key), zap.Error(err))
	}
	if hit != nil {
		return &Point{Lat: hit.Lat, Lon: hit.Lon}, nil
	}

	p, err := fetch()
	if err != nil || p == nil {
		return p, err
	}
	if err := c.cache.SavePoint(store.CachedPoint{Query: key, Kind: kind, Lat: p.Lat, Lon: p.Lon}); err != nil {
		c.logger.Warn("geocode cache write failed", zap.String("query", key), zap.Error(err))
	}
	return p, nil
}
