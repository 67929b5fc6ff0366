package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"crop-monitor-service/internal/config"

	"github.com/redis/go-redis/v9"
)

const geocodeCacheTTL = 24 * time.Hour

// Service puts a cache and deterministic fallbacks in front of a
// Provider. Ambient lookups never fail: a degraded provider yields the
// configured neutral defaults instead.
type Service struct {
	provider Provider
	cache    *redis.Client
	cfg      config.WeatherConfig
}

// NewService builds the facade. cache may be nil (cache misses only).
func NewService(provider Provider, cache *redis.Client, cfg config.WeatherConfig) *Service {
	return &Service{provider: provider, cache: cache, cfg: cfg}
}

// Defaults returns the neutral ambient fallback.
func (s *Service) Defaults() Conditions {
	return Conditions{
		AirTemperature: s.cfg.DefaultTemperature,
		Humidity:       s.cfg.DefaultHumidity,
	}
}

// Geocode resolves a region best-effort; nil means unresolvable.
func (s *Service) Geocode(ctx context.Context, region string) *Coordinates {
	key := "weather:geo:" + region
	var cached Coordinates
	if s.cacheGet(ctx, key, &cached) {
		return &cached
	}

	coords, err := s.provider.Geocode(ctx, region)
	if err != nil {
		log.Printf("[weather] geocode %q failed: %v", region, err)
		return nil
	}
	if coords == nil {
		return nil
	}

	s.cacheSet(ctx, key, coords, geocodeCacheTTL)
	return coords
}

// AmbientFor resolves current conditions for the given coordinates.
// Absent coordinates or provider failure yield the defaults; this
// degradation is recovered locally and never surfaced.
func (s *Service) AmbientFor(ctx context.Context, lat, lon *float64) Conditions {
	if lat == nil || lon == nil {
		return s.Defaults()
	}

	key := fmt.Sprintf("weather:current:%.3f:%.3f", *lat, *lon)
	var cached Conditions
	if s.cacheGet(ctx, key, &cached) {
		return cached
	}

	conditions, err := s.provider.CurrentConditions(ctx, *lat, *lon)
	if err != nil {
		log.Printf("[weather] current conditions failed, using defaults: %v", err)
		return s.Defaults()
	}

	s.cacheSet(ctx, key, conditions, s.cfg.CacheTTL)
	return conditions
}

func (s *Service) cacheGet(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false
	}
	return true
}

func (s *Service) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("[weather] cache set %s failed: %v", key, err)
	}
}
