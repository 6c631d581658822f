package fx

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKey = "fx:rate:usd_inr"
	cacheTTL = time.Hour
)

// Rate labels say where an informational rate came from.
const (
	SourceLive     = "live"
	SourceCached   = "cached"
	SourceFallback = "fallback"
)

// Service serves exchange rates with a cache behind the live source.
// Informational reads degrade through cache to the fallback constant;
// transfer quotes require a live rate and must not degrade.
type Service struct {
	source Source
	cache  *redis.Client
	logger *slog.Logger
}

// NewService builds a rate service. cache may be nil.
func NewService(source Source, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{source: source, cache: cache, logger: logger}
}

// Live fetches the current rate from the upstream source and refreshes
// the cache on success.
func (s *Service) Live(ctx context.Context) (float64, error) {
	rate, err := s.source.Live(ctx)
	if err != nil {
		return 0, err
	}
	s.store(ctx, rate)
	return rate, nil
}

// Informational returns the best-effort rate for display, with a label
// for where it came from.
func (s *Service) Informational(ctx context.Context) (float64, string) {
	rate, err := s.source.Live(ctx)
	if err == nil {
		s.store(ctx, rate)
		return rate, SourceLive
	}
	s.logger.Warn("live rate fetch failed", "error", err)

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			if cached, perr := strconv.ParseFloat(raw, 64); perr == nil {
				return cached, SourceCached
			}
		}
	}
	return FallbackRate, SourceFallback
}

func (s *Service) store(ctx context.Context, rate float64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey, strconv.FormatFloat(rate, 'f', -1, 64), cacheTTL).Err(); err != nil {
		s.logger.Warn("rate cache write failed", "error", err)
	}
}
