package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-query-service/internal/cache"
	"github.com/kjstillabower/weather-query-service/internal/client"
	"github.com/kjstillabower/weather-query-service/internal/models"
	"github.com/kjstillabower/weather-query-service/internal/observability"
	"github.com/kjstillabower/weather-query-service/internal/ratelimit"
)

// WeatherService composes the request pipeline: rate-limit admission,
// cache lookup, upstream fetch, write-through cache population. Input
// validation happens in the HTTP layer before a query reaches this type,
// so invalid requests never consume rate-limit capacity.
type WeatherService struct {
	limiter *ratelimit.Limiter
	cache   cache.Cache
	client  client.WeatherClient
	logger  *zap.Logger
}

// NewWeatherService wires the pipeline's collaborators. The logger is the
// fallback when no request-scoped logger rides in on the context.
func NewWeatherService(limiter *ratelimit.Limiter, cache cache.Cache, weatherClient client.WeatherClient, logger *zap.Logger) *WeatherService {
	return &WeatherService{
		limiter: limiter,
		cache:   cache,
		client:  weatherClient,
		logger:  logger,
	}
}

// loggerFromContext extracts a request-scoped zap.Logger if present.
func (s *WeatherService) loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return s.logger
}

// GetWeather answers a validated query for clientID. Stages short-circuit:
// a rejected admission or a failed upstream fetch surfaces immediately,
// while a cache hit skips the provider entirely. The post-fetch cache
// write is best-effort; its failure is logged and the fresh reading is
// still returned.
func (s *WeatherService) GetWeather(ctx context.Context, query models.WeatherQuery, clientID string) (models.Reading, error) {
	logger := s.loggerFromContext(ctx)
	observability.WeatherQueriesTotal.Inc()

	count, err := s.limiter.Admit(ctx, clientID)
	if err != nil {
		return models.Reading{}, err
	}
	logger.Debug("admitted", zap.String("client", clientID), zap.Int64("calls", count))

	fingerprint := query.Fingerprint()
	cached, ok, err := s.cache.Get(ctx, fingerprint)
	if err != nil {
		// Treated as a miss: the data is re-derivable from upstream.
		observability.CacheErrorsTotal.WithLabelValues("get").Inc()
		logger.Warn("cache get failed", zap.String("fingerprint", fingerprint), zap.Error(err))
	} else if ok {
		observability.CacheHitsTotal.WithLabelValues("weather").Inc()
		logger.Debug("cache hit", zap.String("fingerprint", fingerprint))
		return cached, nil
	}

	logger.Debug("cache miss, fetching upstream", zap.String("location", query.Location), zap.String("date", query.Date))
	reading, err := s.client.Fetch(ctx, query)
	if err != nil {
		return models.Reading{}, fmt.Errorf("fetch weather for %s: %w", query.Location, err)
	}

	if err := s.cache.Set(ctx, fingerprint, reading, time.Now()); err != nil {
		observability.CacheErrorsTotal.WithLabelValues("set").Inc()
		logger.Warn("cache set failed", zap.String("fingerprint", fingerprint), zap.Error(err))
	} else {
		logger.Debug("cached reading", zap.String("fingerprint", fingerprint))
	}

	return reading, nil
}
