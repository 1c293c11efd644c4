// package market/service.go
package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"diagnosis-service/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrAnbimaNotConfigured is returned when no ANBIMA credentials were provided.
var ErrAnbimaNotConfigured = errors.New("integração ANBIMA não configurada")

const fallbackDateLayout = "02/01/2006"

// Config holds the upstream endpoints and cache windows.
type Config struct {
	BCBBaseURL     string
	BrapiBaseURL   string
	BrapiToken     string
	RequestTimeout time.Duration
	RateLimit      float64
	RateTTL        time.Duration
	EquityTTL      time.Duration
	AnbimaTTL      time.Duration
	Anbima         *AnbimaConfig
}

// NewDefaultConfig returns the production endpoints and cache windows.
func NewDefaultConfig() Config {
	return Config{
		BCBBaseURL:     DefaultBCBBaseURL,
		BrapiBaseURL:   DefaultBrapiBaseURL,
		RequestTimeout: DefaultTimeout,
		RateLimit:      DefaultRateLimit,
		RateTTL:        24 * time.Hour,
		EquityTTL:      5 * time.Minute,
		AnbimaTTL:      6 * time.Hour,
	}
}

// Service define a interface do serviço de dados de mercado.
// Fetches never fail: an indicator that cannot be fetched resolves to its fallback.
type Service interface {
	FetchSelic(ctx context.Context) domain.RateIndicator
	FetchCDI(ctx context.Context) domain.RateIndicator
	FetchIPCA(ctx context.Context) domain.RateIndicator
	FetchUSDBRL(ctx context.Context) domain.RateIndicator
	FetchIbov(ctx context.Context) domain.EquityIndex
	FetchAnbima(ctx context.Context) (*domain.AnbimaIndices, error)
	GetSnapshot(ctx context.Context) domain.MarketSnapshot
}

type service struct {
	cfg    Config
	bcb    *BCBClient
	brapi  *BrapiClient
	anbima *AnbimaClient
	cache  Cache
	group  singleflight.Group
	now    func() time.Time
	logger *zap.Logger
}

// Option customizes the market service.
type Option func(*service)

// WithCache injects the cache store.
func WithCache(c Cache) Option {
	return func(s *service) { s.cache = c }
}

// WithClock sets the clock used for cache freshness and fallback dates.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService cria uma nova instância do serviço de mercado.
func NewService(cfg Config, logger *zap.Logger, opts ...Option) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := NewDefaultConfig()
	if cfg.BCBBaseURL == "" {
		cfg.BCBBaseURL = defaults.BCBBaseURL
	}
	if cfg.BrapiBaseURL == "" {
		cfg.BrapiBaseURL = defaults.BrapiBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.RateTTL <= 0 {
		cfg.RateTTL = defaults.RateTTL
	}
	if cfg.EquityTTL <= 0 {
		cfg.EquityTTL = defaults.EquityTTL
	}
	if cfg.AnbimaTTL <= 0 {
		cfg.AnbimaTTL = defaults.AnbimaTTL
	}

	clientOpts := []ClientOption{WithClientLogger(logger), WithRateLimit(cfg.RateLimit)}
	s := &service{
		cfg:    cfg,
		bcb:    NewBCBClient(NewClient(cfg.BCBBaseURL, clientOpts...)),
		brapi:  NewBrapiClient(NewClient(cfg.BrapiBaseURL, clientOpts...), cfg.BrapiToken),
		cache:  NewMemoryCache(),
		now:    time.Now,
		logger: logger,
	}
	if cfg.Anbima != nil {
		s.anbima = NewAnbimaClient(*cfg.Anbima, cfg.RequestTimeout, logger, WithRateLimit(cfg.RateLimit))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cachedFetch returns a fresh cache entry when there is one. Otherwise it runs
// fetch once for all concurrent callers of the same key and caches a success.
func cachedFetch[T any](s *service, ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, domain.DataSource, error) {
	if v, ok := s.fresh(key, ttl); ok {
		if typed, ok := v.(T); ok {
			return typed, domain.SourceCache, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if v, ok := s.fresh(key, ttl); ok {
			return v, nil
		}
		// shared by every waiting caller: bounded by the request timeout only
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RequestTimeout)
		defer cancel()

		value, err := fetch(callCtx)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, Entry{Value: value, FetchedAt: s.now()})
		return value, nil
	})

	var zero T
	if err != nil {
		return zero, "", err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, "", fmt.Errorf("tipo inesperado no cache para %s", key)
	}
	return typed, domain.SourceLive, nil
}

func (s *service) fresh(key string, ttl time.Duration) (any, bool) {
	entry, ok := s.cache.Get(key)
	if !ok || s.now().Sub(entry.FetchedAt) >= ttl {
		return nil, false
	}
	return entry.Value, true
}

func (s *service) fetchRate(ctx context.Context, series sgsSeries) domain.RateIndicator {
	indicator, source, err := cachedFetch(s, ctx, series.key, s.cfg.RateTTL, func(ctx context.Context) (domain.RateIndicator, error) {
		return s.bcb.Latest(ctx, series.code)
	})
	if err != nil {
		s.logger.Warn("Falha ao buscar indicador, usando valor padrão",
			zap.String("indicator", series.key),
			zap.Float64("fallback", series.fallback),
			zap.Error(err))
		return domain.RateIndicator{
			Value:  series.fallback,
			Date:   s.now().Format(fallbackDateLayout),
			Source: domain.SourceFallback,
		}
	}
	indicator.Source = source
	return indicator
}

func (s *service) FetchSelic(ctx context.Context) domain.RateIndicator {
	return s.fetchRate(ctx, seriesSelic)
}

func (s *service) FetchCDI(ctx context.Context) domain.RateIndicator {
	return s.fetchRate(ctx, seriesCDI)
}

func (s *service) FetchIPCA(ctx context.Context) domain.RateIndicator {
	return s.fetchRate(ctx, seriesIPCA)
}

func (s *service) FetchUSDBRL(ctx context.Context) domain.RateIndicator {
	return s.fetchRate(ctx, seriesUSDBRL)
}

func (s *service) FetchIbov(ctx context.Context) domain.EquityIndex {
	index, source, err := cachedFetch(s, ctx, KeyIbov, s.cfg.EquityTTL, s.brapi.Ibov)
	if err != nil {
		s.logger.Warn("Falha ao buscar IBOV, usando valor padrão", zap.Error(err))
		return domain.EquityIndex{Value: ibovFallbackValue, ChangePercent: ibovFallbackChange, Source: domain.SourceFallback}
	}
	index.Source = source
	return index
}

// FetchAnbima returns the ANBIMA composite. An authentication failure yields
// four empty feeds and is not cached.
func (s *service) FetchAnbima(ctx context.Context) (*domain.AnbimaIndices, error) {
	if s.anbima == nil {
		return nil, ErrAnbimaNotConfigured
	}

	indices, source, err := cachedFetch(s, ctx, KeyAnbima, s.cfg.AnbimaTTL, func(ctx context.Context) (domain.AnbimaIndices, error) {
		indices, err := s.anbima.Indices(ctx)
		if err != nil {
			return indices, err
		}
		indices.FetchedAt = s.now()
		return indices, nil
	})
	if err != nil {
		s.logger.Warn("Falha ao buscar índices ANBIMA", zap.Error(err))
		return &domain.AnbimaIndices{
			IMA:       emptyFeed,
			IDA:       emptyFeed,
			IHFA:      emptyFeed,
			IDKA:      emptyFeed,
			FetchedAt: s.now(),
			Source:    domain.SourceFallback,
		}, nil
	}
	indices.Source = source
	return &indices, nil
}

// GetSnapshot fetches every indicator concurrently. It always returns a complete
// snapshot since every fetch resolves to live, cached or fallback data.
func (s *service) GetSnapshot(ctx context.Context) domain.MarketSnapshot {
	var snapshot domain.MarketSnapshot
	var g errgroup.Group

	g.Go(func() error { snapshot.Selic = s.FetchSelic(ctx); return nil })
	g.Go(func() error { snapshot.CDI = s.FetchCDI(ctx); return nil })
	g.Go(func() error { snapshot.IPCA = s.FetchIPCA(ctx); return nil })
	g.Go(func() error { snapshot.USDBRL = s.FetchUSDBRL(ctx); return nil })
	g.Go(func() error { snapshot.Ibov = s.FetchIbov(ctx); return nil })
	if s.anbima != nil {
		g.Go(func() error {
			indices, err := s.FetchAnbima(ctx)
			if err == nil {
				snapshot.Anbima = indices
			}
			return nil
		})
	}
	_ = g.Wait()

	snapshot.Timestamp = s.now()
	s.logger.Info("Snapshot de mercado obtido",
		zap.String("selic", string(snapshot.Selic.Source)),
		zap.String("cdi", string(snapshot.CDI.Source)),
		zap.String("ipca", string(snapshot.IPCA.Source)),
		zap.String("usdBrl", string(snapshot.USDBRL.Source)),
		zap.String("ibov", string(snapshot.Ibov.Source)))
	return snapshot
}
