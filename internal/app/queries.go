package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_connect/internal/domain"
	"hotel_connect/internal/registry"
)

// defaultCASAttempts bounds how often Update re-reads after losing a race.
const defaultCASAttempts = 5

// ConfigService owns the per-hotel integration config rows. Reads go
// through the cache; writes always start from the database.
type ConfigService struct {
	repo     domain.ConfigRepository
	cache    domain.Cache
	cacheTTL time.Duration
	now      func() time.Time
	attempts int

	// fillMu orders cache fills against invalidations. gens counts
	// committed writes per cache key; a fill that started before a write
	// is dropped so it cannot resurrect the superseded row.
	fillMu sync.Mutex
	gens   map[string]uint64
}

type ConfigOption func(*ConfigService)

func WithConfigClock(now func() time.Time) ConfigOption {
	return func(s *ConfigService) { s.now = now }
}

func WithCASAttempts(n int) ConfigOption {
	return func(s *ConfigService) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// NewConfigService takes an optional cache; nil disables caching.
func NewConfigService(r domain.ConfigRepository, c domain.Cache, ttl time.Duration, opts ...ConfigOption) *ConfigService {
	s := &ConfigService{repo: r, cache: c, cacheTTL: ttl, now: time.Now, attempts: defaultCASAttempts, gens: map[string]uint64{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

func cacheKey(hotelID int64, d domain.Domain) string {
	return fmt.Sprintf("integration:%d:%s", hotelID, d)
}

func checkDomain(d domain.Domain) error {
	if !d.Configurable() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownDomain, d)
	}
	return nil
}

// Get returns the hotel's row, creating the domain default on first read.
func (s *ConfigService) Get(ctx context.Context, hotelID int64, d domain.Domain) (domain.ProviderConfig, error) {
	if err := checkDomain(d); err != nil {
		return domain.ProviderConfig{}, err
	}
	key := cacheKey(hotelID, d)
	var pc domain.ProviderConfig
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &pc); ok {
			return pc, nil
		}
	}
	gen := s.generation(key)
	pc, err := s.ensure(ctx, hotelID, d)
	if err != nil {
		return domain.ProviderConfig{}, err
	}
	s.fill(ctx, key, gen, pc)
	return pc, nil
}

func (s *ConfigService) generation(key string) uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	return s.gens[key]
}

// fill caches pc unless a write committed since gen was taken.
func (s *ConfigService) fill(ctx context.Context, key string, gen uint64, pc domain.ProviderConfig) {
	if s.cache == nil {
		return
	}
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if s.gens[key] != gen {
		log.Debug().Str("key", key).Msg("config changed during read; skipping cache fill")
		return
	}
	if err := s.cache.Set(ctx, key, pc, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("config cache fill failed")
	}
}

// Find is Get without the implicit insert: a hotel that never configured
// d yields domain.ErrNotFound.
func (s *ConfigService) Find(ctx context.Context, hotelID int64, d domain.Domain) (domain.ProviderConfig, error) {
	if err := checkDomain(d); err != nil {
		return domain.ProviderConfig{}, err
	}
	if s.cache != nil {
		var pc domain.ProviderConfig
		if ok, _ := s.cache.Get(ctx, cacheKey(hotelID, d), &pc); ok {
			return pc, nil
		}
	}
	return s.repo.Get(ctx, hotelID, d)
}

// ListHotels returns the ids of hotels holding a row for d.
func (s *ConfigService) ListHotels(ctx context.Context, d domain.Domain) ([]int64, error) {
	if err := checkDomain(d); err != nil {
		return nil, err
	}
	return s.repo.ListHotels(ctx, d)
}

// ensure reads the row from the database, inserting the default when absent.
// A concurrent insert wins; the row is re-read either way.
func (s *ConfigService) ensure(ctx context.Context, hotelID int64, d domain.Domain) (domain.ProviderConfig, error) {
	pc, err := s.repo.Get(ctx, hotelID, d)
	if err == nil {
		return pc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.ProviderConfig{}, err
	}
	def := domain.ProviderConfig{
		HotelID:   hotelID,
		Domain:    d,
		Provider:  registry.Default(d),
		Config:    map[string]any{},
		UpdatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.repo.Insert(ctx, def); err != nil {
		return domain.ProviderConfig{}, fmt.Errorf("insert default %s config for hotel %d: %w", d, hotelID, err)
	}
	log.Info().Int64("hotel_id", hotelID).Str("domain", string(d)).Str("provider", def.Provider).
		Msg("created default integration config")
	return s.repo.Get(ctx, hotelID, d)
}
