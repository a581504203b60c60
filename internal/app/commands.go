package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_connect/internal/adapters/observability"
	"hotel_connect/internal/domain"
	"hotel_connect/internal/registry"
)

// Update applies a staff edit with optimistic concurrency: the write only
// lands if the row is unchanged since it was read, otherwise the edit is
// re-applied to the fresh row. Concurrent edits are never lost.
func (s *ConfigService) Update(ctx context.Context, hotelID int64, d domain.Domain, u domain.ConfigUpdate) (domain.ProviderConfig, error) {
	if err := checkDomain(d); err != nil {
		return domain.ProviderConfig{}, err
	}
	if u.Provider != nil && !registry.IsValidProvider(d, *u.Provider) {
		observability.ObserveConfigUpdate(string(d), "invalid")
		return domain.ProviderConfig{}, &domain.InvalidProviderError{Domain: d, Provider: *u.Provider}
	}

	for attempt := 1; attempt <= s.attempts; attempt++ {
		cur, err := s.ensure(ctx, hotelID, d)
		if err != nil {
			observability.ObserveConfigUpdate(string(d), "error")
			return domain.ProviderConfig{}, err
		}
		next := applyUpdate(cur, u)
		if err := checkTyped(d, next.Provider, next.Config); err != nil {
			observability.ObserveConfigUpdate(string(d), "invalid")
			return domain.ProviderConfig{}, err
		}
		next.UpdatedAt = s.nextStamp(cur.UpdatedAt)

		ok, err := s.repo.CompareAndSwap(ctx, next, cur.UpdatedAt)
		if err != nil {
			observability.ObserveConfigUpdate(string(d), "error")
			return domain.ProviderConfig{}, fmt.Errorf("write %s config for hotel %d: %w", d, hotelID, err)
		}
		if ok {
			s.invalidate(ctx, hotelID, d)
			observability.ObserveConfigUpdate(string(d), "ok")
			log.Info().Int64("hotel_id", hotelID).Str("domain", string(d)).Str("provider", next.Provider).
				Int("attempt", attempt).Msg("integration config updated")
			return next, nil
		}
		observability.ObserveConfigUpdate(string(d), "conflict")
		log.Debug().Int64("hotel_id", hotelID).Str("domain", string(d)).Int("attempt", attempt).
			Msg("config changed underneath update; retrying on fresh row")
	}
	return domain.ProviderConfig{}, domain.ErrConcurrentUpdate
}

// Reset puts the domain back to its default provider with an empty config.
func (s *ConfigService) Reset(ctx context.Context, hotelID int64, d domain.Domain) (domain.ProviderConfig, error) {
	def := registry.Default(d)
	return s.Update(ctx, hotelID, d, domain.ConfigUpdate{Provider: &def, Config: map[string]any{}})
}

// nextStamp is the write version: now, but always after prev.
func (s *ConfigService) nextStamp(prev time.Time) time.Time {
	t := s.now().UTC().Truncate(time.Microsecond)
	if !t.After(prev) {
		t = prev.Add(time.Microsecond)
	}
	return t
}

func (s *ConfigService) invalidate(ctx context.Context, hotelID int64, d domain.Domain) {
	key := cacheKey(hotelID, d)
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	s.gens[key]++
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, key); err != nil {
		log.Warn().Err(err).Int64("hotel_id", hotelID).Str("domain", string(d)).Msg("config cache invalidation failed")
	}
}
