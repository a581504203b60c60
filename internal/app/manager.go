package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hotel_connect/internal/adapters/concierge"
	"hotel_connect/internal/adapters/digitalkey"
	"hotel_connect/internal/adapters/ocr"
	"hotel_connect/internal/adapters/payment"
	"hotel_connect/internal/adapters/pms"
	"hotel_connect/internal/adapters/spa"
	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/domain"
	"hotel_connect/internal/registry"
	"hotel_connect/internal/shared"
)

// Explicit configuration wins over every other source.
type Explicit struct {
	PMS         *ProviderSelection
	DigitalKey  *ProviderSelection
	Spa         *ProviderSelection
	Payment     *payment.Config
	OCR         *ocr.Config
	AIConcierge *concierge.Config
}

type ManagerOptions struct {
	Explicit Explicit
	// Configs and HotelID enable the per-hotel database source. Both are optional.
	Configs *ConfigService
	HotelID int64
	Env     shared.Integrations
	// Transport is applied to every HTTP-based connector.
	Transport []transport.Option
	Now       func() time.Time
}

// slot caches one connector instance. It is filled at most once until reset.
type slot[T any] struct {
	mu  sync.Mutex
	v   T
	set bool
}

func (s *slot[T]) get(build func() (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		return s.v, nil
	}
	v, err := build()
	if err != nil {
		var zero T
		return zero, err
	}
	s.v, s.set = v, true
	return v, nil
}

func (s *slot[T]) present() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.v, s.set = zero, false
}

// Manager lazily constructs and keeps one connector per domain. Create it
// once at startup and hand it to whatever needs connectors.
type Manager struct {
	o ManagerOptions

	pms        slot[*pms.Connector]
	payment    slot[*payment.Connector]
	digitalKey slot[*digitalkey.Connector]
	spa        slot[*spa.Connector]
	ocr        slot[*ocr.Service]
	concierge  slot[*concierge.Concierge]
}

func NewManager(o ManagerOptions) *Manager {
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Manager{o: o}
}

// selection resolves explicit > per-hotel row > environment > domain default.
func (m *Manager) selection(ctx context.Context, d domain.Domain, explicit *ProviderSelection, env ProviderSelection) (ProviderSelection, string, error) {
	if explicit != nil {
		return *explicit, "explicit", nil
	}
	if m.o.Configs != nil && m.o.HotelID != 0 {
		pc, err := m.o.Configs.Find(ctx, m.o.HotelID, d)
		switch {
		case err == nil:
			return ProviderSelection{pc.Provider, pc.Config}, "database", nil
		case !errors.Is(err, domain.ErrNotFound):
			return ProviderSelection{}, "", fmt.Errorf("load %s config: %w", d, err)
		}
	}
	if env.Provider != "" {
		return env, "env", nil
	}
	return ProviderSelection{Provider: registry.Default(d), Config: map[string]any{}}, "default", nil
}

func logBuilt(d domain.Domain, provider, source string) {
	log.Info().Str("domain", string(d)).Str("provider", provider).Str("source", source).Msg("connector initialized")
}

func (m *Manager) PMS(ctx context.Context) (*pms.Connector, error) {
	return m.pms.get(func() (*pms.Connector, error) {
		e := m.o.Env.PMS
		sel, src, err := m.selection(ctx, domain.DomainPMS, m.o.Explicit.PMS, ProviderSelection{e.Provider, e.Map()})
		if err != nil {
			return nil, err
		}
		c, err := buildPMS(sel, m.o.Transport)
		if err == nil {
			logBuilt(domain.DomainPMS, sel.Provider, src)
		}
		return c, err
	})
}

func (m *Manager) DigitalKey(ctx context.Context) (*digitalkey.Connector, error) {
	return m.digitalKey.get(func() (*digitalkey.Connector, error) {
		e := m.o.Env.DigitalKey
		sel, src, err := m.selection(ctx, domain.DomainDigitalKey, m.o.Explicit.DigitalKey, ProviderSelection{e.Provider, e.Map()})
		if err != nil {
			return nil, err
		}
		c, err := buildDigitalKey(sel, m.o.Transport)
		if err == nil {
			logBuilt(domain.DomainDigitalKey, sel.Provider, src)
		}
		return c, err
	})
}

func (m *Manager) Spa(ctx context.Context) (*spa.Connector, error) {
	return m.spa.get(func() (*spa.Connector, error) {
		e := m.o.Env.Spa
		sel, src, err := m.selection(ctx, domain.DomainSpa, m.o.Explicit.Spa, ProviderSelection{e.Provider, e.Map()})
		if err != nil {
			return nil, err
		}
		c, err := buildSpa(sel, m.o.Transport)
		if err == nil {
			logBuilt(domain.DomainSpa, sel.Provider, src)
		}
		return c, err
	})
}

// Payment has no mock; without a secret key it is not initialized.
func (m *Manager) Payment(_ context.Context) (*payment.Connector, error) {
	return m.payment.get(func() (*payment.Connector, error) {
		cfg, src := m.o.Explicit.Payment, "explicit"
		if cfg == nil {
			if m.o.Env.Payment.SecretKey == "" {
				return nil, &domain.ConnectorNotInitializedError{Domain: domain.DomainPayment}
			}
			cfg, src = &payment.Config{SecretKey: m.o.Env.Payment.SecretKey, APIBase: m.o.Env.Payment.APIBase}, "env"
		}
		c, err := payment.New(*cfg)
		observeBuild(domain.DomainPayment, payment.ProviderStripe, err)
		if err == nil {
			logBuilt(domain.DomainPayment, payment.ProviderStripe, src)
		}
		return c, err
	})
}

func (m *Manager) OCR(_ context.Context) (*ocr.Service, error) {
	return m.ocr.get(func() (*ocr.Service, error) {
		var cfg ocr.Config
		src := "explicit"
		switch {
		case m.o.Explicit.OCR != nil:
			cfg = *m.o.Explicit.OCR
		case m.o.Env.OCR.Provider != "":
			var err error
			if cfg, err = ocr.ParseConfig(m.o.Env.OCR.Provider, m.o.Env.OCR.Map()); err != nil {
				observeBuild(domain.DomainOCR, m.o.Env.OCR.Provider, err)
				return nil, err
			}
			src = "env"
		default:
			return nil, &domain.ConnectorNotInitializedError{Domain: domain.DomainOCR}
		}
		s, err := ocr.New(cfg, ocr.WithTransport(m.o.Transport...))
		observeBuild(domain.DomainOCR, cfg.Provider, err)
		if err == nil {
			logBuilt(domain.DomainOCR, cfg.Provider, src)
		}
		return s, err
	})
}

func (m *Manager) AIConcierge(_ context.Context) (*concierge.Concierge, error) {
	return m.concierge.get(func() (*concierge.Concierge, error) {
		cfg, src := m.o.Explicit.AIConcierge, "explicit"
		if cfg == nil {
			e := m.o.Env.AI
			if e.APIKey == "" {
				return nil, &domain.ConnectorNotInitializedError{Domain: domain.DomainAIConcierge}
			}
			cfg, src = &concierge.Config{
				APIKey: e.APIKey, Model: e.Model, BaseURL: e.BaseURL,
				HotelName: e.HotelName, HotelDescription: e.HotelDescription, Amenities: e.HotelAmenities,
			}, "env"
		}
		a, err := concierge.New(*cfg, m.o.Transport...)
		observeBuild(domain.DomainAIConcierge, "openai", err)
		if err == nil {
			logBuilt(domain.DomainAIConcierge, a.Model(), src)
		}
		return a, err
	})
}

// InitializeAll builds, concurrently, every domain that has explicit or
// environment configuration. Domains without any are left untouched.
func (m *Manager) InitializeAll(ctx context.Context) error {
	e, x := m.o.Env, m.o.Explicit
	g, ctx := errgroup.WithContext(ctx)
	start := func(want bool, build func(context.Context) error) {
		if want {
			g.Go(func() error { return build(ctx) })
		}
	}
	start(x.PMS != nil || e.PMS.Provider != "", func(ctx context.Context) error { _, err := m.PMS(ctx); return err })
	start(x.DigitalKey != nil || e.DigitalKey.Provider != "", func(ctx context.Context) error { _, err := m.DigitalKey(ctx); return err })
	start(x.Spa != nil || e.Spa.Provider != "", func(ctx context.Context) error { _, err := m.Spa(ctx); return err })
	start(x.Payment != nil || e.Payment.SecretKey != "", func(ctx context.Context) error { _, err := m.Payment(ctx); return err })
	start(x.OCR != nil || e.OCR.Provider != "", func(ctx context.Context) error { _, err := m.OCR(ctx); return err })
	start(x.AIConcierge != nil || e.AI.APIKey != "", func(ctx context.Context) error { _, err := m.AIConcierge(ctx); return err })
	return g.Wait()
}

// HealthCheck reports which connectors exist. It never calls a provider.
func (m *Manager) HealthCheck() domain.IntegrationHealth {
	return domain.IntegrationHealth{
		PMS:         m.pms.present(),
		Payment:     m.payment.present(),
		DigitalKey:  m.digitalKey.present(),
		Spa:         m.spa.present(),
		OCR:         m.ocr.present(),
		AIConcierge: m.concierge.present(),
		Timestamp:   m.o.Now().UTC(),
	}
}

// Reset drops the cached connector so the next getter rebuilds it.
func (m *Manager) Reset(d domain.Domain) error {
	switch d {
	case domain.DomainPMS:
		m.pms.reset()
	case domain.DomainPayment:
		m.payment.reset()
	case domain.DomainDigitalKey:
		m.digitalKey.reset()
	case domain.DomainSpa:
		m.spa.reset()
	case domain.DomainOCR:
		m.ocr.reset()
	case domain.DomainAIConcierge:
		m.concierge.reset()
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownDomain, d)
	}
	log.Info().Str("domain", string(d)).Msg("connector reset")
	return nil
}
