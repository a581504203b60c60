package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"hotel_connect/internal/adapters/digitalkey"
	"hotel_connect/internal/adapters/observability"
	"hotel_connect/internal/adapters/pms"
	"hotel_connect/internal/adapters/spa"
	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/domain"
)

// ProviderSelection is a provider id with its untyped config map, as stored
// per hotel or assembled from the environment.
type ProviderSelection struct {
	Provider string
	Config   map[string]any
}

// Factories build per-hotel connectors from the stored configuration.
// Connectors are cheap and stateless; nothing is cached here.
type Factories struct {
	configs *ConfigService
	opts    []transport.Option
}

func NewFactories(c *ConfigService, opts ...transport.Option) *Factories {
	return &Factories{configs: c, opts: opts}
}

func (f *Factories) PMS(ctx context.Context, hotelID int64) (*pms.Connector, error) {
	pc, err := f.configs.Get(ctx, hotelID, domain.DomainPMS)
	if err != nil {
		return nil, err
	}
	return buildPMS(ProviderSelection{pc.Provider, pc.Config}, f.opts)
}

func (f *Factories) DigitalKey(ctx context.Context, hotelID int64) (*digitalkey.Connector, error) {
	pc, err := f.configs.Get(ctx, hotelID, domain.DomainDigitalKey)
	if err != nil {
		return nil, err
	}
	return buildDigitalKey(ProviderSelection{pc.Provider, pc.Config}, f.opts)
}

// Spa fails with *domain.ConnectorNotInitializedError while the hotel is on
// the none provider.
func (f *Factories) Spa(ctx context.Context, hotelID int64) (*spa.Connector, error) {
	pc, err := f.configs.Get(ctx, hotelID, domain.DomainSpa)
	if err != nil {
		return nil, err
	}
	return buildSpa(ProviderSelection{pc.Provider, pc.Config}, f.opts)
}

func buildPMS(sel ProviderSelection, opts []transport.Option) (*pms.Connector, error) {
	cfg, err := pms.ParseConfig(sel.Provider, sel.Config)
	if err == nil {
		var c *pms.Connector
		if c, err = pms.New(cfg, opts...); err == nil {
			observeBuild(domain.DomainPMS, sel.Provider, nil)
			return c, nil
		}
	}
	observeBuild(domain.DomainPMS, sel.Provider, err)
	return nil, err
}

func buildDigitalKey(sel ProviderSelection, opts []transport.Option) (*digitalkey.Connector, error) {
	cfg, err := digitalkey.ParseConfig(sel.Provider, sel.Config)
	if err == nil {
		var c *digitalkey.Connector
		if c, err = digitalkey.New(cfg, digitalkey.WithTransport(opts...)); err == nil {
			observeBuild(domain.DomainDigitalKey, sel.Provider, nil)
			return c, nil
		}
	}
	observeBuild(domain.DomainDigitalKey, sel.Provider, err)
	return nil, err
}

func buildSpa(sel ProviderSelection, opts []transport.Option) (*spa.Connector, error) {
	cfg, err := spa.ParseConfig(sel.Provider, sel.Config)
	if err == nil {
		var c *spa.Connector
		if c, err = spa.New(cfg, opts...); err == nil {
			observeBuild(domain.DomainSpa, sel.Provider, nil)
			return c, nil
		}
	}
	observeBuild(domain.DomainSpa, sel.Provider, err)
	return nil, err
}

func observeBuild(d domain.Domain, provider string, err error) {
	result := "ok"
	switch {
	case err != nil:
		result = "error"
		log.Warn().Err(err).Str("domain", string(d)).Str("provider", provider).Msg("connector build failed")
	case provider == pms.ProviderMock || provider == digitalkey.ProviderNone:
		result = "mock"
	}
	observability.ObserveConnectorBuild(string(d), provider, result)
}
