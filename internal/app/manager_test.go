package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel_connect/internal/adapters/concierge"
	"hotel_connect/internal/adapters/ocr"
	"hotel_connect/internal/adapters/payment"
	"hotel_connect/internal/app"
	"hotel_connect/internal/domain"
	"hotel_connect/internal/shared"
)

var operaRow = map[string]any{
	"baseUrl": "https://opera.test", "resortId": "R1", "username": "u", "password": "p",
}

func TestManager_DefaultsAndCaching(t *testing.T) {
	m := app.NewManager(app.ManagerOptions{Now: fixedClock})
	ctx := context.Background()

	if h := m.HealthCheck(); h.PMS || h.Payment || h.Spa {
		t.Fatalf("nothing should be built yet: %+v", h)
	}

	p1, err := m.PMS(ctx)
	if err != nil {
		t.Fatalf("PMS: %v", err)
	}
	if p1.Provider() != "mock" {
		t.Fatalf("default PMS provider = %s", p1.Provider())
	}
	p2, _ := m.PMS(ctx)
	if p1 != p2 {
		t.Fatalf("PMS connector must be cached")
	}

	dk, err := m.DigitalKey(ctx)
	if err != nil || dk.Provider() != "none" {
		t.Fatalf("default digital key: %v", err)
	}

	var nie *domain.ConnectorNotInitializedError
	if _, err := m.Spa(ctx); !errors.As(err, &nie) || nie.Domain != domain.DomainSpa {
		t.Fatalf("spa without config: %v", err)
	}
	if _, err := m.Payment(ctx); !errors.As(err, &nie) || nie.Domain != domain.DomainPayment {
		t.Fatalf("payment without config: %v", err)
	}
	if _, err := m.OCR(ctx); !errors.As(err, &nie) {
		t.Fatalf("ocr without config: %v", err)
	}
	if _, err := m.AIConcierge(ctx); !errors.As(err, &nie) {
		t.Fatalf("concierge without config: %v", err)
	}

	h := m.HealthCheck()
	want := domain.IntegrationHealth{PMS: true, DigitalKey: true, Timestamp: t0}
	if h != want {
		t.Fatalf("health = %+v, want %+v", h, want)
	}

	if err := m.Reset(domain.DomainPMS); err != nil {
		t.Fatal(err)
	}
	if m.HealthCheck().PMS {
		t.Fatalf("reset must drop the instance")
	}
	p3, _ := m.PMS(ctx)
	if p3 == p1 {
		t.Fatalf("reset must force a rebuild")
	}
	if err := m.Reset("billing"); !errors.Is(err, domain.ErrUnknownDomain) {
		t.Fatalf("unknown domain: %v", err)
	}
}

func TestManager_ResolutionOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := app.NewConfigService(repo, nil, 0)
	ctx := context.Background()
	if _, err := svc.Update(ctx, 11, domain.DomainPMS, domain.ConfigUpdate{Provider: ptr("opera"), Config: operaRow}); err != nil {
		t.Fatal(err)
	}
	env := shared.Integrations{
		PMS: shared.PMSEnv{Provider: "cloudbeds", BaseURL: "https://cb.test", ClientID: "c", ClientSecret: "s", PropertyID: "1"},
	}

	// database beats environment
	m := app.NewManager(app.ManagerOptions{Configs: svc, HotelID: 11, Env: env})
	p, err := m.PMS(ctx)
	if err != nil || p.Provider() != "opera" {
		t.Fatalf("want opera from database, got %v %v", p, err)
	}

	// environment applies when the hotel has no row
	m = app.NewManager(app.ManagerOptions{Configs: svc, HotelID: 12, Env: env})
	p, err = m.PMS(ctx)
	if err != nil || p.Provider() != "cloudbeds" {
		t.Fatalf("want cloudbeds from env, got %v %v", p, err)
	}
	if _, err := repo.Get(ctx, 12, domain.DomainPMS); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("manager lookups must not create rows")
	}

	// explicit beats everything
	m = app.NewManager(app.ManagerOptions{
		Configs: svc, HotelID: 11, Env: env,
		Explicit: app.Explicit{PMS: &app.ProviderSelection{Provider: "mock"}},
	})
	p, err = m.PMS(ctx)
	if err != nil || p.Provider() != "mock" {
		t.Fatalf("want explicit mock, got %v %v", p, err)
	}
}

func TestManager_BuildErrorIsNotCached(t *testing.T) {
	env := shared.Integrations{Spa: shared.SpaEnv{Provider: "mindbody"}}
	m := app.NewManager(app.ManagerOptions{Env: env})
	var ice *domain.InvalidConfigError
	if _, err := m.Spa(context.Background()); !errors.As(err, &ice) {
		t.Fatalf("want InvalidConfigError, got %v", err)
	}
	if m.HealthCheck().Spa {
		t.Fatalf("failed build must not be cached")
	}
}

func TestManager_InitializeAll(t *testing.T) {
	m := app.NewManager(app.ManagerOptions{
		Env: shared.Integrations{
			PMS:     shared.PMSEnv{Provider: "mock"},
			Payment: shared.PaymentEnv{SecretKey: "sk_test_123"},
			OCR:     shared.OCREnv{Provider: "mock"},
		},
		Explicit: app.Explicit{AIConcierge: &concierge.Config{APIKey: "k"}},
	})
	if err := m.InitializeAll(context.Background()); err != nil {
		t.Fatalf("InitializeAll: %v", err)
	}
	h := m.HealthCheck()
	if !h.PMS || !h.Payment || !h.OCR || !h.AIConcierge {
		t.Fatalf("configured domains must be built: %+v", h)
	}
	if h.DigitalKey || h.Spa {
		t.Fatalf("unconfigured domains must be left alone: %+v", h)
	}
}

func TestManager_InitializeAllReportsFailure(t *testing.T) {
	m := app.NewManager(app.ManagerOptions{
		Explicit: app.Explicit{
			Payment: &payment.Config{},
			OCR:     &ocr.Config{Provider: ocr.ProviderMock},
		},
	})
	var ice *domain.InvalidConfigError
	if err := m.InitializeAll(context.Background()); !errors.As(err, &ice) {
		t.Fatalf("want InvalidConfigError, got %v", err)
	}
	if !m.HealthCheck().OCR {
		t.Fatalf("other domains still build")
	}
}

func TestFactories_PerHotel(t *testing.T) {
	repo := newFakeRepo()
	svc := app.NewConfigService(repo, nil, 0, app.WithConfigClock(func() time.Time { return t0 }))
	f := app.NewFactories(svc)
	ctx := context.Background()

	p, err := f.PMS(ctx, 1)
	if err != nil || p.Provider() != "mock" {
		t.Fatalf("default pms: %v", err)
	}
	var nie *domain.ConnectorNotInitializedError
	if _, err := f.Spa(ctx, 1); !errors.As(err, &nie) {
		t.Fatalf("spa none: %v", err)
	}

	if _, err := svc.Update(ctx, 1, domain.DomainDigitalKey, domain.ConfigUpdate{
		Provider: ptr("alliants"),
		Config:   map[string]any{"baseUrl": "https://alliants.test", "propertyId": "P1", "apiKey": "k"},
	}); err != nil {
		t.Fatal(err)
	}
	dk, err := f.DigitalKey(ctx, 1)
	if err != nil || dk.Provider() != "alliants" {
		t.Fatalf("alliants: %v", err)
	}

	// completeness is checked at construction
	if _, err := svc.Update(ctx, 2, domain.DomainPMS, domain.ConfigUpdate{Provider: ptr("opera")}); err != nil {
		t.Fatal(err)
	}
	var ice *domain.InvalidConfigError
	if _, err := f.PMS(ctx, 2); !errors.As(err, &ice) {
		t.Fatalf("incomplete opera config: %v", err)
	}
}
