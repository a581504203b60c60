package digitalkey

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/domain"
)

/********** alliants: API key header **********/

type alliants struct {
	property string
	c        *transport.Client
}

func newAlliants(cfg Config, env Env) (Provider, error) {
	a := cfg.Alliants
	opts := append([]transport.Option{transport.WithAuth(transport.APIKeyHeader("X-API-Key", a.APIKey))}, env.Opts...)
	return &alliants{property: a.PropertyID, c: transport.New(ProviderAlliants, a.BaseURL, opts...)}, nil
}

func (p *alliants) Name() string { return ProviderAlliants }

func (p *alliants) do(ctx context.Context, method, path string, body any) (map[string]any, error) {
	out := map[string]any{}
	err := p.c.DoJSON(ctx, transport.Request{
		Method: method,
		Path:   "/properties/" + url.PathEscape(p.property) + path,
		JSON:   body,
	}, &out)
	return out, err
}

func (p *alliants) IssueKey(ctx context.Context, r domain.KeyRequest) (map[string]any, error) {
	return p.do(ctx, http.MethodPost, "/keys", map[string]any{
		"guestId":       r.GuestID,
		"roomNumber":    r.RoomNumber,
		"validFrom":     r.CheckIn,
		"validTo":       r.CheckOut,
		"reservationId": r.ReservationID,
		"email":         r.GuestEmail,
		"phone":         r.GuestPhone,
	})
}

func (p *alliants) RevokeKey(ctx context.Context, keyID string) (map[string]any, error) {
	return p.do(ctx, http.MethodDelete, "/keys/"+url.PathEscape(keyID), nil)
}

func (p *alliants) ExtendKey(ctx context.Context, keyID, validTo string) (map[string]any, error) {
	return p.do(ctx, http.MethodPatch, "/keys/"+url.PathEscape(keyID), map[string]any{"validTo": validTo})
}

func (p *alliants) GetKeyStatus(ctx context.Context, keyID string) (map[string]any, error) {
	return p.do(ctx, http.MethodGet, "/keys/"+url.PathEscape(keyID), nil)
}

/********** openkey: client-credentials token before every call **********/

type openKey struct {
	property string
	c        *transport.Client
}

func newOpenKey(cfg Config, env Env) (Provider, error) {
	o := cfg.OpenKey
	tokenURL := o.TokenURL
	if tokenURL == "" {
		tokenURL = strings.TrimRight(o.BaseURL, "/") + "/oauth/token"
	}
	probe := transport.New(ProviderOpenKey, o.BaseURL, env.Opts...)
	auth := &transport.ClientCredentials{
		Service:      ProviderOpenKey,
		TokenURL:     tokenURL,
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		HTTP:         probe.HTTPClient(),
	}
	opts := append(append([]transport.Option{}, env.Opts...), transport.WithAuth(auth))
	return &openKey{property: o.PropertyID, c: transport.New(ProviderOpenKey, o.BaseURL, opts...)}, nil
}

func (p *openKey) Name() string { return ProviderOpenKey }

func (p *openKey) do(ctx context.Context, method, path string, body any) (map[string]any, error) {
	out := map[string]any{}
	err := p.c.DoJSON(ctx, transport.Request{Method: method, Path: path, JSON: body}, &out)
	return out, err
}

func (p *openKey) IssueKey(ctx context.Context, r domain.KeyRequest) (map[string]any, error) {
	return p.do(ctx, http.MethodPost, "/keys", map[string]any{
		"property_id":    p.property,
		"guest_id":       r.GuestID,
		"room_number":    r.RoomNumber,
		"start_date":     r.CheckIn,
		"end_date":       r.CheckOut,
		"reservation_id": r.ReservationID,
		"guest_email":    r.GuestEmail,
		"guest_phone":    r.GuestPhone,
	})
}

func (p *openKey) RevokeKey(ctx context.Context, keyID string) (map[string]any, error) {
	return p.do(ctx, http.MethodPost, "/keys/"+url.PathEscape(keyID)+"/revoke", map[string]any{"property_id": p.property})
}

func (p *openKey) ExtendKey(ctx context.Context, keyID, validTo string) (map[string]any, error) {
	return p.do(ctx, http.MethodPut, "/keys/"+url.PathEscape(keyID), map[string]any{"property_id": p.property, "end_date": validTo})
}

func (p *openKey) GetKeyStatus(ctx context.Context, keyID string) (map[string]any, error) {
	return p.do(ctx, http.MethodGet, "/keys/"+url.PathEscape(keyID), nil)
}

/********** none: deterministic, offline **********/

type mock struct {
	now func() time.Time
	seq *atomic.Uint64
}

func newMock(_ Config, env Env) (Provider, error) {
	return mock{now: env.Now, seq: new(atomic.Uint64)}, nil
}

func (mock) Name() string { return ProviderNone }

func (m mock) stamp() string { return m.now().UTC().Format(time.RFC3339) }

// IssueKey ids are KEY-<unix millis>-<seq>: the injected clock plus a
// per-connector counter, unique even within one millisecond.
func (m mock) IssueKey(_ context.Context, r domain.KeyRequest) (map[string]any, error) {
	return map[string]any{
		"keyId":      fmt.Sprintf("KEY-%d-%d", m.now().UnixMilli(), m.seq.Add(1)),
		"guestId":    r.GuestID,
		"roomNumber": r.RoomNumber,
		"validFrom":  r.CheckIn,
		"validTo":    r.CheckOut,
		"status":     domain.KeyStatusActive,
		"updatedAt":  m.stamp(),
	}, nil
}

func (m mock) RevokeKey(_ context.Context, keyID string) (map[string]any, error) {
	return map[string]any{"keyId": keyID, "status": domain.KeyStatusRevoked, "updatedAt": m.stamp()}, nil
}

func (m mock) ExtendKey(_ context.Context, keyID, validTo string) (map[string]any, error) {
	return map[string]any{"keyId": keyID, "validTo": validTo, "status": domain.KeyStatusActive, "updatedAt": m.stamp()}, nil
}

func (m mock) GetKeyStatus(_ context.Context, keyID string) (map[string]any, error) {
	return map[string]any{"keyId": keyID, "status": domain.KeyStatusActive, "updatedAt": m.stamp()}, nil
}
