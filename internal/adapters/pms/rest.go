package pms

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/domain"
)

// restProvider speaks the resource-style JSON API shared by Opera and the
// mock PMS server: every route lives under /hotels/{resort}.
type restProvider struct {
	name   string
	prefix string
	c      *transport.Client
}

func newOpera(cfg Config, opts ...transport.Option) (Provider, error) {
	o := cfg.Opera
	opts = append([]transport.Option{transport.WithAuth(transport.BasicAuth(o.Username, o.Password))}, opts...)
	return &restProvider{
		name:   ProviderOpera,
		prefix: "/hotels/" + url.PathEscape(o.ResortID),
		c:      transport.New(ProviderOpera, o.BaseURL, opts...),
	}, nil
}

// newMock serves fixtures in-process unless a mock server URL is configured.
func newMock(cfg Config, opts ...transport.Option) (Provider, error) {
	m := cfg.Mock
	if m == nil || m.BaseURL == "" {
		return fixtures{}, nil
	}
	if m.Username != "" || m.Password != "" {
		opts = append([]transport.Option{transport.WithAuth(transport.BasicAuth(m.Username, m.Password))}, opts...)
	}
	resort := m.ResortID
	if resort == "" {
		resort = "MOCK"
	}
	return &restProvider{
		name:   ProviderMock,
		prefix: "/hotels/" + url.PathEscape(resort),
		c:      transport.New(ProviderMock, m.BaseURL, opts...),
	}, nil
}

func (p *restProvider) Name() string { return p.name }

func (p *restProvider) object(ctx context.Context, method, path string, q url.Values, body any) (map[string]any, error) {
	out := map[string]any{}
	err := p.c.DoJSON(ctx, transport.Request{Method: method, Path: p.prefix + path, Query: q, JSON: body}, &out)
	return out, err
}

func (p *restProvider) list(ctx context.Context, path string, q url.Values) (any, error) {
	var out any
	err := p.c.DoJSON(ctx, transport.Request{Path: p.prefix + path, Query: q}, &out)
	return out, err
}

func (p *restProvider) GetReservation(ctx context.Context, conf string) (map[string]any, error) {
	return p.object(ctx, http.MethodGet, "/reservations/"+url.PathEscape(conf), nil, nil)
}

func (p *restProvider) ListReservations(ctx context.Context, f domain.ReservationFilters) (any, error) {
	q := url.Values{}
	setIf(q, "status", f.Status)
	setIf(q, "arrivalFrom", f.From)
	setIf(q, "arrivalTo", f.To)
	setIf(q, "guestId", f.GuestID)
	setIf(q, "roomType", f.RoomType)
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return p.list(ctx, "/reservations", q)
}

func (p *restProvider) CreateReservation(ctx context.Context, in domain.NewReservation) (map[string]any, error) {
	return p.object(ctx, http.MethodPost, "/reservations", nil, in)
}

func (p *restProvider) UpdateReservation(ctx context.Context, id string, patch map[string]any) (map[string]any, error) {
	return p.object(ctx, http.MethodPut, "/reservations/"+url.PathEscape(id), nil, patch)
}

func (p *restProvider) GetFolio(ctx context.Context, id string) (map[string]any, error) {
	return p.object(ctx, http.MethodGet, "/reservations/"+url.PathEscape(id)+"/folio", nil, nil)
}

func (p *restProvider) UpdateGuestProfile(ctx context.Context, guestID string, g domain.GuestProfile) (map[string]any, error) {
	return p.object(ctx, http.MethodPut, "/profiles/"+url.PathEscape(guestID), nil, g)
}

func (p *restProvider) CheckIn(ctx context.Context, id string, o domain.CheckInOptions) (map[string]any, error) {
	return p.object(ctx, http.MethodPost, "/reservations/"+url.PathEscape(id)+"/checkIn", nil, o)
}

func (p *restProvider) CheckOut(ctx context.Context, id string) (map[string]any, error) {
	return p.object(ctx, http.MethodPost, "/reservations/"+url.PathEscape(id)+"/checkOut", nil, map[string]any{})
}

func (p *restProvider) AddCharge(ctx context.Context, id string, ch domain.NewCharge) (map[string]any, error) {
	return p.object(ctx, http.MethodPost, "/reservations/"+url.PathEscape(id)+"/charges", nil, ch)
}

func (p *restProvider) GetArrivals(ctx context.Context, date string) (any, error) {
	return p.list(ctx, "/arrivals", url.Values{"date": {date}})
}

func (p *restProvider) GetDepartures(ctx context.Context, date string) (any, error) {
	return p.list(ctx, "/departures", url.Values{"date": {date}})
}

func (p *restProvider) GetRooms(ctx context.Context, f domain.RoomFilters) (any, error) {
	q := url.Values{}
	setIf(q, "status", f.Status)
	setIf(q, "roomType", f.RoomType)
	setIf(q, "floor", f.Floor)
	return p.list(ctx, "/rooms", q)
}

func (p *restProvider) GetMenu(ctx context.Context) (any, error) {
	return p.list(ctx, "/menu", nil)
}

func (p *restProvider) GetSpaServices(ctx context.Context) (any, error) {
	return p.list(ctx, "/spa/services", nil)
}

func (p *restProvider) GetSpaAvailability(ctx context.Context, date, serviceID string) (any, error) {
	q := url.Values{"date": {date}}
	setIf(q, "serviceId", serviceID)
	return p.list(ctx, "/spa/availability", q)
}

func setIf(q url.Values, k, v string) {
	if v != "" {
		q.Set(k, v)
	}
}
