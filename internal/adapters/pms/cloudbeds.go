package pms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/domain"
	"hotel_connect/internal/normalize"
)

// cloudbeds uses form-encoded writes and a {success, data, message}
// envelope. A token is fetched before every call.
type cloudbeds struct {
	property string
	c        *transport.Client
}

func newCloudbeds(cfg Config, opts ...transport.Option) (Provider, error) {
	cb := cfg.Cloudbeds
	tokenURL := cb.TokenURL
	if tokenURL == "" {
		tokenURL = strings.TrimRight(cb.BaseURL, "/") + "/access_token"
	}
	c := transport.New(ProviderCloudbeds, cb.BaseURL, opts...)
	auth := &transport.ClientCredentials{
		Service:      ProviderCloudbeds,
		TokenURL:     tokenURL,
		ClientID:     cb.ClientID,
		ClientSecret: cb.ClientSecret,
		HTTP:         c.HTTPClient(),
	}
	c = transport.New(ProviderCloudbeds, cb.BaseURL, append(append([]transport.Option{}, opts...), transport.WithAuth(auth))...)
	return &cloudbeds{property: cb.PropertyID, c: c}, nil
}

func (p *cloudbeds) Name() string { return ProviderCloudbeds }

func (p *cloudbeds) get(ctx context.Context, path string, q url.Values) (any, error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("propertyID", p.property)
	return p.envelope(ctx, transport.Request{Path: path, Query: q})
}

func (p *cloudbeds) send(ctx context.Context, method, path string, form url.Values) (any, error) {
	form.Set("propertyID", p.property)
	return p.envelope(ctx, transport.Request{
		Method:      method,
		Path:        path,
		Raw:         []byte(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
	})
}

// envelope unwraps data; success=false is reported as a provider error even
// on a 2xx status.
func (p *cloudbeds) envelope(ctx context.Context, req transport.Request) (any, error) {
	resp, err := p.c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	var env map[string]any
	if err := resp.Decode(&env); err != nil {
		return nil, err
	}
	if ok, present := env["success"].(bool); present && !ok {
		return nil, &domain.ProviderAPIError{
			Provider:   ProviderCloudbeds,
			Status:     resp.Status,
			StatusText: "request unsuccessful",
			Body:       normalize.Str(env, "message"),
		}
	}
	if d, ok := env["data"]; ok {
		return d, nil
	}
	return env, nil
}

func asObject(v any, err error) (map[string]any, error) {
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case []any:
		if len(t) > 0 {
			if m, ok := t[0].(map[string]any); ok {
				return m, nil
			}
		}
	}
	return map[string]any{}, nil
}

func (p *cloudbeds) GetReservation(ctx context.Context, conf string) (map[string]any, error) {
	return asObject(p.get(ctx, "/getReservation", url.Values{"reservationID": {conf}}))
}

func (p *cloudbeds) ListReservations(ctx context.Context, f domain.ReservationFilters) (any, error) {
	q := url.Values{}
	setIf(q, "status", f.Status)
	setIf(q, "checkInFrom", f.From)
	setIf(q, "checkInTo", f.To)
	if f.Limit > 0 {
		q.Set("pageSize", strconv.Itoa(f.Limit))
	}
	return p.get(ctx, "/getReservations", q)
}

func (p *cloudbeds) CreateReservation(ctx context.Context, in domain.NewReservation) (map[string]any, error) {
	form := url.Values{
		"guestFirstName": {in.GuestFirstName},
		"guestLastName":  {in.GuestLastName},
		"startDate":      {in.CheckIn},
		"endDate":        {in.CheckOut},
		"adults":         {strconv.Itoa(in.Adults)},
		"children":       {strconv.Itoa(in.Children)},
	}
	setIf(form, "guestEmail", in.Email)
	setIf(form, "guestPhone", in.Phone)
	setIf(form, "roomTypeID", in.RoomType)
	setIf(form, "rateID", in.RatePlan)
	out, err := asObject(p.send(ctx, http.MethodPost, "/postReservation", form))
	if err != nil {
		return nil, err
	}
	// postReservation answers with ids only
	for k, v := range map[string]any{
		"guestFirstName": in.GuestFirstName, "guestLastName": in.GuestLastName,
		"startDate": in.CheckIn, "endDate": in.CheckOut,
	} {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out, nil
}

func (p *cloudbeds) UpdateReservation(ctx context.Context, id string, patch map[string]any) (map[string]any, error) {
	form := url.Values{"reservationID": {id}}
	for k, v := range patch {
		if s := normalize.Str(map[string]any{"v": v}, "v"); s != "" {
			form.Set(k, s)
		}
	}
	return asObject(p.send(ctx, http.MethodPut, "/putReservation", form))
}

func (p *cloudbeds) GetFolio(ctx context.Context, id string) (map[string]any, error) {
	out, err := asObject(p.get(ctx, "/getReservationInvoiceInformation", url.Values{"reservationID": {id}}))
	if err != nil {
		return nil, err
	}
	if _, ok := out["reservationId"]; !ok {
		out["reservationId"] = id
	}
	return out, nil
}

func (p *cloudbeds) UpdateGuestProfile(ctx context.Context, guestID string, g domain.GuestProfile) (map[string]any, error) {
	form := url.Values{"guestID": {guestID}}
	setIf(form, "guestFirstName", g.FirstName)
	setIf(form, "guestLastName", g.LastName)
	setIf(form, "guestEmail", g.Email)
	setIf(form, "guestPhone", g.Phone)
	setIf(form, "guestCountry", g.Nationality)
	return asObject(p.send(ctx, http.MethodPut, "/putGuest", form))
}

func (p *cloudbeds) status(ctx context.Context, id, status string, extra url.Values) (map[string]any, error) {
	form := url.Values{"reservationID": {id}, "status": {status}}
	for k, v := range extra {
		form[k] = v
	}
	out, err := asObject(p.send(ctx, http.MethodPut, "/putReservation", form))
	if err != nil {
		return nil, err
	}
	if _, ok := out["status"]; !ok {
		out["status"] = status
	}
	return out, nil
}

func (p *cloudbeds) CheckIn(ctx context.Context, id string, o domain.CheckInOptions) (map[string]any, error) {
	extra := url.Values{}
	setIf(extra, "roomName", o.RoomNumber)
	setIf(extra, "estimatedArrivalTime", o.ArrivalTime)
	return p.status(ctx, id, "checked_in", extra)
}

func (p *cloudbeds) CheckOut(ctx context.Context, id string) (map[string]any, error) {
	return p.status(ctx, id, "checked_out", nil)
}

func (p *cloudbeds) AddCharge(ctx context.Context, id string, ch domain.NewCharge) (map[string]any, error) {
	form := url.Values{
		"reservationID":   {id},
		"items[0][name]":  {ch.Description},
		"items[0][price]": {ch.Amount.String()},
	}
	setIf(form, "items[0][category]", ch.Category)
	return asObject(p.send(ctx, http.MethodPost, "/postCustomItem", form))
}

func (p *cloudbeds) GetArrivals(ctx context.Context, date string) (any, error) {
	return p.get(ctx, "/getReservations", url.Values{"checkInFrom": {date}, "checkInTo": {date}})
}

func (p *cloudbeds) GetDepartures(ctx context.Context, date string) (any, error) {
	return p.get(ctx, "/getReservations", url.Values{"checkOutFrom": {date}, "checkOutTo": {date}})
}

// GetRooms flattens the per-property room lists of getRooms.
func (p *cloudbeds) GetRooms(ctx context.Context, f domain.RoomFilters) (any, error) {
	q := url.Values{}
	setIf(q, "roomTypeName", f.RoomType)
	data, err := p.get(ctx, "/getRooms", q)
	if err != nil {
		return nil, err
	}
	var rooms []any
	for _, prop := range normalize.UnwrapList(data) {
		if rs, ok := prop["rooms"].([]any); ok {
			rooms = append(rooms, rs...)
		} else {
			rooms = append(rooms, prop)
		}
	}
	return rooms, nil
}

func (p *cloudbeds) GetMenu(context.Context) (any, error) {
	return nil, fmt.Errorf("cloudbeds menu: %w", domain.ErrUnsupportedOperation)
}

func (p *cloudbeds) GetSpaServices(context.Context) (any, error) {
	return nil, fmt.Errorf("cloudbeds spa services: %w", domain.ErrUnsupportedOperation)
}

func (p *cloudbeds) GetSpaAvailability(context.Context, string, string) (any, error) {
	return nil, fmt.Errorf("cloudbeds spa availability: %w", domain.ErrUnsupportedOperation)
}
