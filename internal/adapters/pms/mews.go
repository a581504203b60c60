package pms

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/domain"
	"hotel_connect/internal/normalize"
)

// mews talks to the Mews Connector API: every call is a POST to
// /api/connector/v1/{resource}/{operation} with the tokens in the body.
type mews struct {
	cfg MewsConfig
	c   *transport.Client
}

func newMews(cfg Config, opts ...transport.Option) (Provider, error) {
	m := *cfg.Mews
	if m.Client == "" {
		m.Client = "hotel-connect 1.0"
	}
	return &mews{cfg: m, c: transport.New(ProviderMews, m.BaseURL, opts...)}, nil
}

func (p *mews) Name() string { return ProviderMews }

func (p *mews) call(ctx context.Context, op string, body map[string]any) (map[string]any, error) {
	if body == nil {
		body = map[string]any{}
	}
	body["ClientToken"] = p.cfg.ClientToken
	body["AccessToken"] = p.cfg.AccessToken
	body["Client"] = p.cfg.Client
	if p.cfg.EnterpriseID != "" {
		body["EnterpriseIds"] = []string{p.cfg.EnterpriseID}
	}
	out := map[string]any{}
	err := p.c.DoJSON(ctx, transport.Request{Method: http.MethodPost, Path: "/api/connector/v1/" + op, JSON: body}, &out)
	return out, err
}

// reservations fetches reservations and attaches each one's customer under
// "Customer" so the normalizer can find guest fields.
func (p *mews) reservations(ctx context.Context, body map[string]any) ([]any, error) {
	if body == nil {
		body = map[string]any{}
	}
	body["Extent"] = map[string]any{"Reservations": true, "Customers": true}
	res, err := p.call(ctx, "reservations/getAll", body)
	if err != nil {
		return nil, err
	}
	customers := map[string]map[string]any{}
	for _, c := range normalize.FirstObjects(res, "Customers") {
		customers[normalize.Str(c, "Id")] = c
	}
	items := normalize.FirstObjects(res, "Reservations")
	out := make([]any, 0, len(items))
	for _, r := range items {
		if c, ok := customers[normalize.FirstStr(r, "CustomerId", "AccountId")]; ok {
			r["Customer"] = c
		}
		out = append(out, r)
	}
	return out, nil
}

func (p *mews) single(ctx context.Context, body map[string]any, id string) (map[string]any, error) {
	items, err := p.reservations(ctx, body)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("mews reservation %s: %w", id, domain.ErrNotFound)
	}
	return items[0].(map[string]any), nil
}

func (p *mews) GetReservation(ctx context.Context, conf string) (map[string]any, error) {
	return p.single(ctx, map[string]any{"Numbers": []string{conf}}, conf)
}

func (p *mews) ListReservations(ctx context.Context, f domain.ReservationFilters) (any, error) {
	body := map[string]any{}
	if f.From != "" && f.To != "" {
		body["StartUtc"] = f.From
		body["EndUtc"] = f.To
	}
	if f.Status != "" {
		body["States"] = []string{f.Status}
	}
	if f.GuestID != "" {
		body["CustomerIds"] = []string{f.GuestID}
	}
	if f.Limit > 0 {
		body["Limitation"] = map[string]any{"Count": f.Limit}
	}
	return p.reservations(ctx, body)
}

func (p *mews) CreateReservation(ctx context.Context, in domain.NewReservation) (map[string]any, error) {
	cust, err := p.call(ctx, "customers/add", map[string]any{
		"FirstName": in.GuestFirstName,
		"LastName":  in.GuestLastName,
		"Email":     in.Email,
		"Phone":     in.Phone,
	})
	if err != nil {
		return nil, err
	}
	customerID := normalize.Str(cust, "Id")
	res, err := p.call(ctx, "reservations/add", map[string]any{
		"ServiceId": p.cfg.ServiceID,
		"Reservations": []map[string]any{{
			"CustomerId":                  customerID,
			"StartUtc":                    in.CheckIn,
			"EndUtc":                      in.CheckOut,
			"AdultCount":                  in.Adults,
			"ChildCount":                  in.Children,
			"RequestedResourceCategoryId": in.RoomType,
			"RateId":                      in.RatePlan,
		}},
	})
	if err != nil {
		return nil, err
	}
	out := normalize.Unwrap(firstOf(res, "Reservations"), "Reservation")
	out["Customer"] = cust
	return out, nil
}

func (p *mews) UpdateReservation(ctx context.Context, id string, patch map[string]any) (map[string]any, error) {
	upd := map[string]any{"ReservationId": id}
	for k, v := range patch {
		upd[k] = map[string]any{"Value": v}
	}
	res, err := p.call(ctx, "reservations/update", map[string]any{"ReservationUpdates": []any{upd}})
	if err != nil {
		return nil, err
	}
	return firstOf(res, "Reservations"), nil
}

func (p *mews) GetFolio(ctx context.Context, id string) (map[string]any, error) {
	items, err := p.call(ctx, "orderItems/getAll", map[string]any{"ServiceOrderIds": []string{id}})
	if err != nil {
		return nil, err
	}
	pays, err := p.call(ctx, "payments/getAll", map[string]any{"ReservationIds": []string{id}})
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"reservationId": id,
		"OrderItems":    items["OrderItems"],
		"Payments":      pays["Payments"],
	}
	for _, it := range normalize.FirstObjects(items, "OrderItems") {
		if c := normalize.Str(it, "Amount.Currency"); c != "" {
			out["currency"] = c
			break
		}
	}
	return out, nil
}

func (p *mews) UpdateGuestProfile(ctx context.Context, guestID string, g domain.GuestProfile) (map[string]any, error) {
	body := map[string]any{"CustomerId": guestID}
	for k, v := range map[string]string{
		"FirstName":       g.FirstName,
		"LastName":        g.LastName,
		"Email":           g.Email,
		"Phone":           g.Phone,
		"NationalityCode": g.Nationality,
		"LanguageCode":    g.Language,
	} {
		if v != "" {
			body[k] = v
		}
	}
	return p.call(ctx, "customers/update", body)
}

func (p *mews) CheckIn(ctx context.Context, id string, _ domain.CheckInOptions) (map[string]any, error) {
	if _, err := p.call(ctx, "reservations/start", map[string]any{"ReservationId": id}); err != nil {
		return nil, err
	}
	return map[string]any{"id": id, "status": "checked_in"}, nil
}

func (p *mews) CheckOut(ctx context.Context, id string) (map[string]any, error) {
	if _, err := p.call(ctx, "reservations/process", map[string]any{"ReservationId": id, "CloseBills": true}); err != nil {
		return nil, err
	}
	return map[string]any{"id": id, "status": "checked_out"}, nil
}

func (p *mews) AddCharge(ctx context.Context, id string, ch domain.NewCharge) (map[string]any, error) {
	cur := ch.Currency
	if cur == "" {
		cur = "EUR"
	}
	res, err := p.call(ctx, "orders/add", map[string]any{
		"ServiceId":           p.cfg.ServiceID,
		"LinkedReservationId": id,
		"Items": []map[string]any{{
			"Name":       ch.Description,
			"UnitCount":  1,
			"UnitAmount": map[string]any{"Currency": cur, "GrossValue": ch.Amount.InexactFloat64()},
		}},
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": normalize.FirstStr(res, "OrderId", "Id"), "date": time.Now().UTC().Format(time.RFC3339)}, nil
}

func (p *mews) window(ctx context.Context, date, filter string) (any, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("mews %s date %q: %w", filter, date, err)
	}
	return p.reservations(ctx, map[string]any{
		"TimeFilter": filter,
		"StartUtc":   day.Format(time.RFC3339),
		"EndUtc":     day.Add(24 * time.Hour).Format(time.RFC3339),
	})
}

func (p *mews) GetArrivals(ctx context.Context, date string) (any, error) {
	return p.window(ctx, date, "Start")
}

func (p *mews) GetDepartures(ctx context.Context, date string) (any, error) {
	return p.window(ctx, date, "End")
}

func (p *mews) GetRooms(ctx context.Context, _ domain.RoomFilters) (any, error) {
	return p.call(ctx, "resources/getAll", map[string]any{"Extent": map[string]any{"Resources": true}})
}

func (p *mews) GetMenu(ctx context.Context) (any, error) {
	body := map[string]any{}
	if p.cfg.ServiceID != "" {
		body["ServiceIds"] = []string{p.cfg.ServiceID}
	}
	return p.call(ctx, "products/getAll", body)
}

func (p *mews) GetSpaServices(context.Context) (any, error) {
	return nil, fmt.Errorf("mews spa services: %w", domain.ErrUnsupportedOperation)
}

func (p *mews) GetSpaAvailability(context.Context, string, string) (any, error) {
	return nil, fmt.Errorf("mews spa availability: %w", domain.ErrUnsupportedOperation)
}

func firstOf(m map[string]any, key string) map[string]any {
	if items := normalize.FirstObjects(m, key); len(items) > 0 {
		return items[0]
	}
	return map[string]any{}
}
