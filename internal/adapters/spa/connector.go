// Package spa books treatments on the hotel's spa platform.
package spa

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/domain"
	"hotel_connect/internal/normalize"
)

const (
	ProviderNone      = "none"
	ProviderSpaBooker = "spabooker"
	ProviderMindbody  = "mindbody"
	ProviderGeneric   = "generic"
)

// Flavor is what differs between spa platforms speaking the common booking API.
type Flavor struct {
	// SiteHeader carries the site id.
	SiteHeader string
	// BookingPayload layers provider flags on the common booking body.
	BookingPayload func(cfg Config, base map[string]any) map[string]any
}

var (
	flavorsMu sync.RWMutex
	flavors   = map[string]Flavor{
		ProviderSpaBooker: {SiteHeader: "X-Site-ID", BookingPayload: spaBookerPayload},
		ProviderMindbody:  {SiteHeader: "SiteId", BookingPayload: mindbodyPayload},
		ProviderGeneric:   {SiteHeader: "X-Site-ID", BookingPayload: func(_ Config, b map[string]any) map[string]any { return b }},
	}
)

// Register adds a spa platform. Registering an existing name panics.
func Register(name string, f Flavor) {
	flavorsMu.Lock()
	defer flavorsMu.Unlock()
	if _, exists := flavors[name]; exists {
		panic(fmt.Sprintf("spa: provider %q already registered", name))
	}
	flavors[name] = f
}

func lookupFlavor(name string) (Flavor, bool) {
	flavorsMu.RLock()
	defer flavorsMu.RUnlock()
	f, ok := flavors[name]
	return f, ok
}

func Supported() []string {
	flavorsMu.RLock()
	defer flavorsMu.RUnlock()
	out := make([]string, 0, len(flavors))
	for k := range flavors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func spaBookerPayload(_ Config, b map[string]any) map[string]any {
	b["send_confirmation"] = true
	b["source"] = "hotel_connect"
	return b
}

func mindbodyPayload(cfg Config, b map[string]any) map[string]any {
	b["send_email"] = true
	b["test"] = cfg.TestMode
	return b
}

// BasePayload is the provider-neutral booking body.
func BasePayload(in domain.NewSpaBooking) map[string]any {
	b := map[string]any{
		"service_id": in.ServiceID,
		"date":       in.Date,
		"time":       in.Time,
		"guest": map[string]any{
			"name":  in.GuestName,
			"email": in.GuestEmail,
			"phone": in.GuestPhone,
		},
	}
	if in.PractitionerID != "" {
		b["practitioner_id"] = in.PractitionerID
	}
	if in.Duration > 0 {
		b["duration"] = in.Duration
	}
	if in.RoomNumber != "" {
		b["room_number"] = in.RoomNumber
	}
	if in.Notes != "" {
		b["notes"] = in.Notes
	}
	return b
}

type Connector struct {
	name   string
	cfg    Config
	flavor Flavor
	c      *transport.Client
}

// New fails with *domain.ConnectorNotInitializedError for the none provider:
// spa bookings have no safe offline stand-in.
func New(cfg Config, opts ...transport.Option) (*Connector, error) {
	if cfg.Provider == ProviderNone || cfg.Provider == "" {
		return nil, &domain.ConnectorNotInitializedError{Domain: domain.DomainSpa}
	}
	fl, ok := lookupFlavor(cfg.Provider)
	if !ok {
		return nil, &domain.UnsupportedProviderError{Domain: domain.DomainSpa, Provider: cfg.Provider}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts = append([]transport.Option{
		transport.WithAuth(transport.BearerToken(cfg.APIKey)),
		transport.WithHeader(fl.SiteHeader, cfg.SiteID),
	}, opts...)
	return &Connector{name: cfg.Provider, cfg: cfg, flavor: fl, c: transport.New(cfg.Provider, cfg.BaseURL, opts...)}, nil
}

func (c *Connector) Provider() string { return c.name }

func (c *Connector) get(ctx context.Context, path string, q url.Values) (any, error) {
	var out any
	err := c.c.DoJSON(ctx, transport.Request{Path: path, Query: q}, &out)
	return out, err
}

func (c *Connector) send(ctx context.Context, method, path string, body any) (map[string]any, error) {
	out := map[string]any{}
	err := c.c.DoJSON(ctx, transport.Request{Method: method, Path: path, JSON: body}, &out)
	return out, err
}

func (c *Connector) GetServices(ctx context.Context, category string) ([]domain.SpaService, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	raw, err := c.get(ctx, "/services", q)
	if err != nil {
		return nil, fmt.Errorf("spa services: %w", err)
	}
	items := normalize.UnwrapList(raw, "services", "Services", "data", "items")
	out := make([]domain.SpaService, 0, len(items))
	for _, it := range items {
		out = append(out, NormalizeService(it))
	}
	return out, nil
}

func (c *Connector) GetPractitioners(ctx context.Context, serviceID string) ([]domain.Practitioner, error) {
	q := url.Values{}
	if serviceID != "" {
		q.Set("serviceId", serviceID)
	}
	raw, err := c.get(ctx, "/practitioners", q)
	if err != nil {
		return nil, fmt.Errorf("spa practitioners: %w", err)
	}
	items := normalize.UnwrapList(raw, "practitioners", "Practitioners", "staff", "StaffMembers", "therapists", "data")
	out := make([]domain.Practitioner, 0, len(items))
	for _, it := range items {
		out = append(out, NormalizePractitioner(it))
	}
	return out, nil
}

func (c *Connector) GetAvailability(ctx context.Context, serviceID, practitionerID, date string, duration int) ([]domain.TimeSlot, error) {
	q := url.Values{"serviceId": {serviceID}, "date": {date}}
	if practitionerID != "" {
		q.Set("practitionerId", practitionerID)
	}
	if duration > 0 {
		q.Set("duration", strconv.Itoa(duration))
	}
	raw, err := c.get(ctx, "/availability", q)
	if err != nil {
		return nil, fmt.Errorf("spa availability: %w", err)
	}
	return slots(raw), nil
}

func (c *Connector) CreateBooking(ctx context.Context, in domain.NewSpaBooking) (domain.SpaBooking, error) {
	body := c.flavor.BookingPayload(c.cfg, BasePayload(in))
	raw, err := c.send(ctx, http.MethodPost, "/bookings", body)
	if err != nil {
		return domain.SpaBooking{}, fmt.Errorf("spa create booking: %w", err)
	}
	b := c.booking(raw)
	fill(&b.ServiceID, in.ServiceID)
	fill(&b.PractitionerID, in.PractitionerID)
	fill(&b.Date, in.Date)
	fill(&b.Time, in.Time)
	fill(&b.GuestName, in.GuestName)
	fill(&b.GuestEmail, in.GuestEmail)
	fill(&b.GuestPhone, in.GuestPhone)
	fill(&b.Notes, in.Notes)
	fill(&b.Status, "confirmed")
	if b.Duration == 0 {
		b.Duration = in.Duration
	}
	return b, nil
}

func (c *Connector) UpdateBooking(ctx context.Context, id string, updates map[string]any) (domain.SpaBooking, error) {
	raw, err := c.send(ctx, http.MethodPut, "/bookings/"+url.PathEscape(id), updates)
	if err != nil {
		return domain.SpaBooking{}, fmt.Errorf("spa update booking %s: %w", id, err)
	}
	b := c.booking(raw)
	fill(&b.ID, id)
	return b, nil
}

func (c *Connector) CancelBooking(ctx context.Context, id string) (domain.SpaBooking, error) {
	raw, err := c.send(ctx, http.MethodPost, "/bookings/"+url.PathEscape(id)+"/cancel", map[string]any{})
	if err != nil {
		return domain.SpaBooking{}, fmt.Errorf("spa cancel booking %s: %w", id, err)
	}
	b := c.booking(raw)
	fill(&b.ID, id)
	fill(&b.Status, "cancelled")
	return b, nil
}

func (c *Connector) GetPractitionerSchedule(ctx context.Context, practitionerID, startDate, endDate string) ([]domain.TimeSlot, error) {
	q := url.Values{"startDate": {startDate}, "endDate": {endDate}}
	raw, err := c.get(ctx, "/practitioners/"+url.PathEscape(practitionerID)+"/schedule", q)
	if err != nil {
		return nil, fmt.Errorf("spa schedule %s: %w", practitionerID, err)
	}
	out := slots(raw)
	for i := range out {
		fill(&out[i].PractitionerID, practitionerID)
	}
	return out, nil
}

func (c *Connector) GetBooking(ctx context.Context, id string) (domain.SpaBooking, error) {
	raw, err := c.get(ctx, "/bookings/"+url.PathEscape(id), nil)
	if err != nil {
		return domain.SpaBooking{}, fmt.Errorf("spa booking %s: %w", id, err)
	}
	m, _ := raw.(map[string]any)
	b := c.booking(m)
	fill(&b.ID, id)
	return b, nil
}

// SubmitFeedback returns the provider's acknowledgement id, if any.
func (c *Connector) SubmitFeedback(ctx context.Context, f domain.SpaFeedback) (string, error) {
	raw, err := c.send(ctx, http.MethodPost, "/bookings/"+url.PathEscape(f.BookingID)+"/feedback", map[string]any{
		"rating":  f.Rating,
		"comment": f.Comment,
	})
	if err != nil {
		return "", fmt.Errorf("spa feedback %s: %w", f.BookingID, err)
	}
	return normalize.FirstStr(normalize.Unwrap(raw, "feedback", "data"), "id", "Id", "feedbackId", "feedback_id"), nil
}

func (c *Connector) booking(raw map[string]any) domain.SpaBooking {
	b := NormalizeBooking(raw)
	b.Provider = c.name
	return b
}

func slots(raw any) []domain.TimeSlot {
	items := normalize.UnwrapList(raw, "slots", "Slots", "availability", "Availabilities", "schedule", "data")
	out := make([]domain.TimeSlot, 0, len(items))
	for _, it := range items {
		out = append(out, NormalizeSlot(it))
	}
	return out
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
