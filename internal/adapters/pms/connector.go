// Package pms connects to Property Management Systems. Each provider speaks
// its own wire protocol; the Connector normalizes every answer into the
// canonical reservation, folio, room and menu records.
package pms

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/domain"
	"hotel_connect/internal/normalize"
)

const (
	ProviderOpera     = "opera"
	ProviderMews      = "mews"
	ProviderCloudbeds = "cloudbeds"
	ProviderMock      = "mock"
)

// Provider is one PMS wire protocol. Implementations return the provider's
// payload as decoded JSON; the Connector owns normalization.
type Provider interface {
	Name() string
	GetReservation(ctx context.Context, confirmationNumber string) (map[string]any, error)
	ListReservations(ctx context.Context, f domain.ReservationFilters) (any, error)
	CreateReservation(ctx context.Context, in domain.NewReservation) (map[string]any, error)
	UpdateReservation(ctx context.Context, id string, patch map[string]any) (map[string]any, error)
	GetFolio(ctx context.Context, reservationID string) (map[string]any, error)
	UpdateGuestProfile(ctx context.Context, guestID string, p domain.GuestProfile) (map[string]any, error)
	CheckIn(ctx context.Context, reservationID string, o domain.CheckInOptions) (map[string]any, error)
	CheckOut(ctx context.Context, reservationID string) (map[string]any, error)
	AddCharge(ctx context.Context, reservationID string, c domain.NewCharge) (map[string]any, error)
	GetArrivals(ctx context.Context, date string) (any, error)
	GetDepartures(ctx context.Context, date string) (any, error)
	GetRooms(ctx context.Context, f domain.RoomFilters) (any, error)
	GetMenu(ctx context.Context) (any, error)
	GetSpaServices(ctx context.Context) (any, error)
	GetSpaAvailability(ctx context.Context, date, serviceID string) (any, error)
}

// Factory builds a Provider from its typed config.
type Factory func(cfg Config, opts ...transport.Option) (Provider, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{
		ProviderOpera:     newOpera,
		ProviderMews:      newMews,
		ProviderCloudbeds: newCloudbeds,
		ProviderMock:      newMock,
	}
)

// Register adds a provider implementation. Registering an existing name panics.
func Register(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("pms: provider %q already registered", name))
	}
	factories[name] = f
}

func lookupFactory(name string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// Supported returns the provider names with an implementation, sorted.
func Supported() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type Connector struct {
	p Provider
}

// New dispatches on cfg.Provider. Unknown providers fail with
// *domain.UnsupportedProviderError.
func New(cfg Config, opts ...transport.Option) (*Connector, error) {
	f, ok := lookupFactory(cfg.Provider)
	if !ok {
		return nil, &domain.UnsupportedProviderError{Domain: domain.DomainPMS, Provider: cfg.Provider}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := f(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Connector{p: p}, nil
}

// NewWithProvider wraps an already-built Provider.
func NewWithProvider(p Provider) *Connector { return &Connector{p: p} }

func (c *Connector) Provider() string { return c.p.Name() }

func (c *Connector) GetReservation(ctx context.Context, confirmationNumber string) (domain.Reservation, error) {
	raw, err := c.p.GetReservation(ctx, confirmationNumber)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("get reservation %s: %w", confirmationNumber, err)
	}
	return NormalizeReservation(raw, c.p.Name()), nil
}

func (c *Connector) ListReservations(ctx context.Context, f domain.ReservationFilters) ([]domain.Reservation, error) {
	raw, err := c.p.ListReservations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return c.reservations(raw), nil
}

// CreateReservation rejects stays whose check-in is not before check-out.
func (c *Connector) CreateReservation(ctx context.Context, in domain.NewReservation) (domain.Reservation, error) {
	if err := checkWindow(in.CheckIn, in.CheckOut); err != nil {
		return domain.Reservation{}, err
	}
	if in.Adults <= 0 {
		in.Adults = 1
	}
	raw, err := c.p.CreateReservation(ctx, in)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return NormalizeReservation(raw, c.p.Name()), nil
}

func (c *Connector) UpdateReservation(ctx context.Context, id string, patch map[string]any) (domain.Reservation, error) {
	raw, err := c.p.UpdateReservation(ctx, id, patch)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("update reservation %s: %w", id, err)
	}
	r := NormalizeReservation(raw, c.p.Name())
	if r.ID == "" {
		r.ID = id
	}
	return r, nil
}

func (c *Connector) GetFolio(ctx context.Context, reservationID string) (domain.Folio, error) {
	raw, err := c.p.GetFolio(ctx, reservationID)
	if err != nil {
		return domain.Folio{}, fmt.Errorf("get folio %s: %w", reservationID, err)
	}
	return NormalizeFolio(raw, reservationID), nil
}

func (c *Connector) UpdateGuestProfile(ctx context.Context, guestID string, p domain.GuestProfile) (domain.GuestProfile, error) {
	raw, err := c.p.UpdateGuestProfile(ctx, guestID, p)
	if err != nil {
		return domain.GuestProfile{}, fmt.Errorf("update guest %s: %w", guestID, err)
	}
	return normalizeGuest(raw, p), nil
}

func (c *Connector) CheckIn(ctx context.Context, reservationID string, o domain.CheckInOptions) (domain.Reservation, error) {
	raw, err := c.p.CheckIn(ctx, reservationID, o)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("check in %s: %w", reservationID, err)
	}
	return c.stayUpdate(raw, reservationID, "checked_in"), nil
}

func (c *Connector) CheckOut(ctx context.Context, reservationID string) (domain.Reservation, error) {
	raw, err := c.p.CheckOut(ctx, reservationID)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("check out %s: %w", reservationID, err)
	}
	return c.stayUpdate(raw, reservationID, "checked_out"), nil
}

func (c *Connector) AddCharge(ctx context.Context, reservationID string, ch domain.NewCharge) (domain.Charge, error) {
	raw, err := c.p.AddCharge(ctx, reservationID, ch)
	if err != nil {
		return domain.Charge{}, fmt.Errorf("add charge %s: %w", reservationID, err)
	}
	out := normalizeCharge(normalize.Unwrap(raw, "charge", "data", "transaction"))
	if out.Description == "" {
		out.Description = ch.Description
	}
	if out.Amount.IsZero() {
		out.Amount = ch.Amount
	}
	if out.Category == "" {
		out.Category = ch.Category
	}
	return out, nil
}

// GetArrivals lists reservations arriving on date (YYYY-MM-DD, today when empty).
func (c *Connector) GetArrivals(ctx context.Context, date string) ([]domain.Reservation, error) {
	raw, err := c.p.GetArrivals(ctx, dayOrToday(date))
	if err != nil {
		return nil, fmt.Errorf("arrivals: %w", err)
	}
	return c.reservations(raw), nil
}

func (c *Connector) GetDepartures(ctx context.Context, date string) ([]domain.Reservation, error) {
	raw, err := c.p.GetDepartures(ctx, dayOrToday(date))
	if err != nil {
		return nil, fmt.Errorf("departures: %w", err)
	}
	return c.reservations(raw), nil
}

func (c *Connector) GetRooms(ctx context.Context, f domain.RoomFilters) ([]domain.Room, error) {
	raw, err := c.p.GetRooms(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("rooms: %w", err)
	}
	items := normalize.UnwrapList(raw, "rooms", "Rooms", "Resources", "data", "items")
	out := make([]domain.Room, 0, len(items))
	for _, it := range items {
		out = append(out, normalizeRoom(it))
	}
	return out, nil
}

func (c *Connector) GetMenu(ctx context.Context) ([]domain.MenuItem, error) {
	raw, err := c.p.GetMenu(ctx)
	if err != nil {
		return nil, fmt.Errorf("menu: %w", err)
	}
	items := normalize.UnwrapList(raw, "items", "menu", "Products", "data")
	out := make([]domain.MenuItem, 0, len(items))
	for _, it := range items {
		out = append(out, normalizeMenuItem(it))
	}
	return out, nil
}

func (c *Connector) GetSpaServices(ctx context.Context) ([]domain.SpaService, error) {
	raw, err := c.p.GetSpaServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("spa services: %w", err)
	}
	items := normalize.UnwrapList(raw, "services", "Services", "data", "items")
	out := make([]domain.SpaService, 0, len(items))
	for _, it := range items {
		out = append(out, normalizeSpaService(it))
	}
	return out, nil
}

func (c *Connector) GetSpaAvailability(ctx context.Context, date, serviceID string) ([]domain.TimeSlot, error) {
	raw, err := c.p.GetSpaAvailability(ctx, dayOrToday(date), serviceID)
	if err != nil {
		return nil, fmt.Errorf("spa availability: %w", err)
	}
	items := normalize.UnwrapList(raw, "slots", "availability", "data", "items")
	out := make([]domain.TimeSlot, 0, len(items))
	for _, it := range items {
		out = append(out, normalizeSlot(it))
	}
	return out, nil
}

func (c *Connector) reservations(raw any) []domain.Reservation {
	items := normalize.UnwrapList(raw, "reservations", "Reservations", "data", "items", "results")
	out := make([]domain.Reservation, 0, len(items))
	for _, it := range items {
		out = append(out, NormalizeReservation(it, c.p.Name()))
	}
	return out
}

func (c *Connector) stayUpdate(raw map[string]any, id, status string) domain.Reservation {
	r := NormalizeReservation(raw, c.p.Name())
	if r.ID == "" {
		r.ID = id
	}
	if r.Status == "" {
		r.Status = status
	}
	return r
}

func dayOrToday(date string) string {
	if strings.TrimSpace(date) == "" {
		return time.Now().UTC().Format("2006-01-02")
	}
	return date
}

// checkWindow accepts dates or RFC 3339 timestamps; unparseable values are
// left to the provider to reject.
func checkWindow(from, to string) error {
	a, okA := parseWhen(from)
	b, okB := parseWhen(to)
	if okA && okB && !a.Before(b) {
		return fmt.Errorf("%w: %s is not before %s", domain.ErrInvalidStayWindow, from, to)
	}
	return nil
}

func parseWhen(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
