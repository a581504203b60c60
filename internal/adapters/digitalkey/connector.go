// Package digitalkey issues and manages mobile room keys.
package digitalkey

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
	ProviderNone     = "none"
	ProviderAlliants = "alliants"
	ProviderOpenKey  = "openkey"
)

// Provider is one key-issuer API; answers are raw decoded JSON.
type Provider interface {
	Name() string
	IssueKey(ctx context.Context, r domain.KeyRequest) (map[string]any, error)
	RevokeKey(ctx context.Context, keyID string) (map[string]any, error)
	ExtendKey(ctx context.Context, keyID, validTo string) (map[string]any, error)
	GetKeyStatus(ctx context.Context, keyID string) (map[string]any, error)
}

// Env carries process dependencies into provider factories.
type Env struct {
	Now  func() time.Time
	Opts []transport.Option
}

type Factory func(cfg Config, env Env) (Provider, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{
		ProviderNone:     newMock,
		ProviderAlliants: newAlliants,
		ProviderOpenKey:  newOpenKey,
	}
)

// Register adds a provider implementation. Registering an existing name panics.
func Register(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("digitalkey: provider %q already registered", name))
	}
	factories[name] = f
}

func lookupFactory(name string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

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
	p   Provider
	now func() time.Time
}

type Option func(*Env)

// WithClock fixes the time source (mock key ids, timestamps).
func WithClock(now func() time.Time) Option { return func(e *Env) { e.Now = now } }

func WithTransport(opts ...transport.Option) Option {
	return func(e *Env) { e.Opts = append(e.Opts, opts...) }
}

func New(cfg Config, opts ...Option) (*Connector, error) {
	f, ok := lookupFactory(cfg.Provider)
	if !ok {
		return nil, &domain.UnsupportedProviderError{Domain: domain.DomainDigitalKey, Provider: cfg.Provider}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	env := Env{Now: time.Now}
	for _, o := range opts {
		o(&env)
	}
	p, err := f(cfg, env)
	if err != nil {
		return nil, err
	}
	return &Connector{p: p, now: env.Now}, nil
}

func (c *Connector) Provider() string { return c.p.Name() }

// IssueKey rejects a validity window that does not end after it starts.
func (c *Connector) IssueKey(ctx context.Context, r domain.KeyRequest) (domain.DigitalKey, error) {
	if err := checkWindow(r.CheckIn, r.CheckOut); err != nil {
		return domain.DigitalKey{}, err
	}
	raw, err := c.p.IssueKey(ctx, r)
	if err != nil {
		return domain.DigitalKey{}, fmt.Errorf("issue key: %w", err)
	}
	k := c.normalize(raw)
	if k.GuestID == "" {
		k.GuestID = r.GuestID
	}
	if k.RoomNumber == "" {
		k.RoomNumber = r.RoomNumber
	}
	if k.ValidFrom == "" {
		k.ValidFrom = r.CheckIn
	}
	if k.ValidTo == "" {
		k.ValidTo = r.CheckOut
	}
	if k.Status == "" {
		k.Status = domain.KeyStatusActive
	}
	return k, nil
}

func (c *Connector) RevokeKey(ctx context.Context, keyID string) (domain.DigitalKey, error) {
	raw, err := c.p.RevokeKey(ctx, keyID)
	if err != nil {
		return domain.DigitalKey{}, fmt.Errorf("revoke key %s: %w", keyID, err)
	}
	k := c.normalize(raw)
	if k.KeyID == "" {
		k.KeyID = keyID
	}
	if k.Status == "" {
		k.Status = domain.KeyStatusRevoked
	}
	return k, nil
}

// ExtendKey moves the end of the key's validity; the new end must lie in
// the future.
func (c *Connector) ExtendKey(ctx context.Context, keyID, validTo string) (domain.DigitalKey, error) {
	if err := checkWindow(c.now().UTC().Format(time.RFC3339), validTo); err != nil {
		return domain.DigitalKey{}, err
	}
	raw, err := c.p.ExtendKey(ctx, keyID, validTo)
	if err != nil {
		return domain.DigitalKey{}, fmt.Errorf("extend key %s: %w", keyID, err)
	}
	k := c.normalize(raw)
	if k.KeyID == "" {
		k.KeyID = keyID
	}
	if k.ValidTo == "" {
		k.ValidTo = validTo
	}
	return k, nil
}

func (c *Connector) GetKeyStatus(ctx context.Context, keyID string) (domain.DigitalKey, error) {
	raw, err := c.p.GetKeyStatus(ctx, keyID)
	if err != nil {
		return domain.DigitalKey{}, fmt.Errorf("key status %s: %w", keyID, err)
	}
	k := c.normalize(raw)
	if k.KeyID == "" {
		k.KeyID = keyID
	}
	return k, nil
}

func (c *Connector) normalize(raw map[string]any) domain.DigitalKey {
	m := normalize.Unwrap(raw, "key", "data", "mobileKey")
	k := domain.DigitalKey{
		KeyID:      normalize.FirstStr(m, "keyId", "key_id", "id", "KeyId", "mobileKeyId"),
		GuestID:    normalize.FirstStr(m, "guestId", "guest_id", "guest.id"),
		RoomNumber: normalize.FirstStr(m, "roomNumber", "room_number", "room", "roomName"),
		ValidFrom:  normalize.FirstStr(m, "validFrom", "valid_from", "startDate", "start_date", "checkIn"),
		ValidTo:    normalize.FirstStr(m, "validTo", "valid_to", "endDate", "end_date", "checkOut"),
		Status:     strings.ToLower(normalize.FirstStr(m, "status", "state", "keyStatus")),
		Provider:   c.p.Name(),
	}
	k.UpdatedAt = c.now().UTC()
	if ts := normalize.FirstStr(m, "updatedAt", "updated_at", "modifiedAt"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			k.UpdatedAt = t
		}
	}
	return k
}

func checkWindow(from, to string) error {
	a, errA := time.Parse(time.RFC3339, strings.TrimSpace(from))
	b, errB := time.Parse(time.RFC3339, strings.TrimSpace(to))
	if errA != nil {
		a, errA = time.Parse("2006-01-02", strings.TrimSpace(from))
	}
	if errB != nil {
		b, errB = time.Parse("2006-01-02", strings.TrimSpace(to))
	}
	if errA == nil && errB == nil && !a.Before(b) {
		return fmt.Errorf("%w: %s is not before %s", domain.ErrInvalidStayWindow, from, to)
	}
	return nil
}
