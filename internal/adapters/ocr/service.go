// Package ocr reads identity documents scanned at check-in.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/domain"
)

const (
	ProviderAWSTextract  = "aws-textract"
	ProviderGoogleVision = "google-vision"
	ProviderAzureVision  = "azure-vision"
	ProviderMock         = "mock"
)

var ErrEmptyImage = errors.New("ocr: empty image")

// Provider reads one document image. The answer is a flat field map that
// NormalizeData understands.
type Provider interface {
	Name() string
	Extract(ctx context.Context, image []byte, documentType string) (map[string]any, error)
}

// Env carries process dependencies into provider factories.
type Env struct {
	Now          func() time.Time
	PollInterval time.Duration
	Opts         []transport.Option
	Textract     AnalyzeIDAPI
}

type Factory func(cfg Config, env Env) (Provider, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{
		ProviderAWSTextract:  newTextract,
		ProviderGoogleVision: newGoogleVision,
		ProviderAzureVision:  newAzureVision,
		ProviderMock:         newMock,
	}
)

// Register adds a provider implementation. Registering an existing name panics.
func Register(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("ocr: provider %q already registered", name))
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

type Option func(*Env)

func WithClock(now func() time.Time) Option { return func(e *Env) { e.Now = now } }

// WithPollInterval sets the wait between azure result polls.
func WithPollInterval(d time.Duration) Option { return func(e *Env) { e.PollInterval = d } }

func WithTransport(opts ...transport.Option) Option {
	return func(e *Env) { e.Opts = append(e.Opts, opts...) }
}

// WithTextract replaces the AWS client (tests, custom endpoints).
func WithTextract(api AnalyzeIDAPI) Option { return func(e *Env) { e.Textract = api } }

type Service struct {
	p   Provider
	now func() time.Time
}

func New(cfg Config, opts ...Option) (*Service, error) {
	f, ok := lookupFactory(cfg.Provider)
	if !ok {
		return nil, &domain.UnsupportedProviderError{Domain: domain.DomainOCR, Provider: cfg.Provider}
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	env := Env{Now: time.Now, PollInterval: time.Second}
	for _, o := range opts {
		o(&env)
	}
	p, err := f(cfg, env)
	if err != nil {
		return nil, err
	}
	return &Service{p: p, now: env.Now}, nil
}

func (s *Service) Provider() string { return s.p.Name() }

// ExtractIDData reads the document and returns the canonical record. The
// record is not validated; see ValidateIDData.
func (s *Service) ExtractIDData(ctx context.Context, image []byte, documentType string) (domain.ExtractedID, error) {
	if len(image) == 0 {
		return domain.ExtractedID{}, ErrEmptyImage
	}
	raw, err := s.p.Extract(ctx, image, documentType)
	if err != nil {
		return domain.ExtractedID{}, fmt.Errorf("ocr extract (%s): %w", s.p.Name(), err)
	}
	d := NormalizeData(raw, s.p.Name())
	if d.DocumentType == "" {
		d.DocumentType = normalizeDocType(documentType)
	}
	log.Debug().Str("provider", s.p.Name()).Str("document_type", d.DocumentType).
		Float64("confidence", d.Confidence).Msg("id document extracted")
	return d, nil
}

// ValidateIDData checks data against the service clock.
func (s *Service) ValidateIDData(data domain.ExtractedID) domain.IDValidation {
	return ValidateIDData(data, s.now())
}
