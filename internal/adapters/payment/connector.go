// Package payment drives the card processor's PaymentIntent state machine:
// authorization holds that are later captured or released, direct charges,
// tips and refunds, plus customer and card management.
package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/domain"
	"hotel_connect/internal/shared"
)

const ProviderStripe = "stripe"

type Config struct {
	SecretKey string `json:"stripeSecretKey"`
	// APIBase overrides https://api.stripe.com (stripe-mock, tests).
	APIBase string `json:"apiBase"`
}

func (c Config) Validate() error {
	if err := shared.RequireKeys("stripeSecretKey", c.SecretKey); err != nil {
		return &domain.InvalidConfigError{Domain: domain.DomainPayment, Provider: ProviderStripe, Reason: err.Error()}
	}
	return nil
}

type options struct {
	backend stripe.Backend
	hc      *http.Client
}

type Option func(*options)

// WithBackend replaces the stripe HTTP backend entirely.
func WithBackend(b stripe.Backend) Option { return func(o *options) { o.backend = b } }

func WithHTTPClient(hc *http.Client) Option { return func(o *options) { o.hc = hc } }

type Connector struct {
	sc *client.API
}

// New builds a connector on its own stripe client so hotels with different
// keys never share global SDK state. Network retries are disabled.
func New(cfg Config, opts ...Option) (*Connector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}

	backends := &stripe.Backends{API: o.backend, Connect: o.backend, Uploads: o.backend}
	if o.backend == nil {
		bc := &stripe.BackendConfig{
			HTTPClient:        transport.InstrumentedHTTPClient(ProviderStripe, o.hc),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
		}
		if cfg.APIBase != "" {
			bc.URL = stripe.String(strings.TrimRight(cfg.APIBase, "/"))
		}
		backends = stripe.NewBackendsWithConfig(bc)
	}

	sc := &client.API{}
	sc.Init(cfg.SecretKey, backends)
	return &Connector{sc: sc}, nil
}

// HoldRequest describes an authorization hold or a direct charge.
type HoldRequest struct {
	Amount          decimal.Decimal
	Currency        string
	CustomerID      string
	Description     string
	PaymentMethodID string
	Metadata        map[string]string
}

func (r HoldRequest) params(ctx context.Context, capture stripe.PaymentIntentCaptureMethod) *stripe.PaymentIntentParams {
	p := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(ToMinorUnits(r.Amount, r.Currency)),
		Currency:      stripe.String(strings.ToLower(r.Currency)),
		CaptureMethod: stripe.String(string(capture)),
		Confirm:       stripe.Bool(true),
	}
	p.Context = ctx
	if r.CustomerID != "" {
		p.Customer = stripe.String(r.CustomerID)
	}
	if r.Description != "" {
		p.Description = stripe.String(r.Description)
	}
	if r.PaymentMethodID != "" {
		p.PaymentMethod = stripe.String(r.PaymentMethodID)
	}
	for k, v := range r.Metadata {
		p.AddMetadata(k, v)
	}
	return p
}

// CreateAuthorizationHold reserves funds: the intent is confirmed with
// manual capture so nothing is taken yet.
func (c *Connector) CreateAuthorizationHold(ctx context.Context, r HoldRequest) (domain.PaymentIntent, error) {
	pi, err := c.sc.PaymentIntents.New(r.params(ctx, stripe.PaymentIntentCaptureMethodManual))
	if err != nil {
		return domain.PaymentIntent{}, wrap(err)
	}
	log.Debug().Str("intent", pi.ID).Str("status", string(pi.Status)).Msg("authorization hold created")
	return toIntent(pi), nil
}

// CaptureHold captures the whole hold, or only amount when it is non-nil.
func (c *Connector) CaptureHold(ctx context.Context, intentID string, amount *decimal.Decimal) (domain.PaymentIntent, error) {
	p := &stripe.PaymentIntentCaptureParams{}
	p.Context = ctx
	if amount != nil {
		cur, err := c.currencyOf(ctx, intentID)
		if err != nil {
			return domain.PaymentIntent{}, err
		}
		p.AmountToCapture = stripe.Int64(ToMinorUnits(*amount, cur))
	}
	pi, err := c.sc.PaymentIntents.Capture(intentID, p)
	if err != nil {
		return domain.PaymentIntent{}, wrap(err)
	}
	return toIntent(pi), nil
}

func (c *Connector) CancelHold(ctx context.Context, intentID string) (domain.PaymentIntent, error) {
	p := &stripe.PaymentIntentCancelParams{}
	p.Context = ctx
	pi, err := c.sc.PaymentIntents.Cancel(intentID, p)
	if err != nil {
		return domain.PaymentIntent{}, wrap(err)
	}
	return toIntent(pi), nil
}

// CreateCharge takes the funds immediately.
func (c *Connector) CreateCharge(ctx context.Context, r HoldRequest) (domain.PaymentIntent, error) {
	pi, err := c.sc.PaymentIntents.New(r.params(ctx, stripe.PaymentIntentCaptureMethodAutomatic))
	if err != nil {
		return domain.PaymentIntent{}, wrap(err)
	}
	return toIntent(pi), nil
}

type TipRequest struct {
	Amount          decimal.Decimal
	Currency        string
	CustomerID      string
	StaffName       string
	Department      string
	PaymentMethodID string
}

func (c *Connector) ProcessTip(ctx context.Context, t TipRequest) (domain.PaymentIntent, error) {
	return c.CreateCharge(ctx, HoldRequest{
		Amount:          t.Amount,
		Currency:        t.Currency,
		CustomerID:      t.CustomerID,
		Description:     "Tip for " + t.StaffName,
		PaymentMethodID: t.PaymentMethodID,
		Metadata:        map[string]string{"type": "tip", "staff_name": t.StaffName, "department": t.Department},
	})
}

// CreateRefund refunds the whole intent when amount is nil.
func (c *Connector) CreateRefund(ctx context.Context, intentID string, amount *decimal.Decimal, reason string) (domain.Refund, error) {
	p := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	p.Context = ctx
	if amount != nil {
		cur, err := c.currencyOf(ctx, intentID)
		if err != nil {
			return domain.Refund{}, err
		}
		p.Amount = stripe.Int64(ToMinorUnits(*amount, cur))
	}
	if reason != "" {
		p.Reason = stripe.String(reason)
	}
	r, err := c.sc.Refunds.New(p)
	if err != nil {
		return domain.Refund{}, wrap(err)
	}
	out := domain.Refund{
		ID:              r.ID,
		PaymentIntentID: intentID,
		Amount:          FromMinorUnits(r.Amount, string(r.Currency)),
		Currency:        string(r.Currency),
		Status:          string(r.Status),
		Reason:          string(r.Reason),
	}
	if r.PaymentIntent != nil && r.PaymentIntent.ID != "" {
		out.PaymentIntentID = r.PaymentIntent.ID
	}
	return out, nil
}

func (c *Connector) CreateCustomer(ctx context.Context, email, name, phone string) (domain.Customer, error) {
	p := &stripe.CustomerParams{}
	p.Context = ctx
	if email != "" {
		p.Email = stripe.String(email)
	}
	if name != "" {
		p.Name = stripe.String(name)
	}
	if phone != "" {
		p.Phone = stripe.String(phone)
	}
	cu, err := c.sc.Customers.New(p)
	if err != nil {
		return domain.Customer{}, wrap(err)
	}
	return domain.Customer{ID: cu.ID, Email: cu.Email, Name: cu.Name, Phone: cu.Phone}, nil
}

func (c *Connector) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (domain.PaymentMethod, error) {
	p := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	p.Context = ctx
	pm, err := c.sc.PaymentMethods.Attach(paymentMethodID, p)
	if err != nil {
		return domain.PaymentMethod{}, wrap(err)
	}
	return toMethod(pm), nil
}

func (c *Connector) GetPaymentIntent(ctx context.Context, intentID string) (domain.PaymentIntent, error) {
	p := &stripe.PaymentIntentParams{}
	p.Context = ctx
	pi, err := c.sc.PaymentIntents.Get(intentID, p)
	if err != nil {
		return domain.PaymentIntent{}, wrap(err)
	}
	return toIntent(pi), nil
}

// ListPaymentMethods lists the customer's cards.
func (c *Connector) ListPaymentMethods(ctx context.Context, customerID string) ([]domain.PaymentMethod, error) {
	p := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	p.Context = ctx
	it := c.sc.PaymentMethods.List(p)
	out := []domain.PaymentMethod{}
	for it.Next() {
		out = append(out, toMethod(it.PaymentMethod()))
	}
	if err := it.Err(); err != nil {
		return nil, wrap(err)
	}
	return out, nil
}

func (c *Connector) currencyOf(ctx context.Context, intentID string) (string, error) {
	pi, err := c.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return "", err
	}
	return pi.Currency, nil
}

func toIntent(pi *stripe.PaymentIntent) domain.PaymentIntent {
	cur := string(pi.Currency)
	out := domain.PaymentIntent{
		ID:               pi.ID,
		Status:           string(pi.Status),
		Amount:           FromMinorUnits(pi.Amount, cur),
		AmountCapturable: FromMinorUnits(pi.AmountCapturable, cur),
		AmountReceived:   FromMinorUnits(pi.AmountReceived, cur),
		Currency:         cur,
		Description:      pi.Description,
		CaptureMethod:    string(pi.CaptureMethod),
		ClientSecret:     pi.ClientSecret,
		Metadata:         pi.Metadata,
	}
	if pi.Customer != nil {
		out.CustomerID = pi.Customer.ID
	}
	return out
}

func toMethod(pm *stripe.PaymentMethod) domain.PaymentMethod {
	out := domain.PaymentMethod{ID: pm.ID, Type: string(pm.Type)}
	if pm.Customer != nil {
		out.CustomerID = pm.Customer.ID
	}
	if pm.Card != nil {
		out.Brand = string(pm.Card.Brand)
		out.Last4 = pm.Card.Last4
		out.ExpMonth = pm.Card.ExpMonth
		out.ExpYear = pm.Card.ExpYear
	}
	return out
}

// wrap maps processor failures onto *domain.PaymentProviderError, keeping
// the processor's own message.
func wrap(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se *stripe.Error
	if errors.As(err, &se) {
		msg := se.Msg
		if msg == "" {
			msg = http.StatusText(se.HTTPStatusCode)
		}
		log.Warn().Int("status", se.HTTPStatusCode).Str("code", string(se.Code)).Msg("payment provider error")
		return &domain.PaymentProviderError{Status: se.HTTPStatusCode, Code: string(se.Code), Message: msg}
	}
	return &domain.PaymentProviderError{Message: err.Error()}
}
