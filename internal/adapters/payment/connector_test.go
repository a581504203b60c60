package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"

	"hotel_connect/internal/adapters/payment"
	"hotel_connect/internal/domain"
)

// fakeBackend implements stripe.Backend; handler answers with the JSON body
// of the resource or an error.
type fakeBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) (string, error)
}

func (f *fakeBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	body, err := f.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), v)
}

func (f *fakeBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (f *fakeBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return f.Call(method, path, key, nil, v)
}

func (f *fakeBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (f *fakeBackend) SetMaxNetworkRetries(int64) {}

func newConnector(t *testing.T, h func(method, path string, params stripe.ParamsContainer) (string, error)) *payment.Connector {
	t.Helper()
	c, err := payment.New(payment.Config{SecretKey: "sk_test_123"}, payment.WithBackend(&fakeBackend{handler: h}))
	require.NoError(t, err)
	return c
}

func TestNew_RequiresSecretKey(t *testing.T) {
	_, err := payment.New(payment.Config{})
	var ice *domain.InvalidConfigError
	require.ErrorAs(t, err, &ice)
	assert.Contains(t, ice.Reason, "stripeSecretKey")
}

func TestCreateAuthorizationHold_ManualCaptureConfirmed(t *testing.T) {
	c := newConnector(t, func(method, path string, params stripe.ParamsContainer) (string, error) {
		require.Equal(t, http.MethodPost, method)
		require.Equal(t, "/v1/payment_intents", path)
		p := params.(*stripe.PaymentIntentParams)
		assert.Equal(t, int64(12550), *p.Amount)
		assert.Equal(t, "eur", *p.Currency)
		assert.Equal(t, "manual", *p.CaptureMethod)
		assert.True(t, *p.Confirm)
		assert.Equal(t, "cus_1", *p.Customer)
		return `{"id":"pi_1","object":"payment_intent","amount":12550,"amount_capturable":12550,
			"currency":"eur","status":"requires_capture","capture_method":"manual","customer":"cus_1"}`, nil
	})

	pi, err := c.CreateAuthorizationHold(context.Background(), payment.HoldRequest{
		Amount: decimal.RequireFromString("125.50"), Currency: "EUR", CustomerID: "cus_1", Description: "Incidentals",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", pi.ID)
	assert.Equal(t, "requires_capture", pi.Status)
	assert.Equal(t, "cus_1", pi.CustomerID)
	assert.True(t, pi.AmountCapturable.Equal(decimal.RequireFromString("125.5")))
}

func TestCaptureHold_Partial(t *testing.T) {
	c := newConnector(t, func(method, path string, params stripe.ParamsContainer) (string, error) {
		switch {
		case method == http.MethodGet && path == "/v1/payment_intents/pi_1":
			return `{"id":"pi_1","amount":12550,"currency":"eur","status":"requires_capture"}`, nil
		case method == http.MethodPost && path == "/v1/payment_intents/pi_1/capture":
			p := params.(*stripe.PaymentIntentCaptureParams)
			require.NotNil(t, p.AmountToCapture)
			assert.Equal(t, int64(4000), *p.AmountToCapture)
			return `{"id":"pi_1","amount":12550,"amount_received":4000,"currency":"eur","status":"succeeded"}`, nil
		}
		return "", fmt.Errorf("unexpected call %s %s", method, path)
	})

	amt := decimal.NewFromInt(40)
	pi, err := c.CaptureHold(context.Background(), "pi_1", &amt)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", pi.Status)
	assert.True(t, pi.AmountReceived.Equal(amt))
}

func TestCancelHold(t *testing.T) {
	c := newConnector(t, func(method, path string, _ stripe.ParamsContainer) (string, error) {
		assert.Equal(t, "/v1/payment_intents/pi_9/cancel", path)
		return `{"id":"pi_9","currency":"usd","status":"canceled"}`, nil
	})
	pi, err := c.CancelHold(context.Background(), "pi_9")
	require.NoError(t, err)
	assert.Equal(t, "canceled", pi.Status)
}

func TestProcessTip_TagsMetadata(t *testing.T) {
	c := newConnector(t, func(method, path string, params stripe.ParamsContainer) (string, error) {
		p := params.(*stripe.PaymentIntentParams)
		assert.Equal(t, "automatic", *p.CaptureMethod)
		assert.Equal(t, "tip", p.Metadata["type"])
		assert.Equal(t, "Lena", p.Metadata["staff_name"])
		assert.Equal(t, "spa", p.Metadata["department"])
		assert.Equal(t, int64(1000), *p.Amount)
		return `{"id":"pi_t","amount":1000,"currency":"chf","status":"succeeded",
			"metadata":{"type":"tip","staff_name":"Lena","department":"spa"}}`, nil
	})
	pi, err := c.ProcessTip(context.Background(), payment.TipRequest{
		Amount: decimal.NewFromInt(10), Currency: "CHF", CustomerID: "cus_1", StaffName: "Lena", Department: "spa",
	})
	require.NoError(t, err)
	assert.Equal(t, "tip", pi.Metadata["type"])
}

func TestCreateRefund_FullWhenAmountNil(t *testing.T) {
	c := newConnector(t, func(method, path string, params stripe.ParamsContainer) (string, error) {
		require.Equal(t, "/v1/refunds", path)
		p := params.(*stripe.RefundParams)
		assert.Nil(t, p.Amount)
		assert.Equal(t, "pi_1", *p.PaymentIntent)
		assert.Equal(t, "requested_by_customer", *p.Reason)
		return `{"id":"re_1","amount":12550,"currency":"eur","status":"succeeded","payment_intent":"pi_1","reason":"requested_by_customer"}`, nil
	})
	r, err := c.CreateRefund(context.Background(), "pi_1", nil, "requested_by_customer")
	require.NoError(t, err)
	assert.Equal(t, "re_1", r.ID)
	assert.Equal(t, "pi_1", r.PaymentIntentID)
	assert.True(t, r.Amount.Equal(decimal.RequireFromString("125.50")))
}

func TestListPaymentMethods(t *testing.T) {
	c := newConnector(t, func(method, path string, _ stripe.ParamsContainer) (string, error) {
		assert.Equal(t, "/v1/payment_methods", path)
		return `{"object":"list","has_more":false,"data":[{"id":"pm_1","type":"card","customer":"cus_1",
			"card":{"brand":"visa","last4":"4242","exp_month":12,"exp_year":2030}}]}`, nil
	})
	got, err := c.ListPaymentMethods(context.Background(), "cus_1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.PaymentMethod{ID: "pm_1", CustomerID: "cus_1", Type: "card", Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030}, got[0])
}

func TestProviderErrorCarriesMessage(t *testing.T) {
	c := newConnector(t, func(string, string, stripe.ParamsContainer) (string, error) {
		return "", &stripe.Error{HTTPStatusCode: http.StatusPaymentRequired, Code: stripe.ErrorCodeCardDeclined, Msg: "Your card was declined."}
	})
	_, err := c.CreateCharge(context.Background(), payment.HoldRequest{Amount: decimal.NewFromInt(5), Currency: "usd"})
	var ppe *domain.PaymentProviderError
	require.ErrorAs(t, err, &ppe)
	assert.Equal(t, http.StatusPaymentRequired, ppe.Status)
	assert.Equal(t, "card_declined", ppe.Code)
	assert.Equal(t, "Your card was declined.", ppe.Message)
}

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     int64
	}{
		{"125.50", "EUR", 12550},
		{"0.005", "usd", 1},
		{"5000", "JPY", 5000},
		{"1.2345", "KWD", 1235},
	}
	for _, tc := range cases {
		got := payment.ToMinorUnits(decimal.RequireFromString(tc.amount), tc.currency)
		assert.Equal(t, tc.want, got, "%s %s", tc.amount, tc.currency)
		assert.True(t, payment.FromMinorUnits(got, tc.currency).Sub(decimal.RequireFromString(tc.amount)).Abs().LessThan(decimal.RequireFromString("0.01")))
	}
}
