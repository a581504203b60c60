package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"hotel_connect/internal/adapters/observability"
	"hotel_connect/internal/domain"
)

// Authenticator decorates an outbound request with provider credentials.
type Authenticator interface {
	Authorize(ctx context.Context, r *http.Request) error
}

type AuthFunc func(ctx context.Context, r *http.Request) error

func (f AuthFunc) Authorize(ctx context.Context, r *http.Request) error { return f(ctx, r) }

func BasicAuth(user, pass string) Authenticator {
	return AuthFunc(func(_ context.Context, r *http.Request) error {
		r.SetBasicAuth(user, pass)
		return nil
	})
}

func BearerToken(token string) Authenticator {
	return AuthFunc(func(_ context.Context, r *http.Request) error {
		r.Header.Set("Authorization", "Bearer "+token)
		return nil
	})
}

func APIKeyHeader(header, key string) Authenticator {
	return AuthFunc(func(_ context.Context, r *http.Request) error {
		r.Header.Set(header, key)
		return nil
	})
}

// ClientCredentials implements the OAuth2 client-credentials grant. A fresh
// token is requested before every call; nothing is cached.
type ClientCredentials struct {
	Service      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	HTTP         *http.Client
}

func (c *ClientCredentials) Authorize(ctx context.Context, r *http.Request) error {
	tok, err := c.Token(ctx)
	if err != nil {
		return err
	}
	r.Header.Set("Authorization", "Bearer "+tok)
	return nil
}

// Token performs the token request and returns the access token.
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
	}
	if c.Scope != "" {
		form.Set("scope", c.Scope)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		observability.ObserveExternal(c.Service, "/oauth/token", 0, time.Since(start))
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal(c.Service, "/oauth/token", resp.StatusCode, time.Since(start))

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.ProviderAPIError{
			Provider:   c.Service,
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(b)),
		}
	}
	var out struct {
		AccessToken string `json:"access_token"`
		Token       string `json:"token"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if out.AccessToken == "" {
		out.AccessToken = out.Token
	}
	if out.AccessToken == "" {
		return "", errors.New("token response has no access_token")
	}
	return out.AccessToken, nil
}
