package spa

import (
	"hotel_connect/internal/domain"
	"hotel_connect/internal/shared"
)

// Config is shared by every spa provider; BaseURL falls back to the
// provider's public endpoint when one exists.
type Config struct {
	Provider string `json:"-"`
	BaseURL  string `json:"baseUrl"`
	SiteID   string `json:"siteId"`
	APIKey   string `json:"apiKey"`
	// TestMode marks mindbody bookings as test bookings.
	TestMode bool `json:"testMode"`
}

var defaultBaseURLs = map[string]string{
	ProviderSpaBooker: "https://api.spabooker.com/v1",
	ProviderMindbody:  "https://api.mindbodyonline.com/public/v6",
}

func ParseConfig(provider string, raw map[string]any) (Config, error) {
	if provider == ProviderNone {
		return Config{Provider: provider}, nil
	}
	if _, ok := lookupFlavor(provider); !ok {
		return Config{}, &domain.UnsupportedProviderError{Domain: domain.DomainSpa, Provider: provider}
	}
	c := Config{}
	if err := shared.DecodeProviderConfig(raw, &c); err != nil {
		return Config{}, &domain.InvalidConfigError{Domain: domain.DomainSpa, Provider: provider, Reason: err.Error()}
	}
	c.Provider = provider
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURLs[provider]
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Provider == ProviderNone {
		return nil
	}
	if err := shared.RequireKeys("baseUrl", c.BaseURL, "siteId", c.SiteID, "apiKey", c.APIKey); err != nil {
		return &domain.InvalidConfigError{Domain: domain.DomainSpa, Provider: c.Provider, Reason: err.Error()}
	}
	return nil
}
