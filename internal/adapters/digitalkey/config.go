package digitalkey

import (
	"hotel_connect/internal/domain"
	"hotel_connect/internal/shared"
)

type AlliantsConfig struct {
	BaseURL    string `json:"baseUrl"`
	PropertyID string `json:"propertyId"`
	APIKey     string `json:"apiKey"`
}

type OpenKeyConfig struct {
	BaseURL      string `json:"baseUrl"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	PropertyID   string `json:"propertyId"`
	TokenURL     string `json:"tokenUrl"`
}

// Config is a tagged union keyed by Provider. The none provider has no settings.
type Config struct {
	Provider string
	Alliants *AlliantsConfig
	OpenKey  *OpenKeyConfig
	Raw      map[string]any
}

func ParseConfig(provider string, raw map[string]any) (Config, error) {
	c := Config{Provider: provider}
	var target any
	switch provider {
	case ProviderNone:
		return c, nil
	case ProviderAlliants:
		c.Alliants = &AlliantsConfig{}
		target = c.Alliants
	case ProviderOpenKey:
		c.OpenKey = &OpenKeyConfig{}
		target = c.OpenKey
	default:
		if _, ok := lookupFactory(provider); ok {
			return Config{Provider: provider, Raw: raw}, nil
		}
		return Config{}, &domain.UnsupportedProviderError{Domain: domain.DomainDigitalKey, Provider: provider}
	}
	if err := shared.DecodeProviderConfig(raw, target); err != nil {
		return Config{}, &domain.InvalidConfigError{Domain: domain.DomainDigitalKey, Provider: provider, Reason: err.Error()}
	}
	return c, nil
}

func (c Config) Validate() error {
	var err error
	switch c.Provider {
	case ProviderAlliants:
		if c.Alliants == nil {
			return c.invalid("no config for provider")
		}
		a := c.Alliants
		err = shared.RequireKeys("baseUrl", a.BaseURL, "propertyId", a.PropertyID, "apiKey", a.APIKey)
	case ProviderOpenKey:
		if c.OpenKey == nil {
			return c.invalid("no config for provider")
		}
		o := c.OpenKey
		err = shared.RequireKeys("baseUrl", o.BaseURL, "clientId", o.ClientID, "clientSecret", o.ClientSecret, "propertyId", o.PropertyID)
	}
	if err != nil {
		return c.invalid(err.Error())
	}
	return nil
}

func (c Config) invalid(reason string) error {
	return &domain.InvalidConfigError{Domain: domain.DomainDigitalKey, Provider: c.Provider, Reason: reason}
}
