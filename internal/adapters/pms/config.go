package pms

import (
	"hotel_connect/internal/domain"
	"hotel_connect/internal/shared"
)

type OperaConfig struct {
	BaseURL  string `json:"baseUrl"`
	ResortID string `json:"resortId"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type MewsConfig struct {
	BaseURL      string `json:"baseUrl"`
	ClientToken  string `json:"clientToken"`
	AccessToken  string `json:"accessToken"`
	EnterpriseID string `json:"enterpriseId"`
	// ServiceID is the bookable stay service; needed for create and charge.
	ServiceID string `json:"serviceId"`
	Client    string `json:"client"`
}

type CloudbedsConfig struct {
	BaseURL      string `json:"baseUrl"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	PropertyID   string `json:"propertyId"`
	TokenURL     string `json:"tokenUrl"`
}

// MockConfig without BaseURL serves in-process fixtures.
type MockConfig struct {
	BaseURL  string `json:"baseUrl"`
	ResortID string `json:"resortId"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Config is a tagged union keyed by Provider; exactly the matching field is set.
type Config struct {
	Provider  string
	Opera     *OperaConfig
	Mews      *MewsConfig
	Cloudbeds *CloudbedsConfig
	Mock      *MockConfig
	// Raw carries the undecoded map for providers registered outside this package.
	Raw map[string]any
}

// ParseConfig decodes a stored config map into the typed record of provider.
// It checks types only; Validate checks completeness.
func ParseConfig(provider string, raw map[string]any) (Config, error) {
	c := Config{Provider: provider}
	var target any
	switch provider {
	case ProviderOpera:
		c.Opera = &OperaConfig{}
		target = c.Opera
	case ProviderMews:
		c.Mews = &MewsConfig{}
		target = c.Mews
	case ProviderCloudbeds:
		c.Cloudbeds = &CloudbedsConfig{}
		target = c.Cloudbeds
	case ProviderMock:
		c.Mock = &MockConfig{}
		target = c.Mock
	default:
		if _, ok := lookupFactory(provider); ok {
			return Config{Provider: provider, Raw: raw}, nil
		}
		return Config{}, &domain.UnsupportedProviderError{Domain: domain.DomainPMS, Provider: provider}
	}
	if err := shared.DecodeProviderConfig(raw, target); err != nil {
		return Config{}, &domain.InvalidConfigError{Domain: domain.DomainPMS, Provider: provider, Reason: err.Error()}
	}
	return c, nil
}

// Validate reports missing required keys for the selected provider.
func (c Config) Validate() error {
	var err error
	switch c.Provider {
	case ProviderOpera:
		if c.Opera == nil {
			return c.missing()
		}
		o := c.Opera
		err = shared.RequireKeys("baseUrl", o.BaseURL, "resortId", o.ResortID, "username", o.Username, "password", o.Password)
	case ProviderMews:
		if c.Mews == nil {
			return c.missing()
		}
		m := c.Mews
		err = shared.RequireKeys("baseUrl", m.BaseURL, "clientToken", m.ClientToken, "accessToken", m.AccessToken, "enterpriseId", m.EnterpriseID)
	case ProviderCloudbeds:
		if c.Cloudbeds == nil {
			return c.missing()
		}
		cb := c.Cloudbeds
		err = shared.RequireKeys("baseUrl", cb.BaseURL, "clientId", cb.ClientID, "clientSecret", cb.ClientSecret, "propertyId", cb.PropertyID)
	case ProviderMock:
		// every key is optional
	}
	if err != nil {
		return &domain.InvalidConfigError{Domain: domain.DomainPMS, Provider: c.Provider, Reason: err.Error()}
	}
	return nil
}

func (c Config) missing() error {
	return &domain.InvalidConfigError{Domain: domain.DomainPMS, Provider: c.Provider, Reason: "no config for provider"}
}
