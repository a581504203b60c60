package ocr

import (
	"hotel_connect/internal/domain"
	"hotel_connect/internal/shared"
)

// Config is shared by all OCR providers; which fields matter depends on Provider.
type Config struct {
	Provider string `json:"-"`
	APIKey   string `json:"apiKey"`
	BaseURL  string `json:"baseUrl"`

	// aws-textract only; empty keys fall back to the default credential chain.
	Region          string `json:"region"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
}

const defaultAWSRegion = "us-east-1"

var defaultBaseURLs = map[string]string{
	ProviderGoogleVision: "https://vision.googleapis.com/v1",
}

func ParseConfig(provider string, raw map[string]any) (Config, error) {
	if _, ok := lookupFactory(provider); !ok {
		return Config{}, &domain.UnsupportedProviderError{Domain: domain.DomainOCR, Provider: provider}
	}
	c := Config{}
	if err := shared.DecodeProviderConfig(raw, &c); err != nil {
		return Config{}, &domain.InvalidConfigError{Domain: domain.DomainOCR, Provider: provider, Reason: err.Error()}
	}
	c.Provider = provider
	return c.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURLs[c.Provider]
	}
	if c.Provider == ProviderAWSTextract && c.Region == "" {
		c.Region = defaultAWSRegion
	}
	return c
}

func (c Config) Validate() error {
	var err error
	switch c.Provider {
	case ProviderGoogleVision:
		err = shared.RequireKeys("apiKey", c.APIKey)
	case ProviderAzureVision:
		err = shared.RequireKeys("baseUrl", c.BaseURL, "apiKey", c.APIKey)
	case ProviderAWSTextract:
		if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
			err = shared.RequireKeys("accessKeyId", c.AccessKeyID, "secretAccessKey", c.SecretAccessKey)
		}
	}
	if err != nil {
		return &domain.InvalidConfigError{Domain: domain.DomainOCR, Provider: c.Provider, Reason: err.Error()}
	}
	return nil
}
