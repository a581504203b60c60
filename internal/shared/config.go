package shared

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string        `env:"APP_ENV" envDefault:"prod"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr    string        `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string        `env:"METRICS_ADDR" envDefault:":9100"`
	MySQLDSN    string        `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/hotel_connect?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`
	RedisAddr   string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass   string        `env:"REDIS_PASSWORD"`
	RedisDB     int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"15m"`
	// Workers bounds the per-hotel fan-out of the arrivals job.
	Workers int `env:"SYNC_WORKERS" envDefault:"8"`
	// OutboundRPS caps calls per connector; 0 means unlimited.
	OutboundRPS int `env:"OUTBOUND_RPS" envDefault:"0"`

	Integrations Integrations
}

// Integrations is the process-wide fallback used when a hotel has no
// stored configuration for a domain.
type Integrations struct {
	PMS        PMSEnv        `envPrefix:"PMS_"`
	DigitalKey DigitalKeyEnv `envPrefix:"DIGITAL_KEY_"`
	Spa        SpaEnv        `envPrefix:"SPA_"`
	Payment    PaymentEnv    `envPrefix:"STRIPE_"`
	OCR        OCREnv
	AI         AIEnv
}

type PMSEnv struct {
	Provider     string `env:"PROVIDER"`
	BaseURL      string `env:"BASE_URL"`
	ResortID     string `env:"RESORT_ID"`
	Username     string `env:"USERNAME"`
	Password     string `env:"PASSWORD"`
	ClientToken  string `env:"CLIENT_TOKEN"`
	AccessToken  string `env:"ACCESS_TOKEN"`
	EnterpriseID string `env:"ENTERPRISE_ID"`
	ServiceID    string `env:"SERVICE_ID"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	PropertyID   string `env:"PROPERTY_ID"`
}

// Map returns the set values keyed like a stored provider config.
func (e PMSEnv) Map() map[string]any {
	return compact(
		"baseUrl", e.BaseURL, "resortId", e.ResortID, "username", e.Username, "password", e.Password,
		"clientToken", e.ClientToken, "accessToken", e.AccessToken, "enterpriseId", e.EnterpriseID,
		"serviceId", e.ServiceID, "clientId", e.ClientID, "clientSecret", e.ClientSecret, "propertyId", e.PropertyID,
	)
}

type DigitalKeyEnv struct {
	Provider     string `env:"PROVIDER"`
	BaseURL      string `env:"BASE_URL"`
	PropertyID   string `env:"PROPERTY_ID"`
	APIKey       string `env:"API_KEY"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

func (e DigitalKeyEnv) Map() map[string]any {
	return compact(
		"baseUrl", e.BaseURL, "propertyId", e.PropertyID, "apiKey", e.APIKey,
		"clientId", e.ClientID, "clientSecret", e.ClientSecret,
	)
}

type SpaEnv struct {
	Provider string `env:"PROVIDER"`
	BaseURL  string `env:"BASE_URL"`
	SiteID   string `env:"SITE_ID"`
	APIKey   string `env:"API_KEY"`
}

func (e SpaEnv) Map() map[string]any {
	return compact("baseUrl", e.BaseURL, "siteId", e.SiteID, "apiKey", e.APIKey)
}

type PaymentEnv struct {
	SecretKey string `env:"SECRET_KEY"`
	APIBase   string `env:"API_BASE"`
}

type OCREnv struct {
	Provider        string `env:"OCR_PROVIDER"`
	APIKey          string `env:"OCR_API_KEY"`
	BaseURL         string `env:"OCR_BASE_URL"`
	Region          string `env:"AWS_REGION"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

func (e OCREnv) Map() map[string]any {
	return compact(
		"apiKey", e.APIKey, "baseUrl", e.BaseURL, "region", e.Region,
		"accessKeyId", e.AccessKeyID, "secretAccessKey", e.SecretAccessKey,
	)
}

type AIEnv struct {
	APIKey           string   `env:"OPENAI_API_KEY"`
	Model            string   `env:"OPENAI_MODEL"`
	BaseURL          string   `env:"OPENAI_BASE_URL"`
	HotelName        string   `env:"HOTEL_NAME"`
	HotelDescription string   `env:"HOTEL_DESCRIPTION"`
	HotelAmenities   []string `env:"HOTEL_AMENITIES" envSeparator:","`
}

// Load reads the process configuration. A .env file in the working
// directory is applied first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if c.Integrations.Payment.SecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY is empty; payments are disabled")
	}
	return c, nil
}

func compact(pairs ...string) map[string]any {
	out := map[string]any{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			out[pairs[i]] = pairs[i+1]
		}
	}
	return out
}
