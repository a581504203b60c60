package domain

import "time"

// Domain identifies one integration area that is configured per hotel.
type Domain string

const (
	DomainPMS         Domain = "pms"
	DomainDigitalKey  Domain = "digitalKey"
	DomainSpa         Domain = "spa"
	DomainPayment     Domain = "payment"
	DomainOCR         Domain = "ocr"
	DomainAIConcierge Domain = "aiConcierge"
)

// ConfigurableDomains are the domains backed by a per-hotel provider_configs row.
var ConfigurableDomains = []Domain{DomainPMS, DomainDigitalKey, DomainSpa}

func (d Domain) Configurable() bool {
	for _, c := range ConfigurableDomains {
		if c == d {
			return true
		}
	}
	return false
}

// Snake returns the snake_case form used in error codes.
func (d Domain) Snake() string {
	switch d {
	case DomainDigitalKey:
		return "digital_key"
	case DomainAIConcierge:
		return "ai_concierge"
	default:
		return string(d)
	}
}

// ParseDomain accepts the canonical name and its snake/kebab spellings.
func ParseDomain(s string) (Domain, bool) {
	switch s {
	case "pms":
		return DomainPMS, true
	case "digitalKey", "digital_key", "digital-key", "digitalkey":
		return DomainDigitalKey, true
	case "spa":
		return DomainSpa, true
	}
	return "", false
}

type ProviderConfig struct {
	HotelID   int64          `json:"hotelId"`
	Domain    Domain         `json:"domain"`
	Provider  string         `json:"provider"`
	Config    map[string]any `json:"config"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ConfigUpdate is a staff-facing edit of one provider config row.
// Config replaces the whole map; ConfigPatch is merged key by key
// (nil deletes, "" is ignored) and only applies when Config is nil.
type ConfigUpdate struct {
	Provider    *string        `json:"provider,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	ConfigPatch map[string]any `json:"configPatch,omitempty"`
}

// IntegrationHealth reports which connectors have been constructed. It never probes the network.
type IntegrationHealth struct {
	PMS         bool      `json:"pms"`
	Payment     bool      `json:"payment"`
	DigitalKey  bool      `json:"digitalKey"`
	Spa         bool      `json:"spa"`
	OCR         bool      `json:"ocr"`
	AIConcierge bool      `json:"aiConcierge"`
	Timestamp   time.Time `json:"timestamp"`
}
