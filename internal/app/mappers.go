package app

import (
	"hotel_connect/internal/adapters/digitalkey"
	"hotel_connect/internal/adapters/pms"
	"hotel_connect/internal/adapters/spa"
	"hotel_connect/internal/domain"
)

// MergeConfig applies a patch key by key: nil deletes the key, "" leaves the
// current value alone, anything else overwrites or adds. base is not modified.
func MergeConfig(base, patch map[string]any) map[string]any {
	out := copyConfig(base)
	for k, v := range patch {
		switch tv := v.(type) {
		case nil:
			delete(out, k)
		case string:
			if tv == "" {
				continue
			}
			out[k] = tv
		default:
			out[k] = v
		}
	}
	return out
}

func copyConfig(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// applyUpdate maps a staff edit onto the stored row. A full Config replaces
// everything; otherwise ConfigPatch is merged.
func applyUpdate(cur domain.ProviderConfig, u domain.ConfigUpdate) domain.ProviderConfig {
	next := cur
	if u.Provider != nil {
		next.Provider = *u.Provider
	}
	switch {
	case u.Config != nil:
		next.Config = copyConfig(u.Config)
	case u.ConfigPatch != nil:
		next.Config = MergeConfig(cur.Config, u.ConfigPatch)
	default:
		next.Config = copyConfig(cur.Config)
	}
	return next
}

// checkTyped decodes cfg into the provider's typed config record. Only types
// are checked here; required keys are enforced when a connector is built.
func checkTyped(d domain.Domain, provider string, cfg map[string]any) error {
	var err error
	switch d {
	case domain.DomainPMS:
		_, err = pms.ParseConfig(provider, cfg)
	case domain.DomainDigitalKey:
		_, err = digitalkey.ParseConfig(provider, cfg)
	case domain.DomainSpa:
		_, err = spa.ParseConfig(provider, cfg)
	}
	return err
}
