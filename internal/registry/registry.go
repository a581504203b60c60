// Package registry enumerates the provider identifiers each configurable
// domain accepts, together with an example configuration per provider.
package registry

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"hotel_connect/internal/domain"
)

//go:embed templates.yaml
var templatesYAML []byte

type domainEntry struct {
	Default   string                    `yaml:"default"`
	Providers map[string]map[string]any `yaml:"providers"`
}

var entries = mustLoad(templatesYAML)

func mustLoad(b []byte) map[domain.Domain]domainEntry {
	var raw map[string]domainEntry
	if err := yaml.Unmarshal(b, &raw); err != nil {
		panic(fmt.Sprintf("registry: parse templates: %v", err))
	}
	out := make(map[domain.Domain]domainEntry, len(raw))
	for k, v := range raw {
		d, ok := domain.ParseDomain(k)
		if !ok {
			panic(fmt.Sprintf("registry: unknown domain %q in templates", k))
		}
		if _, ok := v.Providers[v.Default]; !ok {
			panic(fmt.Sprintf("registry: default provider %q of %s is not registered", v.Default, k))
		}
		out[d] = v
	}
	return out
}

// IsValidProvider reports whether id is registered for d.
func IsValidProvider(d domain.Domain, id string) bool {
	e, ok := entries[d]
	if !ok {
		return false
	}
	_, ok = e.Providers[id]
	return ok
}

// Providers returns the registered ids of d in sorted order.
func Providers(d domain.Domain) []string {
	e := entries[d]
	out := make([]string, 0, len(e.Providers))
	for id := range e.Providers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Default is the provider a hotel gets before anyone configures the domain.
func Default(d domain.Domain) string { return entries[d].Default }

// Template returns a copy of the example config for a provider.
func Template(d domain.Domain, id string) (map[string]any, bool) {
	e, ok := entries[d]
	if !ok {
		return nil, false
	}
	t, ok := e.Providers[id]
	if !ok {
		return nil, false
	}
	cp := make(map[string]any, len(t))
	for k, v := range t {
		cp[k] = v
	}
	return cp, true
}
