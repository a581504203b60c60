package shared

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeProviderConfig decodes a stored provider config map into its typed
// record. Keys follow the json tags of out; numbers are accepted where
// strings are expected (numeric property ids), objects and arrays are not.
func DecodeProviderConfig(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return err
	}
	return nil
}

// MissingKeys lists the names whose values are blank, in the order given.
func MissingKeys(pairs ...string) []string {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	return missing
}

// RequireKeys formats MissingKeys as an error, or nil when nothing is missing.
func RequireKeys(pairs ...string) error {
	if m := MissingKeys(pairs...); len(m) > 0 {
		return fmt.Errorf("missing required keys: %s", strings.Join(m, ", "))
	}
	return nil
}
