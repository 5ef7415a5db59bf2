package dataservice

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/and161185/lab-data-logger/internal/errs"
	"gopkg.in/yaml.v3"
)

// MergeConfig applies overrides on top of dst, which must be a pointer to a
// fresh copy of the service defaults. Unknown keys are rejected.
func MergeConfig(dst any, overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}

	raw, err := yaml.Marshal(plain(overrides))
	if err != nil {
		return fmt.Errorf("%w: encode service config: %v", errs.ErrConfiguration, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: service config: %v", errs.ErrConfiguration, err)
	}
	return nil
}

// plain turns json.Number values, as decoded from RPC bodies, into numbers the
// YAML encoder writes unquoted.
func plain(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = plain(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = plain(vv)
		}
		return out
	default:
		return v
	}
}
