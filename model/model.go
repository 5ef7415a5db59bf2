// Package model contains core data types for the project.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultHost is used when a network location is given as a bare port.
const DefaultHost = "localhost"

var (
	ErrInvalidNetloc    = errors.New("invalid network location")
	ErrEmptyMeasurement = errors.New("measurement must not be empty")
	ErrEmptyFields      = errors.New("fields must not be empty")
	ErrUnsupportedField = errors.New("unsupported field value")
)

// Netloc identifies a reachable endpoint. It is comparable and used as a map key.
type Netloc struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ParseNetloc parses "host:port" or a bare port, in which case DefaultHost is assumed.
func ParseNetloc(s string) (Netloc, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Netloc{}, fmt.Errorf("%w: empty", ErrInvalidNetloc)
	}

	host, portStr := DefaultHost, s
	if strings.Contains(s, ":") {
		h, p, err := net.SplitHostPort(s)
		if err != nil {
			return Netloc{}, fmt.Errorf("%w: %q: %v", ErrInvalidNetloc, s, err)
		}
		host, portStr = h, p
		if host == "" {
			host = DefaultHost
		}
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return Netloc{}, fmt.Errorf("%w: bad port in %q", ErrInvalidNetloc, s)
	}
	return Netloc{Host: host, Port: port}, nil
}

// String returns the canonical "host:port" form.
func (n Netloc) String() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

// Tags are string labels attached to every point of a source.
type Tags map[string]string

// Fields maps field names to values of kind int64, float64, string or bool.
type Fields map[string]any

// NormalizeFields converts decoded JSON values into the supported field kinds.
// Integral json.Number values become int64, other numbers float64.
func NormalizeFields(in map[string]any) (Fields, error) {
	out := make(Fields, len(in))
	for k, v := range in {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedField, val.String())
		}
		return f, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64, float64, string, bool:
		return val, nil
	case float32:
		return float64(val), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedField, v)
	}
}

// Filter returns the intersection of f and requested. An empty request keeps everything.
func (f Fields) Filter(requested []string) Fields {
	if len(requested) == 0 {
		return f
	}
	out := make(Fields, len(requested))
	for _, name := range requested {
		if v, ok := f[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Point is one timestamped measurement sample ready for persistence.
type Point struct {
	Measurement string    `json:"measurement"`
	Time        time.Time `json:"time"`
	Tags        Tags      `json:"tags,omitempty"`
	Fields      Fields    `json:"fields"`
}

// Validate checks the point invariants.
func (p Point) Validate() error {
	if p.Measurement == "" {
		return ErrEmptyMeasurement
	}
	if len(p.Fields) == 0 {
		return ErrEmptyFields
	}
	return nil
}

// Batch is the unit moved through the shared queue.
type Batch []Point
