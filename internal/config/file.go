package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// configPath falls back to the CONFIG environment variable.
func configPath(f *strFlag) string {
	if f.v != "" {
		return f.v
	}
	return os.Getenv("CONFIG")
}

// loadFile decodes path into dst, as YAML for .yaml/.yml files and JSON otherwise.
func loadFile(path string, dst any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, dst)
	default:
		err = decodeJSON(b, dst)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ReadSettings loads a free-form service configuration file.
func ReadSettings(path string) (map[string]any, error) {
	var settings map[string]any
	if err := loadFile(path, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func decodeJSON(b []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(dst)
}

func fileDuration(v *string, flagSet bool, dst *time.Duration) error {
	if v == nil || flagSet {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s env var: %w", name, err)
	}
	*dst = d
	return nil
}
