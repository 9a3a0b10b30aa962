package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load reads, strictly decodes and normalizes the config at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(path, b)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes raw config bytes. Unknown fields and trailing tokens are
// rejected so typos surface immediately instead of silently defaulting.
func Parse(path string, raw []byte) (*Config, error) {
	jb, _, err := coerceToJSONBytes(path, raw)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
