package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Read reads a fit config from the given file, expanding ${VAR} references from the environment
// before parsing.
func Read(filePath string) (*FitConfig, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf))
}

// FromReader parses and validates a fit config from r. The document may use JSON5 syntax
// (comments, trailing commas, unquoted keys). originalPath is used in errors and to resolve
// relative paths.
func FromReader(originalPath string, r io.Reader) (*FitConfig, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var raw interface{}
	if err := json5.Unmarshal(buf, &raw); err != nil {
		return nil, errors.Wrapf(err, "cannot unmarshal config %q", originalPath)
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.Models = nil
	dec := json.NewDecoder(bytes.NewReader(normalized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot unmarshal config %q", originalPath)
	}
	cfg.ConfigFilePath = originalPath
	if err := cfg.Validate(originalPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write writes cfg as indented JSON.
func Write(w io.Writer, cfg *FitConfig) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
