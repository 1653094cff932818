// Package config reads ardan.json, the flat project file spec.md §6
// describes ("Flat key/value file with at least main: <path>"). No
// third-party config library appears anywhere in the retrieved example
// pack for this shape of file, so this is plain encoding/json (see
// DESIGN.md).
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is ardan.json's contents. Unknown keys are preserved in Extra so
// a future field doesn't need a new struct field to round-trip.
type Config struct {
	Main  string                 `json:"main"`
	Extra map[string]interface{} `json:"-"`
}

// Load reads and parses the ardan.json file at path, resolving Main
// relative to path's directory (spec.md §6 "Paths are resolved relative
// to the file's directory").
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Extra = raw
	dir := filepath.Dir(path)
	if cfg.Main != "" && !filepath.IsAbs(cfg.Main) {
		cfg.Main = filepath.Join(dir, cfg.Main)
	}
	return &cfg, nil
}

// Find looks for ardan.json in dir, returning "", false if absent
// (spec.md §6 "No flags with an ardan.json in the working directory").
func Find(dir string) (string, bool) {
	path := filepath.Join(dir, "ardan.json")
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
