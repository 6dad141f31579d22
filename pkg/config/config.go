// Package config loads the deck configuration consumed by the packer.
//
// The canonical format is JSON, matching the upstream voxel pipeline; TOML
// and YAML are accepted as well and selected by file extension. Extents are
// given in metres together with a grid unit; the packer works purely in
// cells, so the configuration converts itself into area parameters.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/deckpack/pkg/core/area"
	"github.com/matzehuels/deckpack/pkg/errors"
)

// Config is the deck configuration document.
type Config struct {
	// Name labels the deck, for reporting only.
	Name string `json:"name,omitempty" toml:"name" yaml:"name"`

	GridSize    GridSize    `json:"grid_size" toml:"grid_size" yaml:"grid_size"`
	Constraints Constraints `json:"constraints" toml:"constraints" yaml:"constraints"`
}

// GridSize is the deck extent in metres plus the cell size.
type GridSize struct {
	Width    float64 `json:"width" toml:"width" yaml:"width"`
	Height   float64 `json:"height" toml:"height" yaml:"height"`
	GridUnit float64 `json:"grid_unit" toml:"grid_unit" yaml:"grid_unit"`
}

// Margin reserves cell bands at the deck edges.
type Margin struct {
	Bow   int `json:"bow" toml:"bow" yaml:"bow"`
	Stern int `json:"stern" toml:"stern" yaml:"stern"`
}

// Constraints are the placement rules, in cells.
type Constraints struct {
	Margin           Margin `json:"margin" toml:"margin" yaml:"margin"`
	BlockClearance   int    `json:"block_clearance" toml:"block_clearance" yaml:"block_clearance"`
	RingBowClearance int    `json:"ring_bow_clearance" toml:"ring_bow_clearance" yaml:"ring_bow_clearance"`
}

// Load reads a configuration file, picking the decoder by extension
// (.json, .toml, .yaml, .yml).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "config %s not found", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return &cfg, nil
}

// Validate checks the metric-level fields. Cell-level consistency is
// checked again by the area parameters.
func (c *Config) Validate() error {
	if c.GridSize.Width <= 0 || c.GridSize.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "deck extent must be positive, got %.2fx%.2f",
			c.GridSize.Width, c.GridSize.Height)
	}
	if c.GridSize.GridUnit <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "grid unit must be positive, got %.2f", c.GridSize.GridUnit)
	}
	if c.Constraints.Margin.Bow < 0 || c.Constraints.Margin.Stern < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "margins cannot be negative")
	}
	if c.Constraints.BlockClearance < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "block clearance cannot be negative")
	}
	if c.Constraints.RingBowClearance < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "ring bow clearance cannot be negative")
	}
	return nil
}

// AreaParams converts the configuration into cell-level area parameters.
func (c *Config) AreaParams() (area.Params, error) {
	p := area.Params{
		Width:            int(c.GridSize.Width / c.GridSize.GridUnit),
		Height:           int(c.GridSize.Height / c.GridSize.GridUnit),
		BowClearance:     c.Constraints.Margin.Bow,
		SternClearance:   c.Constraints.Margin.Stern,
		BlockSpacing:     c.Constraints.BlockClearance,
		RingBowClearance: c.Constraints.RingBowClearance,
	}
	if err := p.Validate(); err != nil {
		return area.Params{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "deck parameters")
	}
	return p, nil
}
