package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultG1File  = "g1.dat"
	DefaultG2File  = "g2.dat"
	DefaultG3File  = "g3.dat"
	DefaultCoMFile = "com.dat"
	DefaultMode    = "concat"
)

var (
	// ErrNoCriteria indicates a config that selects no atoms at all.
	ErrNoCriteria = errors.New("config: at least one of atom_ids, mol_ids or atom_types is required")

	// ErrNoTEq indicates a config without an equilibration timestep.
	ErrNoTEq = errors.New("config: T_EQ is required")
)

// Config describes one MSD analysis. TOML and YAML files share the same
// key names. TEq is a pointer so that an absent T_EQ differs from zero.
type Config struct {
	TEq       *int64  `toml:"T_EQ" yaml:"T_EQ" validate:"required"`
	AtomIDs   []int64 `toml:"atom_ids,omitempty" yaml:"atom_ids,omitempty"`
	MolIDs    []int64 `toml:"mol_ids,omitempty" yaml:"mol_ids,omitempty"`
	AtomTypes []int64 `toml:"atom_types,omitempty" yaml:"atom_types,omitempty"`

	InputFile  string `toml:"input_file" yaml:"input_file" validate:"required"`
	G1File     string `toml:"g1_output_file" yaml:"g1_output_file" validate:"required"`
	G2File     string `toml:"g2_output_file" yaml:"g2_output_file" validate:"required"`
	G3File     string `toml:"g3_output_file" yaml:"g3_output_file" validate:"required"`
	CoMFile    string `toml:"com_output_file" yaml:"com_output_file" validate:"required"`
	CoMRemoved string `toml:"com_removed_file,omitempty" yaml:"com_removed_file,omitempty"`
	CoMTime    string `toml:"com_time,omitempty" yaml:"com_time,omitempty" validate:"omitempty,oneof=timestep lag"`

	SelectionMode string `toml:"selection_mode" yaml:"selection_mode" validate:"oneof=concat union"`
	Workers       int    `toml:"workers" yaml:"workers" validate:"gte=0"`
	LogLevel      string `toml:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
}

var validate = validator.New()

func DefaultConfig() *Config {
	return &Config{
		G1File:        DefaultG1File,
		G2File:        DefaultG2File,
		G3File:        DefaultG3File,
		CoMFile:       DefaultCoMFile,
		SelectionMode: DefaultMode,
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a config file on top of DefaultConfig. Files ending in .toml
// are TOML, anything else is YAML. The result is not validated, so that
// command line flags can fill gaps first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Int64 returns a pointer to v, for setting TEq.
func Int64(v int64) *int64 { return &v }

// Validate checks field constraints and that T_EQ and some selection
// criterion are set.
func (c *Config) Validate() error {
	if c.TEq == nil {
		return ErrNoTEq
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if len(c.AtomIDs) == 0 && len(c.MolIDs) == 0 && len(c.AtomTypes) == 0 {
		return ErrNoCriteria
	}
	return nil
}

// OutputPaths returns the g1, g2, g3 and CoM table paths, with relative
// names placed under dir.
func (c *Config) OutputPaths(dir string) (g1, g2, g3, com string) {
	resolve := func(p string) string {
		if dir == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	return resolve(c.G1File), resolve(c.G2File), resolve(c.G3File), resolve(c.CoMFile)
}
