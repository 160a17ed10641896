// Package config loads the optional YAML configuration file of
// msl-equipment-validate.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/MSLNZ/msl-equipment-sub004/diag"
)

const (
	// ProjectFile is looked for in the working directory.
	ProjectFile = ".msl-equipment-validate.yaml"
	// UserDir is the directory below os.UserConfigDir holding UserFile.
	UserDir = "msl-equipment-validate"
	// UserFile is the name of the user-level config file.
	UserFile = "config.yaml"
)

// Config mirrors the command-line flags.
type Config struct {
	Schema            string   `yaml:"schema"`
	ConnectionsSchema string   `yaml:"connections_schema"`
	Roots             []string `yaml:"roots"`
	Link              string   `yaml:"link"`
	ExitFirst         bool     `yaml:"exit_first"`
	SkipChecksum      bool     `yaml:"skip_checksum"`
	NoColour          bool     `yaml:"no_colour"`
	Verbosity         int      `yaml:"verbosity"`
	// Include lists the paths validated when none are given on the command
	// line.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	Report  string   `yaml:"report"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{}
}

// Validate checks values that cannot be expressed by the YAML types.
func (c *Config) Validate() error {
	if _, err := diag.ParseScheme(c.Link); err != nil {
		return fmt.Errorf("config %s: link: %w", c.displayPath(), err)
	}
	return nil
}

// Scheme is the parsed link scheme. Call Validate first.
func (c *Config) Scheme() diag.URIScheme {
	s, _ := diag.ParseScheme(c.Link)
	return s
}

func (c *Config) displayPath() string {
	if c.Path == "" {
		return "<defaults>"
	}
	return c.Path
}

// LoadFile decodes path on top of the defaults. Unknown keys are errors.
// Relative schema, root, include and report paths are resolved against the
// directory of path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Path = path
	cfg.resolve(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Schema = abs(c.Schema)
	c.ConnectionsSchema = abs(c.ConnectionsSchema)
	c.Report = abs(c.Report)
	for i, r := range c.Roots {
		c.Roots[i] = abs(r)
	}
	for i, p := range c.Include {
		c.Include[i] = abs(p)
	}
}
