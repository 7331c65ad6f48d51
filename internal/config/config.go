// Package config provides configuration management for snipconv.
// It supports YAML or TOML configuration files, .env files, environment
// variables, and sensible defaults.
//
// Precedence, lowest to highest: defaults, config file, environment
// (including variables loaded from an env file), command-line flags.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/klauern/snipconv/internal/model"
	"github.com/klauern/snipconv/internal/parser"
	"github.com/klauern/snipconv/internal/snipmate"
	"github.com/klauern/snipconv/internal/util"
)

// Config represents the complete snipconv configuration.
type Config struct {
	// Source configures input discovery
	Source SourceConfig `yaml:"source" toml:"source"`

	// Output configures what gets written and how it is displayed
	Output OutputConfig `yaml:"output" toml:"output"`
}

// SourceConfig holds input settings.
type SourceConfig struct {
	// Formats maps file extensions to source formats (textmate, sublime).
	// Entries from a config file are merged over the defaults; an empty
	// format disables an extension.
	Formats map[string]string `yaml:"formats" toml:"formats"`
	// Recursive scans subdirectories of the source directory
	Recursive bool `yaml:"recursive" toml:"recursive"`
}

// OutputConfig holds output and display preferences.
type OutputConfig struct {
	// Layout is per-snippet or namespace
	Layout string `yaml:"layout" toml:"layout"`
	// Extension is the output file extension
	Extension string `yaml:"extension" toml:"extension"`
	// Domain is appended to namespaces in the namespace layout
	Domain string `yaml:"domain,omitempty" toml:"domain,omitempty"`
	// Color controls color output (auto, always, never)
	Color string `yaml:"color" toml:"color"`
}

// Default returns the default configuration.
func Default() *Config {
	formats := make(map[string]string)
	for ext, f := range parser.DefaultFormats() {
		formats[ext] = f.String()
	}

	return &Config{
		Source: SourceConfig{
			Formats:   formats,
			Recursive: false,
		},
		Output: OutputConfig{
			Layout:    model.LayoutPerSnippet.String(),
			Extension: snipmate.DefaultExtension,
			Color:     "auto",
		},
	}
}

// Config file names, in lookup order.
const (
	configFileName     = "config.yaml"
	tomlConfigFileName = "config.toml"
)

// FilePath returns the path to the default config file.
func FilePath() string {
	return filepath.Join(util.ConfigDir(), configFileName)
}

// Load loads the configuration from the default location, merging with
// defaults. config.yaml is preferred over config.toml. If neither exists the
// defaults (with environment overrides) are returned.
func Load() (*Config, error) {
	for _, name := range []string{configFileName, tomlConfigFileName} {
		path := filepath.Join(util.ConfigDir(), name)
		if _, err := os.Stat(path); err == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.applyEnvironment()
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path. The format is
// chosen by extension: .toml for TOML, anything else is YAML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// LoadEnvFile loads KEY=value pairs from path into the process environment.
// Variables already set in the environment are not overwritten.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %q: %w", path, err)
	}
	return nil
}

// Marshal encodes the configuration as "yaml" or "toml".
func (c *Config) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		return yaml.Marshal(c)
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported config format %q (use yaml or toml)", format)
	}
}

// Save writes the configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveToPath(FilePath())
}

// SaveToPath writes the configuration to a specific path, as TOML when the
// path ends in .toml and YAML otherwise.
func (c *Config) SaveToPath(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	format := "yaml"
	if isTOML(path) {
		format = "toml"
	}
	data, err := c.Marshal(format)
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if _, err := model.ParseLayout(c.Output.Layout); err != nil {
		return err
	}
	if _, err := c.SourceFormats(); err != nil {
		return err
	}
	switch c.Output.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("invalid output.color %q (use auto, always or never)", c.Output.Color)
	}
	return nil
}

// SourceFormats returns the configured extension mapping. Extensions mapped
// to an empty format are left out.
func (c *Config) SourceFormats() (map[string]model.SourceFormat, error) {
	exts := make([]string, 0, len(c.Source.Formats))
	for ext := range c.Source.Formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	formats := make(map[string]model.SourceFormat, len(exts))
	for _, ext := range exts {
		name := strings.TrimSpace(c.Source.Formats[ext])
		if name == "" {
			continue
		}
		f, err := model.ParseSourceFormat(name)
		if err != nil {
			return nil, fmt.Errorf("source.formats[%q]: %w", ext, err)
		}
		formats[ext] = f
	}
	return formats, nil
}

// GetLayout returns the configured layout, falling back to per-snippet.
func (c *Config) GetLayout() model.Layout {
	layout, err := model.ParseLayout(c.Output.Layout)
	if err != nil {
		return model.LayoutPerSnippet
	}
	return layout
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern SNIPCONV_<KEY>.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("SNIPCONV_RECURSIVE"); v != "" {
		c.Source.Recursive = parseBool(v)
	}
	if v := os.Getenv("SNIPCONV_LAYOUT"); v != "" {
		c.Output.Layout = v
	}
	if v := os.Getenv("SNIPCONV_EXTENSION"); v != "" {
		c.Output.Extension = v
	}
	if v := os.Getenv("SNIPCONV_DOMAIN"); v != "" {
		c.Output.Domain = v
	}
	if v := os.Getenv("SNIPCONV_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Exists returns true if a config file exists at the default location.
func Exists() bool {
	for _, name := range []string{configFileName, tomlConfigFileName} {
		if _, err := os.Stat(filepath.Join(util.ConfigDir(), name)); err == nil {
			return true
		}
	}
	return false
}
