// Package config loads and validates the CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-tpl2pdf/internal/fileutil"
	"github.com/alnah/go-tpl2pdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigInvalid   = errors.New("invalid config value")
)

// Asset kind names accepted in config files and on the command line.
// Empty means detect from the file extension.
const (
	KindStyle  = "style"
	KindScript = "script"
)

// Config holds all configuration for PDF generation.
type Config struct {
	Template string        `yaml:"template"` // HTML template path (empty = must pass --template)
	Output   OutputConfig  `yaml:"output"`
	Assets   []AssetConfig `yaml:"assets"`
	Print    PrintConfig   `yaml:"print"`
	Workers  int           `yaml:"workers"` // parallel generators (0 = auto)
	Timeout  string        `yaml:"timeout"` // per-render timeout, Go duration string
	Strict   bool          `yaml:"strict"`  // promote diagnostics to failures
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // empty = next to the data file
}

// AssetConfig references one stylesheet or script to inject.
type AssetConfig struct {
	Path string `yaml:"path"`
	Kind string `yaml:"kind"` // "style", "script", or empty to detect
}

// PrintConfig defines PDF print options. Dimensions are millimetres;
// nil pointers mean "engine default".
type PrintConfig struct {
	Landscape         bool     `yaml:"landscape"`
	PrintBackground   bool     `yaml:"printBackground"`
	PreferCSSPageSize bool     `yaml:"preferCssPageSize"`
	PaperWidth        *float64 `yaml:"paperWidth"`
	PaperHeight       *float64 `yaml:"paperHeight"`
	MarginTop         *float64 `yaml:"marginTop"`
	MarginBottom      *float64 `yaml:"marginBottom"`
	MarginLeft        *float64 `yaml:"marginLeft"`
	MarginRight       *float64 `yaml:"marginRight"`
	PageRanges        string   `yaml:"pageRanges"`
}

// Validate checks structural constraints that do not depend on the
// filesystem. Print dimension invariants are enforced by the library's own
// option validation at render time.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrConfigInvalid, c.Workers)
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return fmt.Errorf("%w: timeout %q: %v", ErrConfigInvalid, c.Timeout, err)
		}
	}
	for i, a := range c.Assets {
		if a.Path == "" {
			return fmt.Errorf("%w: assets[%d].path is empty", ErrConfigInvalid, i)
		}
		switch strings.ToLower(a.Kind) {
		case "", KindStyle, KindScript:
		default:
			return fmt.Errorf("%w: assets[%d].kind %q (must be %s or %s)",
				ErrConfigInvalid, i, a.Kind, KindStyle, KindScript)
		}
	}
	return nil
}

// DefaultConfig returns a neutral configuration.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it is treated as a file path.
// Otherwise it is treated as a config name and searched in standard
// locations. Returns an error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, then the user config dir.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-tpl2pdf", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
