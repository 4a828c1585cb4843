// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/generator"
	"github.com/wippyai/cs-bindgen/loader"
	"github.com/wippyai/cs-bindgen/naming"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CSBINDGEN_"

// Config is the root configuration structure.
type Config struct {
	Module    string            `yaml:"module" toml:"module"`
	Output    string            `yaml:"output" toml:"output"`
	Namespace string            `yaml:"namespace" toml:"namespace"`
	ClassName string            `yaml:"class_name" toml:"class_name"`
	Library   string            `yaml:"library" toml:"library"`
	Header    string            `yaml:"header" toml:"header"`
	Workers   int               `yaml:"workers" toml:"workers"`
	Loader    LoaderConfig      `yaml:"loader" toml:"loader"`
	Naming    naming.Convention `yaml:"naming" toml:"naming"`
	Logging   LoggingConfig     `yaml:"logging" toml:"logging"`
}

// LoaderConfig configures declaration loading.
type LoaderConfig struct {
	Source           string `yaml:"source" toml:"source"` // "auto", "execute" or "section"
	Engine           string `yaml:"engine" toml:"engine"` // "interpreter" or "compiler"
	MemoryLimitPages uint32 `yaml:"memory_limit_pages" toml:"memory_limit_pages"`
	Section          string `yaml:"section" toml:"section"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" toml:"format"` // "console" or "json"
}

// Default returns the configuration used when no file is given. Environment
// overrides are applied.
func Default() *Config {
	var cfg Config
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg
}

// Load reads configuration from a YAML or TOML file, chosen by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read config "+path)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse config "+path)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse config "+path)
		}
	default:
		return nil, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unsupported config format %q", ext))
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides applies CSBINDGEN_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	str := map[string]*string{
		"MODULE":         &cfg.Module,
		"OUTPUT":         &cfg.Output,
		"NAMESPACE":      &cfg.Namespace,
		"CLASS_NAME":     &cfg.ClassName,
		"LIBRARY":        &cfg.Library,
		"LOADER_SOURCE":  &cfg.Loader.Source,
		"LOADER_ENGINE":  &cfg.Loader.Engine,
		"LOADER_SECTION": &cfg.Loader.Section,
		"LOG_LEVEL":      &cfg.Logging.Level,
		"LOG_FORMAT":     &cfg.Logging.Format,
	}
	for key, dst := range str {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(EnvPrefix + "WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv(EnvPrefix + "LOADER_MEMORY_LIMIT_PAGES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Loader.MemoryLimitPages = uint32(n)
		}
	}
}

func setDefaults(cfg *Config) {
	if cfg.Library == "" && cfg.Module != "" {
		base := filepath.Base(cfg.Module)
		cfg.Library = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if cfg.Loader.Source == "" {
		cfg.Loader.Source = loader.SourceAuto.String()
	}
	if cfg.Loader.Engine == "" {
		cfg.Loader.Engine = loader.EngineInterpreter.String()
	}
	if cfg.Loader.Section == "" {
		cfg.Loader.Section = loader.DefaultSectionName
	}
	cfg.Naming = cfg.Naming.WithDefaults()

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := loader.ParseSource(c.Loader.Source); err != nil {
		return invalid("loader.source", err.Error())
	}
	if _, err := loader.ParseEngine(c.Loader.Engine); err != nil {
		return invalid("loader.engine", err.Error())
	}
	if c.Workers < 0 {
		return invalid("workers", fmt.Sprintf("must not be negative, got %d", c.Workers))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return invalid("logging.level", fmt.Sprintf("must be one of debug, info, warn, error, got %q", c.Logging.Level))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return invalid("logging.format", fmt.Sprintf("must be 'console' or 'json', got %q", c.Logging.Format))
	}
	return nil
}

func invalid(key, detail string) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Path(key).
		Detail("%s", detail).
		Build()
}

// LoaderOptions converts the loader section into loader options. The config
// must have passed Validate.
func (c *Config) LoaderOptions() []loader.Option {
	src, _ := loader.ParseSource(c.Loader.Source)
	eng, _ := loader.ParseEngine(c.Loader.Engine)
	return []loader.Option{
		loader.WithSource(src),
		loader.WithEngine(eng),
		loader.WithMemoryLimitPages(c.Loader.MemoryLimitPages),
		loader.WithSectionName(c.Loader.Section),
		loader.WithConvention(c.Naming),
	}
}

// GeneratorConfig returns the generator settings.
func (c *Config) GeneratorConfig() generator.Config {
	return generator.Config{
		Namespace:  c.Namespace,
		ClassName:  c.ClassName,
		Library:    c.Library,
		Convention: c.Naming,
		Header:     c.Header,
		Workers:    c.Workers,
	}
}
