// Package config loads the YAML configuration of the preset server.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Source kinds understood by source.NewRepository.
const (
	KindFile  = "fs"
	KindGit   = "git"
	KindHTTP  = "http"
	KindS3    = "s3"
	KindGCS   = "gcs"
	KindEmbed = "builtin"
)

var (
	ErrInvalidConfig = errors.New("invalid config")

	// Names that collide with the server's own endpoints.
	reservedNames = map[string]bool{"health": true, "ready": true, "status": true, "metrics": true}
)

// Source describes one preset repository.
type Source struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Path     string `yaml:"path"`     // Directory (fs) or directory within the repository (git).
	URL      string `yaml:"url"`      // Clone URL (git), base URL (http) or endpoint override (s3).
	Branch   string `yaml:"branch"`   // git only.
	Username string `yaml:"username"` // git basic auth.
	Password string `yaml:"password"` // git basic auth.
	Bucket   string `yaml:"bucket"`   // s3 and gcs.
	Prefix   string `yaml:"prefix"`   // s3 and gcs.
	Region   string `yaml:"region"`   // s3 only.
	APIKey   string `yaml:"api_key"`  // http only.
}

// Config is the server configuration file.
type Config struct {
	Listen          string        `yaml:"listen"`
	AuthKey         string        `yaml:"auth_key"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	Sources         []Source      `yaml:"sources"`
}

// Load reads the YAML file at path, applies defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = 30 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// Validate checks that every source is complete for its kind and that
// source names are unique.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("%w: no sources", ErrInvalidConfig)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	var errs []error
	seen := map[string]bool{}
	for i, s := range c.Sources {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("%w: source %d has no name", ErrInvalidConfig, i))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("%w: duplicate source name %q", ErrInvalidConfig, s.Name))
		}
		seen[s.Name] = true
		if reservedNames[s.Name] {
			errs = append(errs, fmt.Errorf("%w: source name %q is reserved", ErrInvalidConfig, s.Name))
		}
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate checks the fields required by the source's kind.
func (s Source) Validate() error {
	missing := func(field string) error {
		return fmt.Errorf("%w: source %q (%s) requires %s", ErrInvalidConfig, s.Name, s.Kind, field)
	}
	switch s.Kind {
	case KindFile:
		if s.Path == "" {
			return missing("path")
		}
	case KindGit, KindHTTP:
		if s.URL == "" {
			return missing("url")
		}
	case KindS3, KindGCS:
		if s.Bucket == "" {
			return missing("bucket")
		}
	case KindEmbed:
	default:
		return fmt.Errorf("%w: source %q has unknown kind %q", ErrInvalidConfig, s.Name, s.Kind)
	}
	return nil
}

// ConfigureLogging sets the logrus level and formatter.
func ConfigureLogging(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	if format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
