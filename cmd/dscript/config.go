package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the dscript configuration file (~/.config/dscript/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	// Decoding defaults
	Platform string `yaml:"platform"`
	Version  *int64 `yaml:"version"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress     string   `yaml:"server_address"`
	MaxUploadBytes    *int64   `yaml:"max_upload_bytes"`
	MaxContainerBytes *int64   `yaml:"max_container_bytes"`
	RateLimit         *float64 `yaml:"rate_limit"`
	RateBurst         *int64   `yaml:"rate_burst"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dscript", "config.yaml")
}

// applyLogConfig applies config file defaults to the global logging flags.
func applyLogConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyPackageConfig applies config file defaults to the package selection
// flags when the corresponding CLI flag was not explicitly set.
func applyPackageConfig(c *cli.Command, cfg Config) {
	if cfg.Platform != "" && !c.IsSet("platform") {
		platformName = cfg.Platform
	}
	if cfg.Version != nil && !c.IsSet("version") {
		packageVersion = *cfg.Version
	}
}

// serveSettings points at the serve command's flag destinations.
type serveSettings struct {
	addr      *string
	maxUpload *int64
	maxPlain  *int64
	rateLimit *float64
	rateBurst *int64
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, s serveSettings) {
	applyPackageConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*s.addr = cfg.ServerAddress
	}
	if cfg.MaxUploadBytes != nil && !c.IsSet("max-upload-bytes") {
		*s.maxUpload = *cfg.MaxUploadBytes
	}
	if cfg.MaxContainerBytes != nil && !c.IsSet("max-container-bytes") {
		*s.maxPlain = *cfg.MaxContainerBytes
	}
	if cfg.RateLimit != nil && !c.IsSet("rate-limit") {
		*s.rateLimit = *cfg.RateLimit
	}
	if cfg.RateBurst != nil && !c.IsSet("rate-burst") {
		*s.rateBurst = *cfg.RateBurst
	}
}

// LoadConfig reads the config file at path, or the default location when path
// is empty. A missing default file yields a zero Config; an explicit path must
// exist and every file present must parse.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
		if path == "" {
			return Config{}, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
