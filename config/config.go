// Package config loads inkdash settings from a YAML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/inkdash/artifact"
	"github.com/spektr-org/inkdash/dataset"
)

// DefaultPath is read when INKDASH_CONFIG is unset.
const DefaultPath = "inkdash.yaml"

// Config is the complete process configuration.
type Config struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	LogLevel        string        `yaml:"log_level" validate:"oneof=debug info warn error"`

	Data struct {
		Source     string `yaml:"source" validate:"oneof=auto parquet csv sqlite"`
		Dir        string `yaml:"dir" validate:"required"`
		SQLitePath string `yaml:"sqlite_path"`
		Watch      bool   `yaml:"watch"`
	} `yaml:"data"`

	Artifacts artifact.Options `yaml:"artifacts"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.Addr = ":8501"
	cfg.ShutdownTimeout = 10 * time.Second
	cfg.LogLevel = "info"
	cfg.Data.Source = dataset.KindAuto
	cfg.Data.Dir = "./data"
	cfg.Artifacts.Driver = artifact.DriverFilesystem
	return cfg
}

// Load reads path (or INKDASH_CONFIG, or DefaultPath) when it exists,
// applies INKDASH_* environment overrides and validates the result. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
		if envPath := os.Getenv("INKDASH_CONFIG"); envPath != "" {
			path = envPath
		}
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	// The masks sit beside the tables; the server only serves image and
	// HTML keys from this root (artifact.Restrict).
	if cfg.Artifacts.Root == "" {
		cfg.Artifacts.Root = cfg.Data.Dir
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Data.Source == dataset.KindSQLite && c.Data.SQLitePath == "" {
		return fmt.Errorf("invalid config: data.sqlite_path is required when data.source=sqlite")
	}
	if c.Artifacts.Driver == artifact.DriverS3 && c.Artifacts.S3.Bucket == "" {
		return fmt.Errorf("invalid config: artifacts.s3.bucket is required when artifacts.driver=s3")
	}
	return nil
}

// DatasetOptions converts the data section for dataset.Open.
func (c Config) DatasetOptions() dataset.Options {
	return dataset.Options{Kind: c.Data.Source, Dir: c.Data.Dir, SQLitePath: c.Data.SQLitePath}
}

func applyEnv(cfg *Config) error {
	envOverride(&cfg.Addr, "INKDASH_ADDR")
	envOverride(&cfg.LogLevel, "INKDASH_LOG_LEVEL")
	envOverride(&cfg.Data.Source, "INKDASH_DATA_SOURCE")
	envOverride(&cfg.Data.Dir, "INKDASH_DATA_DIR")
	envOverride(&cfg.Data.SQLitePath, "INKDASH_SQLITE_PATH")
	envOverride(&cfg.Artifacts.Root, "INKDASH_ARTIFACT_ROOT")
	envOverride(&cfg.Artifacts.S3.Bucket, "INKDASH_ARTIFACT_S3_BUCKET")
	envOverride(&cfg.Artifacts.S3.Region, "INKDASH_ARTIFACT_S3_REGION")
	envOverride(&cfg.Artifacts.S3.Endpoint, "INKDASH_ARTIFACT_S3_ENDPOINT")
	envOverride(&cfg.Artifacts.S3.Prefix, "INKDASH_ARTIFACT_S3_PREFIX")

	var driver string
	envOverride(&driver, "INKDASH_ARTIFACT_DRIVER")
	if driver != "" {
		cfg.Artifacts.Driver = artifact.Driver(driver)
	}
	if err := envOverrideBool(&cfg.Data.Watch, "INKDASH_DATA_WATCH"); err != nil {
		return err
	}
	if err := envOverrideBool(&cfg.Artifacts.S3.PathStyle, "INKDASH_ARTIFACT_S3_PATH_STYLE"); err != nil {
		return err
	}
	if val := os.Getenv("INKDASH_SHUTDOWN_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid INKDASH_SHUTDOWN_TIMEOUT '%s': %w", val, err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

func envOverride(field *string, envKey string) {
	if val := strings.TrimSpace(os.Getenv(envKey)); val != "" {
		*field = val
	}
}

func envOverrideBool(field *bool, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
