// Package config loads service settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/p1sangmas/SmartColorizer/internal/colorize"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Model    Model    `yaml:"model"`
	Colorize Colorize `yaml:"colorize"`
	Log      Log      `yaml:"log"`
}

type Server struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type Model struct {
	Path          string `yaml:"path"`
	MetadataPath  string `yaml:"metadata_path"`
	SharedLibrary string `yaml:"shared_library"`
	InputName     string `yaml:"input_name"`
	OutputName    string `yaml:"output_name"`
}

type Colorize struct {
	Workers       int    `yaml:"workers"`
	WhitePoint    string `yaml:"white_point"`
	GrayTransform string `yaml:"gray_transform"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: Server{
			Addr:           ":8080",
			MaxUploadBytes: 10 << 20,
		},
		Model: Model{
			Path: "models/colorization_model.onnx",
		},
		Colorize: Colorize{
			WhitePoint:    "d65",
			GrayTransform: "perceptual",
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path over the defaults (a missing path is allowed when empty),
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if port, ok := lookup("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	if v, ok := lookup("MODEL_PATH"); ok && v != "" {
		c.Model.Path = v
	}
	if v, ok := lookup("MODEL_METADATA_PATH"); ok && v != "" {
		c.Model.MetadataPath = v
	}
	if v, ok := lookup("ORT_SHARED_LIBRARY"); ok && v != "" {
		c.Model.SharedLibrary = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("COLORIZE_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COLORIZE_WORKERS: %w", err)
		}
		c.Colorize.Workers = n
	}
	return nil
}

// Validate rejects values the pipeline cannot use.
func (c Config) Validate() error {
	var errs []error
	if c.Model.Path == "" {
		errs = append(errs, errors.New("model.path is required"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes))
	}
	if c.Colorize.Workers < 0 {
		errs = append(errs, fmt.Errorf("colorize.workers must not be negative, got %d", c.Colorize.Workers))
	}
	if _, err := colorize.ParseWhitePoint(c.Colorize.WhitePoint); err != nil {
		errs = append(errs, fmt.Errorf("colorize.white_point: %w", err))
	}
	if _, err := colorize.ParseGrayTransform(c.Colorize.GrayTransform); err != nil {
		errs = append(errs, fmt.Errorf("colorize.gray_transform: %w", err))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Options converts the colorize section into pipeline options.
func (c Colorize) Options() (colorize.Options, error) {
	wp, err := colorize.ParseWhitePoint(c.WhitePoint)
	if err != nil {
		return colorize.Options{}, fmt.Errorf("colorize.white_point: %w", err)
	}
	gt, err := colorize.ParseGrayTransform(c.GrayTransform)
	if err != nil {
		return colorize.Options{}, fmt.Errorf("colorize.gray_transform: %w", err)
	}
	return colorize.Options{WhitePoint: wp, GrayTransform: gt, Workers: c.Workers}, nil
}
