package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/xaionaro-go/avframeskip/logger"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// An empty input yields the zero configuration.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" {
		if _, err := logger.LevelFromString(cfg.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("log_level: %w", err))
		}
	}

	if err := cfg.FrameSkipping.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("frame_skipping: %w", err))
	}

	if cfg.Metrics.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddr); err != nil {
			errs = append(errs, fmt.Errorf("metrics.listen_addr %q is invalid: %w", cfg.Metrics.ListenAddr, err))
		}
	}

	return errors.Join(errs...)
}
