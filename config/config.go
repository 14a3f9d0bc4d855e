// Package config defines the YAML configuration file of the frameskip tool.
package config

import (
	"github.com/xaionaro-go/avframeskip/skipper"
)

// Config is the top-level configuration file layout.
//
// Example:
//
//	log_level: debug
//	frame_skipping:
//	  mode: ratio
//	  source_frame_rate: 30000/1001
//	  target_frame_rate: 24
//	metrics:
//	  listen_addr: 127.0.0.1:9090
type Config struct {
	LogLevel      string         `yaml:"log_level"`
	FrameSkipping skipper.Config `yaml:"frame_skipping"`
	Metrics       MetricsConfig  `yaml:"metrics"`
}

type MetricsConfig struct {
	// ListenAddr is the address the Prometheus endpoint is served on;
	// empty disables it.
	ListenAddr string `yaml:"listen_addr"`
}
