/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix for environment variables used to configure streamlink
	EnvPrefix = "STREAMLINK_"

	// DefaultURL is the gesture stream endpoint of the inference backend
	DefaultURL = "ws://localhost:8000/ws/gesture/"
)

// Config holds all configuration for streamlink
type Config struct {
	Stream    StreamConfig    `koanf:"stream"`
	Reconnect ReconnectConfig `koanf:"reconnect"`
	Logging   LoggingConfig   `koanf:"logging"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Control   ControlConfig   `koanf:"control"`
	Journal   JournalConfig   `koanf:"journal"`
	Gesture   GestureConfig   `koanf:"gesture"`
}

// StreamConfig holds the endpoint and transport settings
type StreamConfig struct {
	URL                string            `koanf:"url"`
	HandshakeTimeout   time.Duration     `koanf:"handshake_timeout"`
	PingInterval       time.Duration     `koanf:"ping_interval"`
	PongWait           time.Duration     `koanf:"pong_wait"`
	ReadLimit          int64             `koanf:"read_limit"`
	Headers            map[string]string `koanf:"headers"`
	InsecureSkipVerify bool              `koanf:"insecure_skip_verify"`
}

// ReconnectConfig holds the retry backoff settings
type ReconnectConfig struct {
	BaseDelay time.Duration `koanf:"base_delay"`
	MaxDelay  time.Duration `koanf:"max_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "text"
}

// MetricsConfig holds Prometheus metrics server configuration
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	Port    int  `koanf:"port"`
}

// ControlConfig holds the control API configuration
type ControlConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// JournalConfig holds the message journal configuration
type JournalConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// GestureConfig holds settings of the gesture prediction listener
type GestureConfig struct {
	LabelsFile string `koanf:"labels_file"` // Optional YAML file mapping classes to names
}

// LoadConfig loads configuration from file, environment variables, and defaults.
// Priority: Environment variables > Config file > Defaults. A missing file is
// not an error so that streamlink can run from defaults and env alone.
func LoadConfig(configPath string) (*Config, error) {
	cfg := defaultConfig()

	k := koanf.New(".")

	if configPath != "" && Exists(configPath) {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Load environment variables with prefix
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)

		switch s {
		case "url":
			return "stream.url"
		default:
			// Step 1: Convert double underscore "__" into a temporary placeholder
			s = strings.ReplaceAll(s, "__", "%UNDERSCORE%")
			// Step 2: Convert single "_" into "."
			s = strings.ReplaceAll(s, "_", ".")
			// Step 3: Convert placeholder back into literal "_"
			s = strings.ReplaceAll(s, "%UNDERSCORE%", "_")
			return s
		}
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Unmarshal into Config struct with DecodeHook for duration strings
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "koanf",
			WeaklyTypedInput: true,
			Result:           cfg,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values
func defaultConfig() *Config {
	return &Config{
		Stream: StreamConfig{
			URL:              DefaultURL,
			HandshakeTimeout: 10 * time.Second,
			PingInterval:     0,
			PongWait:         0,
			ReadLimit:        1 << 20,
			Headers:          map[string]string{},
		},
		Reconnect: ReconnectConfig{
			BaseDelay: 1 * time.Second,
			MaxDelay:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9091,
		},
		Control: ControlConfig{
			Enabled:         true,
			Port:            9092,
			ShutdownTimeout: 15 * time.Second,
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    "./data/streamlink.db",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateStreamConfig(); err != nil {
		return err
	}
	if err := c.validateReconnectConfig(); err != nil {
		return err
	}

	// Validate log level
	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	isValidLevel := false
	for _, level := range validLevels {
		if strings.ToLower(c.Logging.Level) == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got: %s", c.Logging.Level)
	}

	// Validate log format
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be either 'json' or 'text', got: %s", c.Logging.Format)
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be between 1 and 65535, got: %d", c.Metrics.Port)
		}
	}

	if c.Control.Enabled {
		if c.Control.Port < 1 || c.Control.Port > 65535 {
			return fmt.Errorf("control.port must be between 1 and 65535, got: %d", c.Control.Port)
		}
		if c.Metrics.Enabled && c.Metrics.Port == c.Control.Port {
			return fmt.Errorf("control.port and metrics.port must differ, both are %d", c.Control.Port)
		}
	}

	if c.Control.ShutdownTimeout <= 0 {
		return fmt.Errorf("control.shutdown_timeout must be positive, got: %s", c.Control.ShutdownTimeout)
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required when journal is enabled")
	}

	if f := c.Gesture.LabelsFile; f != "" {
		switch strings.ToLower(filepath.Ext(f)) {
		case ".yaml", ".yml", ".json":
		default:
			return fmt.Errorf("gesture.labels_file must be a .yaml, .yml or .json file, got: %s", f)
		}
	}

	return nil
}

// validateStreamConfig validates the endpoint and transport settings
func (c *Config) validateStreamConfig() error {
	if c.Stream.URL == "" {
		return fmt.Errorf("stream.url is required")
	}

	u, err := url.Parse(c.Stream.URL)
	if err != nil {
		return fmt.Errorf("stream.url is invalid: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("stream.url must use ws or wss scheme, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("stream.url must include a host")
	}

	if c.Stream.HandshakeTimeout <= 0 {
		return fmt.Errorf("stream.handshake_timeout must be positive, got: %s", c.Stream.HandshakeTimeout)
	}
	if c.Stream.PingInterval < 0 || c.Stream.PongWait < 0 {
		return fmt.Errorf("stream.ping_interval and stream.pong_wait must not be negative")
	}
	if c.Stream.PingInterval > 0 && c.Stream.PongWait > 0 && c.Stream.PingInterval >= c.Stream.PongWait {
		return fmt.Errorf("stream.ping_interval (%s) must be less than stream.pong_wait (%s)",
			c.Stream.PingInterval, c.Stream.PongWait)
	}
	if c.Stream.ReadLimit < 0 {
		return fmt.Errorf("stream.read_limit must not be negative, got: %d", c.Stream.ReadLimit)
	}

	return nil
}

// validateReconnectConfig validates the retry backoff settings
func (c *Config) validateReconnectConfig() error {
	if c.Reconnect.BaseDelay <= 0 {
		return fmt.Errorf("reconnect.base_delay must be positive, got: %s", c.Reconnect.BaseDelay)
	}
	if c.Reconnect.MaxDelay <= 0 {
		return fmt.Errorf("reconnect.max_delay must be positive, got: %s", c.Reconnect.MaxDelay)
	}
	if c.Reconnect.BaseDelay > c.Reconnect.MaxDelay {
		return fmt.Errorf("reconnect.base_delay (%s) must be <= reconnect.max_delay (%s)",
			c.Reconnect.BaseDelay, c.Reconnect.MaxDelay)
	}
	return nil
}

// Exists reports whether a config file is present at path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
