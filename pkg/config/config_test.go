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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a valid configuration for testing
func validConfig() *Config {
	return defaultConfig()
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfig_Validate_StreamURL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantErr     bool
		errContains string
	}{
		{name: "Valid ws", url: "ws://localhost:8000/ws/gesture/", wantErr: false},
		{name: "Valid wss", url: "wss://stream.example.com/ws/gesture/", wantErr: false},
		{name: "Empty", url: "", wantErr: true, errContains: "stream.url is required"},
		{name: "HTTP scheme", url: "http://localhost:8000/ws/gesture/", wantErr: true, errContains: "ws or wss scheme"},
		{name: "Missing host", url: "ws:///ws/gesture/", wantErr: true, errContains: "must include a host"},
		{name: "Unparseable", url: "ws://[::1", wantErr: true, errContains: "stream.url is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Stream.URL = tt.url
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate_Keepalive(t *testing.T) {
	tests := []struct {
		name         string
		pingInterval time.Duration
		pongWait     time.Duration
		wantErr      bool
	}{
		{name: "Disabled", pingInterval: 0, pongWait: 0, wantErr: false},
		{name: "Ping shorter than pong wait", pingInterval: 10 * time.Second, pongWait: 30 * time.Second, wantErr: false},
		{name: "Ping equal to pong wait", pingInterval: 30 * time.Second, pongWait: 30 * time.Second, wantErr: true},
		{name: "Negative ping", pingInterval: -time.Second, pongWait: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Stream.PingInterval = tt.pingInterval
			cfg.Stream.PongWait = tt.pongWait
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate_Reconnect(t *testing.T) {
	tests := []struct {
		name        string
		base        time.Duration
		max         time.Duration
		wantErr     bool
		errContains string
	}{
		{name: "Defaults", base: time.Second, max: 30 * time.Second, wantErr: false},
		{name: "Equal", base: 5 * time.Second, max: 5 * time.Second, wantErr: false},
		{name: "Zero base", base: 0, max: 30 * time.Second, wantErr: true, errContains: "reconnect.base_delay must be positive"},
		{name: "Zero max", base: time.Second, max: 0, wantErr: true, errContains: "reconnect.max_delay must be positive"},
		{name: "Base above max", base: time.Minute, max: 30 * time.Second, wantErr: true, errContains: "must be <= reconnect.max_delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Reconnect.BaseDelay = tt.base
			cfg.Reconnect.MaxDelay = tt.max
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate_LogLevel(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{level: "debug"},
		{level: "INFO"},
		{level: "warn"},
		{level: "warning"},
		{level: "error"},
		{level: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logging.Level = tt.level
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "logging.level must be one of")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate_LogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "text"
	assert.NoError(t, cfg.Validate())

	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format must be either")
}

func TestConfig_Validate_Ports(t *testing.T) {
	tests := []struct {
		name           string
		metricsEnabled bool
		metricsPort    int
		controlEnabled bool
		controlPort    int
		wantErr        bool
		errContains    string
	}{
		{name: "Defaults", metricsEnabled: true, metricsPort: 9091, controlEnabled: true, controlPort: 9092},
		{name: "Metrics port too high", metricsEnabled: true, metricsPort: 70000, wantErr: true, errContains: "metrics.port must be between"},
		{name: "Metrics disabled ignores port", metricsEnabled: false, metricsPort: 0},
		{name: "Control port too low", controlEnabled: true, controlPort: 0, wantErr: true, errContains: "control.port must be between"},
		{name: "Same port", metricsEnabled: true, metricsPort: 9000, controlEnabled: true, controlPort: 9000, wantErr: true, errContains: "must differ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Metrics.Enabled = tt.metricsEnabled
			cfg.Metrics.Port = tt.metricsPort
			cfg.Control.Enabled = tt.controlEnabled
			cfg.Control.Port = tt.controlPort
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate_Journal(t *testing.T) {
	cfg := validConfig()
	cfg.Journal.Enabled = true
	cfg.Journal.Path = ""
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "journal.path is required")

	cfg.Journal.Path = ":memory:"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_GestureLabelsFile(t *testing.T) {
	cfg := validConfig()
	cfg.Gesture.LabelsFile = "labels.txt"
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "gesture.labels_file")

	cfg.Gesture.LabelsFile = "config/gesture-labels.yaml"
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultURL, cfg.Stream.URL)
	assert.Equal(t, time.Second, cfg.Reconnect.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Reconnect.MaxDelay)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 9092, cfg.Control.Port)
	assert.False(t, cfg.Journal.Enabled)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfigFile(t, `
[stream]
url = "wss://inference.example.com/ws/gesture/"
handshake_timeout = "5s"
ping_interval = "10s"
pong_wait = "30s"

[stream.headers]
X-Stream-Client = "streamlink"

[reconnect]
base_delay = "500ms"
max_delay = "1m"

[logging]
level = "debug"
format = "text"

[journal]
enabled = true
path = "/tmp/streamlink.db"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "wss://inference.example.com/ws/gesture/", cfg.Stream.URL)
	assert.Equal(t, 5*time.Second, cfg.Stream.HandshakeTimeout)
	assert.Equal(t, 10*time.Second, cfg.Stream.PingInterval)
	assert.Equal(t, 30*time.Second, cfg.Stream.PongWait)
	assert.Equal(t, "streamlink", cfg.Stream.Headers["X-Stream-Client"])
	assert.Equal(t, 500*time.Millisecond, cfg.Reconnect.BaseDelay)
	assert.Equal(t, time.Minute, cfg.Reconnect.MaxDelay)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "/tmp/streamlink.db", cfg.Journal.Path)

	// Untouched sections keep their defaults
	assert.Equal(t, 9092, cfg.Control.Port)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
[reconnect]
base_delay = "2s"
max_delay = "10s"
`)

	t.Setenv("STREAMLINK_URL", "ws://10.0.0.5:8000/ws/gesture/")
	t.Setenv("STREAMLINK_RECONNECT_BASE__DELAY", "3s")
	t.Setenv("STREAMLINK_METRICS_ENABLED", "true")
	t.Setenv("STREAMLINK_METRICS_PORT", "9191")
	t.Setenv("STREAMLINK_GESTURE_LABELS__FILE", "/etc/streamlink/labels.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://10.0.0.5:8000/ws/gesture/", cfg.Stream.URL)
	assert.Equal(t, 3*time.Second, cfg.Reconnect.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.Reconnect.MaxDelay)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)
	assert.Equal(t, "/etc/streamlink/labels.yaml", cfg.Gesture.LabelsFile)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		errContains string
	}{
		{
			name:        "Malformed TOML",
			content:     "[stream\nurl = ",
			errContains: "failed to load config file",
		},
		{
			name:        "Bad duration",
			content:     "[reconnect]\nbase_delay = \"soon\"\n",
			errContains: "failed to unmarshal config",
		},
		{
			name:        "Wrong scheme",
			content:     "[stream]\nurl = \"http://localhost:8000/ws/gesture/\"\n",
			errContains: "invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
