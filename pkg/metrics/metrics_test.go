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

package metrics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/wso2/api-platform/streamlink/pkg/config"
	"go.uber.org/zap"
)

func resetOnce() (o sync.Once) {
	return
}

func resetMetrics(enabled bool) {
	once = resetOnce()
	registry = nil
	Enabled = enabled
}

func familyNames(t *testing.T, reg *prometheus.Registry) map[string]bool {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestNoopBeforeInit(t *testing.T) {
	// Package-level defaults must be usable without Init
	ConnectionState.WithLabelValues("open").Set(1)
	ReconnectionsTotal.Inc()
	RetryDelaySeconds.Observe(1)
	MessagesReceivedTotal.WithLabelValues("delivered").Inc()
}

func TestInitDisabled(t *testing.T) {
	resetMetrics(false)
	defer resetMetrics(false)

	reg := Init()
	if reg == nil {
		t.Fatal("Init() returned nil even when metrics disabled")
	}

	ConnectionState.WithLabelValues("open").Set(1)
	TransportErrorsTotal.WithLabelValues("error").Inc()

	if names := familyNames(t, reg); len(names) != 0 {
		t.Errorf("expected empty registry when disabled, got %v", names)
	}
}

func TestInitEnabled(t *testing.T) {
	resetMetrics(true)
	defer resetMetrics(false)

	reg := Init()
	if reg == nil {
		t.Fatal("Init() returned nil when metrics enabled")
	}

	ConnectionState.WithLabelValues("open").Set(1)
	ReconnectionsTotal.Inc()
	MessagesReceivedTotal.WithLabelValues("delivered").Inc()
	ListenerPanicsTotal.Inc()

	names := familyNames(t, reg)
	for _, want := range []string{
		"streamlink_connection_state",
		"streamlink_reconnections_total",
		"streamlink_messages_received_total",
		"streamlink_listener_panics_total",
		"streamlink_up",
	} {
		if !names[want] {
			t.Errorf("metric family %q not registered", want)
		}
	}
}

// findMetric returns the sample of family name whose labels include want
func findMetric(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(want) {
				return m
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, want)
	return nil
}

func TestInitEnabled_RecordsValues(t *testing.T) {
	resetMetrics(true)
	defer resetMetrics(false)

	reg := Init()

	TransportErrorsTotal.WithLabelValues("close").Inc()
	TransportErrorsTotal.WithLabelValues("close").Inc()
	ConnectionState.WithLabelValues("waiting_retry").Set(1)
	RetryDelaySeconds.Observe(2)

	if got := findMetric(t, reg, "streamlink_transport_errors_total", map[string]string{"kind": "close"}).GetCounter().GetValue(); got != 2 {
		t.Errorf("transport_errors_total{kind=close} = %v, want 2", got)
	}
	if got := findMetric(t, reg, "streamlink_connection_state", map[string]string{"state": "waiting_retry"}).GetGauge().GetValue(); got != 1 {
		t.Errorf("connection_state{state=waiting_retry} = %v, want 1", got)
	}
	h := findMetric(t, reg, "streamlink_retry_delay_seconds", nil).GetHistogram()
	if h.GetSampleCount() != 1 || h.GetSampleSum() != 2 {
		t.Errorf("retry_delay_seconds count=%d sum=%v, want 1 and 2", h.GetSampleCount(), h.GetSampleSum())
	}
}

func TestGetRegistry(t *testing.T) {
	resetMetrics(true)
	defer resetMetrics(false)

	reg := GetRegistry()
	if reg == nil {
		t.Fatal("GetRegistry() returned nil")
	}
	if reg2 := GetRegistry(); reg != reg2 {
		t.Error("GetRegistry() returned different registry on second call")
	}
}

func TestServer_StartServeStop(t *testing.T) {
	resetMetrics(true)
	defer resetMetrics(false)

	srv := NewServer(&config.MetricsConfig{Enabled: true, Port: 0}, zap.NewNop())
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	_, port, err := net.SplitHostPort(srv.Addr())
	if err != nil {
		t.Fatalf("unexpected listener address %q: %v", srv.Addr(), err)
	}
	base := fmt.Sprintf("http://127.0.0.1:%s", port)

	resp, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "streamlink_up") {
		t.Error("expected streamlink_up in metrics output")
	}

	resp, err = http.Get(base + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}
}
