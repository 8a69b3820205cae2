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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	namespace = "streamlink"
)

// Metric variables start out as noops so callers are safe before Init
var (
	once     sync.Once
	registry *prometheus.Registry

	ConnectionState       GaugeVec   = noopGaugeVec{}
	ReconnectionsTotal    Counter    = noopCounter{}
	RetryDelaySeconds     Histogram  = noopHistogram{}
	MessagesReceivedTotal CounterVec = noopCounterVec{}
	TransportErrorsTotal  CounterVec = noopCounterVec{}
	ListenerPanicsTotal   Counter    = noopCounter{}

	JournalWritesTotal   CounterVec = noopCounterVec{}
	ControlRequestsTotal CounterVec = noopCounterVec{}

	Up Gauge = noopGauge{}
)

// initMetrics initializes all metric variables.
// This must be called after SetEnabled() to ensure proper noop behavior when disabled.
func initMetrics() {
	ConnectionState = newGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "Current stream connection state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)

	ReconnectionsTotal = newCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnections_total",
			Help:      "Total number of scheduled reconnection attempts",
		},
	)

	RetryDelaySeconds = newHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retry_delay_seconds",
			Help:      "Backoff delay applied before reconnection attempts",
			Buckets:   []float64{1, 2, 4, 8, 16, 30, 60},
		},
	)

	MessagesReceivedTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of inbound messages by outcome",
		},
		[]string{"status"},
	)

	TransportErrorsTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_errors_total",
			Help:      "Total number of transport failures by kind",
		},
		[]string{"kind"},
	)

	ListenerPanicsTotal = newCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listener_panics_total",
			Help:      "Total number of recovered listener panics",
		},
	)

	JournalWritesTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_writes_total",
			Help:      "Total number of journal writes by status",
		},
		[]string{"status"},
	)

	ControlRequestsTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_requests_total",
			Help:      "Total number of control API requests",
		},
		[]string{"operation", "status"},
	)

	Up = newGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "up",
			Help:      "Whether the streamlink process is up",
		},
	)
}

// register adds a real collector to the registry; noops are skipped
func register(v any) {
	if !Enabled {
		return
	}
	if c, ok := v.(prometheus.Collector); ok {
		// Already registered or other error - ignore
		_ = registry.Register(c)
	}
}

func initRegistry() {
	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	register(ConnectionState)
	register(ReconnectionsTotal)
	register(RetryDelaySeconds)
	register(MessagesReceivedTotal)
	register(TransportErrorsTotal)
	register(ListenerPanicsTotal)
	register(JournalWritesTotal)
	register(ControlRequestsTotal)
	register(Up)

	Up.Set(1)
}

// Init initializes the metrics registry with all collectors.
// This must be called after SetEnabled() has been called.
func Init() *prometheus.Registry {
	once.Do(func() {
		initMetrics()

		if !Enabled {
			registry = prometheus.NewRegistry()
			return
		}
		initRegistry()
	})

	return registry
}

// GetRegistry returns the prometheus registry
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return Init()
	}
	return registry
}
