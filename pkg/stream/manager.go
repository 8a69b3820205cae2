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

package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/wso2/api-platform/streamlink/pkg/backoff"
	"github.com/wso2/api-platform/streamlink/pkg/listener"
	"github.com/wso2/api-platform/streamlink/pkg/metrics"
	"github.com/wso2/api-platform/streamlink/pkg/scheduler"
	"github.com/wso2/api-platform/streamlink/pkg/transport"
	"go.uber.org/zap"
)

// Config holds the manager settings
type Config struct {
	URL       string              // Endpoint URL, e.g. ws://localhost:8000/ws/gesture/
	Backoff   backoff.Policy      // Retry delay policy (zero value = backoff.Default())
	Scheduler scheduler.Scheduler // Retry timer source (nil = wall clock)
}

// Manager keeps a single logical link to the endpoint alive.
// All state transitions happen under mu; the listener is always invoked
// without mu held so it may call Close or Reopen.
type Manager struct {
	url       string
	opener    transport.Opener
	scheduler scheduler.Scheduler
	backoff   backoff.Policy
	listeners *listener.Registry
	logger    *zap.Logger

	mu             sync.Mutex
	ctx            context.Context
	started        bool
	state          State
	retryCount     int
	manualClose    bool
	active         *session
	pending        scheduler.Timer
	retrySeq       uint64
	nextRetryDelay time.Duration
	lastConnected  time.Time
}

// NewManager creates a manager in the Idle state. Nothing is dialed until Start.
func NewManager(cfg Config, opener transport.Opener, logger *zap.Logger) (*Manager, error) {
	if cfg.URL == "" {
		return nil, errors.New("stream url is required")
	}
	if opener == nil {
		return nil, errors.New("transport opener is required")
	}
	if cfg.Backoff == (backoff.Policy{}) {
		cfg.Backoff = backoff.Default()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = scheduler.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		url:       cfg.URL,
		opener:    opener,
		scheduler: cfg.Scheduler,
		backoff:   cfg.Backoff,
		listeners: listener.NewRegistry(),
		logger:    logger.With(zap.String("url", cfg.URL)),
		ctx:       context.Background(),
		state:     Idle,
	}
	m.publishState(Idle)
	return m, nil
}

// Start performs the first connection attempt. Cancelling ctx closes the
// manager and aborts any dial in progress.
func (m *Manager) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	m.started = true
	m.ctx = ctx

	m.logger.Info("Starting stream manager",
		zap.Duration("base_delay", m.backoff.Base),
		zap.Duration("max_delay", m.backoff.Cap),
	)

	context.AfterFunc(ctx, func() {
		m.logger.Info("Stream manager context done, closing")
		m.Close()
	})

	m.connectLocked()
	return nil
}

// SetListener replaces the message handler. A nil handler discards messages.
func (m *Manager) SetListener(h listener.Handler) {
	m.listeners.Set(h)
}

// Close suspends the link and all automatic retries until Reopen. Idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	wasClosed := m.manualClose
	m.manualClose = true
	m.cancelRetryLocked()
	h := m.detachLocked()
	m.setStateLocked(Closed)
	m.mu.Unlock()

	if !wasClosed {
		m.logger.Info("Stream connection closed manually")
	}
	m.closeHandle(h)
}

// Reopen clears the manual close flag and connects right away.
// It is a no-op while a link is already Open or Connecting. From
// WaitingRetry the pending timer is cancelled in favour of an immediate attempt.
func (m *Manager) Reopen() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}
	if m.ctx.Err() != nil {
		return ErrStopped
	}

	m.manualClose = false

	switch m.state {
	case Open, Connecting:
		m.logger.Debug("Reopen ignored, link already active", zap.String("state", m.state.String()))
		return nil
	}

	m.logger.Info("Reopening stream connection", zap.Int("retry_count", m.retryCount))
	m.connectLocked()
	return nil
}

// Status returns a snapshot of the manager
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		State:          m.state,
		StateName:      m.state.String(),
		URL:            m.url,
		RetryCount:     m.retryCount,
		ManuallyClosed: m.manualClose,
		RetryPending:   m.pending != nil,
		LastConnected:  m.lastConnected,
	}
	if m.pending != nil {
		st.NextRetryDelay = m.nextRetryDelay
	}
	if m.active != nil && m.active.handle != nil {
		st.ConnectionID = m.active.handle.ID()
	}
	return st
}

// connectLocked opens a fresh transport handle. Caller holds mu.
func (m *Manager) connectLocked() {
	if m.manualClose {
		m.logger.Debug("Connect skipped, manually closed")
		return
	}
	if m.ctx.Err() != nil {
		m.logger.Debug("Connect skipped, manager stopped")
		return
	}

	m.cancelRetryLocked()
	if old := m.detachLocked(); old != nil {
		// Superseded handles are released in the background
		go m.closeHandle(old)
	}

	m.setStateLocked(Connecting)

	sess := &session{m: m}
	m.active = sess

	handle, err := m.opener.Open(m.ctx, m.url, sess)
	if err != nil {
		m.logger.Error("Failed to open transport", zap.Error(err))
		metrics.TransportErrorsTotal.WithLabelValues("open_failed").Inc()
		m.active = nil
		m.failLocked()
		return
	}
	sess.handle = handle

	m.logger.Info("Connecting to stream endpoint",
		zap.String("connection_id", handle.ID()),
		zap.Int("retry_count", m.retryCount),
	)
}

func (m *Manager) onTransportOpen(s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s != m.active || m.state != Connecting {
		m.logger.Debug("Ignoring open event from inactive handle")
		return
	}

	m.retryCount = 0
	m.nextRetryDelay = 0
	m.lastConnected = time.Now()
	m.setStateLocked(Open)

	m.logger.Info("Stream connection established",
		zap.String("connection_id", s.id()),
	)
}

func (m *Manager) onTransportMessage(s *session, raw []byte) {
	m.mu.Lock()
	current := s == m.active && m.state == Open
	m.mu.Unlock()

	if !current {
		m.logger.Debug("Dropping message from inactive handle", zap.Int("message_length", len(raw)))
		return
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		m.logger.Warn("Failed to decode message, dropping",
			zap.String("connection_id", s.id()),
			zap.Int("message_length", len(raw)),
			zap.Error(err),
		)
		metrics.MessagesReceivedTotal.WithLabelValues("decode_error").Inc()
		return
	}

	delivered, err := m.listeners.Dispatch(value)
	switch {
	case err != nil:
		m.logger.Error("Message listener failed", zap.Error(err))
		metrics.ListenerPanicsTotal.Inc()
		metrics.MessagesReceivedTotal.WithLabelValues("listener_error").Inc()
	case !delivered:
		metrics.MessagesReceivedTotal.WithLabelValues("discarded").Inc()
	default:
		metrics.MessagesReceivedTotal.WithLabelValues("delivered").Inc()
	}
}

func (m *Manager) onTransportError(s *session, err error) {
	m.onTransportFailure(s, "error", zap.Error(err))
}

func (m *Manager) onTransportClose(s *session, code int, reason string) {
	m.onTransportFailure(s, "close", zap.Int("close_code", code), zap.String("close_reason", reason))
}

func (m *Manager) onTransportFailure(s *session, kind string, fields ...zap.Field) {
	m.mu.Lock()
	if s != m.active {
		m.mu.Unlock()
		m.logger.Debug("Ignoring terminal event from inactive handle", zap.String("kind", kind))
		return
	}
	h := m.detachLocked()
	fields = append(fields, zap.String("connection_id", s.id()), zap.String("state", m.state.String()))
	m.logger.Warn("Stream connection lost", fields...)
	metrics.TransportErrorsTotal.WithLabelValues(kind).Inc()
	m.failLocked()
	m.mu.Unlock()

	m.closeHandle(h)
}

// failLocked moves to WaitingRetry with exactly one pending timer, or
// to Closed when the manual close flag is set. Caller holds mu.
func (m *Manager) failLocked() {
	if m.manualClose {
		m.setStateLocked(Closed)
		return
	}
	if m.pending != nil {
		return
	}

	delay := m.backoff.Delay(m.retryCount)
	m.retryCount++
	m.retrySeq++
	seq := m.retrySeq
	m.nextRetryDelay = delay
	m.setStateLocked(WaitingRetry)
	m.pending = m.scheduler.After(delay, func() { m.onRetryTimer(seq) })

	metrics.ReconnectionsTotal.Inc()
	metrics.RetryDelaySeconds.Observe(delay.Seconds())

	m.logger.Info("Scheduled reconnection",
		zap.Duration("retry_delay", delay),
		zap.Int("retry_count", m.retryCount),
	)
}

func (m *Manager) onRetryTimer(seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A cancelled timer may still fire if it lost the race with Stop
	if seq != m.retrySeq || m.pending == nil {
		return
	}
	m.pending = nil
	m.connectLocked()
}

// cancelRetryLocked stops the pending timer and invalidates its callback
func (m *Manager) cancelRetryLocked() {
	if m.pending == nil {
		return
	}
	m.pending.Stop()
	m.pending = nil
	m.retrySeq++
}

// detachLocked forgets the active session and returns its handle for closing
func (m *Manager) detachLocked() transport.Handle {
	if m.active == nil {
		return nil
	}
	h := m.active.handle
	m.active = nil
	return h
}

func (m *Manager) closeHandle(h transport.Handle) {
	if h == nil {
		return
	}
	if err := h.Close(); err != nil {
		m.logger.Debug("Failed to close transport handle",
			zap.String("connection_id", h.ID()),
			zap.Error(err),
		)
	}
}

// setStateLocked changes the connection state with logging. Caller holds mu.
func (m *Manager) setStateLocked(newState State) {
	oldState := m.state
	if oldState == newState {
		return
	}
	m.state = newState

	m.logger.Debug("Connection state changed",
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
	)
	m.publishState(newState)
}

func (m *Manager) publishState(current State) {
	for _, s := range AllStates {
		v := 0.0
		if s == current {
			v = 1
		}
		metrics.ConnectionState.WithLabelValues(s.String()).Set(v)
	}
}
