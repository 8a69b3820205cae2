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

package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// DefaultHandshakeTimeout bounds the WebSocket opening handshake
	DefaultHandshakeTimeout = 10 * time.Second

	closeWriteTimeout = time.Second
)

// WebSocketConfig holds dialer and keepalive settings for WebSocketOpener
type WebSocketConfig struct {
	HandshakeTimeout   time.Duration     // Opening handshake timeout
	PingInterval       time.Duration     // Interval between client pings (0 disables)
	PongWait           time.Duration     // Read deadline extended on every frame, ping and pong (0 disables)
	ReadLimit          int64             // Maximum inbound frame size in bytes (0 = unlimited)
	Headers            map[string]string // Static headers sent with the handshake
	InsecureSkipVerify bool              // Skip TLS certificate verification for wss://
}

// WebSocketOpener opens handles backed by gorilla/websocket
type WebSocketOpener struct {
	cfg    WebSocketConfig
	dialer *websocket.Dialer
	logger *zap.Logger
}

// NewWebSocketOpener creates a WebSocket opener
func NewWebSocketOpener(cfg WebSocketConfig, logger *zap.Logger) *WebSocketOpener {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WebSocketOpener{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify,
			},
		},
		logger: logger,
	}
}

// Open starts dialing rawURL in the background and returns immediately
func (o *WebSocketOpener) Open(ctx context.Context, rawURL string, events Events) (Handle, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}

	headers := http.Header{}
	for k, v := range o.cfg.Headers {
		headers.Set(k, v)
	}

	dialCtx, cancel := context.WithCancel(ctx)
	h := &wsHandle{
		id:     uuid.New().String(),
		cfg:    o.cfg,
		events: events,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	h.logger = o.logger.With(zap.String("connection_id", h.id))

	go h.run(dialCtx, o.dialer, u.String(), headers)

	return h, nil
}

// wsHandle is a single WebSocket link attempt
type wsHandle struct {
	id     string
	cfg    WebSocketConfig
	events Events
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	terminated atomic.Bool
}

func (h *wsHandle) ID() string {
	return h.id
}

// Close sends a normal closure frame and closes the socket. Idempotent.
func (h *wsHandle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	conn := h.conn
	h.mu.Unlock()

	h.cancel()

	if conn == nil {
		return nil
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Client closing connection")
	_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(closeWriteTimeout))
	return conn.Close()
}

// Done is closed when the handle's goroutines have exited
func (h *wsHandle) Done() <-chan struct{} {
	return h.done
}

func (h *wsHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *wsHandle) run(ctx context.Context, dialer *websocket.Dialer, wsURL string, headers http.Header) {
	defer close(h.done)
	defer h.cancel()

	h.logger.Debug("Dialing WebSocket endpoint", zap.String("url", wsURL))

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("handshake failed with status %d: %w", resp.StatusCode, err)
		}
		h.terminate(err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.conn = conn
	h.mu.Unlock()

	h.configure(conn)

	if !h.isClosed() {
		h.events.OnOpen()
	}

	stop := make(chan struct{})
	if h.cfg.PingInterval > 0 {
		go h.keepalive(conn, stop)
	}
	h.readLoop(conn)
	close(stop)
}

// configure applies read limits and heartbeat handlers to a fresh connection
func (h *wsHandle) configure(conn *websocket.Conn) {
	if h.cfg.ReadLimit > 0 {
		conn.SetReadLimit(h.cfg.ReadLimit)
	}

	h.extendDeadline(conn)

	conn.SetPongHandler(func(string) error {
		h.extendDeadline(conn)
		return nil
	})

	// gorilla/websocket answers pings by default; keep that behaviour and
	// treat the ping as proof of liveness
	conn.SetPingHandler(func(appData string) error {
		h.extendDeadline(conn)
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(closeWriteTimeout))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
}

func (h *wsHandle) extendDeadline(conn *websocket.Conn) {
	if h.cfg.PongWait > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	}
}

func (h *wsHandle) readLoop(conn *websocket.Conn) {
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			h.terminate(err)
			return
		}
		h.extendDeadline(conn)

		if messageType != websocket.TextMessage {
			h.logger.Debug("Ignoring non-text message",
				zap.Int("message_type", messageType),
				zap.Int("message_length", len(message)),
			)
			continue
		}

		if h.isClosed() {
			return
		}
		h.events.OnMessage(message)
	}
}

func (h *wsHandle) keepalive(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(closeWriteTimeout)); err != nil {
				h.logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		case <-stop:
			return
		}
	}
}

// terminate reports the single terminal event of this handle
func (h *wsHandle) terminate(err error) {
	if !h.terminated.CompareAndSwap(false, true) {
		return
	}
	if h.isClosed() {
		return
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		h.events.OnClose(closeErr.Code, closeErr.Text)
		return
	}
	h.events.OnError(err)
}
