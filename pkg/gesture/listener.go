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

package gesture

import (
	"context"
	"sync"
	"time"

	"github.com/wso2/api-platform/streamlink/pkg/journal"
	"go.uber.org/zap"
)

const recordTimeout = 2 * time.Second

// Recorder persists predictions
type Recorder interface {
	Record(ctx context.Context, e *journal.Entry) error
}

// Listener turns decoded stream messages into predictions. Handle matches
// listener.Handler and is meant to be registered with the stream manager.
type Listener struct {
	logger   *zap.Logger
	recorder Recorder

	mu      sync.RWMutex
	labels  Labels
	last    *Prediction
	lastAt  time.Time
	counts  map[string]int
	invalid int
}

// NewListener creates a Listener. recorder may be nil.
func NewListener(logger *zap.Logger, recorder Recorder) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		logger:   logger,
		recorder: recorder,
		counts:   make(map[string]int),
	}
}

// SetLabels replaces the display names attached to new predictions
func (l *Listener) SetLabels(labels Labels) {
	l.mu.Lock()
	l.labels = labels
	l.mu.Unlock()
}

// Handle processes one decoded message
func (l *Listener) Handle(message any) {
	p, err := FromValue(message)
	if err != nil {
		l.mu.Lock()
		l.invalid++
		l.mu.Unlock()
		l.logger.Warn("Ignoring message without a valid prediction", zap.Error(err))
		return
	}

	now := time.Now()
	l.mu.Lock()
	p.Label = l.labels.Name(p.Gesture)
	l.last = &p
	l.lastAt = now
	l.counts[p.Gesture]++
	l.mu.Unlock()

	l.logger.Info("Gesture predicted",
		zap.String("gesture", p.Gesture),
		zap.String("label", p.Label),
		zap.Int("samples", len(p.Waveform)),
		zap.Int("channels", p.Channels()),
		zap.Ints("highlight_range", p.HighlightRange),
	)

	if l.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := l.recorder.Record(ctx, &journal.Entry{
		ReceivedAt: now,
		Gesture:    p.Gesture,
		Payload:    p.Raw,
	}); err != nil {
		l.logger.Error("Failed to journal prediction", zap.String("gesture", p.Gesture), zap.Error(err))
	}
}

// Last returns the most recent prediction and when it arrived
func (l *Listener) Last() (Prediction, time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.last == nil {
		return Prediction{}, time.Time{}, false
	}
	return *l.last, l.lastAt, true
}

// Stats is a summary of handled messages
type Stats struct {
	Counts  map[string]int `json:"counts"`
	Invalid int            `json:"invalid"`
}

// Stats returns per-gesture counts and the number of rejected messages
func (l *Listener) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[string]int, len(l.counts))
	for k, v := range l.counts {
		counts[k] = v
	}
	return Stats{Counts: counts, Invalid: l.invalid}
}
