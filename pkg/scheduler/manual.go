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

package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler driven by Advance. Time only moves
// when the caller advances it, which makes retry timing testable.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	m     *Manual
	seq   int
	at    time.Duration
	delay time.Duration
	fn    func()
	done  bool
}

// NewManual creates a manual scheduler at time zero
func NewManual() *Manual {
	return &Manual{}
}

// After registers fn to run once the scheduler has advanced by d
func (m *Manual) After(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{m: m, seq: m.seq, at: m.now + d, delay: d, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	t.m.remove(t)
	return true
}

// remove drops t from the pending list. Caller holds m.mu.
func (m *Manual) remove(t *manualTimer) {
	for i, p := range m.timers {
		if p == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

// Advance moves time forward by d and runs every callback that became due,
// in due order. Callbacks scheduled while advancing also run if they fall
// within the window. Callbacks run without the scheduler lock held.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.at
		next.done = true
		m.remove(next)
		m.mu.Unlock()

		next.fn()
	}
}

// FireNext advances exactly to the earliest pending timer and runs it.
// It returns false if nothing is pending.
func (m *Manual) FireNext() bool {
	m.mu.Lock()
	if len(m.timers) == 0 {
		m.mu.Unlock()
		return false
	}
	next := m.sorted()[0]
	m.now = next.at
	next.done = true
	m.remove(next)
	m.mu.Unlock()

	next.fn()
	return true
}

// nextDue returns the earliest timer due at or before target. Caller holds m.mu.
func (m *Manual) nextDue(target time.Duration) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	first := m.sorted()[0]
	if first.at > target {
		return nil
	}
	return first
}

// sorted returns pending timers ordered by due time then creation. Caller holds m.mu.
func (m *Manual) sorted() []*manualTimer {
	out := make([]*manualTimer, len(m.timers))
	copy(out, m.timers)
	sort.Slice(out, func(i, j int) bool {
		if out[i].at != out[j].at {
			return out[i].at < out[j].at
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Pending returns the number of timers that have neither fired nor been stopped
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// PendingDelays returns the requested delay of each pending timer in due order
func (m *Manual) PendingDelays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	delays := make([]time.Duration, 0, len(m.timers))
	for _, t := range m.sorted() {
		delays = append(delays, t.delay)
	}
	return delays
}

// Elapsed returns how far the scheduler has advanced since creation
func (m *Manual) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}
