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
	"time"
)

// State represents the connection lifecycle phase
type State int

const (
	// Idle state - constructed, not started
	Idle State = iota
	// Connecting state - a transport handle is being opened
	Connecting
	// Open state - link established, messages flowing
	Open
	// WaitingRetry state - link lost, a retry timer is pending
	WaitingRetry
	// Closed state - manually closed, only Reopen leaves it
	Closed
)

// AllStates lists every state in declaration order
var AllStates = []State{Idle, Connecting, Open, WaitingRetry, Closed}

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case WaitingRetry:
		return "waiting_retry"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot of the manager
type Status struct {
	State          State         `json:"-"`
	StateName      string        `json:"state"`
	URL            string        `json:"url"`
	RetryCount     int           `json:"retryCount"`
	ManuallyClosed bool          `json:"manuallyClosed"`
	RetryPending   bool          `json:"retryPending"`
	NextRetryDelay time.Duration `json:"nextRetryDelayNs"`
	ConnectionID   string        `json:"connectionId,omitempty"`
	LastConnected  time.Time     `json:"lastConnected,omitempty"`
}
