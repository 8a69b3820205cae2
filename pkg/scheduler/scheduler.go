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
	"time"
)

// Timer is a cancellable handle for a scheduled callback
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// Scheduler runs a callback once after a delay.
// Implementations must never invoke fn synchronously from After.
type Scheduler interface {
	After(d time.Duration, fn func()) Timer
}

// New returns a Scheduler backed by the runtime timer
func New() Scheduler {
	return wallClock{}
}

type wallClock struct{}

func (wallClock) After(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
