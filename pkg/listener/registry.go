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

package listener

import (
	"fmt"
	"sync"
)

// Handler receives a decoded message. The value is whatever the JSON payload
// decoded to (map[string]any, []any, string, float64, bool or nil).
type Handler func(message any)

// PanicError is returned by Dispatch when the handler panicked
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("listener panicked: %v", e.Value)
}

// IsPanicError checks if an error is a PanicError
func IsPanicError(err error) bool {
	_, ok := err.(*PanicError)
	return ok
}

// Registry holds at most one message handler
type Registry struct {
	mu      sync.RWMutex
	handler Handler
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Set replaces the current handler. A nil handler clears the slot.
func (r *Registry) Set(h Handler) {
	r.mu.Lock()
	r.handler = h
	r.mu.Unlock()
}

// Has reports whether a handler is registered
func (r *Registry) Has() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handler != nil
}

// Dispatch invokes the current handler with value. It returns false when no
// handler is registered; the value is discarded in that case.
// The handler runs without the registry lock held, so it may call Set.
func (r *Registry) Dispatch(value any) (delivered bool, err error) {
	r.mu.RLock()
	h := r.handler
	r.mu.RUnlock()

	if h == nil {
		return false, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec}
		}
	}()

	h(value)
	return true, nil
}
