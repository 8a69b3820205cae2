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

import "errors"

// Common manager errors
var (
	// ErrNotStarted is returned by Reopen before Start has been called
	ErrNotStarted = errors.New("stream manager not started")

	// ErrAlreadyStarted is returned by a second Start call
	ErrAlreadyStarted = errors.New("stream manager already started")

	// ErrStopped is returned when the manager's context has been cancelled
	ErrStopped = errors.New("stream manager stopped")
)

// IsNotStartedError checks if an error is an ErrNotStarted error
func IsNotStartedError(err error) bool {
	return errors.Is(err, ErrNotStarted)
}

// IsStoppedError checks if an error is an ErrStopped error
func IsStoppedError(err error) bool {
	return errors.Is(err, ErrStopped)
}
