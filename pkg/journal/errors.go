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

package journal

import "errors"

var (
	// ErrClosed is returned when the journal has been closed
	ErrClosed = errors.New("journal is closed")

	// ErrInvalidEntry is returned when an entry has no payload
	ErrInvalidEntry = errors.New("journal entry has no payload")
)

// IsClosedError checks if an error is an ErrClosed error
func IsClosedError(err error) bool {
	return errors.Is(err, ErrClosed)
}
