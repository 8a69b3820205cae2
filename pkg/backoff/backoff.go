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

package backoff

import (
	"time"
)

const (
	// DefaultBase is the delay before the first retry
	DefaultBase = 1 * time.Second
	// DefaultCap is the upper bound for any retry delay
	DefaultCap = 30 * time.Second
)

// Policy maps a retry attempt to a wait duration using capped exponential backoff.
// Formula: min(Base * 2^attempt, Cap)
type Policy struct {
	Base time.Duration
	Cap  time.Duration
}

// Default returns the policy with DefaultBase and DefaultCap
func Default() Policy {
	return Policy{Base: DefaultBase, Cap: DefaultCap}
}

// New creates a policy, falling back to the defaults for non-positive values
func New(base, capDelay time.Duration) Policy {
	if base <= 0 {
		base = DefaultBase
	}
	if capDelay <= 0 {
		capDelay = DefaultCap
	}
	if capDelay < base {
		capDelay = base
	}
	return Policy{Base: base, Cap: capDelay}
}

// Delay returns the wait before retry number attempt (0-based).
// Doubling stops as soon as the cap is reached, so large attempt counts never overflow.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if p.Base <= 0 || p.Base >= p.Cap {
		return p.Cap
	}

	delay := p.Base
	for i := 0; i < attempt; i++ {
		if delay > p.Cap/2 {
			return p.Cap
		}
		delay *= 2
	}

	if delay > p.Cap {
		return p.Cap
	}
	return delay
}
