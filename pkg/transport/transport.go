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
)

// Events receives the lifecycle callbacks of a single transport handle.
// A handle reports at most one terminal event (OnError or OnClose).
type Events interface {
	// OnOpen is called once the link is established
	OnOpen()
	// OnMessage is called for every inbound text frame
	OnMessage(data []byte)
	// OnError is called when the link fails to open or breaks abnormally
	OnError(err error)
	// OnClose is called when the remote end closes the link
	OnClose(code int, reason string)
}

// Handle is one attempt to reach the endpoint
type Handle interface {
	// ID uniquely identifies this handle for logs and status
	ID() string
	// Close tears the link down and suppresses further events. A callback
	// already in flight may still arrive.
	Close() error
}

// Opener creates transport handles.
// Open must not block on the network and must not invoke events before it returns.
type Opener interface {
	Open(ctx context.Context, url string, events Events) (Handle, error)
}
