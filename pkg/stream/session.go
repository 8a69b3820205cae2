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
	"github.com/wso2/api-platform/streamlink/pkg/transport"
)

// session adapts transport callbacks of one handle to manager transitions.
// The manager compares sessions by identity to discard stale events.
type session struct {
	m      *Manager
	handle transport.Handle
}

var _ transport.Events = (*session)(nil)

func (s *session) id() string {
	if s.handle == nil {
		return ""
	}
	return s.handle.ID()
}

func (s *session) OnOpen()                         { s.m.onTransportOpen(s) }
func (s *session) OnMessage(data []byte)           { s.m.onTransportMessage(s, data) }
func (s *session) OnError(err error)               { s.m.onTransportError(s, err) }
func (s *session) OnClose(code int, reason string) { s.m.onTransportClose(s, code, reason) }
