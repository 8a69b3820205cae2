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

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/api-platform/streamlink/pkg/config"
	"github.com/wso2/api-platform/streamlink/pkg/stream"
	"go.uber.org/zap"
)

func TestWebSocketConfig(t *testing.T) {
	cfg := config.StreamConfig{
		URL:                "wss://inference.example.com/ws/gesture/",
		HandshakeTimeout:   5 * time.Second,
		PingInterval:       10 * time.Second,
		PongWait:           30 * time.Second,
		ReadLimit:          4096,
		Headers:            map[string]string{"X-Stream-Client": "streamlink"},
		InsecureSkipVerify: true,
	}

	ws := webSocketConfig(cfg)
	assert.Equal(t, 5*time.Second, ws.HandshakeTimeout)
	assert.Equal(t, 10*time.Second, ws.PingInterval)
	assert.Equal(t, 30*time.Second, ws.PongWait)
	assert.Equal(t, int64(4096), ws.ReadLimit)
	assert.Equal(t, "streamlink", ws.Headers["X-Stream-Client"])
	assert.True(t, ws.InsecureSkipVerify)
}

func TestBuildManager(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	manager, err := buildManager(cfg, zap.NewNop())
	require.NoError(t, err)

	st := manager.Status()
	assert.Equal(t, stream.Idle, st.State)
	assert.Equal(t, config.DefaultURL, st.URL)
}
