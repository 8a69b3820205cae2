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

package controlapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wso2/api-platform/streamlink/pkg/config"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with middleware and routes
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(LoggingMiddleware(logger))
	router.Use(RecoveryMiddleware(logger))

	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/connection", h.GetConnection)
		v1.POST("/connection/close", h.CloseConnection)
		v1.POST("/connection/reopen", h.ReopenConnection)

		v1.GET("/gestures/latest", h.LatestPrediction)
		v1.GET("/gestures/stats", h.PredictionStats)

		v1.GET("/journal", h.ListJournal)
	}

	return router
}

// Server is the control API HTTP server
type Server struct {
	cfg        *config.ControlConfig
	httpServer *http.Server
	listener   net.Listener
	log        *zap.Logger
}

// NewServer creates a control API server
func NewServer(cfg *config.ControlConfig, h *Handler, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewRouter(h, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start binds the port and serves in the background
func (s *Server) Start() error {
	s.log.Info("Starting control API server", zap.Int("port", s.cfg.Port))

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("control API server failed to bind: %w", err)
	}
	s.listener = ln

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Control API server failed", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once Start has succeeded
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully stops the control API server
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Stopping control API server")
	return s.httpServer.Shutdown(ctx)
}
