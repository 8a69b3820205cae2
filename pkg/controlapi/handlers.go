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
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wso2/api-platform/streamlink/pkg/gesture"
	"github.com/wso2/api-platform/streamlink/pkg/journal"
	"github.com/wso2/api-platform/streamlink/pkg/metrics"
	"github.com/wso2/api-platform/streamlink/pkg/stream"
	"go.uber.org/zap"
)

// Controller is the manual control surface of the stream manager
type Controller interface {
	Status() stream.Status
	Close()
	Reopen() error
}

// PredictionSource exposes the latest gesture predictions
type PredictionSource interface {
	Last() (gesture.Prediction, time.Time, bool)
	Stats() gesture.Stats
}

// JournalReader reads recorded messages
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// ErrorResponse is the error body of every failed request
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ConnectionResponse describes the stream connection
type ConnectionResponse struct {
	State          string     `json:"state"`
	URL            string     `json:"url"`
	RetryCount     int        `json:"retryCount"`
	ManuallyClosed bool       `json:"manuallyClosed"`
	RetryPending   bool       `json:"retryPending"`
	NextRetryDelay string     `json:"nextRetryDelay,omitempty"`
	ConnectionID   string     `json:"connectionId,omitempty"`
	LastConnected  *time.Time `json:"lastConnected,omitempty"`
}

// PredictionResponse is the latest prediction
type PredictionResponse struct {
	Gesture        string      `json:"gesture"`
	Class          *int        `json:"class,omitempty"`
	Label          string      `json:"label"`
	ReceivedAt     time.Time   `json:"receivedAt"`
	Samples        int         `json:"samples"`
	Channels       int         `json:"channels"`
	HighlightRange []int       `json:"highlightRange,omitempty"`
	Highlighted    [][]float64 `json:"highlighted,omitempty"`
}

// Handler serves the control API
type Handler struct {
	controller  Controller
	predictions PredictionSource
	journal     JournalReader
	logger      *zap.Logger
}

// NewHandler creates a Handler. predictions and journal may be nil.
func NewHandler(controller Controller, predictions PredictionSource, journalReader JournalReader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		controller:  controller,
		predictions: predictions,
		journal:     journalReader,
		logger:      logger,
	}
}

// Health reports liveness together with the connection state
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"connection": h.controller.Status().StateName,
	})
}

// GetConnection returns the connection status
func (h *Handler) GetConnection(c *gin.Context) {
	c.JSON(http.StatusOK, toConnectionResponse(h.controller.Status()))
}

// CloseConnection suspends the link and automatic retries
func (h *Handler) CloseConnection(c *gin.Context) {
	log := GetLogger(c, h.logger)

	h.controller.Close()
	metrics.ControlRequestsTotal.WithLabelValues("close", "success").Inc()

	log.Info("Stream connection closed via control API")
	c.JSON(http.StatusOK, toConnectionResponse(h.controller.Status()))
}

// ReopenConnection resumes the link after a manual close
func (h *Handler) ReopenConnection(c *gin.Context) {
	log := GetLogger(c, h.logger)

	if err := h.controller.Reopen(); err != nil {
		metrics.ControlRequestsTotal.WithLabelValues("reopen", "error").Inc()
		status := http.StatusInternalServerError
		switch {
		case stream.IsNotStartedError(err):
			status = http.StatusConflict
		case stream.IsStoppedError(err):
			status = http.StatusServiceUnavailable
		}
		log.Warn("Failed to reopen stream connection", zap.Error(err))
		c.JSON(status, ErrorResponse{Status: "error", Message: err.Error()})
		return
	}

	metrics.ControlRequestsTotal.WithLabelValues("reopen", "success").Inc()
	log.Info("Stream connection reopened via control API")
	c.JSON(http.StatusOK, toConnectionResponse(h.controller.Status()))
}

// LatestPrediction returns the most recent gesture prediction
func (h *Handler) LatestPrediction(c *gin.Context) {
	if h.predictions == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Status: "error", Message: "Prediction tracking is not enabled"})
		return
	}

	p, at, ok := h.predictions.Last()
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Status: "error", Message: "No prediction received yet"})
		return
	}

	c.JSON(http.StatusOK, PredictionResponse{
		Gesture:        p.Gesture,
		Class:          p.Class,
		Label:          p.Label,
		ReceivedAt:     at,
		Samples:        len(p.Waveform),
		Channels:       p.Channels(),
		HighlightRange: p.HighlightRange,
		Highlighted:    p.Highlighted(),
	})
}

// PredictionStats returns per-gesture counters
func (h *Handler) PredictionStats(c *gin.Context) {
	if h.predictions == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Status: "error", Message: "Prediction tracking is not enabled"})
		return
	}
	c.JSON(http.StatusOK, h.predictions.Stats())
}

// ListJournal returns recently recorded messages, newest first
func (h *Handler) ListJournal(c *gin.Context) {
	log := GetLogger(c, h.logger)

	if h.journal == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Status: "error", Message: "Journal is not enabled"})
		return
	}

	limit := journal.DefaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Message: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, journal.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		log.Error("Failed to read journal", zap.Error(err))
		c.JSON(status, ErrorResponse{Status: "error", Message: "Failed to read journal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(entries),
		"messages": entries,
	})
}

func toConnectionResponse(st stream.Status) ConnectionResponse {
	resp := ConnectionResponse{
		State:          st.StateName,
		URL:            st.URL,
		RetryCount:     st.RetryCount,
		ManuallyClosed: st.ManuallyClosed,
		RetryPending:   st.RetryPending,
		ConnectionID:   st.ConnectionID,
	}
	if st.RetryPending {
		resp.NextRetryDelay = st.NextRetryDelay.String()
	}
	if !st.LastConnected.IsZero() {
		t := st.LastConnected
		resp.LastConnected = &t
	}
	return resp
}
