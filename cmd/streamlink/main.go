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
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wso2/api-platform/streamlink/pkg/backoff"
	"github.com/wso2/api-platform/streamlink/pkg/config"
	"github.com/wso2/api-platform/streamlink/pkg/controlapi"
	"github.com/wso2/api-platform/streamlink/pkg/gesture"
	"github.com/wso2/api-platform/streamlink/pkg/journal"
	"github.com/wso2/api-platform/streamlink/pkg/logger"
	"github.com/wso2/api-platform/streamlink/pkg/metrics"
	"github.com/wso2/api-platform/streamlink/pkg/stream"
	"github.com/wso2/api-platform/streamlink/pkg/transport"
	"go.uber.org/zap"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.toml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer log.Sync()

	log.Info("Starting streamlink",
		zap.String("config_file", *configPath),
		zap.String("url", cfg.Stream.URL),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
		zap.Bool("control_enabled", cfg.Control.Enabled),
		zap.Bool("journal_enabled", cfg.Journal.Enabled),
	)

	if err := run(cfg, log); err != nil {
		log.Error("streamlink exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	// Metrics must be enabled before anything records a value
	metrics.SetEnabled(cfg.Metrics.Enabled)
	metrics.Init()

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(&cfg.Metrics, log)
		if err := metricsServer.Start(); err != nil {
			return err
		}
	}

	var store *journal.Store
	var recorder gesture.Recorder
	var journalReader controlapi.JournalReader
	if cfg.Journal.Enabled {
		var err error
		store, err = journal.Open(cfg.Journal.Path, log)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer store.Close()
		recorder = store
		journalReader = store
	}

	manager, err := buildManager(cfg, log)
	if err != nil {
		return err
	}

	predictions := gesture.NewListener(log, recorder)
	if cfg.Gesture.LabelsFile != "" {
		labels, err := gesture.LoadLabels(cfg.Gesture.LabelsFile, log)
		if err != nil {
			return fmt.Errorf("failed to load gesture labels: %w", err)
		}
		predictions.SetLabels(labels)
	}
	manager.SetListener(predictions.Handle)

	var controlServer *controlapi.Server
	if cfg.Control.Enabled {
		handler := controlapi.NewHandler(manager, predictions, journalReader, log)
		controlServer = controlapi.NewServer(&cfg.Control, handler, log)
		if err := controlServer.Start(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start stream manager: %w", err)
	}

	waitForShutdown(manager, log)

	manager.Close()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Control.ShutdownTimeout)
	defer shutdownCancel()

	if controlServer != nil {
		if err := controlServer.Stop(shutdownCtx); err != nil {
			log.Error("Control API server forced to shutdown", zap.Error(err))
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			log.Error("Metrics server forced to shutdown", zap.Error(err))
		}
	}

	log.Info("streamlink stopped")
	return nil
}

// buildManager wires the WebSocket opener and backoff policy from cfg
func buildManager(cfg *config.Config, log *zap.Logger) (*stream.Manager, error) {
	opener := transport.NewWebSocketOpener(webSocketConfig(cfg.Stream), log)

	manager, err := stream.NewManager(stream.Config{
		URL:     cfg.Stream.URL,
		Backoff: backoff.New(cfg.Reconnect.BaseDelay, cfg.Reconnect.MaxDelay),
	}, opener, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream manager: %w", err)
	}
	return manager, nil
}

func webSocketConfig(cfg config.StreamConfig) transport.WebSocketConfig {
	return transport.WebSocketConfig{
		HandshakeTimeout:   cfg.HandshakeTimeout,
		PingInterval:       cfg.PingInterval,
		PongWait:           cfg.PongWait,
		ReadLimit:          cfg.ReadLimit,
		Headers:            cfg.Headers,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
}

// waitForShutdown blocks until SIGINT or SIGTERM. SIGUSR1 closes the stream
// and SIGUSR2 reopens it.
func waitForShutdown(manager *stream.Manager, log *zap.Logger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigs)

	for sig := range sigs {
		switch sig {
		case syscall.SIGUSR1:
			log.Info("Received SIGUSR1, closing stream connection")
			manager.Close()
		case syscall.SIGUSR2:
			log.Info("Received SIGUSR2, reopening stream connection")
			if err := manager.Reopen(); err != nil {
				log.Warn("Failed to reopen stream connection", zap.Error(err))
			}
		default:
			log.Info("Shutting down streamlink", zap.String("signal", sig.String()))
			return
		}
	}
}
