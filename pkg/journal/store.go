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

import (
	"context"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/wso2/api-platform/streamlink/pkg/metrics"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

const (
	schemaVersion = 1

	// DefaultRecentLimit is used when Recent is called with a non-positive limit
	DefaultRecentLimit = 50
	maxRecentLimit     = 1000
)

// Entry is one recorded message
type Entry struct {
	ID         string    `db:"id" json:"id"`
	ReceivedAt time.Time `db:"received_at" json:"receivedAt"`
	Gesture    string    `db:"gesture" json:"gesture"`
	Payload    string    `db:"payload" json:"payload"`
}

// Store is an append-only SQLite journal of delivered messages
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the journal at dbPath
func Open(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection avoids "database is locked" and keeps :memory: databases alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, logger: logger}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("Journal initialized", zap.String("database_path", dbPath))
	return s, nil
}

func (s *Store) initSchema() error {
	var version int
	if err := s.db.Get(&version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("failed to query schema version: %w", err)
	}

	if version == 0 {
		s.logger.Info("Initializing journal schema", zap.Int("version", schemaVersion))
		if _, err := s.db.Exec(schemaSQL); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		return nil
	}

	if version > schemaVersion {
		return fmt.Errorf("journal schema version %d is newer than supported version %d", version, schemaVersion)
	}

	s.logger.Debug("Journal schema already exists", zap.Int("version", version))
	return nil
}

// Record appends e. ID and ReceivedAt are filled in when empty.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e == nil || e.Payload == "" {
		return ErrInvalidEntry
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}
	e.ReceivedAt = e.ReceivedAt.UTC()

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO messages (id, received_at, gesture, payload) VALUES (:id, :received_at, :gesture, :payload)`, e)
	if err != nil {
		metrics.JournalWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to record message: %w", err)
	}

	metrics.JournalWritesTotal.WithLabelValues("success").Inc()
	return nil
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	entries := []Entry{}
	err := s.db.SelectContext(ctx, &entries,
		`SELECT id, received_at, gesture, payload FROM messages ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	return entries, nil
}

// Count returns the number of recorded entries
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM messages`); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

// Close closes the journal. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.logger.Info("Closing journal")
	return s.db.Close()
}
