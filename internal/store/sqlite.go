package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/leaguelab/constraintd/internal/schema"
)

// Config holds store configuration.
type Config struct {
	// Path is the SQLite database file. ":memory:" is accepted for tests.
	Path string `json:"path"`
}

// SQLiteStore persists structured outputs in a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the database and ensures the schema.
func NewSQLiteStore(cfg Config, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path required")
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes are serialized in SQLite, a small pool is enough.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS constraints (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		constraint_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_constraints_user ON constraints(user_id, created_at);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// SaveOutput writes one row per request: id is the request identifier and
// constraint_json is the full serialized aggregate, metadata included.
func (s *SQLiteStore) SaveOutput(ctx context.Context, requestID uuid.UUID, userID string, output schema.StructuredOutput) error {
	payload, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("%w: marshal output for request %s: %v", ErrPersistenceFailed, requestID, err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO constraints (id, user_id, constraint_json, created_at) VALUES (?, ?, ?, ?)`,
		requestID.String(), userID, string(payload), now); err != nil {
		return fmt.Errorf("%w: insert request %s: %v", ErrPersistenceFailed, requestID, err)
	}

	s.logger.Debug("output persisted",
		zap.String("request_id", requestID.String()),
		zap.String("user_id", userID),
		zap.Int("constraints", len(output.Constraints)))
	return nil
}

// ListByUser returns the stored outputs for a user, newest first.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, constraint_json, created_at FROM constraints
		 WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrPersistenceFailed, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var payload string
		if err := rows.Scan(&r.ID, &r.UserID, &payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrPersistenceFailed, err)
		}
		if err := json.Unmarshal([]byte(payload), &r.Output); err != nil {
			return nil, fmt.Errorf("%w: decode row %s: %v", ErrPersistenceFailed, r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate: %v", ErrPersistenceFailed, err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
