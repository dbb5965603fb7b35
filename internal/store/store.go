// Package store persists structured outputs.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/leaguelab/constraintd/internal/schema"
)

// ErrPersistenceFailed indicates the output could not be written to the
// backing store. Callers surface it alongside the already-computed result
// rather than discarding the extraction work.
var ErrPersistenceFailed = errors.New("persistence failed")

// Row is one persisted request: the full aggregate produced for it,
// keyed by the request identifier.
type Row struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`

	Output schema.StructuredOutput `json:"constraint_json"`
}

// Store is the persistence boundary for structured outputs.
type Store interface {
	// SaveOutput writes one durable record for the request: the whole
	// serialized aggregate, constraints and metadata alike.
	SaveOutput(ctx context.Context, requestID uuid.UUID, userID string, output schema.StructuredOutput) error

	// ListByUser returns the stored outputs for a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]Row, error)

	Close() error
}
