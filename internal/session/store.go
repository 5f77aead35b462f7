package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Load when no session exists for the identity.
var ErrNotFound = errors.New("session not found")

// Store is durable keyed storage of sessions.
type Store interface {
	Load(ctx context.Context, identity string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, identity string) error
	// SweepExpired deletes sessions last updated before cutoff and returns how many were removed.
	SweepExpired(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}

// decodeSession parses a stored session and rejects unknown stages.
func decodeSession(identity string, data []byte) (*Session, error) {
	var out Session
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", identity, err)
	}
	stage, err := ParseStage(string(out.Stage))
	if err != nil {
		return nil, fmt.Errorf("decode session %q: %w", identity, err)
	}
	out.Stage = stage
	return &out, nil
}
