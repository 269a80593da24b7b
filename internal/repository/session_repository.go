package repository

import (
	"context"
	"errors"
	"regexp"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
)

// ErrInvalidSessionID is returned for ids that cannot safely name a file or key.
var ErrInvalidSessionID = errors.New("invalid session id")

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// SessionRepository is the append-only turn log keyed by session id.
type SessionRepository interface {
	// Get returns the session, empty when it has never been written.
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	// Append adds turns in order, then applies the retention cap.
	Append(ctx context.Context, sessionID string, turns ...domain.Turn) error
	// Ping reports whether the backing store is usable.
	Ping(ctx context.Context) error
}

// ValidateSessionID checks that id is usable as a storage key.
func ValidateSessionID(id string) error {
	if id == "." || id == ".." || !sessionIDPattern.MatchString(id) {
		return ErrInvalidSessionID
	}
	return nil
}

// trimTurns keeps the newest maxTurns entries; maxTurns <= 0 keeps everything.
func trimTurns(turns []domain.Turn, maxTurns int) []domain.Turn {
	if maxTurns <= 0 || len(turns) <= maxTurns {
		return turns
	}
	return append([]domain.Turn(nil), turns[len(turns)-maxTurns:]...)
}
