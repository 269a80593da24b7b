package repository

import (
	"context"
	"sync"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
)

// memorySessionRepository keeps sessions in process memory; single-instance deployments only.
type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Turn
	maxTurns int
}

// NewMemorySessionRepository creates an in-process session store.
func NewMemorySessionRepository(maxTurns int) SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[string][]domain.Turn),
		maxTurns: maxTurns,
	}
}

func (r *memorySessionRepository) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	turns := append([]domain.Turn{}, r.sessions[sessionID]...)
	return &domain.Session{ID: sessionID, Turns: turns}, nil
}

func (r *memorySessionRepository) Append(ctx context.Context, sessionID string, turns ...domain.Turn) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = trimTurns(append(r.sessions[sessionID], turns...), r.maxTurns)
	return nil
}

func (r *memorySessionRepository) Ping(ctx context.Context) error {
	return nil
}
