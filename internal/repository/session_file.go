package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
)

type fileSessionRepository struct {
	dir      string
	maxTurns int
	mu       sync.Mutex
}

// NewFileSessionRepository stores each session as <dir>/<sessionID>.json.
func NewFileSessionRepository(dir string, maxTurns int) (SessionRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &fileSessionRepository{dir: dir, maxTurns: maxTurns}, nil
}

func (r *fileSessionRepository) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	turns, err := r.read(sessionID)
	if err != nil {
		return nil, err
	}
	return &domain.Session{ID: sessionID, Turns: turns}, nil
}

func (r *fileSessionRepository) Append(ctx context.Context, sessionID string, turns ...domain.Turn) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.read(sessionID)
	if err != nil {
		return err
	}
	existing = trimTurns(append(existing, turns...), r.maxTurns)

	data, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	return r.writeAtomic(r.path(sessionID), data)
}

func (r *fileSessionRepository) Ping(ctx context.Context) error {
	info, err := os.Stat(r.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", r.dir)
	}
	return nil
}

func (r *fileSessionRepository) path(sessionID string) string {
	return filepath.Join(r.dir, sessionID+".json")
}

func (r *fileSessionRepository) read(sessionID string) ([]domain.Turn, error) {
	data, err := os.ReadFile(r.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	turns := []domain.Turn{}
	if len(data) == 0 {
		return turns, nil
	}
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return turns, nil
}

func (r *fileSessionRepository) writeAtomic(path string, data []byte) error {
	tmp := filepath.Join(r.dir, "."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}
