package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
)

const sessionKeyPrefix = "helpdesk:session:"

type redisSessionRepository struct {
	client   *redis.Client
	maxTurns int
	ttl      time.Duration
}

// NewRedisSessionRepository stores each session as a Redis list of JSON turns.
// Lists are capped at maxTurns and expire ttl after the last append when ttl > 0.
func NewRedisSessionRepository(client *redis.Client, maxTurns int, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{client: client, maxTurns: maxTurns, ttl: ttl}
}

func (r *redisSessionRepository) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	raw, err := r.client.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	turns := make([]domain.Turn, 0, len(raw))
	for i, item := range raw {
		var turn domain.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("decode session %s turn %d: %w", sessionID, i, err)
		}
		turns = append(turns, turn)
	}
	return &domain.Session{ID: sessionID, Turns: turns}, nil
}

func (r *redisSessionRepository) Append(ctx context.Context, sessionID string, turns ...domain.Turn) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}
	values := make([]any, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encode turn: %w", err)
		}
		values = append(values, data)
	}

	key := sessionKey(sessionID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if r.maxTurns > 0 {
			pipe.LTrim(ctx, key, int64(-r.maxTurns), -1)
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append session %s: %w", sessionID, err)
	}
	return nil
}

func (r *redisSessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}
