package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds each call and the number of extra attempts.
type RetryPolicy struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// RetryingClient wraps a Client with per-call timeouts and exponential backoff.
type RetryingClient struct {
	inner  Client
	policy RetryPolicy
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// WithRetry decorates inner with policy.
func WithRetry(inner Client, policy RetryPolicy, logger *zap.Logger) *RetryingClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingClient{inner: inner, policy: policy, logger: logger, sleep: sleepContext}
}

// Provider returns the wrapped provider name.
func (r *RetryingClient) Provider() string {
	return r.inner.Provider()
}

// Complete retries inner.Complete according to the policy.
func (r *RetryingClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return r.do(ctx, "complete", func(ctx context.Context) (string, error) {
		return r.inner.Complete(ctx, prompt)
	})
}

// Describe retries inner.Describe according to the policy.
func (r *RetryingClient) Describe(ctx context.Context, image []byte, mimeType, instruction string) (string, error) {
	return r.do(ctx, "describe", func(ctx context.Context) (string, error) {
		return r.inner.Describe(ctx, image, mimeType, instruction)
	})
}

func (r *RetryingClient) do(ctx context.Context, op string, call func(context.Context) (string, error)) (string, error) {
	backoff := r.policy.Backoff
	for attempt := 0; ; attempt++ {
		out, err := r.attempt(ctx, call)
		if err == nil {
			return out, nil
		}
		// The caller gave up; further attempts cannot succeed.
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s %s: %w", r.Provider(), op, err)
		}
		if attempt >= r.policy.MaxRetries {
			return "", fmt.Errorf("%s %s failed after %d attempts: %w", r.Provider(), op, attempt+1, err)
		}
		r.logger.Warn("llm call failed; retrying",
			zap.String("provider", r.Provider()),
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		if err := r.sleep(ctx, backoff); err != nil {
			return "", fmt.Errorf("%s %s: %w", r.Provider(), op, err)
		}
		backoff *= 2
	}
}

func (r *RetryingClient) attempt(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	if r.policy.Timeout <= 0 {
		return call(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.policy.Timeout)
	defer cancel()
	return call(callCtx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
