package llm

import (
	"context"
	"time"

	"github.com/cartoncaps/capper/internal/reliability"
)

// RetryClient wraps a Client with a bounded retry policy. Only unavailable
// failures are retried; rejections and malformed responses return at once.
// The orchestrator's contract stays retry-free: this wrapper is opt-in
// wiring, disabled by default.
type RetryClient struct {
	inner    Client
	attempts int
	base     time.Duration
	cap      time.Duration
	sleep    func(context.Context, time.Duration) error
}

// WithRetry returns client unchanged when attempts <= 0.
func WithRetry(client Client, attempts int, base, cap time.Duration) Client {
	if attempts <= 0 {
		return client
	}
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	if cap <= 0 {
		cap = 5 * time.Second
	}
	return &RetryClient{
		inner:    client,
		attempts: attempts,
		base:     base,
		cap:      cap,
		sleep:    sleepCtx,
	}
}

func (c *RetryClient) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.attempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, reliability.ExponentialBackoff(attempt-1, c.base, c.cap)); err != nil {
				return "", newError(KindUnavailable, "retry_cancelled", err)
			}
		}
		text, err := c.inner.Complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if kind, ok := KindOf(err); !ok || kind != KindUnavailable {
			return "", err
		}
	}
	return "", lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
