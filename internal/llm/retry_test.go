package llm

import (
	"context"
	"testing"
	"time"
)

type scriptedClient struct {
	calls int
	errs  []error
	text  string
}

func (c *scriptedClient) Complete(_ context.Context, _ string) (string, error) {
	idx := c.calls
	c.calls++
	if idx < len(c.errs) && c.errs[idx] != nil {
		return "", c.errs[idx]
	}
	return c.text, nil
}

func TestWithRetryDisabledReturnsSameClient(t *testing.T) {
	inner := &scriptedClient{text: "ok"}
	if got := WithRetry(inner, 0, time.Millisecond, time.Second); got != Client(inner) {
		t.Fatalf("WithRetry(0 attempts) should return the inner client unchanged")
	}
}

func TestRetryRecoversFromUnavailable(t *testing.T) {
	inner := &scriptedClient{
		errs: []error{newError(KindUnavailable, "send_request", nil)},
		text: "recovered",
	}
	c := WithRetry(inner, 2, time.Millisecond, 10*time.Millisecond).(*RetryClient)
	c.sleep = func(context.Context, time.Duration) error { return nil }

	got, err := c.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "recovered" || inner.calls != 2 {
		t.Fatalf("Complete() = %q after %d calls, want recovered after 2", got, inner.calls)
	}
}

func TestRetryDoesNotRetryRejections(t *testing.T) {
	inner := &scriptedClient{
		errs: []error{newError(KindRejected, "upstream_4xx", nil)},
	}
	c := WithRetry(inner, 3, time.Millisecond, 10*time.Millisecond).(*RetryClient)
	c.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := c.Complete(context.Background(), "hi")
	if kind, ok := KindOf(err); !ok || kind != KindRejected {
		t.Fatalf("Complete() error = %v, want rejected", err)
	}
	if inner.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on rejection)", inner.calls)
	}
}

func TestRetryExhaustionReturnsLastError(t *testing.T) {
	inner := &scriptedClient{
		errs: []error{
			newError(KindUnavailable, "send_request", nil),
			newError(KindUnavailable, "send_request", nil),
			newError(KindUnavailable, "send_request", nil),
		},
	}
	c := WithRetry(inner, 2, time.Millisecond, 10*time.Millisecond).(*RetryClient)
	c.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := c.Complete(context.Background(), "hi")
	if kind, ok := KindOf(err); !ok || kind != KindUnavailable {
		t.Fatalf("Complete() error = %v, want unavailable", err)
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3 (initial + 2 retries)", inner.calls)
	}
}
