package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockClient provides deterministic local replies when no provider is
// configured. Useful for development and handler tests.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", newError(KindUnavailable, "context_done", ctx.Err())
	default:
	}

	// Echo the tail of the prompt, which Build places the user message at.
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	last := ""
	if len(lines) > 0 {
		last = strings.TrimSpace(lines[len(lines)-1])
	}
	if last == "" {
		return "I'm here to help with Carton Caps products and referrals.", nil
	}
	return fmt.Sprintf("Thanks for asking about %q. I can help with Carton Caps products, referrals, and FAQs.", last), nil
}
