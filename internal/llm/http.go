package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cartoncaps/capper/internal/reliability"
)

// HTTPClient forwards prompts to a JSON text-completion endpoint.
type HTTPClient struct {
	url     string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

type completionRequest struct {
	Prompt string `json:"prompt"`
}

func NewHTTPClient(url, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		url:     strings.TrimSpace(url),
		apiKey:  strings.TrimSpace(apiKey),
		timeout: timeout,
		client:  &http.Client{},
	}
}

func (c *HTTPClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(completionRequest{Prompt: prompt})
	if err != nil {
		return "", newError(KindMalformed, "marshal_request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", newError(KindUnavailable, "create_request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.client.Do(req)
	if err != nil {
		// Timeouts and connection failures both land here.
		return "", newError(KindUnavailable, "send_request", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		err := fmt.Errorf("llm http status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
		// 5xx and 429 are transient conditions worth retrying; other
		// statuses mean the request itself was refused.
		if reliability.IsRetryableHTTPStatus(res.StatusCode) {
			return "", newError(KindUnavailable, "upstream_transient", err)
		}
		return "", newError(KindRejected, "upstream_rejected", err)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", newError(KindUnavailable, "read_response", err)
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", newError(KindMalformed, "unparseable_response", err)
	}

	text := strings.TrimSpace(extractText(obj))
	if text == "" {
		return "", newError(KindMalformed, "empty_response", errors.New("no text in completion response"))
	}
	return text, nil
}

func extractText(obj map[string]any) string {
	for _, k := range []string{"text", "output", "message", "response"} {
		if v, ok := obj[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
