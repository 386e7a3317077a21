package llm

import (
	"errors"
	"strings"
	"time"
)

// Config controls client construction.
type Config struct {
	Mode    string
	HTTPURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient builds a gateway client for the configured mode. Auto prefers
// the HTTP provider when a URL is set and falls back to the mock otherwise.
func NewClient(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.HTTPURL) != "" {
			return NewHTTPClient(cfg.HTTPURL, cfg.APIKey, cfg.Timeout), nil
		}
		return NewMockClient(), nil
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("llm HTTP url is required for http mode")
		}
		return NewHTTPClient(cfg.HTTPURL, cfg.APIKey, cfg.Timeout), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, errors.New("invalid llm mode: expected auto|http|mock")
	}
}
