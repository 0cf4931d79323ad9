package openai

import (
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ClientConfig selects an OpenAI-compatible endpoint
type ClientConfig struct {
	APIKey  string
	BaseURL string // empty for api.openai.com; e.g. https://api.groq.com/openai/v1
	Timeout time.Duration
}

// NewClient creates an OpenAI-compatible API client
func NewClient(cfg ClientConfig) *openai.Client {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(config)
}
