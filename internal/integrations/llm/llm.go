// Package llm produces the short natural-language commentary attached to each
// report, using Anthropic or an OpenAI-compatible chat API.
package llm

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"timereport/internal/config"
	"timereport/internal/domain"
	"timereport/internal/httpx"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"
const defaultOpenAIModel = "gpt-4o-mini"
const defaultOpenAIBaseURL = "https://api.openai.com"

// FallbackCommentary is used whenever no commentary could be produced.
const FallbackCommentary = "Commentary is unavailable for this report."

// Commentator never fails: on any problem it returns FallbackCommentary.
type Commentator interface {
	Commentary(ctx context.Context, rows []domain.ComparisonRow) string
}

type LLMUsage struct {
	InputTokens  int64
	OutputTokens int64
}

func (u LLMUsage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

type caller func(ctx context.Context, systemPrompt, userPrompt string) (string, LLMUsage, error)

// Client calls the configured provider with a bounded linear-backoff retry.
type Client struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	TeamName    string
	MaxAttempts int
	Backoff     time.Duration
	HTTPClient  *http.Client

	call caller
}

func NewClient(cfg config.Config) *Client {
	c := &Client{
		Provider:    cfg.LLMProvider,
		Model:       cfg.LLMModel,
		TeamName:    cfg.TeamName,
		MaxAttempts: cfg.LLMMaxAttempts,
		Backoff:     2 * time.Second,
		HTTPClient:  httpx.ExternalHTTPClient(),
	}
	switch cfg.LLMProvider {
	case "anthropic":
		c.APIKey = cfg.AnthropicAPIKey
	case "openai":
		c.APIKey = cfg.OpenAIAPIKey
		c.BaseURL = cfg.OpenAIBaseURL
	}
	return c
}

func (c *Client) configured() bool {
	return c.APIKey != "" && (c.Provider == "anthropic" || c.Provider == "openai")
}

func (c *Client) model() string {
	if c.Model != "" {
		return c.Model
	}
	if c.Provider == "openai" {
		return defaultOpenAIModel
	}
	return defaultAnthropicModel
}

func (c *Client) pickCaller() caller {
	if c.call != nil {
		return c.call
	}
	if c.Provider == "openai" {
		return c.callOpenAI
	}
	return c.callAnthropic
}

// Commentary returns the provider's text for rows, or FallbackCommentary when
// the credential is missing or every attempt failed.
func (c *Client) Commentary(ctx context.Context, rows []domain.ComparisonRow) string {
	if !c.configured() {
		log.Printf("llm commentary skipped provider=%s (not configured)", c.Provider)
		return FallbackCommentary
	}
	text, err := c.Generate(ctx, rows)
	if err != nil {
		log.Printf("llm commentary fallback provider=%s: %v", c.Provider, err)
		return FallbackCommentary
	}
	return text
}

// Generate performs the provider call with retries and returns its error.
func (c *Client) Generate(ctx context.Context, rows []domain.ComparisonRow) (string, error) {
	systemPrompt, userPrompt, err := buildCommentaryPrompts(c.TeamName, rows)
	if err != nil {
		return "", err
	}
	attempts := max(c.MaxAttempts, 1)
	call := c.pickCaller()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, usage, err := call(ctx, systemPrompt, userPrompt)
		if err == nil && text != "" {
			log.Printf("llm commentary ok provider=%s attempt=%d tokens=%d", c.Provider, attempt, usage.TotalTokens())
			return text, nil
		}
		if err == nil {
			err = fmt.Errorf("empty response")
		}
		lastErr = err
		log.Printf("llm commentary attempt=%d/%d failed: %v", attempt, attempts, err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * c.Backoff):
		}
	}
	return "", fmt.Errorf("commentary failed after %d attempts: %w", attempts, lastErr)
}

// Static returns the same text for every report. It stands in for the
// provider client when commentary is disabled.
type Static string

func (s Static) Commentary(context.Context, []domain.ComparisonRow) string {
	if s == "" {
		return FallbackCommentary
	}
	return string(s)
}
