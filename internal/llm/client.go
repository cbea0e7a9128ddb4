// Package llm is the optional enhanced-rewrite adapter. It is the only
// fallible, externally-dependent step in the pipeline: every failure mode
// (missing credential, timeout, auth error, malformed response) collapses
// into "no result" so callers always fall back to the local rewrite.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/inclusiveworks/inlint/internal/config"
	"github.com/inclusiveworks/inlint/internal/linter"
	"github.com/inclusiveworks/inlint/internal/logger"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemPrompt = "You are an accessibility writing assistant for apprenticeship postings. " +
	"Use inclusive, plain language and task-not-method phrasing. " +
	"Rewrite the text, remove needless prerequisites, and keep the original structure. " +
	"Return only the rewritten text."

// Client talks to the external rewrite service. A nil or credential-less
// client is valid and simply never produces a result.
type Client struct {
	api    *openai.Client
	config config.LLMConfig
	logger *logger.Logger
}

// New creates a rewrite client. Without an API key the client is inert: no
// network attempt is ever made.
func New(cfg config.LLMConfig, log *logger.Logger) *Client {
	client := &Client{
		config: cfg,
		logger: log,
	}

	if cfg.APIKey == "" {
		log.Info("No rewrite credential configured, running local-only")
		return client
	}

	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = cfg.BaseURL
	}
	client.api = openai.NewClientWithConfig(apiConfig)

	log.Info("Enhanced rewrite enabled",
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)

	return client
}

// Enabled reports whether a credential is configured
func (c *Client) Enabled() bool {
	return c != nil && c.api != nil
}

// TryRewrite asks the service for an improved rewrite of text, informed by
// the findings. The second return value is false when no usable result was
// produced; the call is bounded by the configured timeout and the caller's
// context, and never mutates its inputs.
func (c *Client) TryRewrite(ctx context.Context, text string, findings []linter.Finding) (string, bool) {
	if !c.Enabled() {
		return "", false
	}

	timeout := c.config.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text, findings)},
		},
	})
	if err != nil {
		c.logger.Warn("Enhanced rewrite unavailable",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
		return "", false
	}

	if len(resp.Choices) == 0 {
		c.logger.Warn("Enhanced rewrite returned no choices")
		return "", false
	}

	rewritten := strings.TrimSpace(resp.Choices[0].Message.Content)
	if rewritten == "" {
		c.logger.Warn("Enhanced rewrite returned empty content")
		return "", false
	}

	c.logger.Debug("Enhanced rewrite completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return rewritten, true
}

// buildPrompt assembles the user message: a findings summary followed by the
// original text
func buildPrompt(text string, findings []linter.Finding) string {
	var b strings.Builder

	b.WriteString("Issues detected by the rule linter:\n")
	if len(findings) == 0 {
		b.WriteString("- none; polish wording only\n")
	}
	for _, f := range findings {
		fmt.Fprintf(&b, "- [%s/%s] %q: %s (suggested: %q)\n",
			f.Category, f.Severity, f.MatchedText, f.Message, f.Suggestion)
	}

	b.WriteString("\n---\nOriginal:\n")
	b.WriteString(text)

	return b.String()
}
