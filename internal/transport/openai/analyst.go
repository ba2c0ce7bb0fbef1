package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propfinder/internal/domain"
)

const defaultMaxTokens = 160

// Analyst writes short summaries through the chat completion API.
type Analyst struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	user        string
	logger      *zap.Logger
}

// NewAnalyst creates a chat-completion client. maxTokens <= 0 uses 160.
func NewAnalyst(cfg *Config, maxTokens int, temperature float32) *Analyst {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Analyst{
		client:      newClient(cfg),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: temperature,
		user:        cfg.User,
		logger:      cfg.Logger,
	}
}

// Complete sends one system + user turn and returns the trimmed reply.
// Failures wrap domain.ErrAnalysisUnavailable.
func (a *Analyst) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		User:        a.user,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("chat API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, domain.ErrAnalysisUnavailable)
		}
		return "", fmt.Errorf("chat request failed: %w: %w", domain.ErrAnalysisUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat response: %w", domain.ErrAnalysisUnavailable)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("blank chat response: %w", domain.ErrAnalysisUnavailable)
	}

	if a.logger != nil {
		a.logger.Debug("Analysis completed",
			zap.String("model", a.model),
			zap.Int("total_tokens", resp.Usage.TotalTokens),
			zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		)
	}
	return text, nil
}
