package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
)

// Completer is a prompt-in, text-out completion backend.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAI completes prompts through the chat completions API.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

func NewOpenAI(client openai.Client, model string, temperature float64, maxTokens int) *OpenAI {
	return &OpenAI{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(o.model),
		Temperature: openai.Float(o.temperature),
		MaxTokens:   openai.Int(int64(o.maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty message content")
	}

	log.Debug("Completed", "chars", len(content))

	return content, nil
}

// Retryable reports whether a completion error is transient (rate limits,
// timeouts, server errors, transport failures) as opposed to fatal
// (bad request, bad credentials).
func Retryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooManyRequests:
			return true
		}
		return apiErr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Transport-level failure with no HTTP status.
	return err != nil
}
