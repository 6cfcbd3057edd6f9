// Package ai talks to the language model: it renders the assistant prompt,
// sends the conversation, and pulls booking intents out of the replies.
package ai

import (
	"context"
	"errors"
	"fmt"

	"barberbot/config"
	"barberbot/models"
)

// ErrEmptyReply is returned when the model answers with no text.
var ErrEmptyReply = errors.New("ai: empty reply")

// ChatModel produces the assistant's next reply for a transcript.
type ChatModel interface {
	Chat(ctx context.Context, system string, turns []models.Turn) (string, error)
}

// NewChatModel builds the provider selected by LLM_PROVIDER.
func NewChatModel(ctx context.Context, cfg config.Config) (ChatModel, error) {
	switch cfg.LLMProvider {
	case "", "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("ai: OPENAI_API_KEY is not set")
		}
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("ai: GEMINI_API_KEY is not set")
		}
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("ai: unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

// BuildMessages prepends the system prompt to the transcript.
func BuildMessages(system string, turns []models.Turn) []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, len(turns)+1)
	if system != "" {
		msgs = append(msgs, models.ChatMessage{Role: "system", Content: system})
	}
	for _, t := range turns {
		msgs = append(msgs, models.ChatMessage{Role: t.Role, Content: t.Content})
	}
	return msgs
}
