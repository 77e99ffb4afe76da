package model

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"docqa/types"
)

// Completion is the language model's output for one prompt pair.
type Completion struct {
	Text       string
	TokensUsed int
}

// LLM generates a completion from a system/user prompt pair.
type LLM interface {
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (*Completion, error)
}

// OpenAILLM answers prompts via the OpenAI chat completions API.
type OpenAILLM struct {
	client openai.Client
	model  string
}

func NewOpenAILLM(cfg types.Config) *OpenAILLM {
	opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIAPIKey)}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return &OpenAILLM{
		client: openai.NewClient(opts...),
		model:  cfg.ChatModel,
	}
}

func (l *OpenAILLM) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (*Completion, error) {
	resp, err := l.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(l.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	out := &Completion{TokensUsed: int(resp.Usage.TotalTokens)}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	return out, nil
}
