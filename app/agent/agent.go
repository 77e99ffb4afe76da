package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"docqa/model"
	"docqa/types"
)

const systemPrompt = `You are an assistant answering questions about the user's uploaded documents.

Rules:
- Prioritize the supplied context when answering.
- Attribute claims taken from the context explicitly, e.g. "according to source 2".
- Mark claims from your own general knowledge, e.g. "in general, ...". Only add
  general knowledge when the context is insufficient to answer.
- Do not speculate. If neither the context nor reliable general knowledge
  covers the question, say so.
- Structure the answer for readability.`

const (
	noInfoAnswer = "No relevant information was found in the uploaded documents for this question. " +
		"Try rephrasing it or uploading documents that cover the topic."
	emptyAnswerFallback = "The language model returned an empty answer. Please try again."

	previewLimit      = 150
	defaultMaxSources = 3
	defaultThreshold  = 0.3
)

// ContextRetriever finds stored chunks relevant to a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, limit int, threshold float64) ([]types.RetrievalResult, error)
}

// Agent answers a question by retrieving relevant chunks and conditioning
// the language model's response on them.
type Agent struct {
	retriever   ContextRetriever
	llm         model.LLM
	maxSources  int
	threshold   float64
	temperature float64
	maxTokens   int
}

func NewAgent(retriever ContextRetriever, llm model.LLM, cfg types.Config) *Agent {
	a := &Agent{
		retriever:   retriever,
		llm:         llm,
		maxSources:  cfg.SearchLimit,
		threshold:   cfg.SearchThreshold,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxAnswerTokens,
	}
	if a.maxSources <= 0 {
		a.maxSources = defaultMaxSources
	}
	if a.threshold <= 0 {
		a.threshold = defaultThreshold
	}
	return a
}

// Ask synthesizes an answer for question, grounded on at most maxSources
// retrieved chunks (the configured default when maxSources <= 0). A question
// failing validation is rejected before any external call. When retrieval
// finds nothing at all, a fixed no-information answer is returned without
// invoking the language model.
func (a *Agent) Ask(ctx context.Context, question string, maxSources int) (*types.RagAnswer, error) {
	params := types.AskParams{Question: question}
	if errs := types.Validate(&params); len(errs) > 0 {
		return nil, types.NewValidationError(errs)
	}
	if maxSources <= 0 {
		maxSources = a.maxSources
	}

	start := time.Now()

	results, err := a.retriever.Retrieve(ctx, question, maxSources, a.threshold)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(results) == 0 {
		return &types.RagAnswer{
			Answer:         noInfoAnswer,
			Sources:        []types.Source{},
			ResponseTimeMs: time.Since(start).Milliseconds(),
		}, nil
	}

	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", BuildContext(results), question)
	logPromptSize(ctx, systemPrompt, userPrompt)

	completion, err := a.llm.Complete(ctx, systemPrompt, userPrompt, a.temperature, a.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer := completion.Text
	if answer == "" {
		answer = emptyAnswerFallback
	}

	sources := make([]types.Source, len(results))
	for i, res := range results {
		sources[i] = types.Source{
			ID:      res.ID.String(),
			Score:   res.Score,
			Text:    res.Text,
			Preview: preview(res.Text, previewLimit),
		}
	}

	return &types.RagAnswer{
		Answer:         answer,
		Sources:        sources,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		TokensUsed:     completion.TokensUsed,
	}, nil
}

func logPromptSize(ctx context.Context, system, user string) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		slog.WarnContext(ctx, "token encoding unavailable", "error", err)
		return
	}
	total := len(enc.Encode(system, nil, nil)) + len(enc.Encode(user, nil, nil))
	slog.DebugContext(ctx, "prompt assembled", "prompt_tokens", total, "prompt_bytes", len(system)+len(user))
}

// preview trims text to max characters for display, marking the cut.
func preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
