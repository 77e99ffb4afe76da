package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docqa/model"
	"docqa/types"
)

type MockContextRetriever struct{ mock.Mock }

func (m *MockContextRetriever) Retrieve(ctx context.Context, query string, limit int, threshold float64) ([]types.RetrievalResult, error) {
	args := m.Called(ctx, query, limit, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.RetrievalResult), args.Error(1)
}

type MockLLM struct{ mock.Mock }

func (m *MockLLM) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (*model.Completion, error) {
	args := m.Called(ctx, system, user, temperature, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Completion), args.Error(1)
}

func testConfig() types.Config {
	return types.Config{
		SearchLimit:     3,
		SearchThreshold: 0.3,
		Temperature:     0.2,
		MaxAnswerTokens: 1500,
	}
}

func TestAgent_Ask_Validation(t *testing.T) {
	tests := []struct {
		name     string
		question string
	}{
		{"empty question", ""},
		{"under five characters", "why?"},
		{"over a thousand characters", strings.Repeat("q", 1001)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever := new(MockContextRetriever)
			llm := new(MockLLM)
			a := NewAgent(retriever, llm, testConfig())

			_, err := a.Ask(context.Background(), tt.question, 3)
			require.Error(t, err)

			var valErr types.ValidationError
			assert.ErrorAs(t, err, &valErr)
			retriever.AssertNotCalled(t, "Retrieve",
				mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			llm.AssertNotCalled(t, "Complete",
				mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAgent_Ask_NoResultsShortCircuit(t *testing.T) {
	retriever := new(MockContextRetriever)
	llm := new(MockLLM)
	retriever.On("Retrieve", mock.Anything, "is there anything at all", 3, 0.3).
		Return([]types.RetrievalResult{}, nil)

	a := NewAgent(retriever, llm, testConfig())
	answer, err := a.Ask(context.Background(), "is there anything at all", 3)
	require.NoError(t, err)

	assert.Equal(t, noInfoAnswer, answer.Answer)
	assert.Empty(t, answer.Sources)
	assert.NotNil(t, answer.Sources)
	assert.GreaterOrEqual(t, answer.ResponseTimeMs, int64(0))
	assert.Zero(t, answer.TokensUsed)
	llm.AssertNotCalled(t, "Complete",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAgent_Ask_Success(t *testing.T) {
	longText := strings.Repeat("z", 300)
	results := []types.RetrievalResult{
		{ID: uuid.New(), Text: "Cats purr when content.", Score: 0.91},
		{ID: uuid.New(), Text: longText, Score: 0.44},
	}

	retriever := new(MockContextRetriever)
	llm := new(MockLLM)
	retriever.On("Retrieve", mock.Anything, "why do cats purr", 2, 0.3).Return(results, nil)
	llm.On("Complete",
		mock.Anything,
		systemPrompt,
		mock.MatchedBy(func(user string) bool {
			return strings.Contains(user, "Source 1 (relevance: 91.0%)") &&
				strings.Contains(user, "Question: why do cats purr")
		}),
		0.2, 1500,
	).Return(&model.Completion{Text: "According to source 1, cats purr when content.", TokensUsed: 321}, nil)

	a := NewAgent(retriever, llm, testConfig())
	answer, err := a.Ask(context.Background(), "why do cats purr", 2)
	require.NoError(t, err)

	assert.Equal(t, "According to source 1, cats purr when content.", answer.Answer)
	assert.Equal(t, 321, answer.TokensUsed)
	assert.GreaterOrEqual(t, answer.ResponseTimeMs, int64(0))

	require.Len(t, answer.Sources, 2)
	assert.Equal(t, results[0].ID.String(), answer.Sources[0].ID)
	assert.Equal(t, results[0].Score, answer.Sources[0].Score)
	assert.Equal(t, "Cats purr when content.", answer.Sources[0].Preview)
	assert.Equal(t, longText, answer.Sources[1].Text)
	assert.Equal(t, strings.Repeat("z", 150)+"...", answer.Sources[1].Preview)
}

func TestAgent_Ask_DefaultMaxSources(t *testing.T) {
	retriever := new(MockContextRetriever)
	llm := new(MockLLM)
	retriever.On("Retrieve", mock.Anything, mock.Anything, 3, 0.3).
		Return([]types.RetrievalResult{}, nil)

	a := NewAgent(retriever, llm, testConfig())
	_, err := a.Ask(context.Background(), "a question without max sources", 0)
	require.NoError(t, err)
	retriever.AssertExpectations(t)
}

func TestAgent_Ask_EmptyCompletionFallsBack(t *testing.T) {
	retriever := new(MockContextRetriever)
	llm := new(MockLLM)
	retriever.On("Retrieve", mock.Anything, mock.Anything, 3, 0.3).
		Return(someResults(0.8), nil)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&model.Completion{Text: "", TokensUsed: 10}, nil)

	a := NewAgent(retriever, llm, testConfig())
	answer, err := a.Ask(context.Background(), "a perfectly fine question", 3)
	require.NoError(t, err)
	assert.Equal(t, emptyAnswerFallback, answer.Answer)
	assert.Equal(t, 10, answer.TokensUsed)
}

func TestAgent_Ask_FailuresPropagate(t *testing.T) {
	t.Run("retrieval failure", func(t *testing.T) {
		retriever := new(MockContextRetriever)
		llm := new(MockLLM)
		retriever.On("Retrieve", mock.Anything, mock.Anything, 3, 0.3).
			Return(nil, errors.New("embedding service down"))

		a := NewAgent(retriever, llm, testConfig())
		_, err := a.Ask(context.Background(), "a perfectly fine question", 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retrieve context")
		llm.AssertNotCalled(t, "Complete",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("completion failure", func(t *testing.T) {
		retriever := new(MockContextRetriever)
		llm := new(MockLLM)
		retriever.On("Retrieve", mock.Anything, mock.Anything, 3, 0.3).
			Return(someResults(0.8), nil)
		llm.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("model overloaded"))

		a := NewAgent(retriever, llm, testConfig())
		_, err := a.Ask(context.Background(), "a perfectly fine question", 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "generate answer")
	})
}
