package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docqa/types"
)

type MockAsker struct{ mock.Mock }

func (m *MockAsker) Ask(ctx context.Context, question string, maxSources int) (*types.RagAnswer, error) {
	args := m.Called(ctx, question, maxSources)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RagAnswer), args.Error(1)
}

func newTestApp(asker Asker) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/api/v1/ask", NewAskHandler(asker).HandleAsk)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body []byte) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestHandleAsk(t *testing.T) {
	t.Run("returns the synthesized answer", func(t *testing.T) {
		asker := new(MockAsker)
		asker.On("Ask", mock.Anything, "why do cats purr", 2).Return(&types.RagAnswer{
			Answer:         "because they are content",
			Sources:        []types.Source{},
			ResponseTimeMs: 12,
			TokensUsed:     99,
		}, nil)

		body, _ := json.Marshal(types.AskParams{Question: "why do cats purr", MaxSources: 2})
		resp := postJSON(t, newTestApp(asker), "/api/v1/ask", body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var answer types.RagAnswer
		raw, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(raw, &answer))
		assert.Equal(t, "because they are content", answer.Answer)
		assert.Equal(t, 99, answer.TokensUsed)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		asker := new(MockAsker)
		resp := postJSON(t, newTestApp(asker), "/api/v1/ask", []byte("{not json"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		asker.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a too-short question before the pipeline runs", func(t *testing.T) {
		asker := new(MockAsker)
		body, _ := json.Marshal(types.AskParams{Question: "hey"})
		resp := postJSON(t, newTestApp(asker), "/api/v1/ask", body)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		asker.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("pipeline failures map to a generic server error", func(t *testing.T) {
		asker := new(MockAsker)
		asker.On("Ask", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("generate answer: model overloaded"))

		body, _ := json.Marshal(types.AskParams{Question: "a valid question"})
		resp := postJSON(t, newTestApp(asker), "/api/v1/ask", body)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		var apiErr Error
		raw, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(raw, &apiErr))
		assert.Equal(t, "request failed", apiErr.Message)
	})
}
