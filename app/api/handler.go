package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"docqa/types"
)

// Asker is the question/answer pipeline behind the ask endpoint.
type Asker interface {
	Ask(ctx context.Context, question string, maxSources int) (*types.RagAnswer, error)
}

type AskHandler struct {
	agent Asker
}

func NewAskHandler(agent Asker) *AskHandler {
	return &AskHandler{agent: agent}
}

func (h *AskHandler) HandleAsk(c *fiber.Ctx) error {
	var params types.AskParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return types.NewValidationError(errors)
	}

	answer, err := h.agent.Ask(c.UserContext(), params.Question, params.MaxSources)
	if err != nil {
		return err
	}

	return c.JSON(answer)
}
