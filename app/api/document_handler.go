package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docqa/store"
	"docqa/types"
)

const defaultListLimit = 50

type DocumentHandler struct {
	store store.DBStorer
}

func NewDocumentHandler(storer store.DBStorer) *DocumentHandler {
	return &DocumentHandler{store: storer}
}

func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit < 1 {
		limit = defaultListLimit
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	chunks, err := h.store.ListChunks(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	if chunks == nil {
		chunks = []types.StoredChunk{}
	}

	return c.JSON(fiber.Map{
		"chunks": chunks,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *DocumentHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}
	if err := h.store.DeleteChunk(c.UserContext(), id); err != nil {
		if errors.Is(err, store.ErrChunkNotFound) {
			return ErrNotFound(id, "chunk")
		}
		return err
	}
	return c.JSON(fiber.Map{"deleted": id.String()})
}

func (h *DocumentHandler) HandleDeleteMany(c *fiber.Ctx) error {
	var params types.DeleteParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return types.NewValidationError(errors)
	}

	ids := make([]uuid.UUID, len(params.IDs))
	for i, raw := range params.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return ErrInvalidID()
		}
		ids[i] = id
	}

	if err := h.store.DeleteChunks(c.UserContext(), ids); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": len(ids)})
}

func (h *DocumentHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.store.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
