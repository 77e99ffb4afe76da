package api

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TextExtractor pulls plain text out of an uploaded file.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

// Ingester stores a document's text as embedded chunks.
type Ingester interface {
	Ingest(ctx context.Context, filename, text string) (int, error)
}

type FileHandler struct {
	parser    TextExtractor
	ingestor  Ingester
	uploadDir string
}

func NewFileHandler(parser TextExtractor, ingestor Ingester, uploadDir string) *FileHandler {
	return &FileHandler{
		parser:    parser,
		ingestor:  ingestor,
		uploadDir: uploadDir,
	}
}

// HandleUpload accepts one multipart file, extracts its text and ingests it.
// The file only lives on disk for the duration of the request.
func (h *FileHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}

	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		return err
	}
	// Scratch name is unique per request so concurrent uploads sharing a
	// filename never clobber or remove each other's file.
	path := filepath.Join(h.uploadDir, uuid.NewString()+"-"+filepath.Base(fileHeader.Filename))
	if err := c.SaveFile(fileHeader, path); err != nil {
		return err
	}
	defer os.Remove(path)

	text, err := h.parser.ExtractText(path)
	if err != nil {
		return NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	stored, err := h.ingestor.Ingest(c.UserContext(), fileHeader.Filename, text)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"document":     fileHeader.Filename,
		"chunks_added": stored,
	})
}
