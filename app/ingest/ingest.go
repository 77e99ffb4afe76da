package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"docqa/model"
	"docqa/store"
	"docqa/types"
)

// Ingestor turns a document's extracted text into stored, embedded chunks.
type Ingestor struct {
	store    store.DBStorer
	embedder model.Embedder
	splitter *model.Splitter
}

func New(storer store.DBStorer, embedder model.Embedder, cfg types.Config) *Ingestor {
	return &Ingestor{
		store:    storer,
		embedder: embedder,
		splitter: model.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
	}
}

// Ingest segments text, then embeds and stores each chunk sequentially.
// Chunks are persisted one by one: a failure partway through leaves the
// already-stored chunks in place and reports which chunk failed. Returns the
// number of chunks stored.
func (ing *Ingestor) Ingest(ctx context.Context, filename, text string) (int, error) {
	chunks := ing.splitter.SplitChunks(text)
	if len(chunks) == 0 {
		slog.InfoContext(ctx, "nothing to ingest", "document", filename)
		return 0, nil
	}

	for i, chunk := range chunks {
		vec, err := ing.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return i, fmt.Errorf("embed chunk %d of %q: %w", i+1, filename, err)
		}
		_, err = ing.store.InsertChunk(ctx, types.Chunk{
			Name:          filename,
			Index:         i + 1,
			Content:       chunk.Text,
			OverlapPrefix: chunk.OverlapPrefix,
			Embedding:     vec,
		})
		if err != nil {
			return i, fmt.Errorf("store chunk %d of %q: %w", i+1, filename, err)
		}
	}

	slog.InfoContext(ctx, "document ingested", "document", filename, "chunks", len(chunks))
	return len(chunks), nil
}
