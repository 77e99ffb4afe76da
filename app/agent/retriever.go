package agent

import (
	"context"
	"fmt"
	"log/slog"

	"docqa/model"
	"docqa/store"
	"docqa/types"
)

// Retriever embeds a query and finds the most similar stored chunks.
type Retriever struct {
	embedder model.Embedder
	store    store.DBStorer
}

func NewRetriever(embedder model.Embedder, storer store.DBStorer) *Retriever {
	return &Retriever{embedder: embedder, store: storer}
}

// Retrieve returns up to limit chunks ranked by cosine similarity. The first
// pass keeps only scores above threshold; when that finds nothing, a second
// unthresholded pass returns the best matches however weak, so an empty
// result means the corpus itself holds no vectors. Weak matches stay visible
// through their scores rather than being hidden behind a hard no-match.
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int, threshold float64) ([]types.RetrievalResult, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.store.Search(ctx, vec, limit, threshold)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	if len(results) > 0 {
		return results, nil
	}

	slog.DebugContext(ctx, "no matches above threshold, falling back to best-effort search",
		"threshold", threshold, "limit", limit)

	results, err = r.store.SearchTop(ctx, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("fallback search: %w", err)
	}
	return results, nil
}
