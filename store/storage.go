package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"docqa/types"
)

// DBStorer is the persistence surface the pipeline depends on. Rows are
// chunk-level: one stored chunk per row, each carrying its own vector.
type DBStorer interface {
	InsertChunk(ctx context.Context, chunk types.Chunk) (uuid.UUID, error)
	Search(ctx context.Context, queryVec []float32, limit int, minScore float64) ([]types.RetrievalResult, error)
	SearchTop(ctx context.Context, queryVec []float32, limit int) ([]types.RetrievalResult, error)
	DeleteChunk(ctx context.Context, id uuid.UUID) error
	DeleteChunks(ctx context.Context, ids []uuid.UUID) error
	ListChunks(ctx context.Context, limit, offset int) ([]types.StoredChunk, error)
	Stats(ctx context.Context) (*types.StoreStats, error)
}

const embeddingIndexName = "idx_documents_embedding"

// ErrChunkNotFound reports a delete that matched no row.
var ErrChunkNotFound = errors.New("chunk not found")

type PostgresStore struct {
	pool *pgxpool.Pool
	dim  int
}

func NewPostgresStore(ctx context.Context, connStr string, embeddingDim int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool, dim: embeddingDim}, nil
}

func (p *PostgresStore) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata JSONB,
		embedding vector(%d),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS %s ON documents USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS idx_documents_name ON documents(name);
	`, p.dim, embeddingIndexName)

	_, err := p.pool.Exec(ctx, query)
	return err
}

// chunkMeta derives the jsonb metadata stored alongside a chunk row. The
// chunk key is filename plus index, so re-uploading the same filename yields
// colliding keys; rows stay distinct by their uuid primary key.
func chunkMeta(chunk types.Chunk) types.ChunkMetadata {
	return types.ChunkMetadata{
		Filename:      chunk.Name,
		ChunkIndex:    chunk.Index,
		ChunkKey:      fmt.Sprintf("%s-%d", chunk.Name, chunk.Index),
		OverlapPrefix: chunk.OverlapPrefix,
	}
}

func (p *PostgresStore) InsertChunk(ctx context.Context, chunk types.Chunk) (uuid.UUID, error) {
	if chunk.ID == uuid.Nil {
		chunk.ID = uuid.New()
	}
	meta, err := json.Marshal(chunkMeta(chunk))
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal chunk metadata: %w", err)
	}

	query := `
	INSERT INTO documents (id, name, content, metadata, embedding)
	VALUES ($1, $2, $3, $4, $5)
	`
	_, err = p.pool.Exec(ctx, query,
		chunk.ID, chunk.Name, chunk.Content, meta, pgvector.NewVector(chunk.Embedding),
	)
	if err != nil {
		return uuid.Nil, err
	}
	return chunk.ID, nil
}

// Search returns up to limit chunks whose cosine similarity against queryVec
// strictly exceeds minScore, best match first.
func (p *PostgresStore) Search(ctx context.Context, queryVec []float32, limit int, minScore float64) ([]types.RetrievalResult, error) {
	query := `
	SELECT id, content, 1-(embedding <=> $1) AS score
	FROM documents
	WHERE embedding IS NOT NULL AND 1-(embedding <=> $1) > $3
	ORDER BY embedding <=> $1
	LIMIT $2
	`
	return p.searchRows(ctx, query, pgvector.NewVector(queryVec), limit, minScore)
}

// SearchTop is the unthresholded tier: the best limit matches regardless of
// how weak they are. Empty only when the corpus holds no vectors.
func (p *PostgresStore) SearchTop(ctx context.Context, queryVec []float32, limit int) ([]types.RetrievalResult, error) {
	query := `
	SELECT id, content, 1-(embedding <=> $1) AS score
	FROM documents
	WHERE embedding IS NOT NULL
	ORDER BY embedding <=> $1
	LIMIT $2
	`
	return p.searchRows(ctx, query, pgvector.NewVector(queryVec), limit)
}

func (p *PostgresStore) searchRows(ctx context.Context, query string, args ...any) ([]types.RetrievalResult, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []types.RetrievalResult
	for rows.Next() {
		var res types.RetrievalResult
		if err := rows.Scan(&res.ID, &res.Text, &res.Score); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (p *PostgresStore) DeleteChunk(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrChunkNotFound
	}
	return nil
}

func (p *PostgresStore) DeleteChunks(ctx context.Context, ids []uuid.UUID) error {
	_, err := p.pool.Exec(ctx, "DELETE FROM documents WHERE id = ANY($1)", ids)
	return err
}

func (p *PostgresStore) ListChunks(ctx context.Context, limit, offset int) ([]types.StoredChunk, error) {
	query := `
	SELECT id, name, content, metadata, created_at
	FROM documents
	ORDER BY created_at DESC, (metadata->>'chunkIndex')::int
	LIMIT $1 OFFSET $2
	`
	rows, err := p.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []types.StoredChunk
	for rows.Next() {
		var chunk types.StoredChunk
		var meta []byte
		if err := rows.Scan(&chunk.ID, &chunk.Name, &chunk.Content, &meta, &chunk.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (p *PostgresStore) Stats(ctx context.Context) (*types.StoreStats, error) {
	stats := &types.StoreStats{}
	row := p.pool.QueryRow(ctx, "SELECT count(*), count(embedding) FROM documents")
	if err := row.Scan(&stats.Total, &stats.VectorCount); err != nil {
		return nil, err
	}

	row = p.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE tablename = 'documents' AND indexname = $1)",
		embeddingIndexName,
	)
	if err := row.Scan(&stats.Indexed); err != nil {
		return nil, err
	}

	if stats.Indexed {
		stats.Status = "ready"
	} else {
		stats.Status = "indexing"
	}
	return stats, nil
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		slog.Info("postgres connection pool closed")
	}
	return nil
}
