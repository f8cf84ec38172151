package store

import (
	"context"
	"fmt"
	"strings"

	"research-rag/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EmbeddingDim is the expected embedding width. 384 matches the MiniLM-class
// sentence embedding models the pipeline defaults to.
const EmbeddingDim = 384

// PostgresStore keeps chunks in Postgres with a pgvector column
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and verifies the connection
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{Pool: pool}, nil
}

// Initialize sets up the chunks table and its indices
func (s *PostgresStore) Initialize(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS chunks (
            id SERIAL PRIMARY KEY,
            filename TEXT NOT NULL,
            chunk_id INTEGER NOT NULL,
            content TEXT NOT NULL,
            section TEXT NOT NULL,
            page INTEGER NOT NULL,
            heading TEXT,
            word_count INTEGER NOT NULL,
            embedding vector(%d) NOT NULL
        )
    `, EmbeddingDim))
	if err != nil {
		return fmt.Errorf("failed to create chunks table: %w", err)
	}

	_, err = s.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS chunks_embedding_idx ON chunks
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)
	`)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	_, err = s.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS chunks_section_idx ON chunks (section);
		CREATE INDEX IF NOT EXISTS chunks_filename_idx ON chunks (filename);
	`)
	if err != nil {
		return fmt.Errorf("failed to create metadata indices: %w", err)
	}

	return nil
}

// AddChunks stores one document's chunks inside a single transaction, so a
// failed document leaves nothing visible to searches.
func (s *PostgresStore) AddChunks(ctx context.Context, chunks []models.Chunk, fileName string) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	count := 0
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}
		_, err := tx.Exec(ctx, `
            INSERT INTO chunks (filename, chunk_id, content, section, page, heading, word_count, embedding)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        `,
			fileName,
			chunk.Metadata.ChunkID,
			chunk.Text,
			chunk.Metadata.Section,
			chunk.Metadata.Page,
			chunk.Metadata.Heading,
			chunk.Metadata.WordCount,
			chunk.Embedding)
		if err != nil {
			return 0, fmt.Errorf("failed to store chunk %d: %w", chunk.Metadata.ChunkID, err)
		}
		count++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit chunks: %w", err)
	}
	return count, nil
}

// Search ranks chunks by cosine distance to the query embedding and converts
// the distance to a similarity, clamped at 0. Metadata filters combine with AND.
func (s *PostgresStore) Search(ctx context.Context, embedding []float64, n int, f Filters) ([]models.RetrievedResult, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT content, chunk_id, section, page, heading, word_count, filename,
		       GREATEST(0, 1 - (embedding <=> $1)) AS similarity
		FROM chunks
		WHERE ($2 = '' OR section = $2)
		  AND ($3 = '' OR filename = $3)
		ORDER BY embedding <=> $1
		LIMIT $4
	`, embedding, f.Section, f.Filename, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar chunks: %w", err)
	}
	defer rows.Close()

	var results []models.RetrievedResult
	for rows.Next() {
		var r models.RetrievedResult
		var heading *string
		if err := rows.Scan(
			&r.Text,
			&r.Metadata.ChunkID,
			&r.Metadata.Section,
			&r.Metadata.Page,
			&heading,
			&r.Metadata.WordCount,
			&r.Metadata.Filename,
			&r.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if heading != nil {
			r.Metadata.Heading = *heading
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}

// DeleteDocument removes every chunk belonging to one file
func (s *PostgresStore) DeleteDocument(ctx context.Context, fileName string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM chunks WHERE filename = $1`, fileName)
	if err != nil {
		return false, fmt.Errorf("failed to delete document %s: %w", fileName, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ClearAll empties the store
func (s *PostgresStore) ClearAll(ctx context.Context) (bool, error) {
	if _, err := s.Pool.Exec(ctx, `TRUNCATE chunks`); err != nil {
		return false, fmt.Errorf("failed to clear store: %w", err)
	}
	return true, nil
}

// Stats reports chunk and document counts
func (s *PostgresStore) Stats(ctx context.Context) (models.StoreStats, error) {
	var stats models.StoreStats

	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&stats.TotalChunks); err != nil {
		return stats, fmt.Errorf("failed to count chunks: %w", err)
	}

	rows, err := s.Pool.Query(ctx, `SELECT DISTINCT filename FROM chunks ORDER BY filename`)
	if err != nil {
		return stats, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return stats, fmt.Errorf("failed to scan filename: %w", err)
		}
		stats.Documents = append(stats.Documents, name)
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("error iterating rows: %w", err)
	}

	stats.UniqueDocuments = len(stats.Documents)
	return stats, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() {
	s.Pool.Close()
}
