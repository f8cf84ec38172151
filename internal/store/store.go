package store

import (
	"context"

	"research-rag/internal/models"
)

// Filters narrows a similarity search by chunk metadata. Empty fields are
// ignored; both set means both must match.
type Filters struct {
	Section  string
	Filename string
}

// Store persists embedded chunks and serves similarity searches over them.
// Implementations own the persisted copies; callers hold no reference after
// AddChunks returns.
type Store interface {
	// AddChunks stores one document's chunks atomically and returns how many
	// were persisted. Chunks with empty text are skipped.
	AddChunks(ctx context.Context, chunks []models.Chunk, fileName string) (int, error)

	// Search returns up to n chunks ranked by descending similarity to the
	// query embedding, where similarity = 1 - distance, clamped to [0,1].
	Search(ctx context.Context, embedding []float64, n int, f Filters) ([]models.RetrievedResult, error)

	// DeleteDocument removes every chunk of a document. It reports whether
	// anything was deleted.
	DeleteDocument(ctx context.Context, fileName string) (bool, error)

	// ClearAll removes every chunk from the store.
	ClearAll(ctx context.Context) (bool, error)

	// Stats summarizes the store contents.
	Stats(ctx context.Context) (models.StoreStats, error)
}
