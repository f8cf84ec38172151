package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"research-rag/internal/models"
)

// MemoryStore is a brute-force in-memory vector store. It serves tests and
// single-machine setups without Postgres.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []memoryChunk
}

type memoryChunk struct {
	text      string
	metadata  models.ChunkMetadata
	embedding []float64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AddChunks stores one document's chunks. The whole document is staged before
// it becomes visible, so a bad chunk leaves nothing behind.
func (s *MemoryStore) AddChunks(_ context.Context, chunks []models.Chunk, fileName string) (int, error) {
	staged := make([]memoryChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}
		if len(chunk.Embedding) == 0 {
			return 0, fmt.Errorf("chunk %d of %s has no embedding", chunk.Metadata.ChunkID, fileName)
		}
		md := chunk.Metadata
		md.Filename = fileName
		staged = append(staged, memoryChunk{
			text:      chunk.Text,
			metadata:  md,
			embedding: chunk.Embedding,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, staged...)
	return len(staged), nil
}

// Search ranks stored chunks by cosine similarity, descending, with ties kept
// in insertion order. Similarity is clamped at 0 so vectors pointing away from
// the query never report a negative score.
func (s *MemoryStore) Search(_ context.Context, embedding []float64, n int, f Filters) ([]models.RetrievedResult, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []models.RetrievedResult
	for _, c := range s.chunks {
		if f.Section != "" && c.metadata.Section != f.Section {
			continue
		}
		if f.Filename != "" && c.metadata.Filename != f.Filename {
			continue
		}
		results = append(results, models.RetrievedResult{
			Text:       c.text,
			Metadata:   c.metadata,
			Similarity: math.Max(0, 1-cosineDistance(embedding, c.embedding)),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// DeleteDocument removes every chunk of one file
func (s *MemoryStore) DeleteDocument(_ context.Context, fileName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	deleted := false
	for _, c := range s.chunks {
		if c.metadata.Filename == fileName {
			deleted = true
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return deleted, nil
}

// ClearAll empties the store
func (s *MemoryStore) ClearAll(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	return true, nil
}

// Stats reports chunk and document counts
func (s *MemoryStore) Stats(_ context.Context) (models.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var docs []string
	for _, c := range s.chunks {
		if !seen[c.metadata.Filename] {
			seen[c.metadata.Filename] = true
			docs = append(docs, c.metadata.Filename)
		}
	}
	sort.Strings(docs)

	return models.StoreStats{
		TotalChunks:     len(s.chunks),
		UniqueDocuments: len(docs),
		Documents:       docs,
	}, nil
}

// cosineDistance is 1 - cosine similarity; orthogonal or empty vectors give 1.
func cosineDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
