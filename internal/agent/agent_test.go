package agent

import (
	"context"
	"errors"
	"testing"

	"research-rag/internal/models"
	"research-rag/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) EmbedText(_ context.Context, _ string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float64{1, 0}, nil
}

func (s *stubEmbedder) EmbedChunks(_ context.Context, chunks []models.Chunk, _ func(int, int)) ([]models.Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range chunks {
		chunks[i].Embedding = []float64{1, 0}
	}
	return chunks, nil
}

type stubGenerator struct {
	answer string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.answer, s.err
}

type failingStore struct {
	store.Store
}

func (f *failingStore) Search(_ context.Context, _ []float64, _ int, _ store.Filters) ([]models.RetrievedResult, error) {
	return nil, errors.New("connection refused")
}

func seededStore(t *testing.T) store.Store {
	t.Helper()
	s := store.NewMemoryStore()
	_, err := s.AddChunks(context.Background(), []models.Chunk{
		{
			Text:      "attention weighs token pairs",
			Metadata:  models.ChunkMetadata{ChunkID: 0, Section: "introduction", Page: 1},
			Embedding: []float64{1, 0},
		},
	}, "paper.pdf")
	require.NoError(t, err)
	return s
}

func TestAnswerQuestion(t *testing.T) {
	gen := &stubGenerator{answer: "Attention weighs token pairs [Source 1]."}
	a := New(seededStore(t), &stubEmbedder{}, gen, nil, 3, nil)

	answer, err := a.AnswerQuestion(context.Background(), "What is attention?", 0, store.Filters{})
	require.NoError(t, err)

	assert.Equal(t, "Attention weighs token pairs [Source 1].", answer.Answer)
	assert.Equal(t, "What is attention?", answer.Query)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "paper.pdf", answer.Sources[0].Metadata.Filename)
	assert.NotEmpty(t, answer.Timestamp)

	assert.Contains(t, gen.prompt, "attention weighs token pairs")
	assert.Contains(t, gen.prompt, "Question: What is attention?")
}

func TestAnswerQuestionEmptyStore(t *testing.T) {
	a := New(store.NewMemoryStore(), &stubEmbedder{}, &stubGenerator{}, nil, 3, nil)

	answer, err := a.AnswerQuestion(context.Background(), "anything", 0, store.Filters{})
	require.NoError(t, err)
	assert.Equal(t, noContextAnswer, answer.Answer)
	assert.Empty(t, answer.Sources)
}

func TestAnswerQuestionEmbeddingFailure(t *testing.T) {
	a := New(seededStore(t), &stubEmbedder{err: errors.New("model not found")}, &stubGenerator{}, nil, 3, nil)

	answer, err := a.AnswerQuestion(context.Background(), "anything", 0, store.Filters{})
	require.NoError(t, err)
	assert.Equal(t, noContextAnswer, answer.Answer)
	assert.Empty(t, answer.Sources)
}

func TestAnswerQuestionRetrievalFailure(t *testing.T) {
	a := New(&failingStore{}, &stubEmbedder{}, &stubGenerator{}, nil, 3, nil)

	answer, err := a.AnswerQuestion(context.Background(), "anything", 0, store.Filters{})
	require.NoError(t, err)
	assert.Equal(t, noContextAnswer, answer.Answer)
}

func TestAnswerQuestionGenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection refused")}
	a := New(seededStore(t), &stubEmbedder{}, gen, nil, 3, nil)

	answer, err := a.AnswerQuestion(context.Background(), "anything", 0, store.Filters{})
	require.NoError(t, err)

	// Sources survive so the user can still follow the citations.
	assert.Len(t, answer.Sources, 1)
	assert.Equal(t,
		"Error generating answer: connection refused. Please make sure Ollama is running.",
		answer.Answer)
}

func TestAnswerQuestionFilterPassthrough(t *testing.T) {
	a := New(seededStore(t), &stubEmbedder{}, &stubGenerator{answer: "ok"}, nil, 3, nil)

	answer, err := a.AnswerQuestion(context.Background(), "anything", 0, store.Filters{Filename: "other.pdf"})
	require.NoError(t, err)
	assert.Equal(t, noContextAnswer, answer.Answer, "filters excluding every chunk read as no context")
}

func TestFormatSourcesDelegation(t *testing.T) {
	a := New(store.NewMemoryStore(), &stubEmbedder{}, &stubGenerator{}, nil, 3, nil)
	assert.Equal(t, "No sources found.", a.FormatSources(&models.Answer{}))
}
