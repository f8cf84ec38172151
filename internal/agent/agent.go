package agent

import (
	"context"
	"log/slog"
	"time"

	"research-rag/internal/llm"
	"research-rag/internal/models"
	"research-rag/internal/processor"
	"research-rag/internal/store"
)

// Answer text used when retrieval produces nothing usable.
const noContextAnswer = "I couldn't find any relevant information in the uploaded documents. " +
	"Please make sure you've uploaded PDFs first."

// Embedder converts text into embedding vectors
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
	EmbedChunks(ctx context.Context, chunks []models.Chunk, progressFunc func(processed, total int)) ([]models.Chunk, error)
}

// Generator produces prose from a rendered prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Agent wires the processor, embedder, store and LLM into the two top-level
// operations: ingesting documents and answering questions.
type Agent struct {
	Store     store.Store
	Embedder  Embedder
	LLM       Generator
	Processor *processor.Processor
	NResults  int
	Logger    *slog.Logger
}

// New creates an agent with the given collaborators
func New(st store.Store, emb Embedder, gen Generator, proc *processor.Processor, nResults int, logger *slog.Logger) *Agent {
	if nResults <= 0 {
		nResults = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		Store:     st,
		Embedder:  emb,
		LLM:       gen,
		Processor: proc,
		NResults:  nResults,
		Logger:    logger,
	}
}

// AnswerQuestion retrieves relevant chunks and generates a grounded answer.
// Retrieval and generation failures degrade to an explanatory answer instead
// of propagating: a broken backend should read like a message, not a crash.
func (a *Agent) AnswerQuestion(ctx context.Context, question string, n int, f store.Filters) (*models.Answer, error) {
	if n <= 0 {
		n = a.NResults
	}

	answer := &models.Answer{
		Query:     question,
		Sources:   []models.RetrievedResult{},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	queryEmbedding, err := a.Embedder.EmbedText(ctx, question)
	if err != nil {
		a.Logger.Warn("query embedding failed", "error", err)
		answer.Answer = noContextAnswer
		return answer, nil
	}

	results, err := a.Store.Search(ctx, queryEmbedding, n, f)
	if err != nil {
		a.Logger.Warn("retrieval failed", "error", err)
		answer.Answer = noContextAnswer
		return answer, nil
	}
	if len(results) == 0 {
		answer.Answer = noContextAnswer
		return answer, nil
	}
	answer.Sources = results

	prompt := llm.BuildPrompt(question, results)
	text, err := a.LLM.Generate(ctx, prompt)
	if err != nil {
		a.Logger.Warn("generation failed", "error", err)
		answer.Answer = "Error generating answer: " + err.Error() + ". Please make sure Ollama is running."
		return answer, nil
	}

	answer.Answer = text
	return answer, nil
}

// FormatSources renders the citation list for an answer's sources
func (a *Agent) FormatSources(answer *models.Answer) string {
	return llm.FormatSources(answer.Sources)
}
