package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"research-rag/internal/processor"
)

// IngestResult summarizes one ingested document
type IngestResult struct {
	FileName string `json:"file_name"`
	Chunks   int    `json:"chunks"`
	Images   int    `json:"images"`
	Tables   int    `json:"tables"`
	Headings int    `json:"headings"`
	Warnings int    `json:"warnings"`
}

// IngestOutcome pairs a batch entry with its result or failure
type IngestOutcome struct {
	Path   string
	Result *IngestResult
	Err    error
}

// IngestDocument processes, embeds and stores one PDF. The store write is a
// single atomic hand-off: a failure anywhere leaves no chunks visible.
func (a *Agent) IngestDocument(ctx context.Context, data []byte, fileName string) (*IngestResult, error) {
	doc, err := a.Processor.Process(ctx, data, fileName)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{
		FileName: fileName,
		Images:   len(doc.Images),
		Tables:   len(doc.Tables),
		Headings: len(doc.Headings),
		Warnings: len(doc.Warnings),
	}
	if len(doc.Chunks) == 0 {
		a.Logger.Info("document yielded no chunks", "file", fileName)
		return result, nil
	}

	embedded, err := a.Embedder.EmbedChunks(ctx, doc.Chunks, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %s: %w", fileName, err)
	}

	count, err := a.Store.AddChunks(ctx, embedded, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", fileName, err)
	}
	result.Chunks = count

	a.Logger.Info("document ingested",
		"file", fileName, "chunks", count, "images", result.Images,
		"tables", result.Tables, "warnings", result.Warnings)
	return result, nil
}

// IngestFile reads a PDF from disk and ingests it
func (a *Agent) IngestFile(ctx context.Context, path string) (*IngestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &processor.ParseError{FileName: filepath.Base(path), Err: err}
	}
	return a.IngestDocument(ctx, data, filepath.Base(path))
}

// IngestBatch ingests several documents. Extraction and embedding run
// concurrently under a semaphore; store writes are serialized so each
// document lands as one transaction. A failed document is reported in its
// outcome and does not stop the batch. Cancellation is honored between
// documents.
func (a *Agent) IngestBatch(ctx context.Context, paths []string, maxConcurrent int) []IngestOutcome {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}

	outcomes := make([]IngestOutcome, len(paths))

	var wg sync.WaitGroup
	var writeMu sync.Mutex
	semaphore := make(chan struct{}, maxConcurrent)

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			outcomes[i] = IngestOutcome{Path: path, Err: err}
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			data, err := os.ReadFile(path)
			if err != nil {
				outcomes[i] = IngestOutcome{Path: path, Err: &processor.ParseError{FileName: filepath.Base(path), Err: err}}
				return
			}
			fileName := filepath.Base(path)

			doc, err := a.Processor.Process(ctx, data, fileName)
			if err != nil {
				outcomes[i] = IngestOutcome{Path: path, Err: err}
				return
			}

			result := &IngestResult{
				FileName: fileName,
				Images:   len(doc.Images),
				Tables:   len(doc.Tables),
				Headings: len(doc.Headings),
				Warnings: len(doc.Warnings),
			}
			if len(doc.Chunks) == 0 {
				outcomes[i] = IngestOutcome{Path: path, Result: result}
				return
			}

			embedded, err := a.Embedder.EmbedChunks(ctx, doc.Chunks, nil)
			if err != nil {
				outcomes[i] = IngestOutcome{Path: path, Err: fmt.Errorf("failed to embed %s: %w", fileName, err)}
				return
			}

			writeMu.Lock()
			count, err := a.Store.AddChunks(ctx, embedded, fileName)
			writeMu.Unlock()
			if err != nil {
				outcomes[i] = IngestOutcome{Path: path, Err: fmt.Errorf("failed to store %s: %w", fileName, err)}
				return
			}
			result.Chunks = count
			outcomes[i] = IngestOutcome{Path: path, Result: result}
		}(i, path)
	}

	wg.Wait()
	return outcomes
}
