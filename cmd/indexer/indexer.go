package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"research-rag/internal/agent"
	"research-rag/internal/config"
	"research-rag/internal/embedding"
	"research-rag/internal/processor"
	"research-rag/internal/store"
)

func main() {
	// Parse command line flags
	pdfPath := flag.String("pdf", "", "Path to a PDF file")
	dirPath := flag.String("dir", "", "Directory of PDF files to index")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	chunkSize := flag.Int("chunk-size", 0, "Words per chunk (0 uses config)")
	maxConcurrent := flag.Int("max-concurrent", 0, "Concurrent documents (0 uses config)")
	flag.Parse()

	if *pdfPath == "" && *dirPath == "" {
		log.Fatal("Either -pdf or -dir is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *chunkSize > 0 {
		cfg.Processing.ChunkSize = *chunkSize
	}
	if *maxConcurrent > 0 {
		cfg.Processing.MaxConcurrentIngest = *maxConcurrent
	}

	paths, err := collectPDFs(*pdfPath, *dirPath)
	if err != nil {
		log.Fatalf("Failed to collect PDFs: %v", err)
	}
	if len(paths) == 0 {
		log.Fatal("No PDF files found")
	}

	ctx := context.Background()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	embedder, err := embedding.NewOllamaEmbedder(cfg.Ollama.Host, cfg.Ollama.EmbeddingModel)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	embedder.MaxConcurrent = cfg.Processing.MaxConcurrentEmbed

	proc := processor.NewProcessor(cfg.Processing.ChunkSize)
	proc.HeadingFontThreshold = cfg.Processing.HeadingFontThreshold
	proc.CaptionMaxOffset = cfg.Processing.CaptionMaxOffset
	proc.Logger = logger

	ag := agent.New(st, embedder, nil, proc, cfg.Retrieval.NResults, logger)

	log.Printf("Indexing %d document(s) with chunk size %d words", len(paths), cfg.Processing.ChunkSize)
	startTime := time.Now()

	outcomes := ag.IngestBatch(ctx, paths, cfg.Processing.MaxConcurrentIngest)

	var totalChunks, totalImages, totalTables, failed int
	for _, o := range outcomes {
		if o.Err != nil {
			log.Printf("Warning: failed to index %s: %v", o.Path, o.Err)
			failed++
			continue
		}
		log.Printf("Indexed %s: %d chunks, %d images, %d tables, %d headings",
			o.Result.FileName, o.Result.Chunks, o.Result.Images, o.Result.Tables, o.Result.Headings)
		totalChunks += o.Result.Chunks
		totalImages += o.Result.Images
		totalTables += o.Result.Tables
	}

	log.Printf("Completed in %v:", time.Since(startTime).Round(time.Millisecond))
	log.Printf("  - Documents indexed: %d (%d failed)", len(paths)-failed, failed)
	log.Printf("  - Chunks stored: %d", totalChunks)
	log.Printf("  - Images extracted: %d", totalImages)
	log.Printf("  - Tables extracted: %d", totalTables)

	stats, err := st.Stats(ctx)
	if err != nil {
		log.Printf("Warning: failed to read store stats: %v", err)
		return
	}
	log.Printf("Store now holds %d chunks across %d document(s)", stats.TotalChunks, stats.UniqueDocuments)
}

func collectPDFs(pdfPath, dirPath string) ([]string, error) {
	if pdfPath != "" {
		if _, err := os.Stat(pdfPath); err != nil {
			return nil, err
		}
		return []string{pdfPath}, nil
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(dirPath, e.Name()))
	}
	return paths, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Type {
	case "memory":
		return store.NewMemoryStore(), func() {}, nil
	default:
		pg, err := store.NewPostgresStore(ctx, cfg.Store.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Initialize(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
}
