package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"

	"research-rag/internal/agent"
	"research-rag/internal/api"
	"research-rag/internal/config"
	"research-rag/internal/embedding"
	"research-rag/internal/llm"
	"research-rag/internal/processor"
	"research-rag/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
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

	llmClient, err := llm.NewOllamaLLM(cfg.Ollama.Host, cfg.Ollama.LLMModel, cfg.Ollama.Temperature)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	proc := processor.NewProcessor(cfg.Processing.ChunkSize)
	proc.HeadingFontThreshold = cfg.Processing.HeadingFontThreshold
	proc.CaptionMaxOffset = cfg.Processing.CaptionMaxOffset
	proc.Logger = logger

	ag := agent.New(st, embedder, llmClient, proc, cfg.Retrieval.NResults, logger)
	srv := api.NewServer(ag, st, logger, cfg)

	logger.Info("server listening", "port", cfg.Server.Port, "store", cfg.Store.Type)
	if err := http.ListenAndServe(":"+cfg.Server.Port, srv); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
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
