package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"research-rag/internal/agent"
	"research-rag/internal/config"
	"research-rag/internal/embedding"
	"research-rag/internal/llm"
	"research-rag/internal/models"
	"research-rag/internal/processor"
	"research-rag/internal/store"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to config file")
	queryFlag := flag.String("q", "", "Question to answer (non-interactive mode)")
	interactive := flag.Bool("i", false, "Run in interactive mode")
	nResults := flag.Int("n", 0, "Number of chunks to retrieve (0 uses config)")
	sectionFilter := flag.String("section", "", "Restrict retrieval to one section (e.g. 'results')")
	docFilter := flag.String("doc", "", "Restrict retrieval to one document filename")
	showStats := flag.Bool("stats", false, "Print store statistics and exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	if *showStats {
		printStats(ctx, st)
		return
	}

	embedder, err := embedding.NewOllamaEmbedder(cfg.Ollama.Host, cfg.Ollama.EmbeddingModel)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	llmClient, err := llm.NewOllamaLLM(cfg.Ollama.Host, cfg.Ollama.LLMModel, cfg.Ollama.Temperature)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	proc := processor.NewProcessor(cfg.Processing.ChunkSize)
	proc.HeadingFontThreshold = cfg.Processing.HeadingFontThreshold
	proc.CaptionMaxOffset = cfg.Processing.CaptionMaxOffset
	proc.Logger = logger

	ag := agent.New(st, embedder, llmClient, proc, cfg.Retrieval.NResults, logger)

	filters := store.Filters{Section: *sectionFilter, Filename: *docFilter}

	if *interactive {
		runInteractiveMode(ctx, ag, st, *nResults, filters)
		return
	}

	if *queryFlag == "" {
		log.Fatal("Question is required in non-interactive mode. Use -q 'your question'")
	}

	answer, err := ag.AnswerQuestion(ctx, *queryFlag, *nResults, filters)
	if err != nil {
		log.Fatalf("Failed to answer question: %v", err)
	}
	fmt.Println(formatAnswer(answer))
}

func runInteractiveMode(ctx context.Context, ag *agent.Agent, st store.Store, nResults int, filters store.Filters) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Paper QA - Ask questions about your uploaded papers (type 'exit' to quit)")
	fmt.Println("Commands: /section <name>, /doc <filename>, /stats, /clear")
	if filters.Section != "" {
		fmt.Printf("Filtering results to section: %s\n", filters.Section)
	}
	if filters.Filename != "" {
		fmt.Printf("Filtering results to document: %s\n", filters.Filename)
	}

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		lower := strings.ToLower(input)
		if lower == "exit" || lower == "quit" {
			break
		}
		if input == "" {
			continue
		}

		if strings.HasPrefix(lower, "/section") {
			filters.Section = strings.TrimSpace(strings.TrimPrefix(input, "/section"))
			if filters.Section == "" {
				fmt.Println("Section filter cleared")
			} else {
				fmt.Printf("Section filter set to: %s\n", filters.Section)
			}
			continue
		}
		if strings.HasPrefix(lower, "/doc") {
			filters.Filename = strings.TrimSpace(strings.TrimPrefix(input, "/doc"))
			if filters.Filename == "" {
				fmt.Println("Document filter cleared")
			} else {
				fmt.Printf("Document filter set to: %s\n", filters.Filename)
			}
			continue
		}
		if lower == "/stats" {
			printStats(ctx, st)
			continue
		}
		if lower == "/clear" {
			if _, err := st.ClearAll(ctx); err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Println("Store cleared")
			}
			continue
		}

		fmt.Print("Searching papers... ")
		answer, err := ag.AnswerQuestion(ctx, input, nResults, filters)
		if err != nil {
			fmt.Printf("\rError: %v\n", err)
			continue
		}
		fmt.Println("\r" + formatAnswer(answer))
	}
}

func formatAnswer(answer *models.Answer) string {
	var sb strings.Builder
	sb.WriteString(answer.Answer)
	sb.WriteString("\n\n")
	sb.WriteString(llm.FormatSources(answer.Sources))
	return sb.String()
}

func printStats(ctx context.Context, st store.Store) {
	stats, err := st.Stats(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Chunks: %d, Documents: %d\n", stats.TotalChunks, stats.UniqueDocuments)
	for _, doc := range stats.Documents {
		fmt.Println("  " + doc)
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
