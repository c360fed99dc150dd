package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"ragline/api"
	"ragline/config"
	"ragline/embeddings"
	"ragline/engine"
	"ragline/ingestion"
	"ragline/llm"
	"ragline/postprocess"
	"ragline/retriever"
	"ragline/store"
	"ragline/synthesis"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Printf("load .env: %v", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("configuration: %v", err)
	}

	switch os.Args[1] {
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "query":
		queryCmd(cfg, logger, os.Args[2:])
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func ingestCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	dataDir := flags.String("dir", cfg.DataDir, "path to directory containing documents")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ingest flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := store.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	neo4jDriver, err := store.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
	if err != nil {
		logger.Fatalf("neo4j connection: %v", err)
	}
	defer neo4jDriver.Close(ctx)

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	svc := ingestion.NewService(pgPool, store.NewNeo4jGraphStore(neo4jDriver), embedder, logger, cfg.Embeddings.Dimension)
	logger.Printf("ingesting documents from %s using %s/%s embeddings", *dataDir, strings.ToUpper(cfg.Embeddings.Provider), cfg.Embeddings.Model)

	if err := svc.IngestDirectory(ctx, *dataDir); err != nil {
		logger.Fatalf("ingestion failed: %v", err)
	}
}

func queryCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("query", flag.ExitOnError)
	question := flags.String("question", "", "question to answer from the ingested corpus")
	strategy := flags.String("strategy", "", "override the configured synthesis strategy")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse query flags: %v", err)
	}

	if strings.TrimSpace(*question) == "" {
		logger.Fatal("a question is required (use --question)")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pipeline, err := config.LoadPipeline(cfg.PipelineFile)
	if err != nil {
		logger.Fatalf("pipeline config: %v", err)
	}
	if *strategy != "" {
		pipeline.Strategy = *strategy
	}
	if err := pipeline.Validate(); err != nil {
		logger.Fatalf("pipeline config: %v", err)
	}

	pgPool, err := store.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	eng, err := buildEngine(cfg, pipeline, pgPool, logger)
	if err != nil {
		logger.Fatalf("engine setup: %v", err)
	}

	resp, err := eng.Query(ctx, *question)
	if err != nil {
		logger.Fatalf("query failed: %v", err)
	}

	fmt.Println(resp.Text)
	if len(resp.SourceChunks) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for idx, chunk := range resp.SourceChunks {
			title := chunk.Metadata["title"]
			path := chunk.Metadata["source_path"]
			fmt.Printf("%d. %s (%s)\n", idx+1, title, path)
		}
	}
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	port := flags.String("port", cfg.Port, "port to listen on")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pipeline, err := config.LoadPipeline(cfg.PipelineFile)
	if err != nil {
		logger.Fatalf("pipeline config: %v", err)
	}
	if err := pipeline.Validate(); err != nil {
		logger.Fatalf("pipeline config: %v", err)
	}

	pgPool, err := store.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	neo4jDriver, err := store.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
	if err != nil {
		logger.Fatalf("neo4j connection: %v", err)
	}
	defer neo4jDriver.Close(ctx)

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	eng, err := buildEngine(cfg, pipeline, pgPool, logger)
	if err != nil {
		logger.Fatalf("engine setup: %v", err)
	}

	ingestor := ingestion.NewService(pgPool, store.NewNeo4jGraphStore(neo4jDriver), embedder, logger, cfg.Embeddings.Dimension)
	server := api.NewServer(eng, ingestor, logger, cfg)

	httpServer := &http.Server{Addr: ":" + *port, Handler: server}
	go func() {
		<-ctx.Done()
		if err := httpServer.Shutdown(context.Background()); err != nil {
			logger.Printf("server shutdown: %v", err)
		}
	}()

	logger.Printf("listening on :%s", *port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server failed: %v", err)
	}
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed {
		logger.Fatal("clear permanently deletes ingested data; re-run with --confirm")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := store.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	if _, err := pgPool.Exec(ctx, "TRUNCATE rag_chunks, rag_documents"); err != nil {
		logger.Fatalf("truncate postgres tables: %v", err)
	}
	logger.Println("cleared Postgres rag_documents and rag_chunks")

	neo4jDriver, err := store.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
	if err != nil {
		logger.Fatalf("neo4j connection: %v", err)
	}
	defer neo4jDriver.Close(ctx)

	session := neo4jDriver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, query := range []string{
		"MATCH (d:Document) DETACH DELETE d",
		"MATCH (c:Chunk) DETACH DELETE c",
	} {
		result, err := session.Run(ctx, query, nil)
		if err != nil {
			logger.Fatalf("clear neo4j: %v", err)
		}
		if _, err := result.Consume(ctx); err != nil {
			logger.Fatalf("clear neo4j: %v", err)
		}
	}

	logger.Println("chunk data removed")
}

func buildEngine(cfg config.Config, pipeline config.Pipeline, pgPool *pgxpool.Pool, logger *log.Logger) (*engine.Engine, error) {
	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedder setup: %w", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm setup: %w", err)
	}

	chunkStore := store.NewPostgresChunkStore(pgPool)

	ret, err := retriever.NewEmbeddingRetriever(embedder, chunkStore, pipeline.SimilarityTopK)
	if err != nil {
		return nil, fmt.Errorf("retriever setup: %w", err)
	}

	chain, err := postprocess.FromConfigs(pipeline.Postprocessors, chunkStore)
	if err != nil {
		return nil, fmt.Errorf("postprocessor setup: %w", err)
	}

	strategy, err := synthesis.ParseStrategy(pipeline.Strategy)
	if err != nil {
		return nil, fmt.Errorf("strategy setup: %w", err)
	}

	synth, err := synthesis.New(llmClient, synthesis.Config{
		Strategy:        strategy,
		PromptBudget:    pipeline.PromptBudget,
		MaxAnswerTokens: cfg.LLM.MaxTokens,
		Separator:       pipeline.Separator,
		Concurrency:     pipeline.Concurrency,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("synthesizer setup: %w", err)
	}

	return engine.New(ret, chain, synth, logger)
}

func printUsage() {
	fmt.Println("Usage: ragline <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  ingest   Ingest documents into Postgres/Neo4j (use --dir to override data directory)")
	fmt.Println("  query    Answer a question from the ingested corpus")
	fmt.Println("  serve    Run the HTTP API")
	fmt.Println("  clear    Remove ingested chunk data from Postgres/Neo4j")
}
