package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"finsight/internal/api"
	"finsight/internal/config"
	"finsight/internal/embedding"
	"finsight/internal/llm"
	"finsight/internal/rag/compressor"
	"finsight/internal/rag/guardrail"
	"finsight/internal/rag/memory"
	"finsight/internal/rag/pipeline"
	"finsight/internal/rag/rerankers"
	"finsight/internal/rag/schema"
	"finsight/internal/rag/splitters"
	"finsight/internal/rag/transform"
	"finsight/internal/rag/vectorstore"
	"finsight/internal/service"
	"finsight/pkg/logger"
	"finsight/pkg/ratelimiter"
	"finsight/pkg/retry"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	uploadDir := flag.String("upload-dir", "data/uploads", "directory for uploaded documents")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	serviceLogger := logger.New(cfg.App.Name, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	retryCfg := retry.Config{Attempts: cfg.Retry.Attempts, BaseDelay: cfg.RetryBaseDelay(), MaxDelay: cfg.RetryMaxDelay()}

	// External providers
	embedder, err := embedding.NewModel(cfg.Embedding, apiKeyFor(cfg.Embedding.Provider))
	if err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to create embedding model: %v", err))
	}
	embedder = embedding.WithRetry(embedding.WithTimeout(embedder, cfg.EmbeddingTimeout()), retryCfg)
	model, err := llm.NewClient(cfg.LLM, apiKeyFor(cfg.LLM.Provider))
	if err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to create LLM client: %v", err))
	}

	// Vector index
	store, err := vectorstore.NewStore(ctx, cfg, serviceLogger)
	if err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to open vector store: %v", err))
	}
	defer store.Close()

	// Pipelines
	splitter, err := splitters.NewCharSplitter(cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap)
	if err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to create splitter: %v", err))
	}
	indexing := pipeline.NewIndexingPipeline(splitter, embedder, store, serviceLogger)

	mode, err := transform.ParseMode(cfg.Retrieval.Transform)
	if err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Invalid transform mode: %v", err))
	}
	transformer := transform.New(model, mode, serviceLogger)

	reranker, err := rerankers.NewReranker(cfg, os.Getenv("COHERE_API_KEY"))
	if err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to create reranker: %v", err))
	}
	retrieval := pipeline.NewRetrievalPipeline(
		transformer, embedder, store, reranker, compressor.NewExtractive(serviceLogger),
		cfg.Retrieval.K, cfg.Retrieval.TopN, cfg.Retrieval.TokenBudget,
		serviceLogger,
	)

	// Guardrails and session memory
	guard, err := guardrail.New(cfg.Guardrail, serviceLogger)
	if err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to compile guardrail policy: %v", err))
	}
	sessions := memory.NewStore(cfg.Memory.TurnCount)

	svc := service.New(retrieval, store, model, guard, sessions, service.Options{
		SystemRole:  cfg.LLM.SystemRole,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		LLMTimeout:  cfg.LLMTimeout(),
		Retry:       retryCfg,
		Namespaces:  []string{schema.NamespaceCorpus, schema.NamespaceUploads},
	}, serviceLogger)
	ingestor := service.NewIngestor(indexing, serviceLogger)

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	apiHandler := api.NewAPI(svc, ingestor, *uploadDir, serviceLogger)
	var limiter ratelimiter.RateLimiter
	if cfg.Server.RateLimit.Enabled {
		limiter = ratelimiter.NewTokenBucket(cfg.Server.RateLimit.Rate, cfg.Server.RateLimit.Capacity)
	}
	api.RegisterRoutes(router, apiHandler, limiter)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		serviceLogger.Info("Starting HTTP server on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.Fatal(fmt.Sprintf("HTTP server failed to start: %v", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	}
	serviceLogger.Info("Server gracefully stopped")
}

// apiKeyFor maps a provider tag to its environment variable. Local
// providers need no key.
func apiKeyFor(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}
