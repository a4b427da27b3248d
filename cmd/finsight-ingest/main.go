// Command finsight-ingest indexes documents into the vector store from
// the command line, for the offline corpus-building path.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"finsight/internal/config"
	"finsight/internal/embedding"
	"finsight/internal/rag/pipeline"
	"finsight/internal/rag/schema"
	"finsight/internal/rag/splitters"
	"finsight/internal/rag/vectorstore"
	"finsight/internal/service"
	"finsight/pkg/logger"
	"finsight/pkg/retry"
)

func main() {
	var (
		configPath string
		namespace  string
	)

	rootCmd := &cobra.Command{
		Use:   "finsight-ingest [paths...]",
		Short: "Index documents into the vector store",
		Long: `Index one or more documents (or directories of documents) into the
vector store so they become searchable by the query service. Supported
formats: pdf, txt, md, xlsx, html and http(s) URLs. Re-ingesting a
source replaces its previous chunks.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			logger.Init(logger.ParseLevel(cfg.Logger.Level))
			log := logger.New("finsight-ingest", "")

			if namespace != schema.NamespaceCorpus && namespace != schema.NamespaceUploads {
				return fmt.Errorf("unknown namespace %q (expected %s or %s)",
					namespace, schema.NamespaceCorpus, schema.NamespaceUploads)
			}

			embedder, err := embedding.NewModel(cfg.Embedding, apiKeyFor(cfg.Embedding.Provider))
			if err != nil {
				return err
			}
			embedder = embedding.WithTimeout(embedder, cfg.EmbeddingTimeout())
			embedder = embedding.WithRetry(embedder, retry.Config{
				Attempts:  cfg.Retry.Attempts,
				BaseDelay: cfg.RetryBaseDelay(),
				MaxDelay:  cfg.RetryMaxDelay(),
			})
			store, err := vectorstore.NewStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			splitter, err := splitters.NewCharSplitter(cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap)
			if err != nil {
				return err
			}
			ingestor := service.NewIngestor(pipeline.NewIndexingPipeline(splitter, embedder, store, log), log)

			total := 0
			for _, path := range args {
				var n int
				info, statErr := os.Stat(path)
				if statErr == nil && info.IsDir() {
					n, err = ingestor.IngestDir(cmd.Context(), path, namespace)
				} else {
					n, err = ingestor.Ingest(cmd.Context(), path, namespace)
				}
				if err != nil {
					return err
				}
				total += n
			}
			fmt.Printf("Indexed %d chunks into namespace %q\n", total, namespace)
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the configuration file")
	rootCmd.Flags().StringVarP(&namespace, "namespace", "n", schema.NamespaceCorpus, "target namespace (corpus or uploads)")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

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
