package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"finrag/internal/config"
	"finrag/internal/document"
	"finrag/internal/domain"
	"finrag/internal/embedding"
	embopenai "finrag/internal/embedding/openai"
	"finrag/internal/generator"
	llmopenai "finrag/internal/llm/openai"
	"finrag/internal/retriever"
	"finrag/internal/service"
	"finrag/internal/tui"
	"finrag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := newRootCmd(logger).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "finrag",
		Short:         "Question answering over PDF annual reports and manuals",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default: ./config.yaml, then ~/.config/finrag/config.yaml)")

	loadConfig := func() (*config.AppConfig, error) {
		if cfgPath != "" {
			return config.Load(cfgPath)
		}
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}

	var (
		dir        string
		noMetadata bool
	)
	ingest := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest PDF documents from a directory into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApp(cfg, logger)
			if err != nil {
				return err
			}
			if err := app.Ingest(cmd.Context(), dir, !noMetadata); err != nil {
				fmt.Println("Ingestion failed")
				return err
			}
			fmt.Println("Ingestion successful")
			return nil
		},
	}
	ingest.Flags().StringVar(&dir, "dir", "", "directory containing PDF files")
	ingest.Flags().BoolVar(&noMetadata, "no-metadata", false, "skip the metadata annotation pass")
	_ = ingest.MarkFlagRequired("dir")

	var (
		queryText string
		k         int
		year      int
		financial bool
	)
	query := &cobra.Command{
		Use:   "query",
		Short: "Ask a one-off question against the ingested documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApp(cfg, logger)
			if err != nil {
				return err
			}
			response := app.Query(cmd.Context(), queryText, domain.RetrieveOptions{
				K:             k,
				Year:          year,
				FinancialOnly: financial,
			})
			fmt.Println("\nResponse:")
			fmt.Println(response)
			return nil
		},
	}
	query.Flags().StringVar(&queryText, "text", "", "query text")
	query.Flags().IntVar(&k, "k", 5, "number of documents to retrieve")
	query.Flags().IntVar(&year, "year", 0, "filter by year")
	query.Flags().BoolVar(&financial, "financial", false, "filter for financial content only")
	_ = query.MarkFlagRequired("text")

	var (
		summaryYear int
		summaryK    int
	)
	summary := &cobra.Command{
		Use:   "summary",
		Short: "Generate a financial summary from stored documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApp(cfg, logger)
			if err != nil {
				return err
			}
			out := app.FinancialSummary(cmd.Context(), summaryYear, summaryK)
			fmt.Println("\nFinancial Summary:")
			fmt.Println(out)
			return nil
		},
	}
	summary.Flags().IntVar(&summaryYear, "year", 0, "year to summarize")
	summary.Flags().IntVar(&summaryK, "k", 10, "number of documents to retrieve")

	chat := &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive question-answering shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApp(cfg, logger)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(tui.New(app)).Run()
			return err
		},
	}

	root.AddCommand(ingest, query, summary, chat)
	return root
}

// buildApp assembles the component graph. Missing credentials or bad
// configuration fail here, before any request is taken.
func buildApp(cfg *config.AppConfig, logger *slog.Logger) (*service.App, error) {
	embedder, err := embopenai.NewClient(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("embeddings client: %w", err)
	}
	llm, err := llmopenai.NewClient(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}

	store := qdrant.NewStore(cfg.Qdrant, logger.With("component", "qdrant"))
	processor := document.NewProcessor(cfg.Chunking, logger.With("component", "document"))
	embeddings := embedding.NewGenerator(embedder, cfg.Embedder.BatchSize, logger.With("component", "embedding"))
	ret := retriever.New(embedder, store, logger.With("component", "retriever"))
	gen := generator.New(llm, logger.With("component", "generator"))

	return service.New(processor, embeddings, store, ret, gen, service.Config{
		Dimension:     cfg.Embedder.Dimension,
		MaxHistory:    cfg.Chat.MaxHistory,
		ContextWindow: cfg.Chat.ContextWindow,
	}, logger.With("component", "service")), nil
}
