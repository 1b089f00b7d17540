package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finrag/internal/conversation"
	"finrag/internal/domain"
)

// Ingestion failure causes, distinguishable by the caller.
var (
	ErrNoChunks     = errors.New("no chunks created from documents")
	ErrNoEmbeddings = errors.New("no embeddings generated")
)

// NoResultsAnswer is returned when retrieval succeeds but matches nothing.
const NoResultsAnswer = "No relevant documents found to answer your query."

// App wires the RAG components together and exposes the ingest, query, chat
// and financial-summary operations. Each call runs synchronously to
// completion; App itself keeps no per-request state beyond the conversation
// memory, which only the chat path mutates.
type App struct {
	processor     domain.DocumentProcessor
	embeddings    domain.EmbeddingsGenerator
	store         domain.VectorStore
	retriever     domain.Retriever
	generator     domain.Generator
	memory        *conversation.Memory
	dimension     int
	contextWindow int
	logger        *slog.Logger
}

// Config carries the orchestrator's own knobs; component configuration lives
// with the components.
type Config struct {
	Dimension     int
	MaxHistory    int
	ContextWindow int
}

func New(
	processor domain.DocumentProcessor,
	embeddings domain.EmbeddingsGenerator,
	store domain.VectorStore,
	retriever domain.Retriever,
	generator domain.Generator,
	cfg Config,
	logger *slog.Logger,
) *App {
	if logger == nil {
		logger = slog.Default()
	}
	contextWindow := cfg.ContextWindow
	if contextWindow <= 0 {
		contextWindow = 5
	}
	return &App{
		processor:     processor,
		embeddings:    embeddings,
		store:         store,
		retriever:     retriever,
		generator:     generator,
		memory:        conversation.NewMemory(cfg.MaxHistory),
		dimension:     cfg.Dimension,
		contextWindow: contextWindow,
		logger:        logger,
	}
}

// Ingest loads, splits, annotates, embeds and stores every PDF under dir.
// It short-circuits with a distinguishable error at the first stage that
// produces nothing.
func (a *App) Ingest(ctx context.Context, dir string, annotate bool) error {
	a.logger.Info("starting document ingestion", "dir", dir)

	chunks := a.processor.Split(dir)
	if len(chunks) == 0 {
		return ErrNoChunks
	}
	if annotate {
		chunks = a.processor.Annotate(chunks)
	}

	embedded := a.embeddings.EmbedChunks(ctx, chunks)
	if len(embedded) == 0 {
		return ErrNoEmbeddings
	}

	if err := a.store.EnsureCollection(ctx, a.dimension); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	if err := a.store.Upsert(ctx, embedded); err != nil {
		return fmt.Errorf("store embeddings: %w", err)
	}
	a.logger.Info("ingestion complete", "chunks", len(embedded))
	return nil
}

// Query runs a stateless retrieve-then-generate round trip. The returned
// string is always user-facing, including on failure.
func (a *App) Query(ctx context.Context, text string, opts domain.RetrieveOptions) string {
	documents, err := a.retriever.Retrieve(ctx, text, opts)
	if err != nil {
		a.logger.Error("query retrieval failed", "error", err)
		return fmt.Sprintf("An error occurred while processing your query: %s", err)
	}
	if len(documents) == 0 {
		return NoResultsAnswer
	}
	return a.generator.Answer(ctx, text, documents)
}

// Chat is Query with conversation memory. The user turn is recorded before
// retrieval so a failed retrieval still leaves it in the transcript, and the
// response is recorded whether it is a normal answer or an error string.
func (a *App) Chat(ctx context.Context, text string, opts domain.RetrieveOptions) string {
	a.memory.AddUserMessage(text)

	documents, err := a.retriever.Retrieve(ctx, text, opts)
	if err != nil {
		a.logger.Error("chat retrieval failed", "error", err)
		response := fmt.Sprintf("An error occurred while processing your query: %s", err)
		a.memory.AddAssistantMessage(response)
		return response
	}
	if len(documents) == 0 {
		a.memory.AddAssistantMessage(NoResultsAnswer)
		return NoResultsAnswer
	}

	history := a.memory.ContextString(a.contextWindow)
	response := a.generator.ConversationalAnswer(ctx, text, documents, history)
	a.memory.AddAssistantMessage(response)
	return response
}

// FinancialSummary summarizes stored financial chunks, optionally narrowed
// to one year. It bypasses semantic retrieval and uses the filter-scan path
// with the financial flag forced on.
func (a *App) FinancialSummary(ctx context.Context, year, k int) string {
	if k <= 0 {
		k = 10
	}
	filter := domain.Filter{FinancialOnly: true, Year: year}
	documents, err := a.retriever.SearchByFilters(ctx, filter, k)
	if err != nil {
		a.logger.Error("financial summary scan failed", "error", err)
		return fmt.Sprintf("An error occurred while generating the financial summary: %s", err)
	}
	if len(documents) == 0 {
		if year != 0 {
			return fmt.Sprintf("No financial information found for %d.", year)
		}
		return "No financial information found."
	}
	return a.generator.FinancialSummary(ctx, documents)
}

// ClearConversation drops the chat transcript.
func (a *App) ClearConversation() {
	a.memory.Clear()
	a.logger.Info("conversation history cleared")
}

// History returns a copy of the chat transcript, oldest first.
func (a *App) History() []domain.Message {
	return a.memory.History()
}
