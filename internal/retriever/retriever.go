package retriever

import (
	"context"
	"fmt"
	"log/slog"

	"finrag/internal/domain"
)

// DefaultK is the number of documents retrieved when the caller does not ask
// for a specific count.
const DefaultK = 5

// Retriever embeds queries and runs filtered nearest-neighbor searches
// against the vector store. The embedder must be the same model used at
// ingestion time; a mismatch silently degrades results.
type Retriever struct {
	embedder domain.Embedder
	store    domain.VectorStore
	logger   *slog.Logger
}

func New(embedder domain.Embedder, store domain.VectorStore, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{embedder: embedder, store: store, logger: logger}
}

// Retrieve returns up to opts.K documents relevant to the query, ordered by
// descending similarity score as ranked by the vector store. All supplied
// filter criteria are AND-ed; omitted criteria do not constrain the search.
// An empty result with a nil error means nothing matched; a non-nil error
// means retrieval itself failed.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.Document, error) {
	k := opts.K
	if k <= 0 {
		k = DefaultK
	}
	r.logger.Info("retrieving documents", "query", query, "k", k)

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	filter := domain.Filter{
		Year:          opts.Year,
		FinancialOnly: opts.FinancialOnly,
		Extra:         opts.Extra,
	}
	docs, err := r.store.Search(ctx, vector, k, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	r.logger.Info("retrieved documents", "count", len(docs))
	return docs, nil
}

// SearchByFilters returns documents matching the metadata filter without any
// similarity ranking; every result carries the sentinel score 1.0.
func (r *Retriever) SearchByFilters(ctx context.Context, filter domain.Filter, limit int) ([]domain.Document, error) {
	docs, err := r.store.Scroll(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("filter scan: %w", err)
	}
	r.logger.Info("filter scan matched documents", "count", len(docs))
	return docs, nil
}
