package domain

import "context"

// Embedder converts free text into fixed-dimension embedding vectors.
// The model and its dimensionality are configuration, not negotiated per call.
type Embedder interface {
	// EmbedTexts embeds a batch of texts, preserving input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// VectorStore manages a named collection in a vector database.
type VectorStore interface {
	// EnsureCollection creates the collection and its payload indexes if the
	// collection does not already exist. Idempotent.
	EnsureCollection(ctx context.Context, dimension int) error
	// Upsert writes all embedded chunks in one bulk call, assigning a fresh
	// random identifier to each record.
	Upsert(ctx context.Context, chunks []EmbeddedChunk) error
	// Search runs a filtered nearest-neighbor search, ranked by similarity.
	Search(ctx context.Context, vector []float32, limit int, filter Filter) ([]Document, error)
	// Scroll returns records matching the filter without a query vector.
	Scroll(ctx context.Context, filter Filter, limit int) ([]Document, error)
}

// DocumentProcessor loads source files and splits them into chunks.
type DocumentProcessor interface {
	// Split returns the chunks of every readable PDF under dir; an empty
	// result signals that nothing could be ingested.
	Split(dir string) []Chunk
	// Annotate derives per-chunk metadata. Idempotent.
	Annotate(chunks []Chunk) []Chunk
}

// EmbeddingsGenerator converts chunks to embedded chunks, returning whatever
// subset succeeded.
type EmbeddingsGenerator interface {
	EmbedChunks(ctx context.Context, chunks []Chunk) []EmbeddedChunk
}

// LLM produces a single-turn chat completion for a filled prompt.
type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Retriever turns a query into ranked documents via vector search.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts RetrieveOptions) ([]Document, error)
	SearchByFilters(ctx context.Context, filter Filter, limit int) ([]Document, error)
}

// Generator produces user-visible answers from retrieved documents. Service
// failures are folded into the returned string, never raised.
type Generator interface {
	Answer(ctx context.Context, query string, documents []Document) string
	ConversationalAnswer(ctx context.Context, query string, documents []Document, history string) string
	FinancialSummary(ctx context.Context, documents []Document) string
}

// RetrieveOptions tune a single retrieval call. Zero values fall back to
// defaults (K=5) or mean "not filtered".
type RetrieveOptions struct {
	K             int
	Year          int
	FinancialOnly bool
	Extra         map[string]any
}
