package domain

// Chunk is a contiguous span of text extracted from one source PDF,
// together with metadata derived during ingestion. Chunks are created once
// by the document processor and are immutable afterwards.
type Chunk struct {
	Text       string
	Source     string
	StartIndex int

	ContainsFinancialInfo bool
	YearsMentioned        []int
}

// EmbeddedChunk pairs a chunk with its embedding vector. It is produced by
// the embeddings generator and consumed exactly once by the vector store.
type EmbeddedChunk struct {
	Chunk  Chunk
	Vector []float32
}

// Document is a retrieval result reconstructed from a persisted payload.
// It has no relation to the ingestion-time Chunk beyond shared field names.
type Document struct {
	Content  string
	Source   string
	Score    float64
	Metadata map[string]any
}

// Message roles in a conversation transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in the conversation history.
type Message struct {
	Role    string
	Content string
}

// Filter constrains a vector search or a metadata scan. Zero values mean
// "not filtered"; all supplied criteria are AND-ed together.
type Filter struct {
	Year          int
	FinancialOnly bool
	Source        string
	Extra         map[string]any
}

// Empty reports whether the filter constrains nothing.
func (f Filter) Empty() bool {
	return f.Year == 0 && !f.FinancialOnly && f.Source == "" && len(f.Extra) == 0
}
