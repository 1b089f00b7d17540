package embedding

import (
	"context"
	"log/slog"

	"finrag/internal/domain"
)

// DefaultBatchSize bounds one embedding API call; the external API is
// rate- and payload-limited.
const DefaultBatchSize = 32

// Generator converts chunks into embedded chunks in fixed-size batches.
type Generator struct {
	embedder  domain.Embedder
	batchSize int
	logger    *slog.Logger
}

func NewGenerator(embedder domain.Embedder, batchSize int, logger *slog.Logger) *Generator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{embedder: embedder, batchSize: batchSize, logger: logger}
}

// EmbedChunks embeds chunks batch by batch, keeping each chunk's text and
// metadata alongside its vector. A failed batch is logged and its chunks are
// dropped from the output; the remainder still succeeds.
func (g *Generator) EmbedChunks(ctx context.Context, chunks []domain.Chunk) []domain.EmbeddedChunk {
	if len(chunks) == 0 {
		g.logger.Warn("no chunks provided for embedding")
		return nil
	}
	g.logger.Info("generating embeddings", "chunks", len(chunks), "batch_size", g.batchSize)

	embedded := make([]domain.EmbeddedChunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += g.batchSize {
		end := start + g.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := g.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			g.logger.Error("embedding batch failed", "batch", start/g.batchSize, "error", err)
			continue
		}
		for i, c := range batch {
			embedded = append(embedded, domain.EmbeddedChunk{Chunk: c, Vector: vectors[i]})
		}
	}
	g.logger.Info("embeddings generated", "embedded", len(embedded))
	return embedded
}
