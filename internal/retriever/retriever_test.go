package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finrag/internal/domain"
	"finrag/internal/vectorstore/memory"
)

// fakeEmbedder returns a fixed vector per known text and fails on demand.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vs, err := f.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (f *fakeEmbedder) Dimension() int { return 3 }

func seededRetriever(t *testing.T, emb *fakeEmbedder) *Retriever {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, 3))
	require.NoError(t, store.Upsert(ctx, []domain.EmbeddedChunk{
		{
			Chunk: domain.Chunk{
				Text: "In fiscal year 2022 revenue was $10 million", Source: "annual_report_2022.pdf",
				ContainsFinancialInfo: true, YearsMentioned: []int{2022},
			},
			Vector: []float32{1, 0, 0},
		},
		{
			Chunk: domain.Chunk{
				Text: "Torque the bolts to 40 Nm.", Source: "manual.pdf",
			},
			Vector: []float32{0, 1, 0},
		},
	}))
	return New(emb, store, nil)
}

func TestRetriever_Retrieve(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"What was the 2022 revenue?": {1, 0, 0},
	}}
	r := seededRetriever(t, emb)

	docs, err := r.Retrieve(context.Background(), "What was the 2022 revenue?", domain.RetrieveOptions{K: 2})
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.Equal(t, "annual_report_2022.pdf", docs[0].Source)
	for i := 1; i < len(docs); i++ {
		assert.GreaterOrEqual(t, docs[i-1].Score, docs[i].Score)
	}
}

func TestRetriever_FinancialOnlyFilter(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{}}
	r := seededRetriever(t, emb)

	docs, err := r.Retrieve(context.Background(), "anything",
		domain.RetrieveOptions{FinancialOnly: true})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, true, docs[0].Metadata["contains_financial_info"])
}

func TestRetriever_YearFilter(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{}}
	r := seededRetriever(t, emb)

	docs, err := r.Retrieve(context.Background(), "anything", domain.RetrieveOptions{Year: 2022})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "annual_report_2022.pdf", docs[0].Source)

	docs, err = r.Retrieve(context.Background(), "anything", domain.RetrieveOptions{Year: 1999})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRetriever_EmbedFailure(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("api unreachable")}
	r := seededRetriever(t, emb)

	docs, err := r.Retrieve(context.Background(), "anything", domain.RetrieveOptions{})
	assert.Error(t, err)
	assert.Nil(t, docs)
}

func TestRetriever_SearchByFilters(t *testing.T) {
	emb := &fakeEmbedder{}
	r := seededRetriever(t, emb)

	docs, err := r.SearchByFilters(context.Background(),
		domain.Filter{FinancialOnly: true, Year: 2022}, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 1.0, docs[0].Score, "metadata-only scans carry a sentinel score")
}
