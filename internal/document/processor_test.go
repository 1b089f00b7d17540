package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finrag/internal/config"
	"finrag/internal/domain"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	return NewProcessor(config.ChunkingConfig{Size: 1000, Overlap: 200}, nil)
}

func TestProcessor_Split_MissingDirectory(t *testing.T) {
	p := newTestProcessor(t)
	assert.Empty(t, p.Split(filepath.Join(t.TempDir(), "does-not-exist")))
}

func TestProcessor_Split_NoPDFs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("plain text"), 0o644))

	p := newTestProcessor(t)
	assert.Empty(t, p.Split(dir))
}

func TestProcessor_Split_CorruptPDFSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644))

	p := newTestProcessor(t)
	// the bad file is logged and skipped, not fatal
	assert.Empty(t, p.Split(dir))
}

func TestProcessor_Annotate_Years(t *testing.T) {
	p := newTestProcessor(t)
	chunks := p.Annotate([]domain.Chunk{
		{Text: "Results improved in 2022 compared to prior periods."},
		{Text: "The manual describes maintenance procedures."},
		{Text: "Between 2021 and 2023 the fleet doubled."},
	})

	assert.Equal(t, []int{2022}, chunks[0].YearsMentioned)
	assert.Empty(t, chunks[1].YearsMentioned)
	assert.Equal(t, []int{2021, 2023}, chunks[2].YearsMentioned)
}

func TestProcessor_Annotate_YearRangeBounds(t *testing.T) {
	p := newTestProcessor(t)
	chunks := p.Annotate([]domain.Chunk{
		{Text: "Founded in 1998, the company listed in 2030."},
	})
	assert.Empty(t, chunks[0].YearsMentioned)
}

func TestProcessor_Annotate_FinancialKeywordsCaseInsensitive(t *testing.T) {
	p := newTestProcessor(t)
	chunks := p.Annotate([]domain.Chunk{
		{Text: "Revenue increased by 15 percent."},
		{Text: "revenue increased by 15 percent."},
		{Text: "The BALANCE SHEET remains strong."},
		{Text: "The device requires periodic calibration."},
	})

	assert.True(t, chunks[0].ContainsFinancialInfo)
	assert.True(t, chunks[1].ContainsFinancialInfo)
	assert.True(t, chunks[2].ContainsFinancialInfo)
	assert.False(t, chunks[3].ContainsFinancialInfo)
}

func TestProcessor_Annotate_Idempotent(t *testing.T) {
	p := newTestProcessor(t)
	in := []domain.Chunk{{Text: "Dividend of $2 per share declared in 2024.", Source: "r.pdf"}}

	once := p.Annotate(in)
	twice := p.Annotate(once)
	assert.Equal(t, once, twice)
	// input not mutated
	assert.False(t, in[0].ContainsFinancialInfo)
}
