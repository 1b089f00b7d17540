package document

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"finrag/internal/config"
	"finrag/internal/domain"
)

// financialKeywords mark chunks that likely describe financial sections of
// an annual report. Matching is case-insensitive.
var financialKeywords = []string{
	"financial statement", "balance sheet", "income statement",
	"cash flow", "revenue", "profit", "loss", "assets", "liabilities",
	"shareholder", "dividend", "fiscal year", "quarterly report",
	"annual report", "financial performance", "financial results",
}

// Years outside this range are ignored when tagging chunks.
const (
	minYear = 2000
	maxYear = 2030
)

// Processor loads PDFs from a directory and splits their text into
// overlapping chunks. Chunk size and overlap are fixed per instance.
type Processor struct {
	splitter *Splitter
	logger   *slog.Logger
}

func NewProcessor(cfg config.ChunkingConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		splitter: NewSplitter(cfg.Size, cfg.Overlap),
		logger:   logger,
	}
}

// Split loads every PDF in dir and splits it into chunks. A missing
// directory, a directory without PDFs, or a directory where every file fails
// to parse all yield an empty result; callers treat emptiness as failure.
// A single corrupt file is logged and skipped, it never aborts the batch.
func (p *Processor) Split(dir string) []domain.Chunk {
	entries, err := os.ReadDir(dir)
	if err != nil {
		p.logger.Error("directory not readable", "dir", dir, "error", err)
		return nil
	}

	var pdfFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			pdfFiles = append(pdfFiles, e.Name())
		}
	}
	if len(pdfFiles) == 0 {
		p.logger.Warn("no PDF files found", "dir", dir)
		return nil
	}
	p.logger.Info("processing PDF files", "dir", dir, "count", len(pdfFiles))

	var chunks []domain.Chunk
	for _, name := range pdfFiles {
		text, err := extractText(filepath.Join(dir, name))
		if err != nil {
			p.logger.Error("skipping unreadable PDF", "file", name, "error", err)
			continue
		}
		spans := p.splitter.Split(text)
		for _, sp := range spans {
			chunks = append(chunks, domain.Chunk{
				Text:       sp.Text,
				Source:     name,
				StartIndex: sp.Start,
			})
		}
		p.logger.Info("processed file", "file", name, "chunks", len(spans))
	}
	p.logger.Info("total chunks created", "count", len(chunks))
	return chunks
}

// Annotate tags each chunk with the financial-content flag and the years it
// mentions. Idempotent and side-effect-free for a given chunk set.
func (p *Processor) Annotate(chunks []domain.Chunk) []domain.Chunk {
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.ContainsFinancialInfo = containsFinancialInfo(c.Text)
		c.YearsMentioned = yearsMentioned(c.Text)
		out[i] = c
	}
	return out
}

func containsFinancialInfo(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range financialKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func yearsMentioned(text string) []int {
	var years []int
	for y := minYear; y < maxYear; y++ {
		if strings.Contains(text, strconv.Itoa(y)) {
			years = append(years, y)
		}
	}
	return years
}

func extractText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", err
	}
	return buf.String(), nil
}
