package document

import "strings"

// defaultSeparators order chunk boundaries from coarse to fine: paragraph,
// line, sentence, word, then a hard character cut.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Span is a split fragment together with its byte offset in the source text.
type Span struct {
	Text  string
	Start int
}

// Splitter splits text into chunks of at most Size bytes, preferring larger
// structural separators, with roughly Overlap bytes shared between
// consecutive chunks. Splitting is deterministic for a given input.
type Splitter struct {
	size       int
	overlap    int
	separators []string
}

func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Splitter{size: size, overlap: overlap, separators: defaultSeparators}
}

// Split returns chunks in source order with their start offsets. Chunks are
// whitespace-trimmed; empty chunks are dropped.
func (s *Splitter) Split(text string) []Span {
	pieces := s.split(text, s.separators)
	spans := make([]Span, 0, len(pieces))
	searchFrom := 0
	for _, p := range pieces {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		idx := strings.Index(text[searchFrom:], trimmed)
		if idx < 0 {
			// should not happen: every chunk is a contiguous source substring
			idx = 0
		}
		start := searchFrom + idx
		spans = append(spans, Span{Text: trimmed, Start: start})
		// the next chunk can begin inside this one, but never earlier than
		// the chunk head plus the non-overlapping part
		advance := len(trimmed) - s.overlap
		if advance < 1 {
			advance = 1
		}
		searchFrom = start + advance
	}
	return spans
}

func (s *Splitter) split(text string, seps []string) []string {
	sep := seps[0]
	if sep == "" {
		return hardCut(text, s.size, s.overlap)
	}
	rest := seps[1:]

	splits := splitKeep(text, sep)
	var finals []string
	var good []string
	for _, piece := range splits {
		if len(piece) <= s.size {
			good = append(good, piece)
			continue
		}
		finals = append(finals, s.merge(good)...)
		good = nil
		finals = append(finals, s.split(piece, rest)...)
	}
	finals = append(finals, s.merge(good)...)
	return finals
}

// merge greedily concatenates adjacent fragments into chunks up to the
// configured size, carrying a tail of at most overlap bytes into the next
// chunk.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var cur []string
	curLen := 0
	for _, p := range pieces {
		if curLen > 0 && curLen+len(p) > s.size {
			chunks = append(chunks, strings.Join(cur, ""))
			// shrink the carried tail to at most overlap bytes, and further
			// until the next piece fits within size
			for len(cur) > 0 && (curLen > s.overlap || curLen+len(p) > s.size) {
				curLen -= len(cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		curLen += len(p)
	}
	if curLen > 0 {
		chunks = append(chunks, strings.Join(cur, ""))
	}
	return chunks
}

// splitKeep splits text around sep, keeping the separator attached to the
// preceding fragment so that concatenation reconstructs the source exactly.
func splitKeep(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// hardCut falls back to fixed windows when no separator yields small enough
// fragments, stepping by size-overlap. Cuts are rune-aligned.
func hardCut(text string, size, overlap int) []string {
	runes := []rune(text)
	step := size - overlap
	if step <= 0 {
		step = size
	}
	var out []string
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
