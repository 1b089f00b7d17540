package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"finrag/internal/config"
	"finrag/internal/domain"
)

// Payload fields carried with every stored point.
const (
	payloadText     = "text"
	payloadMetadata = "metadata"

	metaSource     = "source"
	metaStartIndex = "start_index"
	metaFinancial  = "contains_financial_info"
	metaYears      = "years_mentioned"
)

// Store is a REST client to a Qdrant collection. It assumes cosine distance
// and creates the collection with its payload indexes on first use.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	logger     *slog.Logger
}

func NewStore(cfg config.QdrantConfig, logger *slog.Logger) *Store {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// EnsureCollection creates the collection with cosine distance and indexes
// the filterable payload fields. A pre-existing collection is left untouched;
// there is no schema migration.
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dimension)
	}
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Info("collection already exists", "collection", s.collection)
		return nil
	}

	s.logger.Info("creating collection", "collection", s.collection, "dimension", dimension)
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	indexes := []struct {
		field  string
		schema string
	}{
		{payloadMetadata + "." + metaSource, "keyword"},
		{payloadMetadata + "." + metaFinancial, "bool"},
		{payloadMetadata + "." + metaYears, "integer"},
	}
	for _, idx := range indexes {
		body := map[string]any{
			"field_name":   idx.field,
			"field_schema": idx.schema,
		}
		if err := s.do(ctx, http.MethodPut, s.collectionURL("/index"), body, nil); err != nil {
			return fmt.Errorf("create payload index %s: %w", idx.field, err)
		}
	}
	return nil
}

// Upsert writes all embedded chunks as one bulk call. Every record gets a
// fresh random ID; re-ingesting the same document creates duplicates.
func (s *Store) Upsert(ctx context.Context, chunks []domain.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no embedded chunks to store")
	}
	points := make([]map[string]any, len(chunks))
	for i, ec := range chunks {
		points[i] = map[string]any{
			"id":     uuid.NewString(),
			"vector": ec.Vector,
			"payload": map[string]any{
				payloadText:     ec.Chunk.Text,
				payloadMetadata: chunkMetadata(ec.Chunk),
			},
		}
	}
	s.logger.Info("storing embedded chunks", "collection", s.collection, "count", len(points))
	body := map[string]any{"points": points}
	if err := s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), body, nil); err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

// Search delegates nearest-neighbor search to Qdrant, ranked by descending
// similarity score.
func (s *Store) Search(ctx context.Context, vector []float32, limit int, filter domain.Filter) ([]domain.Document, error) {
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if f := buildFilter(filter); f != nil {
		req["filter"] = f
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}
	docs := make([]domain.Document, 0, len(resp.Result))
	for _, r := range resp.Result {
		docs = append(docs, payloadToDocument(r.Payload, r.Score))
	}
	return docs, nil
}

// Scroll returns up to limit records matching the filter, without similarity
// ranking. Every returned document carries the sentinel score 1.0.
func (s *Store) Scroll(ctx context.Context, filter domain.Filter, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = 10
	}
	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if f := buildFilter(filter); f != nil {
		req["filter"] = f
	}
	var resp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/scroll"), req, &resp); err != nil {
		return nil, fmt.Errorf("scroll points: %w", err)
	}
	docs := make([]domain.Document, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		docs = append(docs, payloadToDocument(p.Payload, 1.0))
	}
	return docs, nil
}

func chunkMetadata(c domain.Chunk) map[string]any {
	meta := map[string]any{
		metaSource:     c.Source,
		metaStartIndex: c.StartIndex,
		metaFinancial:  c.ContainsFinancialInfo,
	}
	if len(c.YearsMentioned) > 0 {
		meta[metaYears] = c.YearsMentioned
	}
	return meta
}

// buildFilter renders a conjunctive Qdrant filter; every supplied criterion
// becomes a must clause. Returns nil when nothing is constrained.
func buildFilter(f domain.Filter) map[string]any {
	if f.Empty() {
		return nil
	}
	var must []map[string]any
	match := func(key string, value any) map[string]any {
		return map[string]any{
			"key":   key,
			"match": map[string]any{"value": value},
		}
	}
	if f.Year != 0 {
		must = append(must, match(payloadMetadata+"."+metaYears, f.Year))
	}
	if f.FinancialOnly {
		must = append(must, match(payloadMetadata+"."+metaFinancial, true))
	}
	if f.Source != "" {
		must = append(must, match(payloadMetadata+"."+metaSource, f.Source))
	}
	for key, value := range f.Extra {
		must = append(must, match(key, value))
	}
	return map[string]any{"must": must}
}

func payloadToDocument(payload map[string]any, score float64) domain.Document {
	doc := domain.Document{Score: score, Source: "Unknown"}
	if v, ok := payload[payloadText].(string); ok {
		doc.Content = v
	}
	if meta, ok := payload[payloadMetadata].(map[string]any); ok {
		doc.Metadata = meta
		if src, ok := meta[metaSource].(string); ok {
			doc.Source = src
		}
	}
	return doc
}

func (s *Store) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *Store) collectionExists(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.collectionURL(""), nil)
	if err != nil {
		return false, err
	}
	s.auth(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("qdrant GET %s: %s", s.collectionURL(""), resp.Status)
	}
}

func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	s.auth(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("qdrant %s %s: %s: %s", method, url, resp.Status, bytes.TrimSpace(detail))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (s *Store) auth(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}
