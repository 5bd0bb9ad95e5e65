package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wearloom/atelier/chunker"
	"github.com/wearloom/atelier/vectorstore"
)

type qdrantStore struct {
	options vectorstore.Options
	client  *http.Client
}

func (s *qdrantStore) Upsert(ctx context.Context, chunks []chunker.ChunkRecord) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.options.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}

	points := make([]map[string]any, len(chunks))
	for i, chunk := range chunks {
		points[i] = map[string]any{
			"id":      uuid.New().String(),
			"vector":  vectors[i],
			"payload": vectorstore.Payload(chunk),
		}
	}

	req := map[string]any{
		"points": points,
	}

	var rsp qdrantEnvelope[json.RawMessage]

	path := fmt.Sprintf("/collections/%s/points?wait=true", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPut, path, req, &rsp); err != nil {
		return 0, err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") && len(rsp.Status.Error) > 0 {
		return 0, errors.New(rsp.Status.Error)
	}

	return len(chunks), nil
}

func (s *qdrantStore) Query(ctx context.Context, text string, topK int) ([]vectorstore.Hit, error) {
	if topK < 1 || len(strings.TrimSpace(text)) == 0 {
		return nil, nil
	}

	vector, err := s.options.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}

	var rsp qdrantEnvelope[[]qdrantPointResult]

	path := fmt.Sprintf("/collections/%s/points/search", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return nil, err
	}

	hits := make([]vectorstore.Hit, 0, len(rsp.Result))

	for _, point := range rsp.Result {
		score := point.Score
		hits = append(hits, vectorstore.Hit{
			Id:      point.Id,
			Score:   &score,
			Payload: point.Payload,
		})
	}

	return hits, nil
}

func (s *qdrantStore) do(ctx context.Context, method string, path string, req any, rsp any) error {
	u := s.options.Location + path

	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")

	if len(s.options.ApiKey) > 0 {
		request.Header.Set("api-key", s.options.ApiKey)
		request.Header.Set("Authorization", "Bearer "+s.options.ApiKey)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("qdrant http %d: %s", response.StatusCode, string(payload))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}

	return nil
}

func (s *qdrantStore) configure() error {
	exists, err := s.collectionExists()
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return s.createCollection()
}

func (s *qdrantStore) collectionExists() (bool, error) {
	path := fmt.Sprintf("/collections/%s", url.PathEscape(s.options.Collection))

	var rsp qdrantEnvelope[json.RawMessage]

	err := s.do(s.options.Context, http.MethodGet, path, nil, &rsp)
	if err != nil {
		if strings.Contains(err.Error(), "404") {
			return false, nil
		}
		return false, err
	}

	return strings.EqualFold(rsp.Status.State, "ok"), nil
}

func (s *qdrantStore) createCollection() error {
	distance := s.options.Distance
	if len(distance) == 0 {
		distance = "Cosine"
	}

	req := map[string]any{
		"vectors": map[string]any{
			"size":     s.options.VectorSize,
			"distance": distance,
		},
	}

	path := fmt.Sprintf("/collections/%s", url.PathEscape(s.options.Collection))

	var rsp qdrantEnvelope[json.RawMessage]

	if err := s.do(s.options.Context, http.MethodPut, path, req, &rsp); err != nil {
		return err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") && len(rsp.Status.Error) > 0 {
		return errors.New(rsp.Status.Error)
	}

	return nil
}

// NewStore connects to qdrant and ensures the collection exists before the
// first write. Any failure here wraps vectorstore.ErrUnavailable so the
// caller can fall back to another backend.
func NewStore(opts ...vectorstore.Option) (vectorstore.VectorStore, error) {
	options := vectorstore.NewOptions(opts...)

	if len(options.Location) == 0 ||
		len(options.Collection) == 0 ||
		options.VectorSize == 0 ||
		options.Embedder == nil {
		return nil, fmt.Errorf("%w: missing location, collection, vector size, or embedder", vectorstore.ErrUnavailable)
	}

	client := &http.Client{
		Timeout:   15 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	s := &qdrantStore{
		options: options,
		client:  client,
	}

	if err := s.configure(); err != nil {
		return nil, fmt.Errorf("%w: %v", vectorstore.ErrUnavailable, err)
	}

	return s, nil
}
