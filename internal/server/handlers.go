package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wearloom/atelier/catalog"
	"github.com/wearloom/atelier/chunker"
)

type healthResponse struct {
	App           string `json:"app"`
	Version       string `json:"version"`
	PipelineReady bool   `json:"pipeline_ready"`
}

type ingestRequest struct {
	Documents []map[string]any `json:"documents"`
}

type ingestResponse struct {
	RecordsIngested int `json:"records_ingested"`
}

type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
	Tag      string `json:"tag"`
	Size     string `json:"size"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("%s is running", s.settings.AppName),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, healthResponse{
		App:           s.settings.AppName,
		Version:       s.settings.ApiVersion,
		PipelineReady: s.pipeline != nil && s.pipeline.Ready(),
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Pipeline not available")
		return
	}

	var payload ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	records := make([]chunker.Record, 0, len(payload.Documents))
	for _, document := range payload.Documents {
		records = append(records, chunker.RecordFromMap(document))
	}

	stored, err := s.pipeline.Ingest(r.Context(), records)
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, "Vector store is unavailable; cannot ingest documents")
		return
	}

	s.respond(w, http.StatusAccepted, ingestResponse{RecordsIngested: stored})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Pipeline not available")
		return
	}

	var payload queryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(strings.TrimSpace(payload.Question)) == 0 {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}

	filters := catalog.Filters{
		Brand:    payload.Brand,
		Category: payload.Category,
		Tag:      payload.Tag,
		Size:     payload.Size,
	}

	result, err := s.pipeline.Query(r.Context(), payload.Question, payload.TopK, filters)
	if err != nil {
		// The only error is the caller's own cancellation; nothing to write.
		return
	}

	s.respond(w, http.StatusOK, result)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Product catalog not available")
		return
	}

	params := r.URL.Query()
	products := s.catalog.Search(catalog.Filters{
		Brand:    params.Get("brand"),
		Category: params.Get("category"),
		Tag:      params.Get("tag"),
		Size:     params.Get("size"),
		Query:    params.Get("query"),
	})

	if products == nil {
		products = []catalog.Product{}
	}

	s.respond(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Product catalog not available")
		return
	}

	product := s.catalog.Get(mux.Vars(r)["id"])
	if product == nil {
		s.respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	s.respond(w, http.StatusOK, product)
}
