package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wearloom/atelier"
	"github.com/wearloom/atelier/catalog"
	"github.com/wearloom/atelier/internal/config"
)

// Server exposes the answering engine over HTTP. All payloads are JSON and
// errors follow the `{"detail": ...}` shape.
type Server struct {
	pipeline *atelier.Pipeline
	catalog  *catalog.Catalog
	settings *config.Settings
	limiter  *visitorLimiter
	router   *mux.Router
}

func New(pipeline *atelier.Pipeline, cat *catalog.Catalog, settings *config.Settings) *Server {
	s := &Server{
		pipeline: pipeline,
		catalog:  cat,
		settings: settings,
		limiter:  newVisitorLimiter(settings.RateLimitPerMinute, settings.RateLimitBurst),
	}

	s.router = s.routes()

	return s
}

// ServeHTTP applies permissive CORS, answers preflight requests, and hands
// everything else to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "*")
	w.Header().Set("Access-Control-Allow-Headers", "*")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.Handle("/ingest", s.authenticate(s.rateLimit(http.HandlerFunc(s.handleIngest)))).Methods(http.MethodPost)
	api.Handle("/query", s.authenticate(s.rateLimit(http.HandlerFunc(s.handleQuery)))).Methods(http.MethodPost)
	api.Handle("/products", s.authenticate(http.HandlerFunc(s.handleListProducts))).Methods(http.MethodGet)
	api.Handle("/products/{id}", s.authenticate(http.HandlerFunc(s.handleGetProduct))).Methods(http.MethodGet)

	return router
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, detail string) {
	s.respond(w, status, map[string]string{"detail": detail})
}
