// Package api is the HTTP surface of the documentation service.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/docupilot/docupilot/internal/agent"
	"github.com/docupilot/docupilot/internal/auth"
	"github.com/docupilot/docupilot/internal/store"
	"github.com/docupilot/docupilot/internal/vectorstore"
)

// generator is the slice of the generator agent the API needs.
type generator interface {
	Generate(ctx context.Context, title, source, docType string, contextDocIDs []string) (*agent.GenerateResult, error)
}

// maintainer is the slice of the maintenance agent the API needs.
type maintainer interface {
	UpdateSection(ctx context.Context, currentContent, section, newContent, reason, docID string) (*agent.UpdateResult, error)
	Audit(ctx context.Context, content, docID string) (*agent.AuditResult, error)
}

// sourceFetcher resolves repository references into source text.
type sourceFetcher interface {
	FetchSource(ctx context.Context, owner, repo, path string) (string, error)
}

// Server holds the handlers' dependencies and builds the router.
type Server struct {
	db         *store.Store
	vectors    *vectorstore.Store
	generator  generator
	maintainer maintainer
	fetcher    sourceFetcher
	tokens     *auth.TokenIssuer
	logger     *slog.Logger
}

// Config holds server dependencies. Fetcher is optional; without it,
// generation requests must carry inline source text.
type Config struct {
	DB         *store.Store
	Vectors    *vectorstore.Store
	Generator  generator
	Maintainer maintainer
	Fetcher    sourceFetcher
	Tokens     *auth.TokenIssuer
	Logger     *slog.Logger
}

// NewServer creates the HTTP server.
func NewServer(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		db:         cfg.DB,
		vectors:    cfg.Vectors,
		generator:  cfg.Generator,
		maintainer: cfg.Maintainer,
		fetcher:    cfg.Fetcher,
		tokens:     cfg.Tokens,
		logger:     logger,
	}
}

// Router builds the full route table. Extra handlers (e.g. the MCP
// transport) can be mounted on the returned router before serving.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	authRoutes.Handle("/me", s.requireAuth(s.handleMe)).Methods(http.MethodGet)
	authRoutes.Handle("/logout", s.requireAuth(s.handleLogout)).Methods(http.MethodPost)

	docs := api.PathPrefix("/documents").Subrouter()
	docs.Handle("", s.requireAuth(s.handleCreateDocument)).Methods(http.MethodPost)
	docs.Handle("", s.requireAuth(s.handleListDocuments)).Methods(http.MethodGet)
	docs.Handle("/generate", s.requireAuth(s.handleGenerateDocument)).Methods(http.MethodPost)
	docs.Handle("/update", s.requireAuth(s.handleAgentUpdate)).Methods(http.MethodPost)
	docs.Handle("/{id}", s.requireAuth(s.handleGetDocument)).Methods(http.MethodGet)
	docs.Handle("/{id}", s.requireAuth(s.handleUpdateDocument)).Methods(http.MethodPut)
	docs.Handle("/{id}", s.requireAuth(s.handleDeleteDocument)).Methods(http.MethodDelete)
	docs.Handle("/{id}/versions", s.requireAuth(s.handleListVersions)).Methods(http.MethodGet)
	docs.Handle("/{id}/versions/{version}", s.requireAuth(s.handleGetVersion)).Methods(http.MethodGet)
	docs.Handle("/{id}/audit", s.requireAuth(s.handleAuditDocument)).Methods(http.MethodPost)

	embeddings := api.PathPrefix("/embeddings").Subrouter()
	embeddings.Handle("/create", s.requireAuth(s.handleCreateEmbeddings)).Methods(http.MethodPost)
	embeddings.Handle("/search", s.requireAuth(s.handleSearchEmbeddings)).Methods(http.MethodPost)
	embeddings.Handle("/doc/{id}", s.requireAuth(s.handleGetEmbeddings)).Methods(http.MethodGet)
	embeddings.Handle("/doc/{id}", s.requireAuth(s.handleDeleteEmbeddings)).Methods(http.MethodDelete)

	return r
}
