// Package web provides the JSON HTTP API for residents.
package web

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/evcraddock/gatepass/internal/auth"
	"github.com/evcraddock/gatepass/internal/credential"
	"github.com/evcraddock/gatepass/internal/dispatch"
	"github.com/evcraddock/gatepass/internal/househelp"
	"github.com/evcraddock/gatepass/internal/logging"
	"github.com/evcraddock/gatepass/internal/metrics"
	"github.com/evcraddock/gatepass/internal/telephony"
	"github.com/evcraddock/gatepass/internal/visitor"
)

// VisitorFetcher loads a resident's visitors from the backend.
type VisitorFetcher interface {
	FetchVisitors(ctx context.Context, residentID int64) ([]visitor.Visitor, error)
}

// Options holds the collaborators a Server needs.
type Options struct {
	Visitors VisitorFetcher
	Dialer   telephony.Dialer
	Metrics  *metrics.Metrics
	Location *time.Location // ticket time zone, nil means local
}

// Server is the resident API server. One mutex serializes every command
// and visitor book access, so requests apply in arrival order.
type Server struct {
	mu         sync.Mutex
	store      *househelp.Store
	dispatcher *dispatch.Dispatcher
	helps      *househelp.Repository
	books      map[int64]*visitor.Book
	issuer     *credential.Issuer
	loc        *time.Location

	apiKeys  *auth.APIKeyStore
	visitors VisitorFetcher
	metrics  *metrics.Metrics

	mux     *http.ServeMux
	handler http.Handler
}

// NewServer creates a server backed by db and loads the saved roster.
func NewServer(db *sql.DB, opts Options) (*Server, error) {
	if opts.Visitors == nil {
		return nil, fmt.Errorf("visitor fetcher is required")
	}
	if opts.Dialer == nil {
		opts.Dialer = telephony.LogDialer{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	issuer := credential.NewIssuer()
	store := househelp.NewStore(issuer)
	helps := househelp.NewRepository(db)

	saved, err := helps.List()
	if err != nil {
		return nil, fmt.Errorf("loading domestic help: %w", err)
	}
	if err := store.Load(saved); err != nil {
		return nil, fmt.Errorf("loading domestic help: %w", err)
	}
	opts.Metrics.SetActiveWorkers(len(store.Active()))

	s := &Server{
		store:      store,
		dispatcher: dispatch.New(store, opts.Dialer, opts.Metrics, opts.Location).WithSaver(helps),
		helps:      helps,
		books:      make(map[int64]*visitor.Book),
		issuer:     issuer,
		loc:        opts.Location,
		apiKeys:    auth.NewAPIKeyStore(db),
		visitors:   opts.Visitors,
		metrics:    opts.Metrics,
		mux:        http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", opts.Metrics.Handler())
	s.mux.HandleFunc("/api/staff", s.handleAPIStaff)
	s.mux.HandleFunc("/api/staff/", s.handleAPIStaff)
	s.mux.HandleFunc("/api/visitors", s.handleAPIVisitors)
	s.mux.HandleFunc("/api/visitors/", s.handleAPIVisitors)

	s.handler = auth.RequireAPIKey(s.apiKeys, opts.Metrics.IncrementAuthFailures, s.mux)

	slog.Info("roster loaded", "workers", store.Len())
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           logging.RequestLogger(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
