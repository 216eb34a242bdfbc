// Package server exposes a session's mutation surface over HTTP for UI
// collaborators. Every mutation responds with the regenerated SQL, so a
// thin client can stay in sync without a second round trip.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/canvasql/internal/executor"
	"github.com/leapstack-labs/canvasql/internal/session"
	"github.com/leapstack-labs/canvasql/internal/state"
)

// errNoExecutor is returned by POST /run when no target is configured.
var errNoExecutor = errors.New("no execution target configured")

// Server serves one shared editing session.
type Server struct {
	session *session.Session
	exec    *executor.Executor
	store   *state.Store
	port    int
	logger  *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Session *session.Session
	// Executor enables POST /run (optional).
	Executor *executor.Executor
	// Store records executed statements (optional).
	Store  *state.Store
	Port   int
	Logger *slog.Logger
}

// New creates a server over an existing session.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		session: cfg.Session,
		exec:    cfg.Executor,
		store:   cfg.Store,
		port:    cfg.Port,
		logger:  logger,
	}
}

// Serve starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting API server", "addr", addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewMux()
	r.Use(middleware.Recoverer)

	r.Get("/sql", s.handleGetSQL)
	r.Post("/import", s.handleImport)
	r.Post("/reset", s.handleReset)
	r.Post("/run", s.handleRun)

	r.Post("/nodes", s.handleAddNode)
	r.Delete("/nodes/{id}", s.handleRemoveNode)
	r.Post("/nodes/{id}/select", s.handleSelectColumn)
	r.Post("/nodes/{id}/deselect", s.handleDeselectColumn)
	r.Post("/joins", s.handleAddJoin)
	r.Put("/target", s.handleSetTarget)
	r.Delete("/target", s.handleClearTarget)
	r.Post("/mappings", s.handleAddMapping)

	r.Post("/clauses/where", s.handleAddWhere)
	r.Post("/clauses/having", s.handleAddHaving)
	r.Post("/clauses/group-by", s.handleAddGroupBy)
	r.Post("/clauses/aggregates", s.handleAddAggregate)
	r.Post("/clauses/order-by", s.handleAddOrderBy)
	r.Post("/clauses/derived", s.handleAddDerived)
	r.Post("/ctes", s.handleAddCTE)
	r.Put("/combine", s.handleSetCombine)
	r.Delete("/combine", s.handleClearCombine)
	r.Put("/limit", s.handleSetLimit)
	r.Put("/offset", s.handleSetOffset)
	r.Put("/mode", s.handleSetMode)
	r.Put("/linked-servers", s.handleSetLinkedServers)

	return r
}
