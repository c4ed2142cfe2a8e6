// Package stub is a local, in-memory implementation of the question
// and challenge service HTTP contracts. It exists so the client can be
// played and integration-tested without the production backend.
package stub

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
	"github.com/swaggest/swgui/v5emb"
)

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func New(addr string, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)

	addRoutes(r, newStore())

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Routes returns a handler with all stub routes mounted, for mounting
// under httptest in integration tests.
func Routes() http.Handler {
	r := chi.NewRouter()
	addRoutes(r, newStore())
	return r
}

func addRoutes(r chi.Router, st *store) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Globetrotter Stub API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth())

	r.Route("/quiz", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/start", handleStartSession(st))
		r.Get("/random/{sessionID}", handleRandomQuestion(st))
		r.Post("/submit", handleSubmitAnswer(st))
	})

	r.Route("/challenge", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/create", handleCreateChallenge(st))
		r.Get("/{link}", handleGetChallenge(st))
		r.Post("/{link}/accept", handleAcceptChallenge(st))
	})
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
