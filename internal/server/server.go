// Package server exposes the prediction pipeline and insights over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/retentioniq/internal/attrition"
	"github.com/spigell/retentioniq/internal/dataset"
	"github.com/spigell/retentioniq/internal/insights"
	"github.com/spigell/retentioniq/internal/metrics"
	"github.com/spigell/retentioniq/internal/pipeline"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
	maxBodyBytes      = 1 << 20
)

// Predictor runs the full pipeline for one record.
type Predictor interface {
	Run(ctx context.Context, record *attrition.Record) (*pipeline.Result, error)
}

// Conversation is the insights chat.
type Conversation interface {
	Ask(ctx context.Context, question string) (insights.Entry, error)
	History() []insights.Entry
	Clear()
}

// Deps are the collaborators of the HTTP layer. Predictor is resolved on
// every request so that a model that failed to load keeps answering 503.
type Deps struct {
	Predictor func() (Predictor, error)
	Chat      Conversation
	Dataset   *dataset.Dataset
	Metrics   *metrics.Recorder
	Logger    *zap.Logger
	Version   string
}

type Server struct {
	deps   Deps
	logger *zap.Logger
	mux    *http.ServeMux
}

func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	s := &Server{deps: deps, logger: deps.Logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("GET /{$}", "index", s.handleIndex)
	s.handle("GET /api/schema", "schema", s.handleSchema)
	s.handle("POST /api/predict", "predict", s.handlePredict)
	s.handle("GET /api/chat", "chat_history", s.handleChatHistory)
	s.handle("POST /api/chat", "chat_ask", s.handleChatAsk)
	s.handle("DELETE /api/chat", "chat_clear", s.handleChatClear)
	s.handle("GET /api/insights", "insights", s.handleInsights)
	s.handle("GET /healthz", "healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", s.deps.Metrics.Handler())
}

func (s *Server) handle(pattern, route string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.instrument(route, h))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
