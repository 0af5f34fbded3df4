// Package statusapi exposes the pending-post read model over local HTTP so
// other processes (a tray icon, a browser extension) can show upload state
// and dismiss or retry posts.
package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/client/services"
	"github.com/dmitrijs2005/postkeeper/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address  string
	posts    services.PostService
	gatherer prometheus.Gatherer
	logger   logging.Logger
}

// NewServer returns a status API server. A nil gatherer disables /metrics.
func NewServer(address string, posts services.PostService, gatherer prometheus.Gatherer, l logging.Logger) *Server {
	return &Server{
		address:  address,
		posts:    posts,
		gatherer: gatherer,
		logger:   l.With("module", "status_api"),
	}
}

// postView is a pending post as served to clients.
type postView struct {
	models.PostRecord
	Progress int `json:"progress"`
}

func view(p models.PendingPost) postView {
	return postView{PostRecord: models.Project(p), Progress: p.Progress()}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNothingToRetry), errors.Is(err, services.ErrFilesUnavailable):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/pending", func(r chi.Router) {
		r.Get("/", s.list)
		r.Get("/busy", s.busy)
		r.Post("/clear-completed", s.clearCompleted)
		r.Get("/{id}", s.get)
		r.Delete("/{id}", s.dismiss)
		r.Post("/{id}/retry", s.retry)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) list(w http.ResponseWriter, _ *http.Request) {
	posts := s.posts.List()
	out := make([]postView, len(posts))
	for i, p := range posts {
		out[i] = view(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) busy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"busy": s.posts.Busy()})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, p := range s.posts.List() {
		if p.TempID == id {
			writeJSON(w, http.StatusOK, view(p))
			return
		}
	}
	writeError(w, services.ErrNotFound)
}

func (s *Server) dismiss(w http.ResponseWriter, r *http.Request) {
	if err := s.posts.Dismiss(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) retry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.posts.Retry(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info(r.Context(), "retry requested", "temp_id", id)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) clearCompleted(w http.ResponseWriter, _ *http.Request) {
	s.posts.ClearCompleted()
	w.WriteHeader(http.StatusNoContent)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping status API...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting status API", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
