// Package debughttp serves a read-only HTTP view of a store.Container.
//
//	GET /stores                      live stores
//	GET /stores/{id}                 one store's view snapshot
//	GET /stores/{id}/cells/{name}    one cell value
//	GET /metrics                     Prometheus metrics
//	GET /healthz                     liveness
//
// Nothing here writes: views are read-only.
package debughttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/vstate/pkg/store"
)

// Handler routes the debug endpoints.
type Handler struct {
	container *store.Container
	gatherer  prometheus.Gatherer
	metrics   *httpMetrics
	logger    *slog.Logger
	router    chi.Router
}

// Option configures a Handler.
type Option func(*Handler)

// WithGatherer sets the metrics source. Default: prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) {
		if g != nil {
			h.gatherer = g
		}
	}
}

// WithRegistry serves metrics from reg and registers the request metrics
// on it instead of the default registerer.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(h *Handler) {
		if reg != nil {
			h.gatherer = reg
			h.metrics = newHTTPMetrics(reg)
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// StoreInfo is one entry of GET /stores.
type StoreInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	RefCount int    `json:"refCount"`
}

type errorBody struct {
	Error string `json:"error"`
}

// New builds the handler for c.
func New(c *store.Container, opts ...Option) *Handler {
	h := &Handler{
		container: c,
		gatherer:  prometheus.DefaultGatherer,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = sharedHTTPMetrics()
	}
	h.logger = h.logger.With("component", "debughttp")

	r := chi.NewRouter()
	r.Use(h.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/stores", h.listStores)
	r.Get("/stores/{id}", h.getStore)
	r.Get("/stores/{id}/cells/{name}", h.getCell)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	h.router = r
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) listStores(w http.ResponseWriter, _ *http.Request) {
	records := h.container.Records()
	out := make([]StoreInfo, 0, len(records))
	for _, rec := range records {
		info := StoreInfo{
			ID:       rec.Identity.ID,
			Name:     rec.Identity.Name,
			RefCount: rec.RefCount,
		}
		if rec.Identity.Type != nil {
			info.Type = rec.Identity.Type.String()
		}
		out = append(out, info)
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getStore(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.container.Lookup(chi.URLParam(r, "id"))
	if !ok {
		h.writeJSON(w, http.StatusNotFound, errorBody{Error: "store not found"})
		return
	}
	h.writeJSON(w, http.StatusOK, rec.View().Snapshot())
}

func (h *Handler) getCell(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.container.Lookup(chi.URLParam(r, "id"))
	if !ok {
		h.writeJSON(w, http.StatusNotFound, errorBody{Error: "store not found"})
		return
	}
	value, ok := rec.View().Value(chi.URLParam(r, "name"))
	if !ok {
		h.writeJSON(w, http.StatusNotFound, errorBody{Error: "cell not found"})
		return
	}
	h.writeJSON(w, http.StatusOK, value)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("encode response", "error", err)
	}
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
// ready, if not nil, receives the bound address once listening.
func Serve(ctx context.Context, addr string, handler http.Handler, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if ready != nil {
		ready(ln.Addr())
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
