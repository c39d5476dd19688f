// Package server exposes a qbucket index over HTTP.
//
//	GET /v1/boundary?attribute=listPrice&bucket=2&op=<&filter=category=Shoes&buckets=25,25,25,25
//	GET /v1/index
//	POST /v1/reload
//	GET /healthz
//	GET /metrics
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/qbucket"
	"github.com/hupe1980/qbucket/internal/resource"
	"github.com/hupe1980/qbucket/prom"
)

// Loader loads the index to serve.
type Loader func(ctx context.Context) (*qbucket.Index, error)

// Options configures a Server.
type Options struct {
	Logger   *slog.Logger
	Metrics  *prom.Collector
	Gatherer prometheus.Gatherer
	Loader   Loader

	// MaxInflight bounds concurrent boundary queries. 0 means unlimited.
	MaxInflight int64
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetrics records request metrics in c and serves g on /metrics.
func WithMetrics(c *prom.Collector, g prometheus.Gatherer) func(*Options) {
	return func(o *Options) {
		o.Metrics = c
		o.Gatherer = g
	}
}

// WithLoader enables Reload.
func WithLoader(l Loader) func(*Options) {
	return func(o *Options) {
		o.Loader = l
	}
}

// WithMaxInflight rejects boundary queries with 429 while n are running.
func WithMaxInflight(n int64) func(*Options) {
	return func(o *Options) {
		o.MaxInflight = n
	}
}

// Server serves boundary queries against the current index. The index can be
// swapped while requests are in flight.
type Server struct {
	router *mux.Router
	index  atomic.Pointer[qbucket.Index]
	limits *resource.Controller
	opts   Options
}

// New creates a server. ix may be nil until the first Swap or Reload.
func New(ix *qbucket.Index, optFns ...func(*Options)) *Server {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		opts:   opts,
		limits: resource.NewController(resource.Config{MaxInflight: opts.MaxInflight}),
	}
	if ix != nil {
		s.index.Store(ix)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Index returns the index currently served.
func (s *Server) Index() *qbucket.Index { return s.index.Load() }

// Swap replaces the served index.
func (s *Server) Swap(ix *qbucket.Index) { s.index.Store(ix) }

var (
	// ErrNoLoader is returned by Reload when the server was created without a Loader.
	ErrNoLoader = errors.New("server: no loader configured")

	// ErrReloadInProgress is returned by Reload while another reload is running.
	ErrReloadInProgress = errors.New("server: reload in progress")
)

// Reload loads a fresh index and swaps it in when it is a new version.
func (s *Server) Reload(ctx context.Context) error {
	if s.opts.Loader == nil {
		return ErrNoLoader
	}
	if !s.limits.TryAcquireReload() {
		return ErrReloadInProgress
	}
	defer s.limits.ReleaseReload()

	ix, err := s.opts.Loader(ctx)
	if err != nil {
		return err
	}
	if cur := s.index.Load(); cur != nil && cur.Version() == ix.Version() && ix.Version() != 0 {
		return nil
	}
	s.index.Store(ix)
	s.opts.Logger.InfoContext(ctx, "index reloaded", "version", ix.Version(), "entries", ix.Len())
	return nil
}

// Watch calls Reload every interval until ctx is done. Failures are logged
// and the previous index keeps serving.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Reload(ctx); err != nil && !errors.Is(err, ErrReloadInProgress) {
				s.opts.Logger.WarnContext(ctx, "reload failed", "error", err)
			}
		}
	}
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.observe)

	for _, rt := range []Route{
		{Path: "/v1/boundary", Methods: []string{http.MethodGet}, Handler: s.boundary},
		{Path: "/v1/index", Methods: []string{http.MethodGet}, Handler: s.describe},
		{Path: "/v1/reload", Methods: []string{http.MethodPost}, Handler: s.reload},
		{Path: "/healthz", Methods: []string{http.MethodGet}, Handler: s.healthz},
	} {
		r.HandleFunc(rt.Path, s.withErrorHandle(rt.Handler)).Methods(rt.Methods...)
	}

	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

// Route is a handler returning an error rendered by the server.
type Route struct {
	Path    string
	Methods []string
	Handler func(w http.ResponseWriter, r *http.Request) error
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		if s.opts.Metrics != nil {
			s.opts.Metrics.ObserveRequest(r.Method, route, rec.status, time.Since(start))
		}
		s.opts.Logger.DebugContext(r.Context(), "request",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
