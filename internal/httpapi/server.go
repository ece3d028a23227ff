package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/you/chatscribe/internal/core"
)

// Fetcher acquires the transcript and metadata for a resolved video id.
// Implementations: the Data API client and the innertube scraper.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) ([]core.ChatMessage, core.VideoInfo, error)
}

// Options configures the HTTP surface.
type Options struct {
	Addr          string
	CORSOrigins   []string
	RateRPS       int
	RateBurst     int
	EnableMetrics bool
	AccessLog     bool
	Build         BuildInfo
}

// Server exposes the fetch and export endpoints plus the operational
// handlers (health, info, metrics).
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	fetcher    Fetcher
	opts       Options

	metrics *Metrics
	limiter *ipRateLimiter
	cors    *corsPolicy
}

func New(fetcher Fetcher, opts Options) *Server {
	srv := &Server{
		fetcher: fetcher,
		opts:    opts,
		limiter: newIPRateLimiter(opts.RateRPS, opts.RateBurst),
		cors:    newCORSPolicy(opts.CORSOrigins),
	}
	if opts.EnableMetrics {
		srv.metrics = newMetrics()
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", srv.wrap("/healthz", srv.handleHealthz))
	mux.Handle("/info", srv.wrap("/info", srv.handleInfo))
	mux.Handle("/api/fetch-chat", srv.wrap("/api/fetch-chat", srv.handleFetchChat))
	mux.Handle("/api/export-csv", srv.wrap("/api/export-csv", srv.handleExportCSV))
	mux.Handle("/api/export-html", srv.wrap("/api/export-html", srv.handleExportHTML))
	if srv.metrics != nil {
		mux.Handle("/metrics", srv.metrics.Handler())
	}

	srv.mux = mux
	srv.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return srv
}

// Handler returns the configured root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Mux exposes the underlying mux so extra handlers (admin) can attach.
func (s *Server) Mux() *http.ServeMux { return s.mux }

func (s *Server) Start() error {
	log.Printf("http api listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
