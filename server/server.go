package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/erikmagkekse/netgroup-nfs/exportsync"
	"github.com/erikmagkekse/netgroup-nfs/model"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"
)

type Options struct {
	ListenAddr string
	APIToken   string
	Version    string
	Commit     string
	Features   map[string]string
}

// Server exposes health, metrics, and sync status while the daemon runs.
type Server struct {
	opts Options
	echo *echo.Echo
	log  zerolog.Logger
}

func New(opts Options, syncer Previewer, tracker *exportsync.Tracker, exports map[string]model.ExportRestriction, logger zerolog.Logger) *Server {
	e := echo.New()
	e.Use(MetricsMiddleware(logger))

	// unauthenticated endpoints
	e.GET("/healthz", Healthz(opts.Version, opts.Commit, opts.Features, tracker))
	e.GET("/metrics", MetricsHandler())

	h := &Handler{Syncer: syncer, Tracker: tracker, Exports: exports}

	var api *echo.Group
	if opts.APIToken != "" {
		api = e.Group("/v1", AuthMiddleware(opts.APIToken))
	} else {
		logger.Warn().Msg("NETGROUP_NFS_API_TOKEN not set, /v1 endpoints are unauthenticated")
		api = e.Group("/v1")
	}
	api.GET("/status", h.Status)
	api.GET("/preview", h.Preview)

	return &Server{opts: opts, echo: e, log: logger}
}

func (s *Server) Handler() http.Handler { return s.echo }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.ListenAddr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	s.log.Info().Str("addr", s.opts.ListenAddr).Msg("starting status server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
