package api

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
	"github.com/go-chi/render"

	"github.com/iyann1255/daftaren/internal/config"
	handlererrors "github.com/iyann1255/daftaren/internal/http-server/handlers/errors"
	"github.com/iyann1255/daftaren/internal/http-server/handlers/registrations"
	"github.com/iyann1255/daftaren/internal/http-server/middleware/authenticate"
	"github.com/iyann1255/daftaren/internal/http-server/middleware/timeout"
	"github.com/iyann1255/daftaren/internal/metrics"
	"github.com/iyann1255/daftaren/lib/api/response"
	"github.com/iyann1255/daftaren/lib/sl"
)

type Server struct {
	conf       config.Listen
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	registrations.Core
}

// NewRouter builds the routes: /health and /metrics are open, /v1 requires
// the API token.
func NewRouter(log *slog.Logger, handler Handler, m *metrics.Metrics) http.Handler {
	router := chi.NewRouter()
	router.Use(timeout.Timeout(5 * time.Second))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(handlererrors.NotFound(log))
	router.MethodNotAllowed(handlererrors.NotAllowed(log))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok(map[string]string{"status": "ok"}))
	})
	router.Method(http.MethodGet, "/metrics", m.Handler())

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(authenticate.New(log, handler))
		rootApi.Get("/pending", registrations.Pending(log, handler))
		rootApi.Get("/users/{id}", registrations.User(log, handler))
		rootApi.Get("/export.csv", registrations.Export(log, handler))
	})

	return router
}

func New(conf config.Listen, log *slog.Logger, handler http.Handler) *Server {
	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	return &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
		httpServer: &http.Server{
			Handler:      handler,
			ErrorLog:     httpLog,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start listens and serves until Shutdown.
func (s *Server) Start() error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.BindIp, s.conf.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	err = s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("stopping api server")
	return s.httpServer.Shutdown(ctx)
}
