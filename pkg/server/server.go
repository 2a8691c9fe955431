package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Peripli/feature-browser/pkg/browser"
	"github.com/Peripli/feature-browser/pkg/server/middleware"
	"github.com/Peripli/feature-browser/pkg/util"
	"github.com/Peripli/service-manager/pkg/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsPath is the path of the prometheus metrics
const MetricsPath = "/metrics"

// Server serves the feature browser API on top of a session registry
type Server struct {
	Router *mux.Router

	Settings *Settings
}

// New builds a new Server from the provided configuration. When credentials are configured the
// feature browser API requires them as basic authorization.
func New(settings *Settings, registry *browser.Registry, gatherer prometheus.Gatherer) (*Server, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	router := mux.NewRouter().UseEncodedPath()
	router.Use(middleware.LogRequest())
	router.Handle(MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := router.PathPrefix(APIPrefix).Subrouter()
	if settings.User != "" {
		passwordHash, err := util.HashCredential(settings.Password)
		if err != nil {
			return nil, errors.Wrap(err, "could not hash server password")
		}
		api.Use(middleware.BasicAuth(settings.User, passwordHash))
	}
	c := &controller{registry: registry}
	c.routes(api)
	newStreamer(c, settings).routes(api)

	return &Server{
		Router:   router,
		Settings: settings,
	}, nil
}

// Use provides a way to plugin middleware in the Server
func (s *Server) Use(middleware func(handler http.Handler) http.Handler) {
	s.Router.Use(middleware)
}

// Run serves until ctx is done and then shuts the server down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := ":" + strconv.Itoa(s.Settings.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: s.Settings.RequestTimeout,
	}
	return s.run(ctx, srv, srv.ListenAndServe)
}

func (s *Server) run(ctx context.Context, srv *http.Server, listenAndServe func() error) error {
	log.C(ctx).Infof("Starting server on %s", srv.Addr)
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), s.Settings.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(c); err != nil {
			log.C(ctx).WithError(err).Error("Graceful shutdown failed, closing server")
			srv.Close()
		}
	}()

	err := listenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server stopped unexpectedly")
	}
	<-shutdownDone
	log.C(ctx).Info("Server stopped")
	return nil
}
