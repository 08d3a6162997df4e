package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
)

// Server serves the metrics endpoint.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *logger.Logger
}

// Listen binds addr and serves gatherer under path. Serving happens in the
// background until Shutdown.
func Listen(addr, path string, gatherer prometheus.Gatherer, log *logger.Logger) (*Server, error) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &Server{
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:     ln,
		logger: log,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server error",
				logger.Field{Key: "addr", Value: s.Addr()},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}()
	log.Info("metrics endpoint enabled",
		logger.Field{Key: "addr", Value: s.Addr()},
		logger.Field{Key: "path", Value: path})

	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shut down metrics server: %w", err)
	}
	return nil
}
