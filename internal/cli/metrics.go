package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ygrebnov/executor/metrics"
)

// metricsServer exposes executor instruments on /metrics.
type metricsServer struct {
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger
}

// newMetrics returns the provider to hand to the executor. With an empty addr it is a
// no-op provider and the returned server is nil.
func newMetrics(addr string, logger *slog.Logger) (metrics.Provider, *metricsServer, error) {
	if addr == "" {
		return metrics.NewNoopProvider(), nil, nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	s := &metricsServer{
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:     ln,
		logger: logger,
	}
	go s.serve()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	return metrics.NewPrometheusProvider(reg), s, nil
}

func (s *metricsServer) serve() {
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("metrics server failed", "error", err)
	}
}

func (s *metricsServer) Addr() string { return s.ln.Addr().String() }

func (s *metricsServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("metrics server shutdown", "error", err)
	}
}
