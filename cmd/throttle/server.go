package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/throttlehq/throttle/api"
	"github.com/throttlehq/throttle/config"
	"github.com/throttlehq/throttle/internal/metrics"
	intserver "github.com/throttlehq/throttle/internal/server"
	"github.com/throttlehq/throttle/internal/telemetry"
)

// metricsNamespace prefixes every Prometheus instrument this process
// exports.
const metricsNamespace = "throttle"

// Server owns the proxy's full process lifetime: the api.Server request
// pipeline, the telemetry providers (shut down with the server; the
// request pipeline starts no spans), and the HTTP listener itself. /metrics is exposed on the same loopback port as the
// chat routes rather than a second port, since internal/server.Manager is
// a single-listener manager by design.
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	api       *api.Server
	telemetry *telemetry.Providers
	manager   *intserver.Manager
}

// NewServer wires the full process: telemetry, metrics collector, the
// api.Server request pipeline, and the HTTP manager around it.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	providers, err := telemetry.Init(context.Background(), cfg.TelemetryConfig(), logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	collector := metrics.NewCollector(metricsNamespace)

	apiServer, err := api.NewServer(cfg, logger, collector)
	if err != nil {
		return nil, fmt.Errorf("build api server: %w", err)
	}

	handler := api.Chain(apiServer.Routes(),
		api.Recovery(logger),
		api.RequestLogger(logger),
		api.MetricsMiddleware(collector),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler)

	managerCfg := intserver.DefaultConfig()
	managerCfg.Addr = fmt.Sprintf("127.0.0.1:%d", cfg.HTTP.Port)
	manager := intserver.NewManager(mux, managerCfg, logger)

	return &Server{
		cfg:       cfg,
		logger:    logger,
		api:       apiServer,
		telemetry: providers,
		manager:   manager,
	}, nil
}

// Start begins listening in the background.
func (s *Server) Start() error {
	return s.manager.Start()
}

// WaitForShutdown blocks until a shutdown signal or server error, then
// drains the HTTP listener and every component Server owns.
func (s *Server) WaitForShutdown() {
	s.manager.WaitForShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.telemetry.Shutdown(ctx); err != nil {
		s.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	if err := s.api.Close(); err != nil {
		s.logger.Warn("api server close failed", zap.Error(err))
	}
}
