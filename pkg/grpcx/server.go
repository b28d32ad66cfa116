// Package grpcx runs the gRPC listener that exposes the standard health
// service next to the HTTP API.
package grpcx

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/tair/warehouse-erp/pkg/logger"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server wraps a grpc.Server with its health service
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// NewServer creates a gRPC server with tracing, metrics and logging
func NewServer(service string, metrics *Metrics) *Server {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor(service),
			metrics.UnaryInterceptor,
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &Server{grpc: srv, health: hs}
}

// GRPC exposes the underlying server for service registration
func (s *Server) GRPC() *grpc.Server {
	return s.grpc
}

// SetServing flips the overall health status
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !serving {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Watch pings db every interval and reports the result as health status
// until ctx is done
func (s *Server) Watch(ctx context.Context, db Pinger, interval time.Duration) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		err := db.PingContext(pingCtx)
		if err != nil {
			logger.Warn(ctx).Err(err).Msg("Health check failed")
		}
		s.SetServing(err == nil)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// Serve listens on addr until Stop is called
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	logger.Logger.Info().Str("addr", addr).Msg("gRPC server started")
	return s.grpc.Serve(lis)
}

// Stop marks the server as not serving and drains in-flight calls
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
