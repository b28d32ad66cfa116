package grpcx

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tair/warehouse-erp/pkg/logger"
)

// Metrics are the gRPC request counters of one service
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates gRPC metrics and registers them with reg when it is not nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grpc_requests_total",
				Help: "Total number of gRPC requests",
			},
			[]string{"method", "status_code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "grpc_request_duration_seconds",
				Help:    "Duration of gRPC requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

// UnaryInterceptor collects Prometheus metrics for gRPC calls
func (m *Metrics) UnaryInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	m.requests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	m.duration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	return resp, err
}

// LoggingInterceptor logs gRPC requests with structured logging
func LoggingInterceptor(service string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		if err != nil {
			logger.Error(ctx).
				Str("method", info.FullMethod).
				Str("protocol", "grpc").
				Str("service", service).
				Dur("duration", duration).
				Str("grpc_status", status.Code(err).String()).
				Err(err).
				Msg("gRPC request failed")
			return resp, err
		}

		logger.Debug(ctx).
			Str("method", info.FullMethod).
			Str("protocol", "grpc").
			Str("service", service).
			Dur("duration", duration).
			Msg("gRPC request completed")
		return resp, nil
	}
}

// RecoveryInterceptor turns a panic into an Internal status
func RecoveryInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx).
				Interface("panic", rec).
				Str("method", info.FullMethod).
				Msg("Panic recovered")
			err = status.Error(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}
