package ledgergrpc

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Metrics holds the transport's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the transport collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerkit",
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Handled RPCs by method and status code",
		}, []string{"method", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledgerkit",
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "RPC handling latency by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

func (m *Metrics) observe(method, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, code).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// record logs and measures one finished RPC.
func (s *GRPCServer) record(method string, start time.Time, err error) {
	elapsed := time.Since(start)
	code := status.Code(err)
	s.metrics.observe(method, code.String(), elapsed)

	level := zapcore.DebugLevel
	if err != nil {
		level = zapcore.WarnLevel
	}
	if ce := s.logger.Check(level, "rpc"); ce != nil {
		ce.Write(
			zap.String("method", method),
			zap.Stringer("code", code),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	}
}

func (s *GRPCServer) unaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.record(info.FullMethod, start, err)
	return resp, err
}

func (s *GRPCServer) streamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	s.record(info.FullMethod, start, err)
	return err
}
