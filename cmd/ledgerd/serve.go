package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/blockberries/ledgerkit/app"
	"github.com/blockberries/ledgerkit/chain"
	"github.com/blockberries/ledgerkit/executive"
	ledgergrpc "github.com/blockberries/ledgerkit/grpc"
	"github.com/blockberries/ledgerkit/internal/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the runtime over gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			level, err := cfg.Level()
			if err != nil {
				return err
			}
			logger := newLogger(level)
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, nil)
		},
	}
}

func newLogger(level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core, zap.AddCaller())
}

// serve runs the gRPC and metrics endpoints until ctx is done or one of
// them fails. ready, if non-nil, receives the bound gRPC address.
func serve(ctx context.Context, cfg config.Config, logger *zap.Logger, ready chan<- string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ledger := app.New(
		app.WithLogger(logger.Named("app")),
		app.WithMetrics(executive.NewMetrics(reg, chain.ErrorLabel)),
		app.WithMaxTxBytes(cfg.MaxTxBytes),
	)
	gs := ledgergrpc.NewGRPCServer(ledger,
		ledgergrpc.WithLogger(logger.Named("grpc")),
		ledgergrpc.WithMetrics(ledgergrpc.NewMetrics(reg)),
	)

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Listen, err)
	}
	grpcServer := gs.NewServer()

	errc := make(chan error, 2)
	go func() {
		errc <- grpcServer.Serve(lis)
	}()
	logger.Info("serving runtime",
		zap.String("chain_id", cfg.ChainID),
		zap.Stringer("addr", lis.Addr()),
	)

	var metricsServer *http.Server
	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsServer = &http.Server{
			Addr:              cfg.MetricsListen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("metrics: %w", err)
			}
		}()
		logger.Info("serving metrics", zap.String("addr", cfg.MetricsListen))
	}

	if ready != nil {
		ready <- lis.Addr().String()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errc:
		logger.Error("server failed", zap.Error(err))
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := metricsServer.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("metrics shutdown", zap.Error(serr))
		}
	}
	grpcServer.GracefulStop()
	return err
}
