package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/nupi-ai/plugin-stt-leopard/internal/adapterinfo"
	"github.com/nupi-ai/plugin-stt-leopard/internal/config"
	"github.com/nupi-ai/plugin-stt-leopard/internal/engine"
	"github.com/nupi-ai/plugin-stt-leopard/internal/server"
	"github.com/nupi-ai/plugin-stt-leopard/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("starting adapter",
		"adapter", adapterinfo.Info.Slug,
		"adapter_version", adapterinfo.Version(),
		"listen_addr", cfg.ListenAddr,
		"model_path", cfg.ModelPath,
		"library_path", cfg.LibraryPath,
		"punctuation", cfg.EnableAutomaticPunctuation,
		"diarization", cfg.EnableDiarization,
	)

	recorder := telemetry.NewRecorder(logger)

	eng, engineErr := engine.New(cfg, logger)
	if engineErr != nil {
		if !errors.Is(engineErr, engine.ErrNativeEngineUnavailable) {
			logger.Error("failed to initialise engine", "error", engineErr)
			os.Exit(1)
		}
		logger.Warn("engine initialised with warnings", "error", engineErr)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Warn("failed to close engine", "error", err)
		}
	}()

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logger.Error("failed to bind listener", "error", err)
		os.Exit(1)
	}
	defer lis.Close()

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthgrpc.RegisterHealthServer(grpcServer, healthServer)

	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(server.ServiceName, healthgrpc.HealthCheckResponse_NOT_SERVING)

	server.Register(grpcServer, server.New(logger, eng, recorder))

	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(server.ServiceName, healthgrpc.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		logger.Info("shutdown requested, stopping gRPC server")
		healthServer.SetServingStatus(server.ServiceName, healthgrpc.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			logger.Warn("graceful stop timed out, forcing stop")
			grpcServer.Stop()
		}
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		logger.Error("gRPC server terminated with error", "error", err)
		os.Exit(1)
	}

	if snapshot := recorder.Snapshot(); snapshot.TotalRequests+snapshot.TotalFileRequests+snapshot.TotalStreams > 0 {
		logger.Info("telemetry totals",
			"total_requests", snapshot.TotalRequests,
			"total_file_requests", snapshot.TotalFileRequests,
			"total_streams", snapshot.TotalStreams,
			"total_samples", snapshot.TotalSamples,
			"total_words", snapshot.TotalWords,
			"total_failures", snapshot.TotalFailures,
		)
	}

	logger.Info("adapter stopped")
}

// newLogger returns a slog.Logger backed by charmbracelet/log, which renders
// colour on terminals and logfmt-like text otherwise.
func newLogger(level string) *slog.Logger {
	handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           parseLevel(level),
		Prefix:          adapterinfo.Info.Slug,
	})
	return slog.New(handler)
}

func parseLevel(value string) charmlog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return charmlog.DebugLevel
	case "info", "":
		return charmlog.InfoLevel
	case "warn", "warning":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}
