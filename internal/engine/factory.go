package engine

import (
	"errors"
	"log/slog"

	"github.com/nupi-ai/plugin-stt-leopard/internal/config"
	"github.com/nupi-ai/plugin-stt-leopard/internal/leopard"
)

// ErrNativeEngineUnavailable indicates that this build cannot load the native library.
var ErrNativeEngineUnavailable = errors.New("engine: native backend unavailable")

// New returns the Engine selected by cfg.
//
// The stub engine is returned when forced by configuration, or together with
// ErrNativeEngineUnavailable when the binary was built without cgo. Native
// initialisation failures are returned as errors without a fallback: a
// rejected access key or a broken model is not something a stub can hide.
func New(cfg config.Config, logger *slog.Logger) (Engine, error) {
	return newEngine(cfg, logger, leopard.NativeAvailable())
}

func newEngine(cfg config.Config, logger *slog.Logger, nativeAvailable bool) (Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.UseStubEngine {
		logger.Warn("stub engine forced by configuration")
		return NewStubEngine(logger), nil
	}

	if !nativeAvailable {
		logger.Warn("native backend disabled at build time; using stub engine", "library_path", cfg.LibraryPath)
		return NewStubEngine(logger), ErrNativeEngineUnavailable
	}

	native, err := NewNativeEngine(cfg.LeopardConfig(), logger)
	if err != nil {
		logger.Error("native engine initialisation failed",
			"error", err,
			"model_path", cfg.ModelPath,
			"library_path", cfg.LibraryPath,
		)
		return nil, err
	}
	logger.Info("native engine ready",
		"model_path", cfg.ModelPath,
		"version", native.Version(),
		"sample_rate", native.SampleRate(),
	)
	return native, nil
}
