package engine

import (
	"context"
	"log/slog"

	"github.com/nupi-ai/plugin-stt-leopard/internal/leopard"
)

// NativeEngine runs transcription through a loaded Leopard library. Calls
// may be issued from many goroutines.
type NativeEngine struct {
	log    *slog.Logger
	handle *leopard.Leopard
}

// NewNativeEngine loads the library described by cfg.
func NewNativeEngine(cfg leopard.Config, logger *slog.Logger) (*NativeEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	handle, err := leopard.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &NativeEngine{
		log: logger.With(
			"component", "engine.native",
			"version", handle.Version(),
		),
		handle: handle,
	}, nil
}

// Process implements the Engine interface. The native call itself cannot be
// interrupted; ctx is only checked before it starts.
func (e *NativeEngine) Process(ctx context.Context, pcm []int16) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	transcript, err := e.handle.Process(pcm)
	if err != nil {
		e.log.Warn("native process failed", "error", err, "samples", len(pcm))
		return Result{}, err
	}
	e.log.Debug("native transcript", "samples", len(pcm), "words", len(transcript.Words))
	return newResult(transcript), nil
}

// ProcessFile implements the Engine interface.
func (e *NativeEngine) ProcessFile(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	transcript, err := e.handle.ProcessFile(path)
	if err != nil {
		e.log.Warn("native process file failed", "error", err, "path", path)
		return Result{}, err
	}
	e.log.Debug("native transcript", "path", path, "words", len(transcript.Words))
	return newResult(transcript), nil
}

// SampleRate implements the Engine interface.
func (e *NativeEngine) SampleRate() int { return e.handle.SampleRate() }

// Version implements the Engine interface.
func (e *NativeEngine) Version() string { return e.handle.Version() }

// Close implements the Engine interface.
func (e *NativeEngine) Close() error {
	return e.handle.Close()
}
