package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nupi-ai/plugin-stt-leopard/internal/adapterinfo"
	"github.com/nupi-ai/plugin-stt-leopard/internal/leopard"
)

const (
	stubSampleRate = 16000
	stubVersion    = "stub"
	stubConfidence = 0.42
)

// StubEngine produces deterministic transcripts without loading the native
// library: one word per started second of audio.
type StubEngine struct {
	log *slog.Logger
}

// NewStubEngine returns an Engine that generates placeholder transcripts.
func NewStubEngine(logger *slog.Logger) *StubEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubEngine{
		log: logger.With(
			"component", "engine.stub",
			"adapter", adapterinfo.Info.Slug,
		),
	}
}

// Close implements the Engine interface.
func (e *StubEngine) Close() error {
	return nil
}

// SampleRate implements the Engine interface.
func (e *StubEngine) SampleRate() int { return stubSampleRate }

// Version implements the Engine interface.
func (e *StubEngine) Version() string { return stubVersion }

// Process implements the Engine interface.
func (e *StubEngine) Process(ctx context.Context, pcm []int16) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(pcm) == 0 {
		return Result{}, &leopard.Error{
			Kind:    leopard.KindFrameLength,
			Op:      "process",
			Message: "audio data must not be empty",
		}
	}
	seconds := (len(pcm) + stubSampleRate - 1) / stubSampleRate
	e.log.Debug("stub transcript", "samples", len(pcm), "words", seconds)
	return stubResult(fmt.Sprintf("[stub] received %d samples", len(pcm)), seconds), nil
}

// ProcessFile implements the Engine interface. File size stands in for duration.
func (e *StubEngine) ProcessFile(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, &leopard.Error{
				Kind:    leopard.KindArgument,
				Op:      "process file",
				Message: fmt.Sprintf("could not find the audio file at `%s`", path),
			}
		}
		return Result{}, err
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if !isSupported(ext) {
		return Result{}, &leopard.Error{
			Kind:    leopard.KindArgument,
			Op:      "process file",
			Message: fmt.Sprintf("specified file with extension '%s' is not supported", ext),
		}
	}
	seconds := int(info.Size()/(stubSampleRate*2)) + 1
	e.log.Debug("stub file transcript", "path", path, "bytes", info.Size())
	return stubResult(fmt.Sprintf("[stub] received %s", filepath.Base(path)), seconds), nil
}

func stubResult(text string, seconds int) Result {
	words := make([]leopard.Word, 0, seconds)
	for i := 0; i < seconds; i++ {
		words = append(words, leopard.Word{
			Word:       fmt.Sprintf("word%d", i+1),
			StartSec:   float32(i),
			EndSec:     float32(i) + 0.9,
			Confidence: stubConfidence,
			SpeakerTag: leopard.NoSpeakerTag,
		})
	}
	return Result{
		Text:       text,
		Words:      words,
		Confidence: meanConfidence(words),
	}
}

func isSupported(ext string) bool {
	for _, candidate := range leopard.SupportedExtensions() {
		if strings.EqualFold(candidate, ext) {
			return true
		}
	}
	return false
}
