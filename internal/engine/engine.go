package engine

import (
	"context"

	"github.com/nupi-ai/plugin-stt-leopard/internal/leopard"
)

// Engine exposes batch transcription backed by the Leopard library or a stub implementation.
type Engine interface {
	// Process transcribes 16-bit PCM sampled at SampleRate.
	Process(ctx context.Context, pcm []int16) (Result, error)
	// ProcessFile transcribes an audio file readable by the engine.
	ProcessFile(ctx context.Context, path string) (Result, error)
	SampleRate() int
	Version() string
	// Close releases underlying resources.
	Close() error
}

// Result represents a transcript produced by the engine.
type Result struct {
	Text  string
	Words []leopard.Word
	// Confidence is the mean word confidence, zero when no words were found.
	Confidence float32
}

func newResult(t leopard.Transcript) Result {
	return Result{
		Text:       t.Text,
		Words:      t.Words,
		Confidence: meanConfidence(t.Words),
	}
}

func meanConfidence(words []leopard.Word) float32 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		sum += float64(w.Confidence)
	}
	return float32(sum / float64(len(words)))
}
