package telemetry

import (
	"log/slog"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// Recorder tracks adapter-level transcription totals.
type Recorder struct {
	log *slog.Logger

	totalRequests     atomic.Uint64
	totalFileRequests atomic.Uint64
	totalStreams      atomic.Uint64
	activeStreams     atomic.Int64
	totalSamples      atomic.Uint64
	totalWords        atomic.Uint64
	totalFailures     atomic.Uint64
}

// Snapshot captures cumulative metrics recorded so far.
type Snapshot struct {
	TotalRequests     uint64
	TotalFileRequests uint64
	TotalStreams      uint64
	ActiveStreams     int64
	TotalSamples      uint64
	TotalWords        uint64
	TotalFailures     uint64
}

// NewRecorder constructs a Recorder using the provided logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		log: logger.With("component", "telemetry.Recorder"),
	}
}

// Snapshot returns an immutable view of the recorder totals.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		TotalRequests:     r.totalRequests.Load(),
		TotalFileRequests: r.totalFileRequests.Load(),
		TotalStreams:      r.totalStreams.Load(),
		ActiveStreams:     r.activeStreams.Load(),
		TotalSamples:      r.totalSamples.Load(),
		TotalWords:        r.totalWords.Load(),
		TotalFailures:     r.totalFailures.Load(),
	}
}

// RecordProcess counts a one-shot PCM transcription.
func (r *Recorder) RecordProcess(requestID string, samples, words int, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	r.totalRequests.Add(1)
	if samples > 0 {
		r.totalSamples.Add(uint64(samples))
	}
	r.finishRequest("process", requestID, words, elapsed, err, "samples", samples)
}

// RecordProcessFile counts a file transcription.
func (r *Recorder) RecordProcessFile(requestID, path string, words int, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	r.totalFileRequests.Add(1)
	r.finishRequest("process_file", requestID, words, elapsed, err, "path", path)
}

func (r *Recorder) finishRequest(op, requestID string, words int, elapsed time.Duration, err error, extra ...any) {
	args := append([]any{
		"op", op,
		"request_id", requestID,
		"duration_ms", elapsed.Milliseconds(),
	}, extra...)
	if err != nil {
		r.totalFailures.Add(1)
		r.log.Warn("request failed", append(args, "error", err)...)
		return
	}
	r.totalWords.Add(uint64(words))
	r.log.Debug("request completed", append(args, "words", words)...)
}

// StreamMetrics accumulates statistics for a single transcription stream.
type StreamMetrics struct {
	recorder *Recorder
	log      *slog.Logger

	streamID string
	metadata map[string]string

	started time.Time
	chunks  int
	bytes   int
	words   int
	chars   int
	closed  atomic.Bool
}

// StartStream initialises a StreamMetrics instance bound to the recorder.
func (r *Recorder) StartStream(streamID string, metadata map[string]string) *StreamMetrics {
	if r == nil {
		return nil
	}

	clonedMetadata := cloneMetadata(metadata)

	streamLogger := r.log.With("stream_id", streamID)
	if len(clonedMetadata) > 0 {
		streamLogger = streamLogger.With("metadata", clonedMetadata)
	}

	r.totalStreams.Add(1)
	r.activeStreams.Add(1)

	return &StreamMetrics{
		recorder: r,
		log:      streamLogger,

		streamID: streamID,
		metadata: clonedMetadata,

		started: time.Now(),
	}
}

// RecordChunk updates counters for an incoming audio chunk.
func (s *StreamMetrics) RecordChunk(size int) {
	if s == nil || size <= 0 {
		return
	}
	s.chunks++
	s.bytes += size
	s.log.Debug("chunk received", "bytes", size, "chunks", s.chunks)
}

// RecordTranscript stores statistics for the transcript emitted at stream end.
func (s *StreamMetrics) RecordTranscript(text string, words int) {
	if s == nil {
		return
	}
	s.words += words
	s.chars += utf8.RuneCountInString(text)
}

// Finish logs a summary and updates active stream counters.
func (s *StreamMetrics) Finish(err error) {
	if s == nil {
		return
	}
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	defer s.recorder.activeStreams.Add(-1)

	samples := s.bytes / 2
	s.recorder.totalSamples.Add(uint64(samples))

	duration := time.Since(s.started)
	args := []any{
		"duration_ms", duration.Milliseconds(),
		"chunks", s.chunks,
		"samples", samples,
		"words", s.words,
		"runes", s.chars,
	}

	if err != nil {
		s.recorder.totalFailures.Add(1)
		s.log.Error("stream completed with error", append(args, "error", err)...)
		return
	}

	s.recorder.totalWords.Add(uint64(s.words))
	s.log.Info("stream completed", args...)
}

func cloneMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
