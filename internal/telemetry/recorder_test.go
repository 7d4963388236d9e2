package telemetry

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestRecorderSnapshot(t *testing.T) {
	recorder := NewRecorder(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if snapshot := recorder.Snapshot(); snapshot.TotalStreams != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snapshot)
	}

	stream := recorder.StartStream("stream-1", map[string]string{"source": "test"})
	if stream == nil {
		t.Fatalf("expected stream metrics")
	}
	if active := recorder.Snapshot().ActiveStreams; active != 1 {
		t.Fatalf("expected one active stream, got %d", active)
	}

	stream.RecordChunk(160)
	stream.RecordChunk(0)
	stream.RecordChunk(80)
	stream.RecordTranscript("hello world", 2)

	time.Sleep(5 * time.Millisecond)
	stream.Finish(nil)

	recorder.RecordProcess("req-1", 16000, 3, time.Millisecond, nil)
	recorder.RecordProcessFile("req-2", "/tmp/a.wav", 4, time.Millisecond, nil)

	snapshot := recorder.Snapshot()
	if snapshot.TotalStreams != 1 {
		t.Fatalf("unexpected TotalStreams: %d", snapshot.TotalStreams)
	}
	if snapshot.TotalSamples != 16120 {
		t.Fatalf("unexpected TotalSamples: %d", snapshot.TotalSamples)
	}
	if snapshot.TotalWords != 9 {
		t.Fatalf("unexpected TotalWords: %d", snapshot.TotalWords)
	}
	if snapshot.TotalRequests != 1 || snapshot.TotalFileRequests != 1 {
		t.Fatalf("unexpected request totals: %+v", snapshot)
	}
	if snapshot.ActiveStreams != 0 {
		t.Fatalf("expected zero active streams, got %d", snapshot.ActiveStreams)
	}

	stream.Finish(nil)
	if snapshot2 := recorder.Snapshot(); snapshot2 != snapshot {
		t.Fatalf("snapshot changed unexpectedly: %+v", snapshot2)
	}
}

func TestRecorderFailures(t *testing.T) {
	recorder := NewRecorder(slog.New(slog.NewTextHandler(io.Discard, nil)))
	stream := recorder.StartStream("s", nil)
	stream.RecordChunk(10)
	stream.RecordTranscript("ignored", 5)
	stream.Finish(io.EOF)

	recorder.RecordProcess("req", 100, 7, 0, errors.New("boom"))
	recorder.RecordProcessFile("req", "x.wav", 0, 0, errors.New("boom"))

	snapshot := recorder.Snapshot()
	if snapshot.TotalFailures != 3 {
		t.Fatalf("unexpected failures: %d", snapshot.TotalFailures)
	}
	if snapshot.TotalWords != 0 {
		t.Fatalf("failed work must not count words, got %d", snapshot.TotalWords)
	}
	if snapshot.ActiveStreams != 0 {
		t.Fatalf("expected zero active streams, got %d", snapshot.ActiveStreams)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var recorder *Recorder
	recorder.RecordProcess("req", 1, 1, 0, nil)
	stream := recorder.StartStream("s", nil)
	stream.RecordChunk(2)
	stream.Finish(nil)
	if snapshot := recorder.Snapshot(); snapshot != (Snapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", snapshot)
	}
}
