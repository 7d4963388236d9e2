package engine

import (
	"context"
	"testing"
)

func TestPCMFromBytes(t *testing.T) {
	samples := PCMFromBytes([]byte{0x01, 0x00, 0xff, 0xff, 0x7f})
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0] != 1 || samples[1] != -1 {
		t.Fatalf("unexpected samples %v", samples)
	}
	if PCMFromBytes([]byte{0x01}) != nil {
		t.Fatalf("expected nil for a lone byte")
	}
}

func TestSessionFlushResets(t *testing.T) {
	session := NewSession(NewStubEngine(discardLogger()))
	session.Append(make([]byte, 3))
	session.Append(nil)
	session.Append(make([]byte, 32001))
	if got := session.Samples(); got != 16002 {
		t.Fatalf("expected 16002 buffered samples, got %d", got)
	}

	res, err := session.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if res.Text != "[stub] received 16002 samples" {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if session.Samples() != 0 {
		t.Fatalf("expected empty session after flush")
	}
}
