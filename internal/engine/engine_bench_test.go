package engine

import (
	"context"
	"testing"
)

func BenchmarkStubEngineProcess(b *testing.B) {
	eng := NewStubEngine(discardLogger())
	pcm := make([]int16, 16000)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := eng.Process(ctx, pcm); err != nil {
			b.Fatalf("Process failed: %v", err)
		}
	}
}

func BenchmarkPCMFromBytes(b *testing.B) {
	buf := make([]byte, 32000)
	b.SetBytes(int64(len(buf)))
	for i := 0; i < b.N; i++ {
		_ = PCMFromBytes(buf)
	}
}
