package engine

import (
	"context"
	"encoding/binary"
	"sync"
)

// Session collects little-endian 16-bit PCM bytes from a stream and
// transcribes them in one call on Flush.
type Session struct {
	engine Engine

	mu    sync.Mutex
	audio []byte
}

// NewSession starts an empty session bound to e.
func NewSession(e Engine) *Session {
	return &Session{engine: e}
}

// Append adds a chunk of audio. Chunks need not be sample aligned.
func (s *Session) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	s.mu.Lock()
	s.audio = append(s.audio, chunk...)
	s.mu.Unlock()
}

// Samples reports how many complete samples are buffered.
func (s *Session) Samples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audio) / 2
}

// Flush transcribes the buffered audio and resets the session. A trailing odd
// byte is dropped.
func (s *Session) Flush(ctx context.Context) (Result, error) {
	s.mu.Lock()
	buffer := s.audio
	s.audio = nil
	s.mu.Unlock()

	return s.engine.Process(ctx, PCMFromBytes(buffer))
}

// PCMFromBytes decodes little-endian 16-bit samples.
func PCMFromBytes(buf []byte) []int16 {
	n := len(buf) / 2
	if n == 0 {
		return nil
	}
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return samples
}
