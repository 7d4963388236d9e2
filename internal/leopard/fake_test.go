package leopard

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
	"unsafe"
)

// fakeLibrary stands in for a loaded native library. Buffers it hands out
// live in Go memory and stay tracked until the matching deallocator is called.
type fakeLibrary struct {
	mu sync.Mutex

	initStatus        Status
	processStatus     Status
	processFileStatus Status
	stackStatus       Status
	stack             []string
	transcript        []byte
	words             []Word
	rate              int32
	ver               string
	processDelay      time.Duration

	calls       map[string]int
	sdk         string
	lastInit    fakeInit
	lastPath    string
	loadPath    string
	live        map[unsafe.Pointer]any
	badFrees    int
	objects     map[unsafe.Pointer]bool
	closed      bool
	inFlight    int
	maxInFlight int
}

type fakeInit struct {
	accessKey   string
	modelPath   string
	punctuation bool
	diarization bool
}

type fakeObject struct{ id int }

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{
		rate:       16000,
		ver:        "2.0.1",
		transcript: []byte("hello world"),
		words: []Word{
			{Word: "hello", StartSec: 0.1, EndSec: 0.5, Confidence: 0.9, SpeakerTag: 1},
			{Word: "world", StartSec: 0.6, EndSec: 1.1, Confidence: 0.8, SpeakerTag: 2},
		},
		calls:   map[string]int{},
		live:    map[unsafe.Pointer]any{},
		objects: map[unsafe.Pointer]bool{},
	}
}

func (f *fakeLibrary) loader() loaderFunc {
	return func(path string) (nativeLibrary, error) {
		f.record("load")
		f.mu.Lock()
		f.loadPath = path
		f.mu.Unlock()
		return f, nil
	}
}

func (f *fakeLibrary) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeLibrary) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeLibrary) liveAllocations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

func (f *fakeLibrary) nativeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeLibrary) setSDK(sdk string) {
	f.record("setSDK")
	f.mu.Lock()
	f.sdk = sdk
	f.mu.Unlock()
}

func (f *fakeLibrary) init(accessKey, modelPath string, punctuation, diarization bool) (unsafe.Pointer, Status) {
	f.record("init")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastInit = fakeInit{accessKey, modelPath, punctuation, diarization}
	if f.initStatus != StatusSuccess {
		return nil, f.initStatus
	}
	obj := unsafe.Pointer(&fakeObject{id: len(f.objects) + 1})
	f.objects[obj] = true
	return obj, StatusSuccess
}

func (f *fakeLibrary) sampleRate() int32 {
	f.record("sampleRate")
	return f.rate
}

func (f *fakeLibrary) version() string {
	f.record("version")
	return f.ver
}

func (f *fakeLibrary) process(object unsafe.Pointer, pcm []int16) (nativeResult, Status) {
	f.record("process")
	return f.run(object, f.processStatus)
}

func (f *fakeLibrary) processFile(object unsafe.Pointer, path string) (nativeResult, Status) {
	f.record("processFile")
	f.mu.Lock()
	f.lastPath = path
	f.mu.Unlock()
	return f.run(object, f.processFileStatus)
}

func (f *fakeLibrary) run(object unsafe.Pointer, status Status) (nativeResult, Status) {
	f.mu.Lock()
	if !f.objects[object] {
		f.mu.Unlock()
		return nativeResult{}, StatusInvalidState
	}
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	delay := f.processDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if status != StatusSuccess {
		return nativeResult{}, status
	}
	return f.allocResultLocked(), StatusSuccess
}

func (f *fakeLibrary) allocResultLocked() nativeResult {
	text := append(append([]byte{}, f.transcript...), 0)
	res := nativeResult{transcript: unsafe.Pointer(&text[0])}
	f.live[res.transcript] = text

	if len(f.words) == 0 {
		return res
	}
	records := make([]cWord, len(f.words))
	keep := []any{records}
	for i, w := range f.words {
		b := append([]byte(w.Word), 0)
		keep = append(keep, b)
		records[i] = cWord{
			word:       &b[0],
			startSec:   w.StartSec,
			endSec:     w.EndSec,
			confidence: w.Confidence,
			speakerTag: w.SpeakerTag,
		}
	}
	res.words = unsafe.Pointer(&records[0])
	res.numWords = int32(len(records))
	f.live[res.words] = keep
	return res
}

func (f *fakeLibrary) free(p unsafe.Pointer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live[p]; !ok {
		f.badFrees++
		return
	}
	delete(f.live, p)
}

func (f *fakeLibrary) delete(object unsafe.Pointer) {
	f.record("delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.objects[object] {
		f.badFrees++
		return
	}
	delete(f.objects, object)
}

func (f *fakeLibrary) transcriptDelete(transcript unsafe.Pointer) {
	f.record("transcriptDelete")
	f.free(transcript)
}

func (f *fakeLibrary) wordsDelete(words unsafe.Pointer) {
	f.record("wordsDelete")
	f.free(words)
}

func (f *fakeLibrary) errorStack() (nativeStack, Status) {
	f.record("errorStack")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stackStatus != StatusSuccess {
		return nativeStack{}, f.stackStatus
	}
	if len(f.stack) == 0 {
		return nativeStack{}, StatusSuccess
	}
	entries := make([]*byte, len(f.stack))
	keep := []any{entries}
	for i, msg := range f.stack {
		b := append([]byte(msg), 0)
		keep = append(keep, b)
		entries[i] = &b[0]
	}
	p := unsafe.Pointer(&entries[0])
	f.live[p] = keep
	return nativeStack{messages: p, depth: int32(len(entries))}, StatusSuccess
}

func (f *fakeLibrary) freeErrorStack(messages unsafe.Pointer) {
	f.record("freeErrorStack")
	f.free(messages)
}

func (f *fakeLibrary) close() error {
	f.record("close")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// testConfig returns a Config whose model and library files exist.
func testConfig(t testing.TB) Config {
	t.Helper()
	dir := t.TempDir()
	model := filepath.Join(dir, "leopard_params.pv")
	lib := filepath.Join(dir, DefaultLibraryName())
	for _, path := range []string{model, lib} {
		if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
			t.Fatalf("WriteFile(%s): %v", path, err)
		}
	}
	return Config{
		AccessKey:   "test-access-key",
		ModelPath:   model,
		LibraryPath: lib,
	}
}

func openTestEngine(t testing.TB, f *fakeLibrary, mutate func(*Config)) *Leopard {
	t.Helper()
	cfg := testConfig(t)
	if mutate != nil {
		mutate(&cfg)
	}
	l, err := newWithLoader(cfg, nil, f.loader())
	if err != nil {
		t.Fatalf("newWithLoader: %v", err)
	}
	return l
}
