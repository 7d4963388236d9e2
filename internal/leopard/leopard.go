// Package leopard loads the Leopard speech-to-text library at runtime and
// exposes a handle that can be shared between goroutines.
//
// A Leopard value is one reference to a native engine. Clone adds a
// reference, Close drops one; the native engine is deleted and the library
// unloaded when the last reference is closed. Calls in flight finish before
// the engine is deleted.
//
// The native library is assumed to accept concurrent process calls on one
// engine. Set Config.SerializeCalls when a library version requires callers
// to serialise them.
package leopard

import (
	"errors"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"
)

// DefaultSDK is the environment tag reported to the library at load time.
const DefaultSDK = "go"

// Config holds the parameters used to construct an engine. It is read once
// by New and not retained.
type Config struct {
	// AccessKey is the credential issued for the library. Required.
	AccessKey string
	// ModelPath is the model parameter file. Required.
	ModelPath string
	// LibraryPath is the platform dynamic library. Required.
	LibraryPath string

	EnableAutomaticPunctuation bool
	// EnableDiarization makes the library tag each word with a speaker.
	EnableDiarization bool
	// SerializeCalls runs at most one native process call at a time.
	SerializeCalls bool
	// SDK overrides DefaultSDK.
	SDK string
}

// Validate checks the configuration without touching the native library.
func (c Config) Validate() error {
	if c.AccessKey == "" {
		return newError(KindArgument, "init", "access key is empty")
	}
	if err := checkPath(c.ModelPath, "model file"); err != nil {
		return err
	}
	if err := checkPath(c.LibraryPath, "dynamic library"); err != nil {
		return err
	}
	return nil
}

// libraryPath makes path absolute so the dynamic loader opens the file that
// was checked instead of searching its own directories for a bare name.
func libraryPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", newError(KindArgument, "init", "could not resolve dynamic library path `%s`: %v", path, err)
	}
	return abs, nil
}

func checkPath(path, what string) error {
	if strings.TrimSpace(path) == "" {
		return newError(KindArgument, "init", "%s path is empty", what)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newError(KindArgument, "init", "could not find %s at `%s`", what, path)
		}
		return newError(KindArgument, "init", "could not access %s at `%s`: %v", what, path, err)
	}
	return nil
}

// Leopard is one reference to a native engine. It is safe for concurrent use.
type Leopard struct {
	inner  *engine
	closed atomic.Bool
}

type engine struct {
	log         *slog.Logger
	lib         nativeLibrary
	diarization bool
	serialize   bool
	sampleRate  int
	version     string

	// refs counts open Leopard values pointing at this engine.
	refs atomic.Int64

	// life is held shared by every native call and exclusively by teardown.
	life   sync.RWMutex
	object unsafe.Pointer
	// callMu serialises native calls when serialize is set.
	callMu sync.Mutex
}

// New validates cfg, loads the library and initialises a native engine.
func New(cfg Config, logger *slog.Logger) (*Leopard, error) {
	return newWithLoader(cfg, logger, loadNative)
}

func newWithLoader(cfg Config, logger *slog.Logger, load loaderFunc) (*Leopard, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	libPath, err := libraryPath(cfg.LibraryPath)
	if err != nil {
		return nil, err
	}
	cfg.LibraryPath = libPath

	lib, err := load(libPath)
	if err != nil {
		return nil, err
	}

	sdk := cfg.SDK
	if sdk == "" {
		sdk = DefaultSDK
	}
	lib.setSDK(sdk)

	object, initErr := initEngine(lib, cfg)
	if initErr != nil {
		if closeErr := lib.close(); closeErr != nil {
			logger.Warn("failed to unload library after init failure", "error", closeErr, "library_path", cfg.LibraryPath)
		}
		return nil, initErr
	}

	e := &engine{
		log: logger.With(
			"component", "leopard",
			"library_path", cfg.LibraryPath,
		),
		lib:         lib,
		object:      object,
		diarization: cfg.EnableDiarization,
		serialize:   cfg.SerializeCalls,
		sampleRate:  int(lib.sampleRate()),
		version:     lib.version(),
	}
	e.refs.Store(1)
	e.log.Debug("engine initialised",
		"model_path", cfg.ModelPath,
		"version", e.version,
		"sample_rate", e.sampleRate,
		"punctuation", cfg.EnableAutomaticPunctuation,
		"diarization", cfg.EnableDiarization,
	)
	return newHandle(e), nil
}

// LibraryInfo describes a library that loaded and exposed every required
// entry point.
type LibraryInfo struct {
	Version    string
	SampleRate int
}

// Probe loads the library at path, resolves every required entry point and
// queries the static version and sample rate without creating an engine.
func Probe(path string) (LibraryInfo, error) {
	return probeWithLoader(path, loadNative)
}

func probeWithLoader(path string, load loaderFunc) (LibraryInfo, error) {
	if err := checkPath(path, "dynamic library"); err != nil {
		return LibraryInfo{}, err
	}
	path, err := libraryPath(path)
	if err != nil {
		return LibraryInfo{}, err
	}
	lib, err := load(path)
	if err != nil {
		return LibraryInfo{}, err
	}
	info := LibraryInfo{
		Version:    lib.version(),
		SampleRate: int(lib.sampleRate()),
	}
	return info, lib.close()
}

func initEngine(lib nativeLibrary, cfg Config) (unsafe.Pointer, error) {
	// The diagnostic stack is kept per thread by the library.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	object, status := lib.init(cfg.AccessKey, cfg.ModelPath, cfg.EnableAutomaticPunctuation, cfg.EnableDiarization)
	if status != StatusSuccess {
		return nil, translateStatus(lib, status, "init")
	}
	if object == nil {
		return nil, newError(KindRuntime, "init", "library returned a nil engine")
	}
	return object, nil
}

func newHandle(e *engine) *Leopard {
	l := &Leopard{inner: e}
	runtime.SetFinalizer(l, (*Leopard).finalize)
	return l
}

func (l *Leopard) finalize() {
	if l.closed.CompareAndSwap(false, true) {
		l.inner.log.Warn("engine reference was garbage collected without Close")
		l.inner.release()
	}
}

// SampleRate returns the audio sample rate, in Hz, Process expects.
func (l *Leopard) SampleRate() int { return l.inner.sampleRate }

// Version returns the native library version.
func (l *Leopard) Version() string { return l.inner.version }

// Clone returns a new reference to the same native engine. Each clone must be
// closed independently.
func (l *Leopard) Clone() (*Leopard, error) {
	if l.closed.Load() || !l.inner.retain() {
		return nil, errReleased("clone")
	}
	return newHandle(l.inner), nil
}

// Close drops this reference. The native engine is deleted when the last
// reference is closed. Closing a reference twice returns an InvalidState error.
func (l *Leopard) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return errReleased("close")
	}
	runtime.SetFinalizer(l, nil)
	l.inner.release()
	return nil
}

// Process transcribes single-channel, 16-bit linear PCM sampled at
// SampleRate.
func (l *Leopard) Process(pcm []int16) (Transcript, error) {
	defer runtime.KeepAlive(l)
	if l.closed.Load() {
		return Transcript{}, errReleased("process")
	}
	if len(pcm) == 0 {
		return Transcript{}, newError(KindFrameLength, "process", "audio data must not be empty")
	}
	if len(pcm) > math.MaxInt32 {
		return Transcript{}, newError(KindArgument, "process", "audio data has %d samples, more than the library accepts", len(pcm))
	}

	var transcript Transcript
	err := l.inner.call("process", func(lib nativeLibrary, object unsafe.Pointer) error {
		res, status := lib.process(object, pcm)
		if status != StatusSuccess {
			return translateStatus(lib, status, "process")
		}
		var err error
		transcript, err = copyResult(lib, res, l.inner.diarization)
		return err
	})
	return transcript, err
}

// ProcessFile transcribes an audio file. The library decodes the file itself;
// SupportedExtensions lists the accepted formats.
func (l *Leopard) ProcessFile(path string) (Transcript, error) {
	defer runtime.KeepAlive(l)
	if l.closed.Load() {
		return Transcript{}, errReleased("process file")
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Transcript{}, newError(KindArgument, "process file", "could not find the audio file at `%s`", path)
		}
		return Transcript{}, newError(KindArgument, "process file", "could not access the audio file at `%s`: %v", path, err)
	}

	var transcript Transcript
	err := l.inner.call("process file", func(lib nativeLibrary, object unsafe.Pointer) error {
		res, status := lib.processFile(object, path)
		if status != StatusSuccess {
			libErr := translateStatus(lib, status, "process file")
			if ext := fileExtension(path); !isSupportedExtension(ext) {
				return &Error{
					Kind:    KindArgument,
					Op:      "process file",
					Message: "specified file with extension '" + ext + "' is not supported",
					Stack:   libErr.Stack,
				}
			}
			return libErr
		}
		var err error
		transcript, err = copyResult(lib, res, l.inner.diarization)
		return err
	})
	return transcript, err
}

// call runs fn against the live native engine. The OS thread is locked so
// that a failing call and the diagnostic stack query run on the same thread.
func (e *engine) call(op string, fn func(lib nativeLibrary, object unsafe.Pointer) error) error {
	e.life.RLock()
	defer e.life.RUnlock()
	if e.object == nil {
		return errReleased(op)
	}
	if e.serialize {
		e.callMu.Lock()
		defer e.callMu.Unlock()
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	err := fn(e.lib, e.object)
	if err != nil {
		e.log.Debug("native call failed", "op", op, "error", err)
	}
	return err
}

func (e *engine) retain() bool {
	for {
		n := e.refs.Load()
		if n <= 0 {
			return false
		}
		if e.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (e *engine) release() {
	if e.refs.Add(-1) != 0 {
		return
	}

	e.life.Lock()
	defer e.life.Unlock()
	if e.object == nil {
		return
	}
	e.lib.delete(e.object)
	e.object = nil
	if err := e.lib.close(); err != nil {
		e.log.Warn("failed to unload library", "error", err)
	}
	e.log.Debug("engine deleted")
}

func errReleased(op string) *Error {
	return newError(KindInvalidState, op, "engine has already been released")
}
