//go:build cgo

package leopard

/*
#cgo linux LDFLAGS: -ldl
#cgo darwin LDFLAGS: -ldl

#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>

#if defined(_WIN32) || defined(_WIN64)
#include <windows.h>
#else
#include <dlfcn.h>
#endif

typedef struct {
	char *word;
	float start_sec;
	float end_sec;
	float confidence;
	int32_t speaker_tag;
} pv_word_t;

static void *pv_dl_open(const char *path) {
#if defined(_WIN32) || defined(_WIN64)
	return (void *) LoadLibraryA(path);
#else
	return dlopen(path, RTLD_NOW | RTLD_LOCAL);
#endif
}

static const char *pv_dl_error(void) {
#if defined(_WIN32) || defined(_WIN64)
	return NULL;
#else
	return dlerror();
#endif
}

static void *pv_dl_symbol(void *lib, const char *name) {
#if defined(_WIN32) || defined(_WIN64)
	return (void *) GetProcAddress((HMODULE) lib, name);
#else
	return dlsym(lib, name);
#endif
}

static int pv_dl_close(void *lib) {
#if defined(_WIN32) || defined(_WIN64)
	return FreeLibrary((HMODULE) lib) ? 0 : -1;
#else
	return dlclose(lib);
#endif
}

typedef void (*pv_set_sdk_func)(const char *);
typedef int32_t (*pv_leopard_init_func)(const char *, const char *, bool, bool, void **);
typedef int32_t (*pv_sample_rate_func)(void);
typedef const char *(*pv_leopard_version_func)(void);
typedef int32_t (*pv_leopard_process_func)(void *, const int16_t *, int32_t, char **, int32_t *, pv_word_t **);
typedef int32_t (*pv_leopard_process_file_func)(void *, const char *, char **, int32_t *, pv_word_t **);
typedef void (*pv_leopard_delete_func)(void *);
typedef void (*pv_leopard_transcript_delete_func)(char *);
typedef void (*pv_leopard_words_delete_func)(pv_word_t *);
typedef int32_t (*pv_get_error_stack_func)(char ***, int32_t *);
typedef void (*pv_free_error_stack_func)(char **);

static void pv_set_sdk_call(void *f, const char *sdk) {
	((pv_set_sdk_func) f)(sdk);
}

static int32_t pv_leopard_init_call(void *f, const char *access_key, const char *model_path, bool punctuation, bool diarization, void **object) {
	return ((pv_leopard_init_func) f)(access_key, model_path, punctuation, diarization, object);
}

static int32_t pv_sample_rate_call(void *f) {
	return ((pv_sample_rate_func) f)();
}

static const char *pv_leopard_version_call(void *f) {
	return ((pv_leopard_version_func) f)();
}

static int32_t pv_leopard_process_call(void *f, void *object, const int16_t *pcm, int32_t num_samples, char **transcript, int32_t *num_words, pv_word_t **words) {
	return ((pv_leopard_process_func) f)(object, pcm, num_samples, transcript, num_words, words);
}

static int32_t pv_leopard_process_file_call(void *f, void *object, const char *audio_path, char **transcript, int32_t *num_words, pv_word_t **words) {
	return ((pv_leopard_process_file_func) f)(object, audio_path, transcript, num_words, words);
}

static void pv_leopard_delete_call(void *f, void *object) {
	((pv_leopard_delete_func) f)(object);
}

static void pv_leopard_transcript_delete_call(void *f, char *transcript) {
	((pv_leopard_transcript_delete_func) f)(transcript);
}

static void pv_leopard_words_delete_call(void *f, pv_word_t *words) {
	((pv_leopard_words_delete_func) f)(words);
}

static int32_t pv_get_error_stack_call(void *f, char ***stack, int32_t *depth) {
	return ((pv_get_error_stack_func) f)(stack, depth);
}

static void pv_free_error_stack_call(void *f, char **stack) {
	((pv_free_error_stack_func) f)(stack);
}
*/
import "C"

import (
	"fmt"
	"strings"
	"unsafe"
)

// cWord must match pv_word_t byte for byte.
var (
	_ [unsafe.Sizeof(C.pv_word_t{}) - unsafe.Sizeof(cWord{})]struct{}
	_ [unsafe.Sizeof(cWord{}) - unsafe.Sizeof(C.pv_word_t{})]struct{}
)

// NativeAvailable reports whether this build can load native libraries.
func NativeAvailable() bool { return true }

// library is an open dynamic library.
type library struct {
	path   string
	handle unsafe.Pointer
}

func openLibrary(path string) (*library, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	handle := C.pv_dl_open(cPath)
	if handle == nil {
		reason := "loader rejected the file"
		if msg := C.pv_dl_error(); msg != nil {
			reason = C.GoString(msg)
		}
		return nil, newError(KindLibraryLoad, "load", "failed to load dynamic library at `%s`: %s", path, reason)
	}
	return &library{path: path, handle: handle}, nil
}

func (l *library) symbol(name string) unsafe.Pointer {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	return C.pv_dl_symbol(l.handle, cName)
}

func (l *library) close() error {
	if l.handle == nil {
		return nil
	}
	rc := C.pv_dl_close(l.handle)
	l.handle = nil
	if rc != 0 {
		return fmt.Errorf("leopard: unload %s: loader returned %d", l.path, int(rc))
	}
	return nil
}

// cgoLibrary calls resolved entry points through C trampolines. The library
// field is released by close only, after every entry point user is gone.
type cgoLibrary struct {
	setSDKFn           unsafe.Pointer
	initFn             unsafe.Pointer
	sampleRateFn       unsafe.Pointer
	versionFn          unsafe.Pointer
	processFn          unsafe.Pointer
	processFileFn      unsafe.Pointer
	deleteFn           unsafe.Pointer
	transcriptDeleteFn unsafe.Pointer
	wordsDeleteFn      unsafe.Pointer
	getErrorStackFn    unsafe.Pointer
	freeErrorStackFn   unsafe.Pointer

	lib *library
}

func loadNative(path string) (nativeLibrary, error) {
	lib, err := openLibrary(path)
	if err != nil {
		return nil, err
	}
	return bindLibrary(lib)
}

// bindLibrary resolves lib into a call table. lib is unloaded when any
// entry point is missing.
func bindLibrary(lib *library) (nativeLibrary, error) {
	table, err := resolveSymbols(lib)
	if err != nil {
		_ = lib.close()
		return nil, err
	}
	return table, nil
}

// resolveSymbols looks up every required entry point. It fails without
// returning a partial table if any of them is missing.
func resolveSymbols(lib *library) (*cgoLibrary, error) {
	t := &cgoLibrary{lib: lib}
	targets := map[string]*unsafe.Pointer{
		symbolSetSDK:           &t.setSDKFn,
		symbolInit:             &t.initFn,
		symbolSampleRate:       &t.sampleRateFn,
		symbolVersion:          &t.versionFn,
		symbolProcess:          &t.processFn,
		symbolProcessFile:      &t.processFileFn,
		symbolDelete:           &t.deleteFn,
		symbolTranscriptDelete: &t.transcriptDeleteFn,
		symbolWordsDelete:      &t.wordsDeleteFn,
		symbolGetErrorStack:    &t.getErrorStackFn,
		symbolFreeErrorStack:   &t.freeErrorStackFn,
	}

	var missing []string
	for _, name := range RequiredSymbols() {
		ptr := lib.symbol(name)
		if ptr == nil {
			missing = append(missing, name)
			continue
		}
		*targets[name] = ptr
	}
	if len(missing) > 0 {
		return nil, newError(KindLibraryLoad, "load", "library `%s` is missing entry points: %s", lib.path, strings.Join(missing, ", "))
	}
	return t, nil
}

func (t *cgoLibrary) setSDK(sdk string) {
	cSDK := C.CString(sdk)
	defer C.free(unsafe.Pointer(cSDK))
	C.pv_set_sdk_call(t.setSDKFn, cSDK)
}

func (t *cgoLibrary) init(accessKey, modelPath string, punctuation, diarization bool) (unsafe.Pointer, Status) {
	cAccessKey := C.CString(accessKey)
	defer C.free(unsafe.Pointer(cAccessKey))
	cModelPath := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cModelPath))

	var object unsafe.Pointer
	status := C.pv_leopard_init_call(t.initFn, cAccessKey, cModelPath, C.bool(punctuation), C.bool(diarization), &object)
	return object, Status(status)
}

func (t *cgoLibrary) sampleRate() int32 {
	return int32(C.pv_sample_rate_call(t.sampleRateFn))
}

func (t *cgoLibrary) version() string {
	v, _ := goString(unsafe.Pointer(C.pv_leopard_version_call(t.versionFn)))
	return v
}

func (t *cgoLibrary) process(object unsafe.Pointer, pcm []int16) (nativeResult, Status) {
	var (
		transcript *C.char
		numWords   C.int32_t
		words      *C.pv_word_t
	)
	status := C.pv_leopard_process_call(
		t.processFn,
		object,
		(*C.int16_t)(unsafe.Pointer(&pcm[0])),
		C.int32_t(len(pcm)),
		&transcript,
		&numWords,
		&words,
	)
	return nativeResult{
		transcript: unsafe.Pointer(transcript),
		words:      unsafe.Pointer(words),
		numWords:   int32(numWords),
	}, Status(status)
}

func (t *cgoLibrary) processFile(object unsafe.Pointer, path string) (nativeResult, Status) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	var (
		transcript *C.char
		numWords   C.int32_t
		words      *C.pv_word_t
	)
	status := C.pv_leopard_process_file_call(t.processFileFn, object, cPath, &transcript, &numWords, &words)
	return nativeResult{
		transcript: unsafe.Pointer(transcript),
		words:      unsafe.Pointer(words),
		numWords:   int32(numWords),
	}, Status(status)
}

func (t *cgoLibrary) delete(object unsafe.Pointer) {
	C.pv_leopard_delete_call(t.deleteFn, object)
}

func (t *cgoLibrary) transcriptDelete(transcript unsafe.Pointer) {
	C.pv_leopard_transcript_delete_call(t.transcriptDeleteFn, (*C.char)(transcript))
}

func (t *cgoLibrary) wordsDelete(words unsafe.Pointer) {
	C.pv_leopard_words_delete_call(t.wordsDeleteFn, (*C.pv_word_t)(words))
}

func (t *cgoLibrary) errorStack() (nativeStack, Status) {
	var (
		messages **C.char
		depth    C.int32_t
	)
	status := C.pv_get_error_stack_call(t.getErrorStackFn, &messages, &depth)
	return nativeStack{
		messages: unsafe.Pointer(messages),
		depth:    int32(depth),
	}, Status(status)
}

func (t *cgoLibrary) freeErrorStack(messages unsafe.Pointer) {
	C.pv_free_error_stack_call(t.freeErrorStackFn, (**C.char)(messages))
}

func (t *cgoLibrary) close() error {
	return t.lib.close()
}
