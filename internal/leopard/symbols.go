package leopard

import (
	"runtime"
	"unsafe"
)

// Exported entry points every supported library version provides.
const (
	symbolSetSDK           = "pv_set_sdk"
	symbolInit             = "pv_leopard_init"
	symbolSampleRate       = "pv_sample_rate"
	symbolVersion          = "pv_leopard_version"
	symbolProcess          = "pv_leopard_process"
	symbolProcessFile      = "pv_leopard_process_file"
	symbolDelete           = "pv_leopard_delete"
	symbolTranscriptDelete = "pv_leopard_transcript_delete"
	symbolWordsDelete      = "pv_leopard_words_delete"
	symbolGetErrorStack    = "pv_get_error_stack"
	symbolFreeErrorStack   = "pv_free_error_stack"
)

// RequiredSymbols lists the entry points resolved when a library is loaded.
func RequiredSymbols() []string {
	return []string{
		symbolSetSDK,
		symbolInit,
		symbolSampleRate,
		symbolVersion,
		symbolProcess,
		symbolProcessFile,
		symbolDelete,
		symbolTranscriptDelete,
		symbolWordsDelete,
		symbolGetErrorStack,
		symbolFreeErrorStack,
	}
}

// DefaultLibraryName returns the platform file name of the native library.
func DefaultLibraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libpv_leopard.dylib"
	case "windows":
		return "libpv_leopard.dll"
	default:
		return "libpv_leopard.so"
	}
}

// nativeResult carries the buffers a successful process call hands back.
// Both buffers belong to the native library until passed to the matching
// deallocator.
type nativeResult struct {
	transcript unsafe.Pointer // char *
	words      unsafe.Pointer // pv_word_t *
	numWords   int32
}

// nativeStack is the diagnostic stack returned by pv_get_error_stack.
type nativeStack struct {
	messages unsafe.Pointer // char **
	depth    int32
}

// nativeLibrary is the table of resolved entry points of one loaded library.
// Implementations own the loaded library: close unloads it, after which no
// other method may be called.
type nativeLibrary interface {
	setSDK(sdk string)
	init(accessKey, modelPath string, punctuation, diarization bool) (unsafe.Pointer, Status)
	sampleRate() int32
	version() string
	process(object unsafe.Pointer, pcm []int16) (nativeResult, Status)
	processFile(object unsafe.Pointer, path string) (nativeResult, Status)
	delete(object unsafe.Pointer)
	transcriptDelete(transcript unsafe.Pointer)
	wordsDelete(words unsafe.Pointer)
	errorStack() (nativeStack, Status)
	freeErrorStack(messages unsafe.Pointer)
	close() error
}

// loaderFunc opens the library at path and resolves every required symbol.
type loaderFunc func(path string) (nativeLibrary, error)
