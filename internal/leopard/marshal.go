package leopard

import (
	"strings"
	"unicode/utf8"
	"unsafe"
)

// cWord mirrors pv_word_t.
type cWord struct {
	word       *byte
	startSec   float32
	endSec     float32
	confidence float32
	speakerTag int32
}

// goString copies a NUL-terminated string out of native memory. ok is false
// when the bytes are not valid UTF-8.
func goString(p unsafe.Pointer) (s string, ok bool) {
	if p == nil {
		return "", true
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	s = string(unsafe.Slice((*byte)(p), n))
	return s, utf8.ValidString(s)
}

// copyResult copies transcript and words into Go memory and releases both
// native buffers, whether or not copying succeeds.
func copyResult(lib nativeLibrary, res nativeResult, diarization bool) (Transcript, error) {
	if res.transcript != nil {
		defer lib.transcriptDelete(res.transcript)
	}
	if res.words != nil {
		defer lib.wordsDelete(res.words)
	}

	text, ok := goString(res.transcript)
	if !ok {
		return Transcript{}, newError(KindRuntime, "", "failed to convert transcript string")
	}
	words, err := copyWords(res.words, res.numWords, diarization)
	if err != nil {
		return Transcript{}, err
	}
	return Transcript{Text: text, Words: words}, nil
}

func copyWords(p unsafe.Pointer, n int32, diarization bool) ([]Word, error) {
	if n < 0 {
		return nil, newError(KindRuntime, "", "native library reported %d words", n)
	}
	if n == 0 {
		return []Word{}, nil
	}
	if p == nil {
		return nil, newError(KindRuntime, "", "native library reported %d words without metadata", n)
	}
	records := unsafe.Slice((*cWord)(p), int(n))
	words := make([]Word, 0, len(records))
	for i := range records {
		text, ok := goString(unsafe.Pointer(records[i].word))
		if !ok {
			return nil, newError(KindRuntime, "", "failed to convert metadata word string at index %d", i)
		}
		tag := records[i].speakerTag
		if !diarization {
			tag = NoSpeakerTag
		}
		words = append(words, Word{
			Word:       text,
			StartSec:   records[i].startSec,
			EndSec:     records[i].endSec,
			Confidence: records[i].confidence,
			SpeakerTag: tag,
		})
	}
	return words, nil
}

// translateStatus turns a failed native call into an *Error carrying the
// native diagnostic stack. If the stack itself cannot be retrieved, that
// failure is returned instead of the original one.
func translateStatus(lib nativeLibrary, status Status, op string) *Error {
	stack, stackStatus := lib.errorStack()
	if stackStatus != StatusSuccess {
		return &Error{
			Kind:    KindLibrary,
			Status:  stackStatus,
			Op:      op,
			Message: "unable to get error state",
		}
	}
	if stack.messages != nil {
		defer lib.freeErrorStack(stack.messages)
	}

	messages := make([]string, 0, max(stack.depth, 0))
	if stack.messages != nil && stack.depth > 0 {
		entries := unsafe.Slice((**byte)(stack.messages), int(stack.depth))
		for _, entry := range entries {
			msg, ok := goString(unsafe.Pointer(entry))
			if !ok {
				msg = strings.ToValidUTF8(msg, string(utf8.RuneError))
			}
			messages = append(messages, msg)
		}
	}

	return &Error{
		Kind:    KindLibrary,
		Status:  status,
		Op:      op,
		Message: "failed",
		Stack:   messages,
	}
}
