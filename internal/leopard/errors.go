package leopard

import (
	"fmt"
	"strings"
)

// Status is a status code returned by the native library.
type Status int32

// Status codes defined by the native library.
const (
	StatusSuccess                Status = 0
	StatusOutOfMemory            Status = 1
	StatusIOError                Status = 2
	StatusInvalidArgument        Status = 3
	StatusStopIteration          Status = 4
	StatusKeyError               Status = 5
	StatusInvalidState           Status = 6
	StatusRuntimeError           Status = 7
	StatusActivationError        Status = 8
	StatusActivationLimitReached Status = 9
	StatusActivationThrottled    Status = 10
	StatusActivationRefused      Status = 11
)

var statusNames = map[Status]string{
	StatusSuccess:                "SUCCESS",
	StatusOutOfMemory:            "OUT_OF_MEMORY",
	StatusIOError:                "IO_ERROR",
	StatusInvalidArgument:        "INVALID_ARGUMENT",
	StatusStopIteration:          "STOP_ITERATION",
	StatusKeyError:               "KEY_ERROR",
	StatusInvalidState:           "INVALID_STATE",
	StatusRuntimeError:           "RUNTIME_ERROR",
	StatusActivationError:        "ACTIVATION_ERROR",
	StatusActivationLimitReached: "ACTIVATION_LIMIT_REACHED",
	StatusActivationThrottled:    "ACTIVATION_THROTTLED",
	StatusActivationRefused:      "ACTIVATION_REFUSED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_STATUS(%d)", int32(s))
}

// Kind classifies an Error.
type Kind int

const (
	// KindArgument reports invalid input: empty access key, missing paths,
	// unsupported file extensions.
	KindArgument Kind = iota + 1
	// KindLibraryLoad reports a dynamic library that is missing, cannot be
	// opened, or lacks a required entry point.
	KindLibraryLoad
	// KindLibrary wraps a non-success status returned by the native library.
	KindLibrary
	// KindFrameLength reports an empty audio buffer.
	KindFrameLength
	// KindRuntime reports a failure while copying native results, such as a
	// transcript that is not valid UTF-8.
	KindRuntime
	// KindInvalidState reports use of an engine after it was released.
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindArgument:
		return "ArgumentError"
	case KindLibraryLoad:
		return "LibraryLoadError"
	case KindLibrary:
		return "LibraryError"
	case KindFrameLength:
		return "FrameLengthError"
	case KindRuntime:
		return "RuntimeError"
	case KindInvalidState:
		return "InvalidStateError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is returned by every fallible operation in this package. Values are
// never mutated after they are returned.
type Error struct {
	Kind Kind
	// Status is the native status code. It is StatusSuccess for errors raised
	// before any native call was made.
	Status Status
	// Op names the operation that failed, e.g. "process file".
	Op      string
	Message string
	// Stack holds the native diagnostic messages in the order the library
	// reported them.
	Stack []string
}

// Sentinels for errors.Is. Matching compares Kind only.
var (
	ErrArgument     = &Error{Kind: KindArgument}
	ErrLibraryLoad  = &Error{Kind: KindLibraryLoad}
	ErrLibrary      = &Error{Kind: KindLibrary}
	ErrFrameLength  = &Error{Kind: KindFrameLength}
	ErrRuntime      = &Error{Kind: KindRuntime}
	ErrInvalidState = &Error{Kind: KindInvalidState}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("leopard: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Status != StatusSuccess {
		fmt.Fprintf(&b, " (%s)", e.Status)
	}
	if len(e.Stack) > 0 {
		b.WriteByte(':')
		for i, entry := range e.Stack {
			fmt.Fprintf(&b, "\n  [%d] %s", i, entry)
		}
	}
	return b.String()
}

// Is reports whether target is an *Error of the same Kind. A target with a
// non-success Status additionally has to match the status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Status == StatusSuccess || t.Status == e.Status
}

func newError(kind Kind, op, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}
