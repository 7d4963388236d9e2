package leopard

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// NoSpeakerTag is reported for every word when diarization is disabled.
const NoSpeakerTag int32 = -1

// Word is one transcribed word and its metadata.
type Word struct {
	Word string
	// StartSec and EndSec are offsets from the start of the audio.
	StartSec float32
	EndSec   float32
	// Confidence is within [0, 1].
	Confidence float32
	// SpeakerTag identifies the speaker when diarization is enabled,
	// NoSpeakerTag otherwise.
	SpeakerTag int32
}

// Transcript is the result of one process call. It holds no native memory.
type Transcript struct {
	Text  string
	Words []Word
}

// Validate checks that words are in chronological order, do not overlap, and
// carry confidences within [0, 1].
func (t Transcript) Validate() error {
	for i, w := range t.Words {
		if w.StartSec < 0 {
			return fmt.Errorf("word %d (%q): negative start %.3f", i, w.Word, w.StartSec)
		}
		if w.EndSec < w.StartSec {
			return fmt.Errorf("word %d (%q): end %.3f before start %.3f", i, w.Word, w.EndSec, w.StartSec)
		}
		if w.Confidence < 0 || w.Confidence > 1 {
			return fmt.Errorf("word %d (%q): confidence %.3f outside [0, 1]", i, w.Word, w.Confidence)
		}
		if i > 0 && t.Words[i-1].EndSec > w.StartSec {
			return fmt.Errorf("word %d (%q): starts at %.3f before previous word ends at %.3f", i, w.Word, w.StartSec, t.Words[i-1].EndSec)
		}
	}
	return nil
}

var supportedExtensions = []string{
	"3gp",
	"flac",
	"m4a",
	"mp3",
	"mp4",
	"ogg",
	"opus",
	"vorbis",
	"wav",
	"webm",
}

// SupportedExtensions lists the audio file extensions ProcessFile accepts,
// without the leading dot.
func SupportedExtensions() []string {
	return slices.Clone(supportedExtensions)
}

func fileExtension(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

func isSupportedExtension(ext string) bool {
	return slices.Contains(supportedExtensions, strings.ToLower(ext))
}
