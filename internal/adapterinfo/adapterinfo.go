package adapterinfo

import "strconv"

// Metadata captures static identifiers for the adapter. Centralising the values
// makes it easy to clone this repository for new adapters.
type Metadata struct {
	Name        string
	BinaryName  string
	Slug        string
	Description string
	GeneratorID string
	Version     string
}

// Info describes the current adapter.
var Info = Metadata{
	Name:        "Nupi Leopard STT",
	BinaryName:  "plugin-stt-leopard",
	Slug:        "stt-leopard",
	Description: "Local speech-to-text adapter backed by the Picovoice Leopard engine.",
	GeneratorID: "stt-leopard",
	Version:     "1.0.0",
}

// Version reports the adapter release.
func Version() string { return Info.Version }

// TranscriptMetadata produces the standard metadata payload attached
// to emitted transcripts.
func TranscriptMetadata(engineVersion string, sampleRate int) map[string]string {
	return map[string]string{
		"generator":      Info.GeneratorID,
		"adapter":        Info.Version,
		"engine_version": engineVersion,
		"sample_rate":    strconv.Itoa(sampleRate),
	}
}
