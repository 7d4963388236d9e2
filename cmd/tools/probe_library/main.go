package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nupi-ai/plugin-stt-leopard/internal/leopard"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code so that deferred Close calls run before
// the process exits.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("probe_library", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		library     = fs.String("library", leopard.DefaultLibraryName(), "path to the Leopard dynamic library")
		model       = fs.String("model", "", "path to the Leopard model file; when set, an engine is created")
		accessKey   = fs.String("access-key", os.Getenv("PV_ACCESS_KEY"), "Picovoice access key (defaults to $PV_ACCESS_KEY)")
		audio       = fs.String("file", "", "optional audio file to transcribe")
		punctuation = fs.Bool("punctuation", false, "enable automatic punctuation")
		diarization = fs.Bool("diarization", false, "enable speaker diarization")
		verbose     = fs.Bool("v", false, "log debug output")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if strings.TrimSpace(*library) == "" {
		fmt.Fprintln(stderr, "probe_library: --library must not be empty")
		return 2
	}

	info, err := leopard.Probe(*library)
	if err != nil {
		fmt.Fprintf(stderr, "probe_library: %v\n", err)
		return exitCode(err)
	}
	fmt.Fprintf(stdout, "%s: Leopard %s, %d Hz, %d entry points resolved\n",
		*library, info.Version, info.SampleRate, len(leopard.RequiredSymbols()))

	if strings.TrimSpace(*model) == "" {
		return 0
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	handle, err := leopard.New(leopard.Config{
		AccessKey:                  *accessKey,
		ModelPath:                  *model,
		LibraryPath:                *library,
		EnableAutomaticPunctuation: *punctuation,
		EnableDiarization:          *diarization,
	}, logger)
	if err != nil {
		fmt.Fprintf(stderr, "probe_library: %v\n", err)
		return exitCode(err)
	}
	defer handle.Close()

	fmt.Fprintf(stdout, "engine ready with model %s\n", *model)

	if *audio == "" {
		return 0
	}
	transcript, err := handle.ProcessFile(*audio)
	if err != nil {
		fmt.Fprintf(stderr, "probe_library: %v\n", err)
		return exitCode(err)
	}
	fmt.Fprintln(stdout, transcript.Text)
	for _, w := range transcript.Words {
		fmt.Fprintf(stdout, "  %-20s %6.2f %6.2f  conf=%.2f  speaker=%d\n", w.Word, w.StartSec, w.EndSec, w.Confidence, w.SpeakerTag)
	}
	return 0
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, leopard.ErrArgument):
		return 2
	case errors.Is(err, leopard.ErrLibraryLoad):
		return 3
	default:
		return 1
	}
}
