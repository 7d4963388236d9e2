package config

import (
	"fmt"
	"strings"

	"github.com/nupi-ai/plugin-stt-leopard/internal/leopard"
)

const (
	// DefaultListenAddr is used when the adapter runner does not inject an explicit address.
	DefaultListenAddr = "127.0.0.1:50051"
	DefaultLogLevel   = "info"
)

// Config captures bootstrap configuration extracted from an optional YAML
// file, the injected JSON payload (`NUPI_ADAPTER_CONFIG`) and environment
// variables, in that order of precedence (later wins).
type Config struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
	LogLevel   string `yaml:"log_level" json:"log_level"`

	AccessKey   string `yaml:"access_key" json:"access_key"`
	ModelPath   string `yaml:"model_path" json:"model_path"`
	LibraryPath string `yaml:"library_path" json:"library_path"`

	EnableAutomaticPunctuation bool `yaml:"enable_automatic_punctuation" json:"enable_automatic_punctuation"`
	EnableDiarization          bool `yaml:"enable_diarization" json:"enable_diarization"`
	// SerializeCalls forces one native call at a time for library versions
	// that do not tolerate concurrent use of one engine.
	SerializeCalls bool `yaml:"serialize_calls" json:"serialize_calls"`

	UseStubEngine bool `yaml:"use_stub_engine" json:"use_stub_engine"`
}

// Validate applies defaults and checks required fields. File existence is
// left to the engine so that its error carries the precise path.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if c.UseStubEngine {
		return nil
	}
	if c.AccessKey == "" {
		return fmt.Errorf("config: access key is required")
	}
	if strings.TrimSpace(c.ModelPath) == "" {
		return fmt.Errorf("config: model path is required")
	}
	if strings.TrimSpace(c.LibraryPath) == "" {
		c.LibraryPath = leopard.DefaultLibraryName()
	}
	return nil
}

// LeopardConfig returns the engine construction parameters.
func (c Config) LeopardConfig() leopard.Config {
	return leopard.Config{
		AccessKey:                  c.AccessKey,
		ModelPath:                  c.ModelPath,
		LibraryPath:                c.LibraryPath,
		EnableAutomaticPunctuation: c.EnableAutomaticPunctuation,
		EnableDiarization:          c.EnableDiarization,
		SerializeCalls:             c.SerializeCalls,
	}
}
