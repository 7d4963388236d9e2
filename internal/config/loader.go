package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration from an optional YAML file and environment
// variables. Tests can override Lookup and ReadFile to inject deterministic
// inputs.
type Loader struct {
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
}

// Load retrieves the adapter configuration and validates it.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	cfg := Config{
		ListenAddr: DefaultListenAddr,
	}

	if path, ok := l.Lookup("LEOPARD_CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		raw, err := l.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := applyYAML(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if raw, ok := l.Lookup("NUPI_ADAPTER_CONFIG"); ok && strings.TrimSpace(raw) != "" {
		if err := applyJSON(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(l.Lookup, "NUPI_ADAPTER_LISTEN_ADDR", &cfg.ListenAddr)
	overrideString(l.Lookup, "NUPI_LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "PV_ACCESS_KEY", &cfg.AccessKey)
	overrideString(l.Lookup, "LEOPARD_MODEL_PATH", &cfg.ModelPath)
	overrideString(l.Lookup, "LEOPARD_LIBRARY_PATH", &cfg.LibraryPath)
	for key, target := range map[string]*bool{
		"LEOPARD_ENABLE_PUNCTUATION":   &cfg.EnableAutomaticPunctuation,
		"LEOPARD_ENABLE_DIARIZATION":   &cfg.EnableDiarization,
		"LEOPARD_SERIALIZE_CALLS":      &cfg.SerializeCalls,
		"NUPI_ADAPTER_USE_STUB_ENGINE": &cfg.UseStubEngine,
	} {
		if err := overrideBool(l.Lookup, key, target); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyYAML(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyJSON(raw string, cfg *Config) error {
	type jsonConfig struct {
		ListenAddr                 string `json:"listen_addr"`
		LogLevel                   string `json:"log_level"`
		AccessKey                  string `json:"access_key"`
		ModelPath                  string `json:"model_path"`
		LibraryPath                string `json:"library_path"`
		EnableAutomaticPunctuation *bool  `json:"enable_automatic_punctuation"`
		EnableDiarization          *bool  `json:"enable_diarization"`
		SerializeCalls             *bool  `json:"serialize_calls"`
		UseStubEngine              *bool  `json:"use_stub_engine"`
	}
	var payload jsonConfig
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("config: decode NUPI_ADAPTER_CONFIG: %w", err)
	}
	for _, field := range []struct {
		value  string
		target *string
	}{
		{payload.ListenAddr, &cfg.ListenAddr},
		{payload.LogLevel, &cfg.LogLevel},
		{payload.AccessKey, &cfg.AccessKey},
		{payload.ModelPath, &cfg.ModelPath},
		{payload.LibraryPath, &cfg.LibraryPath},
	} {
		if field.value != "" {
			*field.target = field.value
		}
	}
	for _, field := range []struct {
		value  *bool
		target *bool
	}{
		{payload.EnableAutomaticPunctuation, &cfg.EnableAutomaticPunctuation},
		{payload.EnableDiarization, &cfg.EnableDiarization},
		{payload.SerializeCalls, &cfg.SerializeCalls},
		{payload.UseStubEngine, &cfg.UseStubEngine},
	} {
		if field.value != nil {
			*field.target = *field.value
		}
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if lookup == nil || target == nil {
		return
	}
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = parsed
	return nil
}
