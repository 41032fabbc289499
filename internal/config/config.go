// Package config loads and validates the node configuration file.
//
// Validation is two-layered: strict YAML decoding rejects unknown fields,
// and the embedded CUE schema checks types, enums and value constraints.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// LogConfig selects the process log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NodeConfig is the validated process configuration.
type NodeConfig struct {
	// ArchivePath locates the SQLite checkpoint/transaction archive.
	ArchivePath string `yaml:"archive_path"`

	// GenesisPath locates the genesis manifest.
	GenesisPath string `yaml:"genesis_path"`

	// Execute selects whether the replay-and-verify phase runs.
	// Defaults to true.
	Execute bool `yaml:"execute"`

	// DownloadWatermark is the checkpoint sequence to sync down to before
	// replay. Zero means no download.
	DownloadWatermark uint64 `yaml:"download_watermark"`

	// ListenAddress is parsed for invocation compatibility; nothing binds it.
	ListenAddress string `yaml:"listen_address"`

	// ProgressInterval is the checkpoint interval between progress lines.
	// Defaults to 10.
	ProgressInterval uint64 `yaml:"progress_interval"`

	Log LogConfig `yaml:"log"`
}

// rawConfig mirrors NodeConfig with optionality preserved, so defaults can
// be told apart from explicit values.
type rawConfig struct {
	ArchivePath       string    `yaml:"archive_path"`
	GenesisPath       string    `yaml:"genesis_path"`
	Execute           *bool     `yaml:"execute"`
	DownloadWatermark uint64    `yaml:"download_watermark"`
	ListenAddress     string    `yaml:"listen_address"`
	ProgressInterval  uint64    `yaml:"progress_interval"`
	Log               LogConfig `yaml:"log"`
}

// Load reads, validates and defaults a configuration file.
func Load(path string) (*NodeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates configuration bytes against the schema and applies
// defaults.
func Parse(data []byte) (*NodeConfig, error) {
	// Generic decode feeds the CUE schema: only fields the file actually
	// sets are checked, so optional fields stay optional.
	var generic map[string]any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validateAgainstSchema(generic); err != nil {
		return nil, err
	}

	var raw rawConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &NodeConfig{
		ArchivePath:       raw.ArchivePath,
		GenesisPath:       raw.GenesisPath,
		Execute:           true,
		DownloadWatermark: raw.DownloadWatermark,
		ListenAddress:     raw.ListenAddress,
		ProgressInterval:  raw.ProgressInterval,
		Log:               raw.Log,
	}
	if raw.Execute != nil {
		cfg.Execute = *raw.Execute
	}
	if cfg.ProgressInterval == 0 {
		cfg.ProgressInterval = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	return cfg, nil
}

func validateAgainstSchema(generic map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#NodeConfig"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	unified := schema.Unify(ctx.Encode(generic))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}
	return nil
}
