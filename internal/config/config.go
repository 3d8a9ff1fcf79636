package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Engine   string        `yaml:"engine"` // "whisper", "parakeet", "exec", or "mock"
	Models   ModelsConfig  `yaml:"models"`
	Chunk    ChunkConfig   `yaml:"chunk"`
	Limits   LimitsConfig  `yaml:"limits"`
	Convert  ConvertConfig `yaml:"convert"`
	LogLevel string        `yaml:"log_level"`
}

// ModelsConfig holds per-engine model settings.
type ModelsConfig struct {
	Dir      string         `yaml:"dir"`
	Whisper  WhisperConfig  `yaml:"whisper"`
	Parakeet ParakeetConfig `yaml:"parakeet"`
	Exec     ExecConfig     `yaml:"exec"`
}

// WhisperConfig holds whisper.cpp engine settings.
type WhisperConfig struct {
	Path     string `yaml:"path"`
	Language string `yaml:"language"` // empty = auto-detect
	Threads  int    `yaml:"threads"`
}

// ParakeetConfig holds sherpa-onnx transducer engine settings.
type ParakeetConfig struct {
	Dir     string `yaml:"dir"`
	Threads int    `yaml:"threads"`
}

// ExecConfig holds the external recognizer command line.
type ExecConfig struct {
	Command string `yaml:"command"`
}

// ChunkConfig bounds the length of audio handed to the recognizer in one call.
type ChunkConfig struct {
	WindowSec  float64 `yaml:"window_sec"`
	OverlapSec float64 `yaml:"overlap_sec"`
}

// LimitsConfig caps resource usage during transcription.
type LimitsConfig struct {
	MaxCPUPercent   float64 `yaml:"max_cpu_percent"`
	MaxRAMPercent   float64 `yaml:"max_ram_percent"`
	PollIntervalSec float64 `yaml:"poll_interval_sec"`
}

// ConvertConfig holds ffmpeg conversion settings.
type ConvertConfig struct {
	TimeoutSec int `yaml:"timeout_sec"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "audioscribe")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultModelsDir returns the default models directory path.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "audioscribe", "models")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	modelsDir := DefaultModelsDir()

	return &Config{
		Engine: "whisper",
		Models: ModelsConfig{
			Dir: modelsDir,
			Whisper: WhisperConfig{
				Path:    filepath.Join(modelsDir, "ggml-base.en.bin"),
				Threads: 4,
			},
			Parakeet: ParakeetConfig{
				Dir:     filepath.Join(modelsDir, "parakeet-tdt-v3"),
				Threads: 4,
			},
		},
		Chunk: ChunkConfig{
			WindowSec:  30,
			OverlapSec: 0.5,
		},
		Limits: LimitsConfig{
			MaxCPUPercent:   80,
			MaxRAMPercent:   80,
			PollIntervalSec: 1,
		},
		Convert: ConvertConfig{
			TimeoutSec: 300,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Models.Dir = expandTilde(cfg.Models.Dir)
	cfg.Models.Whisper.Path = expandTilde(cfg.Models.Whisper.Path)
	cfg.Models.Parakeet.Dir = expandTilde(cfg.Models.Parakeet.Dir)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.Engine {
	case "whisper", "parakeet", "exec", "mock":
	default:
		return fmt.Errorf("engine must be whisper, parakeet, exec, or mock, got %q", c.Engine)
	}

	if c.Engine == "whisper" && c.Models.Whisper.Path == "" {
		return fmt.Errorf("models.whisper.path must not be empty")
	}

	if c.Engine == "parakeet" && c.Models.Parakeet.Dir == "" {
		return fmt.Errorf("models.parakeet.dir must not be empty")
	}

	if c.Engine == "exec" && c.Models.Exec.Command == "" {
		return fmt.Errorf("models.exec.command must not be empty")
	}

	if c.Chunk.WindowSec <= 0 {
		return fmt.Errorf("chunk.window_sec must be > 0")
	}

	if c.Chunk.OverlapSec < 0 {
		return fmt.Errorf("chunk.overlap_sec must be >= 0")
	}

	if c.Chunk.OverlapSec >= c.Chunk.WindowSec {
		return fmt.Errorf("chunk.overlap_sec (%g) must be smaller than chunk.window_sec (%g)",
			c.Chunk.OverlapSec, c.Chunk.WindowSec)
	}

	if c.Limits.MaxCPUPercent <= 0 || c.Limits.MaxCPUPercent > 100 {
		return fmt.Errorf("limits.max_cpu_percent must be in (0, 100], got %g", c.Limits.MaxCPUPercent)
	}

	if c.Limits.MaxRAMPercent <= 0 || c.Limits.MaxRAMPercent > 100 {
		return fmt.Errorf("limits.max_ram_percent must be in (0, 100], got %g", c.Limits.MaxRAMPercent)
	}

	if c.Limits.PollIntervalSec <= 0 {
		return fmt.Errorf("limits.poll_interval_sec must be > 0")
	}

	if c.Convert.TimeoutSec <= 0 {
		return fmt.Errorf("convert.timeout_sec must be > 0")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
