package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for intermediate and final artifacts.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
}

// Pipeline contains the default stage list and batch behaviour.
type Pipeline struct {
	Stages          []string `toml:"stages"`
	Metadata        bool     `toml:"metadata"`
	FileWorkers     int      `toml:"file_workers"`
	FragmentWorkers int      `toml:"fragment_workers"`
}

// Silence contains the windowed RMS segmentation settings.
type Silence struct {
	ClipInterval   float64 `toml:"clip_interval"`
	SoundThreshold float64 `toml:"sound_threshold"`
	DiscardSilence bool    `toml:"discard_silence"`
	SampleRate     int     `toml:"sample_rate"`
	Progress       bool    `toml:"progress"`
}

// Audio contains audio adjustments applied by the gain stage.
type Audio struct {
	GainFactor float64 `toml:"gain_factor"`
}

// Split contains fragment splitting and recombination settings.
type Split struct {
	SizeMB        int  `toml:"size_mb"`
	Combine       bool `toml:"combine"`
	StreamCopy    bool `toml:"stream_copy"`
	KeepFragments bool `toml:"keep_fragments"`
}

// Encoding contains the codec options used when writing outputs.
type Encoding struct {
	VideoCodec    string `toml:"video_codec"`
	AudioCodec    string `toml:"audio_codec"`
	Preset        string `toml:"preset"`
	CRF           int    `toml:"crf"`
	SubtitleStyle string `toml:"subtitle_style"`
}

// Transcription contains speech-to-text backend settings.
type Transcription struct {
	Backend     string `toml:"backend"`
	Model       string `toml:"model"`
	Language    string `toml:"language"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method"`
	HFToken     string `toml:"hf_token"`
	APIKey      string `toml:"api_key"`
	BaseURL     string `toml:"base_url"`
}

// Denoise contains settings for the ffmpeg denoise filter.
type Denoise struct {
	Method     string  `toml:"method"`
	ModelPath  string  `toml:"model_path"`
	NoiseFloor float64 `toml:"noise_floor"`
}

// Metadata contains the language model settings for title/description generation.
type Metadata struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// History contains settings for the SQLite run ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for reelcut.
//
// Configuration sections by subsystem:
//   - Paths: work directory for intermediates, output directory for results
//   - Pipeline: default stage list, metadata trailing stage, worker pools
//   - Silence: clip interval, threshold, discard flag, PCM sample rate
//   - Audio: gain factor
//   - Split: fragment size budget, combine, stream copy, fragment retention
//   - Encoding: codecs used when rendering outputs
//   - Transcription: WhisperX or OpenAI speech-to-text
//   - Denoise: ffmpeg denoise filter selection
//   - Metadata: language model provider for title/description/hashtags
//   - History: SQLite run ledger
//   - Logging: log format, level, and optional file
type Config struct {
	Paths         Paths         `toml:"paths"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Silence       Silence       `toml:"silence"`
	Audio         Audio         `toml:"audio"`
	Split         Split         `toml:"split"`
	Encoding      Encoding      `toml:"encoding"`
	Transcription Transcription `toml:"transcription"`
	Denoise       Denoise       `toml:"denoise"`
	Metadata      Metadata      `toml:"metadata"`
	History       History       `toml:"history"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelcut.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work and output directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.History.Path), 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// UVXBinary returns the uvx executable used to launch WhisperX.
func (c *Config) UVXBinary() string {
	return "uvx"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the connection settings for the metadata language model.
type LLMConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the metadata language model connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider:       strings.TrimSpace(c.Metadata.Provider),
		APIKey:         strings.TrimSpace(c.Metadata.APIKey),
		BaseURL:        strings.TrimSpace(c.Metadata.BaseURL),
		Model:          strings.TrimSpace(c.Metadata.Model),
		Referer:        strings.TrimSpace(c.Metadata.Referer),
		Title:          strings.TrimSpace(c.Metadata.Title),
		TimeoutSeconds: c.Metadata.TimeoutSeconds,
	}
}
