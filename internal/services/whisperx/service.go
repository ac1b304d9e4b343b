package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"reelcut/internal/subtitles"
)

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	binary        string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service. An empty binary uses uvx from PATH.
func NewService(cfg Config, binary string) *Service {
	if strings.TrimSpace(binary) == "" {
		binary = UVXCommand
	}
	return &Service{cfg: cfg, binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the model name for logging.
func (s *Service) Model() string {
	return s.cfg.model()
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(string(output), 20))
	}
	return nil
}

// Transcribe runs WhisperX on audioPath and returns its segments as cues.
func (s *Service) Transcribe(ctx context.Context, audioPath string) ([]subtitles.Cue, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, fmt.Errorf("transcribe: source path required")
	}
	outputDir, err := os.MkdirTemp(filepath.Dir(audioPath), "whisperx-*")
	if err != nil {
		return nil, fmt.Errorf("transcribe: create output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	if err := s.run(ctx, s.binary, s.cfg.uvxArgs(audioPath, outputDir)...); err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	segments, err := LoadSegments(filepath.Join(outputDir, stem+".json"))
	if err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}
	return Cues(segments), nil
}

// Segment is a transcribed span from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type payload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return p.Segments, nil
}

// Cues converts segments, dropping empty text.
func Cues(segments []Segment) []subtitles.Cue {
	cues := make([]subtitles.Cue, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		cues = append(cues, subtitles.Cue{Index: len(cues) + 1, Start: seg.Start, End: seg.End, Text: text})
	}
	return cues
}

func tail(output string, lines int) string {
	all := strings.Split(strings.TrimSpace(output), "\n")
	if len(all) > lines {
		all = all[len(all)-lines:]
	}
	return strings.Join(all, "\n")
}
