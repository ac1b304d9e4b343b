package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"reelcut/internal/language"
	"reelcut/internal/subtitles"
)

const defaultTimeout = 60 * time.Second

// Config captures the settings shared by chat and transcription calls.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Language       string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client wraps the OpenAI SDK client.
type Client struct {
	cfg    Config
	client oa.Client
}

// NewClient builds a client. Extra request options are appended after the
// configured ones (tests point BaseURL at an httptest server this way).
func NewClient(cfg Config, opts ...option.RequestOption) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)

	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Referer != "" {
		clientOpts = append(clientOpts, option.WithHeader("HTTP-Referer", cfg.Referer))
	}
	if cfg.Title != "" {
		clientOpts = append(clientOpts, option.WithHeader("X-Title", cfg.Title))
	}
	clientOpts = append(clientOpts, opts...)
	return &Client{cfg: cfg, client: oa.NewClient(clientOpts...)}
}

// Model returns the configured model.
func (c *Client) Model() string {
	return c.cfg.Model
}

// CompleteJSON issues a JSON-mode chat completion.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", errors.New("openai complete: api key required")
	}
	resp, err := c.client.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage(userPrompt),
		},
		Model:       c.cfg.Model,
		Temperature: oa.Float(0.2),
		ResponseFormat: oa.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai complete: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai complete: empty choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai complete: empty content (finish_reason=%q, refusal=%q)",
			resp.Choices[0].FinishReason, resp.Choices[0].Message.Refusal)
	}
	return content, nil
}

// HealthCheck verifies the key by looking up the configured model.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("openai health: api key required")
	}
	if _, err := c.client.Models.Get(ctx, c.cfg.Model); err != nil {
		return fmt.Errorf("openai health: %w", err)
	}
	return nil
}

type verboseTranscription struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// Transcribe uploads audioPath to the transcription endpoint and converts the
// verbose JSON segments into cues. A reply without segments becomes one cue
// spanning the reported duration.
func (c *Client) Transcribe(ctx context.Context, audioPath string) ([]subtitles.Cue, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.New("openai transcribe: api key required")
	}
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("openai transcribe: %w", err)
	}
	defer f.Close()

	params := oa.AudioTranscriptionNewParams{
		File:           f,
		Model:          c.cfg.Model,
		ResponseFormat: oa.AudioResponseFormatVerboseJSON,
	}
	if lang := language.ToISO2(c.cfg.Language); lang != "" {
		params.Language = oa.String(lang)
	}
	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai transcribe: %w", err)
	}

	var verbose verboseTranscription
	if raw := resp.RawJSON(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &verbose); err != nil {
			return nil, fmt.Errorf("openai transcribe: decode segments: %w", err)
		}
	}
	cues := make([]subtitles.Cue, 0, len(verbose.Segments))
	for _, seg := range verbose.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		cues = append(cues, subtitles.Cue{Index: len(cues) + 1, Start: seg.Start, End: seg.End, Text: text})
	}
	if len(cues) == 0 {
		if text := strings.TrimSpace(resp.Text); text != "" {
			cues = append(cues, subtitles.Cue{Index: 1, Start: 0, End: verbose.Duration, Text: text})
		}
	}
	return cues, nil
}
