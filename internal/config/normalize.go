package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeTranscription()
	if err := c.normalizeDenoise(); err != nil {
		return err
	}
	c.normalizeMetadata()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePipeline() {
	stages := make([]string, 0, len(c.Pipeline.Stages))
	for _, name := range c.Pipeline.Stages {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		stages = append(stages, name)
	}
	c.Pipeline.Stages = stages
	if c.Pipeline.FileWorkers <= 0 {
		c.Pipeline.FileWorkers = 1
	}
	if c.Pipeline.FragmentWorkers <= 0 {
		c.Pipeline.FragmentWorkers = 1
	}
	if c.Silence.SampleRate <= 0 {
		c.Silence.SampleRate = defaultSampleRate
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Backend = strings.ToLower(strings.TrimSpace(c.Transcription.Backend))
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = defaultTranscriptionBackend
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultVADMethod
	}
	c.Transcription.HFToken = strings.TrimSpace(c.Transcription.HFToken)
	if c.Transcription.HFToken == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		}
	}
	c.Transcription.BaseURL = strings.TrimSpace(c.Transcription.BaseURL)
	c.Transcription.APIKey = strings.TrimSpace(c.Transcription.APIKey)
	if c.Transcription.Backend == "openai" {
		if c.Transcription.Model == "" || c.Transcription.Model == defaultTranscriptionModel {
			c.Transcription.Model = defaultOpenAITranscribeModel
		}
		if c.Transcription.BaseURL == "" {
			c.Transcription.BaseURL = defaultOpenAIBaseURL
		}
		if c.Transcription.APIKey == "" {
			if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
				c.Transcription.APIKey = strings.TrimSpace(value)
			}
		}
	}
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
}

func (c *Config) normalizeDenoise() error {
	c.Denoise.Method = strings.ToLower(strings.TrimSpace(c.Denoise.Method))
	if c.Denoise.Method == "" {
		c.Denoise.Method = defaultDenoiseMethod
	}
	if strings.TrimSpace(c.Denoise.ModelPath) != "" {
		expanded, err := expandPath(c.Denoise.ModelPath)
		if err != nil {
			return fmt.Errorf("denoise.model_path: %w", err)
		}
		c.Denoise.ModelPath = expanded
	}
	return nil
}

func (c *Config) normalizeMetadata() {
	c.Metadata.Provider = strings.ToLower(strings.TrimSpace(c.Metadata.Provider))
	if c.Metadata.Provider == "" {
		c.Metadata.Provider = defaultMetadataProvider
	}
	c.Metadata.APIKey = strings.TrimSpace(c.Metadata.APIKey)
	if c.Metadata.APIKey == "" {
		for _, key := range metadataKeyEnv(c.Metadata.Provider) {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.Metadata.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.Metadata.BaseURL = strings.TrimSpace(c.Metadata.BaseURL)
	c.Metadata.Model = strings.TrimSpace(c.Metadata.Model)
	switch c.Metadata.Provider {
	case "openai":
		if c.Metadata.Model == "" {
			c.Metadata.Model = defaultOpenAIModel
		}
	case "openrouter":
		if c.Metadata.BaseURL == "" {
			c.Metadata.BaseURL = defaultOpenRouterBaseURL
		}
		if c.Metadata.Model == "" {
			c.Metadata.Model = defaultOpenRouterModel
		}
	case "gemini":
		if c.Metadata.Model == "" {
			c.Metadata.Model = defaultGeminiModel
		}
	}
	c.Metadata.Language = strings.TrimSpace(c.Metadata.Language)
	if strings.TrimSpace(c.Metadata.Referer) == "" {
		c.Metadata.Referer = defaultMetadataReferer
	}
	if strings.TrimSpace(c.Metadata.Title) == "" {
		c.Metadata.Title = defaultMetadataTitle
	}
	if c.Metadata.TimeoutSeconds <= 0 {
		c.Metadata.TimeoutSeconds = defaultMetadataTimeout
	}
}

func metadataKeyEnv(provider string) []string {
	switch provider {
	case "openrouter":
		return []string{"OPENROUTER_API_KEY"}
	case "gemini":
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	default:
		return []string{"OPENAI_API_KEY"}
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	expanded, err := expandPath(c.History.Path)
	if err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	c.History.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		expanded, err := expandPath(c.Logging.File)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}
