package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSilence(); err != nil {
		return err
	}
	if err := c.validateSplit(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateDenoise(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSilence() error {
	if c.Silence.ClipInterval <= 0 {
		return errors.New("silence.clip_interval must be positive")
	}
	if c.Silence.SoundThreshold < 0 {
		return errors.New("silence.sound_threshold must be >= 0")
	}
	if c.Audio.GainFactor < 0 {
		return errors.New("audio.gain_factor must be >= 0")
	}
	return nil
}

func (c *Config) validateSplit() error {
	if c.Split.SizeMB < 0 {
		return errors.New("split.size_mb must be >= 0")
	}
	if c.Split.Combine && c.Split.SizeMB == 0 {
		return errors.New("split.combine requires split.size_mb to be set")
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if c.Encoding.CRF < 0 || c.Encoding.CRF > 51 {
		return errors.New("encoding.crf must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Backend {
	case "whisperx":
		switch c.Transcription.VADMethod {
		case "silero", "pyannote":
		default:
			return fmt.Errorf("transcription.vad_method %q is not supported (use silero or pyannote)", c.Transcription.VADMethod)
		}
	case "openai":
	default:
		return fmt.Errorf("transcription.backend %q is not supported (use whisperx or openai)", c.Transcription.Backend)
	}
	return nil
}

func (c *Config) validateDenoise() error {
	switch c.Denoise.Method {
	case "afftdn":
		if c.Denoise.NoiseFloor < -80 || c.Denoise.NoiseFloor > -20 {
			return errors.New("denoise.noise_floor must be between -80 and -20")
		}
	case "arnndn":
		if c.Denoise.ModelPath == "" {
			return errors.New("denoise.model_path is required when denoise.method is arnndn")
		}
	default:
		return fmt.Errorf("denoise.method %q is not supported (use afftdn or arnndn)", c.Denoise.Method)
	}
	return nil
}

func (c *Config) validateMetadata() error {
	switch c.Metadata.Provider {
	case "openai", "openrouter", "gemini":
	default:
		return fmt.Errorf("metadata.provider %q is not supported (use openai, openrouter or gemini)", c.Metadata.Provider)
	}
	if c.Pipeline.Metadata && c.Metadata.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("metadata.api_key is required when pipeline.metadata is enabled. Set it in %s or via the provider env var", defaultPath)
	}
	return nil
}
