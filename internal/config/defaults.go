package config

const (
	defaultConfigPath            = "~/.config/reelcut/config.toml"
	defaultWorkDir               = "."
	defaultOutputDir             = "."
	defaultHistoryPath           = "~/.local/share/reelcut/history.db"
	defaultClipInterval          = 2.0
	defaultSoundThreshold        = 0.01
	defaultSampleRate            = 44100
	defaultGainFactor            = 1.0
	defaultVideoCodec            = "libx264"
	defaultAudioCodec            = "aac"
	defaultPreset                = "medium"
	defaultCRF                   = 20
	defaultSubtitleStyle         = "FontName=Arial,FontSize=28,PrimaryColour=&H00FFFFFF,BorderStyle=3,BackColour=&H00000000,Alignment=2"
	defaultTranscriptionBackend  = "whisperx"
	defaultTranscriptionModel    = "base"
	defaultOpenAITranscribeModel = "whisper-1"
	defaultOpenAIBaseURL         = "https://api.openai.com/v1"
	defaultVADMethod             = "silero"
	defaultDenoiseMethod         = "afftdn"
	defaultNoiseFloor            = -25.0
	defaultMetadataProvider      = "openai"
	defaultOpenAIModel           = "gpt-4o-mini"
	defaultOpenRouterBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel       = "google/gemini-3-flash-preview"
	defaultGeminiModel           = "gemini-2.0-flash"
	defaultMetadataReferer       = "https://github.com/reelcut/reelcut"
	defaultMetadataTitle         = "reelcut metadata"
	defaultMetadataTimeout       = 60
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
		},
		Pipeline: Pipeline{
			FileWorkers:     1,
			FragmentWorkers: 1,
		},
		Silence: Silence{
			ClipInterval:   defaultClipInterval,
			SoundThreshold: defaultSoundThreshold,
			SampleRate:     defaultSampleRate,
			Progress:       true,
		},
		Audio: Audio{
			GainFactor: defaultGainFactor,
		},
		Encoding: Encoding{
			VideoCodec:    defaultVideoCodec,
			AudioCodec:    defaultAudioCodec,
			Preset:        defaultPreset,
			CRF:           defaultCRF,
			SubtitleStyle: defaultSubtitleStyle,
		},
		Transcription: Transcription{
			Backend:   defaultTranscriptionBackend,
			Model:     defaultTranscriptionModel,
			VADMethod: defaultVADMethod,
		},
		Denoise: Denoise{
			Method:     defaultDenoiseMethod,
			NoiseFloor: defaultNoiseFloor,
		},
		Metadata: Metadata{
			Provider:       defaultMetadataProvider,
			Referer:        defaultMetadataReferer,
			Title:          defaultMetadataTitle,
			TimeoutSeconds: defaultMetadataTimeout,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
