package whisperx

import "reelcut/internal/language"

// Config selects the WhisperX model and runtime.
type Config struct {
	Model string
	// Language may be a code or an English name; empty lets WhisperX detect it.
	Language    string
	CUDAEnabled bool
	// VADMethod is "silero" (default) or "pyannote". Pyannote needs HFToken.
	VADMethod string
	HFToken   string
}

const (
	DefaultModel      = "base"
	UVXCommand        = "uvx"
	VADMethodSilero   = "silero"
	VADMethodPyannote = "pyannote"

	CUDAIndexURL = "https://download.pytorch.org/whl/cu128"
	PyPIIndexURL = "https://pypi.org/simple"
)

// decodeFlags are the fixed WhisperX decoding settings. Sentence-level
// segments keep subtitle cues readable.
var decodeFlags = []string{
	"--batch_size", "4",
	"--output_format", "json",
	"--segment_resolution", "sentence",
	"--chunk_size", "15",
	"--vad_onset", "0.08",
	"--vad_offset", "0.07",
	"--beam_size", "5",
	"--temperature", "0.0",
}

func (c Config) model() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel
}

func (c Config) vadMethod() string {
	if c.VADMethod != "" {
		return c.VADMethod
	}
	return VADMethodSilero
}

// uvxArgs builds the uvx command line that transcribes source into outputDir.
func (c Config) uvxArgs(source, outputDir string) []string {
	var args []string
	if c.CUDAEnabled {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PyPIIndexURL)
	} else {
		args = append(args, "--index-url", PyPIIndexURL)
	}
	args = append(args, "whisperx", source, "--model", c.model(), "--output_dir", outputDir)
	args = append(args, decodeFlags...)

	vad := c.vadMethod()
	args = append(args, "--vad_method", vad)
	if vad == VADMethodPyannote && c.HFToken != "" {
		args = append(args, "--hf_token", c.HFToken)
	}
	if lang := language.ToISO2(c.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	if c.CUDAEnabled {
		return append(args, "--device", "cuda")
	}
	return append(args, "--device", "cpu", "--compute_type", "float32")
}
