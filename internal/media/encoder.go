package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

var globalArgs = []string{"-hide_banner", "-loglevel", "error", "-nostdin"}

// EncodeOptions controls the codecs used when rendering outputs.
type EncodeOptions struct {
	VideoCodec    string
	AudioCodec    string
	Preset        string
	CRF           int
	SubtitleStyle string
}

// Encoder renders handles and cuts or joins files with ffmpeg.
type Encoder struct {
	runner  Runner
	binary  string
	opts    EncodeOptions
	workDir string
}

// EncoderOption customizes an Encoder.
type EncoderOption func(*Encoder)

// WithBinary overrides the ffmpeg executable.
func WithBinary(binary string) EncoderOption {
	return func(e *Encoder) {
		if strings.TrimSpace(binary) != "" {
			e.binary = strings.TrimSpace(binary)
		}
	}
}

// WithScratchDir sets where temporary clip renders are written.
func WithScratchDir(dir string) EncoderOption {
	return func(e *Encoder) {
		e.workDir = strings.TrimSpace(dir)
	}
}

// NewEncoder constructs an Encoder. A nil runner uses ExecRunner.
func NewEncoder(runner Runner, opts EncodeOptions, options ...EncoderOption) *Encoder {
	if runner == nil {
		runner = ExecRunner{}
	}
	if opts.VideoCodec == "" {
		opts.VideoCodec = "libx264"
	}
	if opts.AudioCodec == "" {
		opts.AudioCodec = "aac"
	}
	e := &Encoder{runner: runner, binary: "ffmpeg", opts: opts}
	for _, option := range options {
		option(e)
	}
	return e
}

// ExtractPCM writes a 16-bit WAV of source at sampleRate, keeping the source
// channel layout.
func (e *Encoder) ExtractPCM(ctx context.Context, source, dest string, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	stream := ffmpeg.Input(source).Output(dest, ffmpeg.KwArgs{
		"vn":     "",
		"ar":     sampleRate,
		"acodec": "pcm_s16le",
		"f":      "wav",
	})
	return e.run(ctx, "extract pcm", stream)
}

// ExtractAudio writes the handle's current audio track to dest as 16-bit PCM.
// Pending gain is not applied; it stays an edit on the handle.
func (e *Encoder) ExtractAudio(ctx context.Context, h *Handle, dest string) error {
	source := h.Path()
	if h.Edits().AudioPath != "" {
		source = h.Edits().AudioPath
	} else if !h.Info().HasAudio() {
		return fmt.Errorf("extract audio: %s has no audio stream", source)
	}
	stream := ffmpeg.Input(source).Output(dest, ffmpeg.KwArgs{
		"vn":     "",
		"acodec": "pcm_s16le",
	})
	return e.run(ctx, "extract audio", stream)
}

// Render writes the whole handle, with its edits applied, to dest.
func (e *Encoder) Render(ctx context.Context, h *Handle, dest string) error {
	return e.run(ctx, "render", e.renderStream(h, nil, dest))
}

// RenderClip writes one clip of the handle to dest.
func (e *Encoder) RenderClip(ctx context.Context, h *Handle, clip Clip, dest string) error {
	if err := clip.Validate(h.Duration()); err != nil {
		return err
	}
	return e.run(ctx, "render clip", e.renderStream(h, &clip, dest))
}

// RenderClips renders clips in order and joins them into dest.
func (e *Encoder) RenderClips(ctx context.Context, h *Handle, clips []Clip, dest string) error {
	if len(clips) == 0 {
		return errors.New("render clips: no clips")
	}
	if len(clips) == 1 {
		return e.RenderClip(ctx, h, clips[0], dest)
	}
	dir := e.workDir
	if dir == "" {
		dir = filepath.Dir(dest)
	}
	base := strings.TrimSuffix(filepath.Base(dest), filepath.Ext(dest))
	parts := make([]string, 0, len(clips))
	defer func() {
		for _, part := range parts {
			_ = os.Remove(part)
		}
	}()
	for i, clip := range clips {
		part := filepath.Join(dir, fmt.Sprintf(".%s.clip%03d%s", base, i, filepath.Ext(dest)))
		parts = append(parts, part)
		if err := e.RenderClip(ctx, h, clip, part); err != nil {
			return fmt.Errorf("render clip %d: %w", i, err)
		}
	}
	return e.Concat(ctx, parts, dest)
}

// CutWindow writes [start, end) of source to dest. Stream copy is fast but
// snaps to keyframes; re-encoding keeps boundaries frame accurate.
func (e *Encoder) CutWindow(ctx context.Context, source string, start, end float64, dest string, streamCopy bool) error {
	if end <= start {
		return fmt.Errorf("cut window: invalid range [%.3f, %.3f)", start, end)
	}
	out := ffmpeg.KwArgs{"t": seconds(end - start)}
	if streamCopy {
		out["c"] = "copy"
		out["avoid_negative_ts"] = "make_zero"
	} else {
		for k, v := range e.codecArgs() {
			out[k] = v
		}
	}
	stream := ffmpeg.Input(source, ffmpeg.KwArgs{"ss": seconds(start)}).Output(dest, out)
	return e.run(ctx, "cut window", stream)
}

// Concat joins files with the concat demuxer without re-encoding.
func (e *Encoder) Concat(ctx context.Context, paths []string, dest string) error {
	if len(paths) == 0 {
		return errors.New("concat: no inputs")
	}
	listPath := dest + ".concat.txt"
	if err := os.WriteFile(listPath, []byte(concatList(paths)), 0o644); err != nil {
		return fmt.Errorf("concat: write list: %w", err)
	}
	defer os.Remove(listPath)
	stream := ffmpeg.Input(listPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(dest, ffmpeg.KwArgs{"c": "copy"})
	return e.run(ctx, "concat", stream)
}

func (e *Encoder) renderStream(h *Handle, window *Clip, dest string) *ffmpeg.Stream {
	edits := h.Edits()
	in := ffmpeg.KwArgs{}
	out := e.codecArgs()
	if !h.Info().HasAudio() && edits.AudioPath == "" {
		delete(out, "c:a")
	}
	if window != nil {
		// Burned-in subtitles need source timestamps, so seek on the output side.
		if edits.SubtitlesPath != "" {
			out["ss"] = seconds(window.Start)
			out["to"] = seconds(window.End)
		} else {
			in["ss"] = seconds(window.Start)
			out["t"] = seconds(window.Duration())
		}
	}
	if vf := e.videoFilters(edits); vf != "" {
		out["vf"] = vf
	}
	if gain := edits.GainFactor(); gain != 1 && (h.Info().HasAudio() || edits.AudioPath != "") {
		out["af"] = "volume=" + strconv.FormatFloat(gain, 'f', -1, 64)
	}
	source := ffmpeg.Input(h.Path(), in)
	if edits.AudioPath == "" {
		return source.Output(dest, out)
	}
	audioIn := ffmpeg.KwArgs{}
	if v, ok := in["ss"]; ok {
		audioIn["ss"] = v
	}
	out["shortest"] = ""
	audio := ffmpeg.Input(edits.AudioPath, audioIn)
	return ffmpeg.Output([]*ffmpeg.Stream{source.Video(), audio.Audio()}, dest, out)
}

func (e *Encoder) codecArgs() ffmpeg.KwArgs {
	args := ffmpeg.KwArgs{
		"c:v":      e.opts.VideoCodec,
		"c:a":      e.opts.AudioCodec,
		"pix_fmt":  "yuv420p",
		"movflags": "+faststart",
	}
	if e.opts.Preset != "" {
		args["preset"] = e.opts.Preset
	}
	if e.opts.CRF > 0 {
		args["crf"] = e.opts.CRF
	}
	return args
}

func (e *Encoder) videoFilters(edits Edits) string {
	var filters []string
	if edits.Resized() {
		w, h := edits.Width, edits.Height
		filters = append(filters,
			fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", w, h),
			fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", w, h),
			"setsar=1",
		)
	}
	if edits.SubtitlesPath != "" {
		filter := "subtitles=filename=" + escapeFilterValue(edits.SubtitlesPath)
		if style := strings.TrimSpace(e.opts.SubtitleStyle); style != "" {
			filter += ":force_style=" + escapeFilterValue(style)
		}
		filters = append(filters, filter)
	}
	return strings.Join(filters, ",")
}

func (e *Encoder) run(ctx context.Context, op string, stream *ffmpeg.Stream) error {
	args := append(append([]string(nil), globalArgs...), stream.OverWriteOutput().GetArgs()...)
	if err := e.runner.Run(ctx, e.binary, args); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// escapeFilterValue quotes a filter option value so paths with ':' or quotes survive.
func escapeFilterValue(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	return "'" + replacer.Replace(value) + "'"
}

func concatList(paths []string) string {
	var b strings.Builder
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
