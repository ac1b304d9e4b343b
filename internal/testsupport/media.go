package testsupport

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"reelcut/internal/media"
	"reelcut/internal/media/ffprobe"
)

// PCMRate is the sample rate of synthesized analysis audio. It is low so
// tests stay fast.
const PCMRate = 100

// LoudSample is the 16-bit amplitude written for loud seconds (RMS 0.5).
const LoudSample = 16384

// FakeFile describes a media file known to FakeMedia.
type FakeFile struct {
	Duration   float64
	Width      int
	Height     int
	FrameRate  string
	SampleRate int
	Channels   int
	VideoCodec string
	AudioCodec string
	SizeBytes  int64
	// Loud marks each second of audio as loud or silent. Seconds beyond the
	// slice are silent.
	Loud []bool
}

// Call records one operation performed through FakeMedia.
type Call struct {
	Op   string
	Src  string
	Dest string
}

// FakeMedia is an in-memory media backend. It answers ffprobe queries for
// registered files, synthesizes PCM from their loudness pattern and performs
// renders, cuts and joins by registering the produced file. It satisfies
// media.Prober, media.PCMExtractor, the stage renderer and the fragment
// cutter and joiner.
type FakeMedia struct {
	mu    sync.Mutex
	files map[string]FakeFile
	fail  map[string]error
	calls []Call
}

// NewFakeMedia returns an empty backend.
func NewFakeMedia() *FakeMedia {
	return &FakeMedia{files: make(map[string]FakeFile), fail: make(map[string]error)}
}

// Add registers path and writes a placeholder file of f.SizeBytes bytes.
func (m *FakeMedia) Add(t testing.TB, path string, f FakeFile) {
	t.Helper()
	if err := m.register(path, f); err != nil {
		t.Fatalf("register %s: %v", path, err)
	}
}

// FailOn makes every operation named op (probe, extract_pcm, extract_audio,
// render, render_clip, render_clips, cut, concat) return err.
func (m *FakeMedia) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = err
}

// File returns the registered description of path.
func (m *FakeMedia) File(path string) (FakeFile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[path]
	return f, ok
}

// Calls returns the recorded operations.
func (m *FakeMedia) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallsTo returns the recorded operations named op.
func (m *FakeMedia) CallsTo(op string) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (m *FakeMedia) begin(op, src, dest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: op, Src: src, Dest: dest})
	return m.fail[op]
}

func (m *FakeMedia) register(path string, f FakeFile) error {
	if f.FrameRate == "" {
		f.FrameRate = "30/1"
	}
	if f.SampleRate == 0 {
		f.SampleRate = 48000
	}
	if f.Channels == 0 {
		f.Channels = 2
	}
	if f.VideoCodec == "" {
		f.VideoCodec = "h264"
	}
	if f.AudioCodec == "" {
		f.AudioCodec = "aac"
	}
	if f.SizeBytes <= 0 {
		f.SizeBytes = 1024
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, make([]byte, min(f.SizeBytes, 4096)), 0o644); err != nil {
		return err
	}
	m.mu.Lock()
	m.files[path] = f
	m.mu.Unlock()
	return nil
}

func (m *FakeMedia) lookup(path string) (FakeFile, error) {
	f, ok := m.File(path)
	if !ok {
		return FakeFile{}, fmt.Errorf("fake media: unknown file %s", path)
	}
	return f, nil
}

// Probe implements media.Prober.
func (m *FakeMedia) Probe(_ context.Context, path string) (ffprobe.Result, error) {
	if err := m.begin("probe", path, ""); err != nil {
		return ffprobe.Result{}, err
	}
	f, err := m.lookup(path)
	if err != nil {
		return ffprobe.Result{}, err
	}
	duration := strconv.FormatFloat(f.Duration, 'f', -1, 64)
	return ffprobe.Result{
		Streams: []ffprobe.Stream{
			{Index: 0, CodecType: "video", CodecName: f.VideoCodec, Width: f.Width, Height: f.Height, RFrameRate: f.FrameRate, AvgFrameRate: f.FrameRate, Duration: duration},
			{Index: 1, CodecType: "audio", CodecName: f.AudioCodec, SampleRate: strconv.Itoa(f.SampleRate), Channels: f.Channels, Duration: duration},
		},
		Format: ffprobe.Format{Filename: path, NBStreams: 2, Duration: duration, Size: strconv.FormatInt(f.SizeBytes, 10)},
	}, nil
}

// ExtractPCM implements media.PCMExtractor.
func (m *FakeMedia) ExtractPCM(_ context.Context, source, dest string, _ int) error {
	if err := m.begin("extract_pcm", source, dest); err != nil {
		return err
	}
	f, err := m.lookup(source)
	if err != nil {
		return err
	}
	return WriteWAV(dest, PCMRate, Samples(f.Loud, f.Duration))
}

// ExtractAudio writes the handle's audio as a WAV file.
func (m *FakeMedia) ExtractAudio(_ context.Context, h *media.Handle, dest string) error {
	source := h.Path()
	if p := h.Edits().AudioPath; p != "" {
		source = p
	}
	if err := m.begin("extract_audio", source, dest); err != nil {
		return err
	}
	f, err := m.lookup(h.Path())
	if err != nil {
		return err
	}
	if err := WriteWAV(dest, PCMRate, Samples(f.Loud, f.Duration)); err != nil {
		return err
	}
	return m.register(dest, FakeFile{Duration: f.Duration, Loud: f.Loud})
}

// Render registers dest as the handle rendered with its edits.
func (m *FakeMedia) Render(_ context.Context, h *media.Handle, dest string) error {
	if err := m.begin("render", h.Path(), dest); err != nil {
		return err
	}
	f, err := m.lookup(h.Path())
	if err != nil {
		return err
	}
	f.Width, f.Height = h.FrameSize()
	return m.register(dest, f)
}

// RenderClip registers dest as one clip of the handle.
func (m *FakeMedia) RenderClip(_ context.Context, h *media.Handle, clip media.Clip, dest string) error {
	if err := m.begin("render_clip", h.Path(), dest); err != nil {
		return err
	}
	f, err := m.lookup(h.Path())
	if err != nil {
		return err
	}
	return m.register(dest, window(f, h, clip.Start, clip.End))
}

// RenderClips registers dest as the concatenation of clips.
func (m *FakeMedia) RenderClips(_ context.Context, h *media.Handle, clips []media.Clip, dest string) error {
	if err := m.begin("render_clips", h.Path(), dest); err != nil {
		return err
	}
	f, err := m.lookup(h.Path())
	if err != nil {
		return err
	}
	out := window(f, h, 0, 0)
	for _, c := range clips {
		part := window(f, h, c.Start, c.End)
		out.Duration += part.Duration
		out.Loud = append(out.Loud, part.Loud...)
	}
	return m.register(dest, out)
}

// CutWindow registers dest as [start, end) of source.
func (m *FakeMedia) CutWindow(_ context.Context, source string, start, end float64, dest string, _ bool) error {
	if err := m.begin("cut", source, dest); err != nil {
		return err
	}
	f, err := m.lookup(source)
	if err != nil {
		return err
	}
	part := window(f, nil, start, end)
	part.SizeBytes = int64(float64(f.SizeBytes) * (end - start) / f.Duration)
	return m.register(dest, part)
}

// Concat registers dest as the files joined in order.
func (m *FakeMedia) Concat(_ context.Context, paths []string, dest string) error {
	if err := m.begin("concat", "", dest); err != nil {
		return err
	}
	var out FakeFile
	for i, p := range paths {
		f, err := m.lookup(p)
		if err != nil {
			return err
		}
		if i == 0 {
			out = f
			out.Duration, out.Loud, out.SizeBytes = 0, nil, 0
		}
		out.Duration += f.Duration
		out.Loud = append(out.Loud, f.Loud...)
		out.SizeBytes += f.SizeBytes
	}
	return m.register(dest, out)
}

func window(f FakeFile, h *media.Handle, start, end float64) FakeFile {
	out := f
	if h != nil {
		out.Width, out.Height = h.FrameSize()
	}
	out.Duration = end - start
	out.Loud = nil
	for s := int(math.Floor(start)); s < int(math.Ceil(end)); s++ {
		out.Loud = append(out.Loud, s < len(f.Loud) && f.Loud[s])
	}
	return out
}

// Samples expands a per-second loudness pattern into 16-bit samples at
// PCMRate covering duration seconds.
func Samples(loud []bool, duration float64) []int {
	out := make([]int, int(math.Round(duration*PCMRate)))
	for i := range out {
		if s := i / PCMRate; s < len(loud) && loud[s] {
			out[i] = LoudSample
		}
	}
	return out
}

// WriteWAV writes mono 16-bit PCM samples to path.
func WriteWAV(path string, rate int, samples []int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Decoder returns a media.Decoder backed by m that caches PCM in workDir.
func (m *FakeMedia) Decoder(workDir string) *media.Decoder {
	return media.NewDecoder(m, m, media.WithWorkDir(workDir), media.WithSampleRate(PCMRate))
}
