package workspace

import (
	"fmt"
	"path/filepath"
)

// Layout maps artifact kinds to paths.
type Layout struct {
	WorkDir   string
	OutputDir string
}

// Audio is the extracted audio track.
func (l Layout) Audio(stem string) string {
	return filepath.Join(l.WorkDir, stem+"_audio.wav")
}

// Denoised is the denoised audio track.
func (l Layout) Denoised(stem string) string {
	return filepath.Join(l.WorkDir, stem+"_denoised.wav")
}

// Transcript is the SRT transcript.
func (l Layout) Transcript(stem string) string {
	return filepath.Join(l.OutputDir, stem+"_transcript.srt")
}

// Edited is the single rendered output video.
func (l Layout) Edited(stem string) string {
	return filepath.Join(l.OutputDir, stem+"_EDITED.mp4")
}

// EditedPart is the i-th clip written by save_separated_video.
func (l Layout) EditedPart(stem string, i int) string {
	return filepath.Join(l.OutputDir, fmt.Sprintf("%s_EDITED_%d.mp4", stem, i))
}

// Metadata is the generated title/description/hashtags file.
func (l Layout) Metadata(stem string) string {
	return filepath.Join(l.OutputDir, stem+"_metadata.txt")
}

// Combined is the reassembled video built from processed fragments.
func (l Layout) Combined(stem string) string {
	return filepath.Join(l.OutputDir, stem+"_combined.mp4")
}

// Compressed is the directory drapto writes its AV1 output into.
func (l Layout) Compressed() string {
	return filepath.Join(l.OutputDir, "compressed")
}

// Intermediates lists the files a run creates for stem and must clean up.
func (l Layout) Intermediates(stem string) []string {
	return []string{l.Audio(stem), l.Denoised(stem)}
}
