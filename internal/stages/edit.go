package stages

import (
	"context"
	"fmt"
	"os"

	"reelcut/internal/logging"
	"reelcut/internal/pipeline"
	"reelcut/internal/services"
	"reelcut/internal/silence"
)

func (b builder) trimBySilence() pipeline.Stage {
	return pipeline.Stage{
		Name:        TrimBySilence,
		Description: "Segment the timeline into loud and silent clips",
		Requires:    []pipeline.Field{pipeline.FieldMedia, pipeline.FieldClipInterval, pipeline.FieldSoundThreshold, pipeline.FieldDiscardSilence},
		Provides:    []pipeline.Field{pipeline.FieldClips},
		Run: func(ctx context.Context, pc *pipeline.Context) error {
			var opts []silence.Option
			if b.deps.Progress != nil {
				opts = append(opts, silence.WithProgressBar(b.deps.Progress))
			}
			profile, err := silence.Analyze(ctx, pc.Media(), pc.ClipInterval(), pc.SoundThreshold(), opts...)
			if err != nil {
				return err
			}
			clips := profile.Clips(pc.DiscardSilence())
			pc.SetClips(clips)
			b.log(ctx).Info("silence segmentation complete",
				logging.String(logging.FieldEventType, "segmentation_complete"),
				logging.Int("windows", len(profile.Amplitudes)),
				logging.Int("segments", len(profile.Segments)),
				logging.Int("clips", len(clips)),
				logging.Float64("loud_seconds", profile.LoudSeconds()),
				logging.Float64("duration_seconds", profile.Duration),
			)
			return nil
		},
	}
}

func (b builder) subtitles() pipeline.Stage {
	return pipeline.Stage{
		Name:        Subtitles,
		Description: "Burn the SRT transcript into the video",
		Requires:    []pipeline.Field{pipeline.FieldMedia, pipeline.FieldStem},
		Optional:    []pipeline.Field{pipeline.FieldTranscriptPath},
		Provides:    []pipeline.Field{pipeline.FieldMedia},
		Run: func(ctx context.Context, pc *pipeline.Context) error {
			path := pc.Layout().Transcript(pc.Stem())
			if pc.Has(pipeline.FieldTranscriptPath) {
				path = pc.TranscriptPath()
			}
			if _, err := os.Stat(path); err != nil {
				return services.Wrap(services.ErrMediaIO, Subtitles, "open transcript", path, err)
			}
			return pc.SetMedia(pc.Media().WithSubtitles(path))
		},
	}
}

func (b builder) setVertical() pipeline.Stage {
	return b.orientation(SetVertical, "Rotate the frame size to portrait", true)
}

func (b builder) setHorizontal() pipeline.Stage {
	return b.orientation(SetHorizontal, "Rotate the frame size to landscape", false)
}

// orientation swaps width and height when the frame does not already have
// the wanted orientation. Square frames are left alone.
func (b builder) orientation(name, description string, vertical bool) pipeline.Stage {
	return pipeline.Stage{
		Name:        name,
		Description: description,
		Requires:    []pipeline.Field{pipeline.FieldMedia},
		Provides:    []pipeline.Field{pipeline.FieldMedia, pipeline.FieldShape},
		Run: func(ctx context.Context, pc *pipeline.Context) error {
			h := pc.Media()
			w, ht := h.FrameSize()
			if w <= 0 || ht <= 0 {
				return services.Wrap(services.ErrMediaIO, name, "resize", fmt.Sprintf("media has no frame size (%dx%d)", w, ht), nil)
			}
			swap := (vertical && w > ht) || (!vertical && w < ht)
			if swap {
				if err := pc.SetMedia(h.WithSize(ht, w)); err != nil {
					return err
				}
				w, ht = ht, w
			}
			pc.SetShape(pipeline.Shape{Width: w, Height: ht})
			return nil
		},
	}
}

func (b builder) applyGain() pipeline.Stage {
	return pipeline.Stage{
		Name:        ApplyGain,
		Description: "Multiply the audio amplitude by the gain factor",
		Requires:    []pipeline.Field{pipeline.FieldMedia},
		Optional:    []pipeline.Field{pipeline.FieldGainFactor},
		Provides:    []pipeline.Field{pipeline.FieldMedia},
		Run: func(ctx context.Context, pc *pipeline.Context) error {
			factor := pc.GainFactor()
			if factor < 0 {
				return services.Wrap(services.ErrConfiguration, ApplyGain, "gain", fmt.Sprintf("gain factor must be >= 0, got %v", factor), nil)
			}
			if factor == 1 {
				return nil
			}
			return pc.SetMedia(pc.Media().WithGain(factor))
		},
	}
}
