package stages

import (
	"context"
	"errors"
	"fmt"

	"reelcut/internal/logging"
	"reelcut/internal/pipeline"
	"reelcut/internal/stage"
)

func (b builder) saveVideo() pipeline.Stage {
	return pipeline.Stage{
		Name:        SaveVideo,
		Description: "Render the video with pending edits to <stem>_EDITED.mp4",
		Requires:    []pipeline.Field{pipeline.FieldMedia, pipeline.FieldStem},
		Provides:    []pipeline.Field{pipeline.FieldOutputPath},
		Ready:       requireRenderer(b),
		Run:         b.renderWhole(SaveVideo),
	}
}

func (b builder) renderWhole(name string) pipeline.RunFunc {
	return func(ctx context.Context, pc *pipeline.Context) error {
		dest := pc.Layout().Edited(pc.Stem())
		if err := b.deps.Renderer.Render(ctx, pc.Media(), dest); err != nil {
			return stage.MediaError(ctx, name, "render", err)
		}
		pc.SetOutputPath(dest)
		return nil
	}
}

func (b builder) saveJoin() pipeline.Stage {
	return pipeline.Stage{
		Name:        SaveJoin,
		Description: "Concatenate the clips into <stem>_EDITED.mp4 (whole video without clips)",
		Requires:    []pipeline.Field{pipeline.FieldMedia, pipeline.FieldStem},
		Optional:    []pipeline.Field{pipeline.FieldClips},
		Provides:    []pipeline.Field{pipeline.FieldOutputPath},
		Ready:       requireRenderer(b),
		Run: func(ctx context.Context, pc *pipeline.Context) error {
			if !pc.Has(pipeline.FieldClips) {
				return b.renderWhole(SaveJoin)(ctx, pc)
			}
			clips := pc.Clips()
			if len(clips) == 0 {
				b.warnNoClips(ctx, SaveJoin)
				return nil
			}
			dest := pc.Layout().Edited(pc.Stem())
			if err := b.deps.Renderer.RenderClips(ctx, pc.Media(), clips, dest); err != nil {
				return stage.MediaError(ctx, SaveJoin, "render clips", err)
			}
			pc.SetOutputPath(dest)
			return nil
		},
	}
}

func (b builder) saveSeparatedVideo() pipeline.Stage {
	return pipeline.Stage{
		Name:        SaveSeparatedVideo,
		Description: "Write each clip to <stem>_EDITED_<i>.mp4 (whole video without clips)",
		Requires:    []pipeline.Field{pipeline.FieldMedia, pipeline.FieldStem},
		Optional:    []pipeline.Field{pipeline.FieldClips},
		Provides:    []pipeline.Field{pipeline.FieldOutputPaths},
		Ready:       requireRenderer(b),
		Run: func(ctx context.Context, pc *pipeline.Context) error {
			if !pc.Has(pipeline.FieldClips) {
				if err := b.renderWhole(SaveSeparatedVideo)(ctx, pc); err != nil {
					return err
				}
				pc.SetOutputPaths([]string{pc.OutputPath()})
				return nil
			}
			clips := pc.Clips()
			if len(clips) == 0 {
				b.warnNoClips(ctx, SaveSeparatedVideo)
				return nil
			}
			paths := make([]string, 0, len(clips))
			for i, clip := range clips {
				dest := pc.Layout().EditedPart(pc.Stem(), i)
				if err := b.deps.Renderer.RenderClip(ctx, pc.Media(), clip, dest); err != nil {
					return stage.MediaError(ctx, SaveSeparatedVideo, fmt.Sprintf("render clip %d", i), err)
				}
				paths = append(paths, dest)
			}
			pc.SetOutputPaths(paths)
			return nil
		},
	}
}

func (b builder) warnNoClips(ctx context.Context, name string) {
	logging.WarnWithContext(b.log(ctx), "segmentation kept no clips; nothing written", "empty_clips",
		logging.String(logging.FieldImpact, "no output video for this input"),
		logging.String(logging.FieldErrorHint, "lower silence.sound_threshold or disable discard_silence"),
		logging.String("save_stage", name),
	)
}

func (b builder) compress() pipeline.Stage {
	return pipeline.Stage{
		Name:        Compress,
		Description: "Re-encode the saved output to AV1 with Drapto",
		Requires:    []pipeline.Field{pipeline.FieldOutputPath},
		Provides:    []pipeline.Field{pipeline.FieldOutputPath},
		Ready: func() error {
			if b.deps.Compressor == nil {
				return errors.New("no compressor configured")
			}
			return nil
		},
		Health: present(Compress, b.deps.Compressor != nil, "drapto not configured"),
		Run: func(ctx context.Context, pc *pipeline.Context) error {
			out, err := b.deps.Compressor.Encode(ctx, pc.OutputPath(), pc.Layout().Compressed())
			if err != nil {
				return stage.MediaError(ctx, Compress, "encode", err)
			}
			pc.SetOutputPath(out)
			return nil
		},
	}
}
