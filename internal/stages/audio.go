package stages

import (
	"context"
	"errors"

	"reelcut/internal/logging"
	"reelcut/internal/pipeline"
	"reelcut/internal/stage"
	"reelcut/internal/subtitles"
)

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

func (b builder) denoise() pipeline.Stage {
	return pipeline.Stage{
		Name:        Denoise,
		Description: "Extract the audio track, denoise it and swap it into the video",
		Requires:    []pipeline.Field{pipeline.FieldMedia, pipeline.FieldStem},
		Provides:    []pipeline.Field{pipeline.FieldAudioPath, pipeline.FieldDenoisedPath, pipeline.FieldMedia},
		Ready: func() error {
			if b.deps.Denoiser == nil {
				return errors.New("no denoiser configured")
			}
			return requireRenderer(b)()
		},
		Health: present(Denoise, b.deps.Denoiser != nil, "denoiser not configured"),
		Run: func(ctx context.Context, pc *pipeline.Context) error {
			layout := pc.Layout()
			audio := layout.Audio(pc.Stem())
			if err := b.deps.Renderer.ExtractAudio(ctx, pc.Media(), audio); err != nil {
				return stage.MediaError(ctx, Denoise, "extract audio", err)
			}
			pc.SetAudioPath(audio)

			denoised := layout.Denoised(pc.Stem())
			if err := b.deps.Denoiser.Denoise(ctx, audio, denoised); err != nil {
				return stage.CollaboratorError(ctx, Denoise, "denoise", "check denoise.method and denoise.model_path", err)
			}
			pc.SetDenoisedPath(denoised)
			return pc.SetMedia(pc.Media().WithAudio(denoised))
		},
	}
}

func (b builder) transcript() pipeline.Stage {
	return pipeline.Stage{
		Name:        Transcript,
		Description: "Transcribe the audio track into <stem>_transcript.srt",
		Requires:    []pipeline.Field{pipeline.FieldMedia, pipeline.FieldStem},
		Provides:    []pipeline.Field{pipeline.FieldAudioPath, pipeline.FieldTranscriptPath},
		Ready: func() error {
			if b.deps.Transcriber == nil {
				return errors.New("no transcriber configured")
			}
			return requireRenderer(b)()
		},
		Health: func(ctx context.Context) stage.Health {
			if b.deps.Transcriber == nil {
				return stage.Unhealthy(Transcript, "transcriber not configured")
			}
			if hc, ok := b.deps.Transcriber.(healthChecker); ok {
				return stage.FromError(Transcript, hc.HealthCheck(ctx))
			}
			return stage.Healthy(Transcript)
		},
		Run: func(ctx context.Context, pc *pipeline.Context) error {
			layout := pc.Layout()
			audio := layout.Audio(pc.Stem())
			if err := b.deps.Renderer.ExtractAudio(ctx, pc.Media(), audio); err != nil {
				return stage.MediaError(ctx, Transcript, "extract audio", err)
			}
			pc.SetAudioPath(audio)

			cues, err := b.deps.Transcriber.Transcribe(ctx, audio)
			if err != nil {
				return stage.CollaboratorError(ctx, Transcript, "transcribe", "check the transcription backend settings", err)
			}
			logger := b.log(ctx)
			cues, removed := subtitles.FilterHallucinations(cues)
			for _, r := range removed {
				logger.Debug("dropped transcript cue",
					logging.String("reason", r.Reason),
					logging.Float64("start", r.Cue.Start),
					logging.String("text", r.Cue.Text),
				)
			}
			for _, issue := range subtitles.Validate(cues, pc.Media().Duration()) {
				logging.WarnWithContext(logger, "transcript validation issue", "transcript_issue",
					logging.String("issue", issue),
					logging.String(logging.FieldImpact, "subtitles or metadata may be incomplete"),
				)
			}

			path := layout.Transcript(pc.Stem())
			if err := subtitles.WriteFile(path, cues); err != nil {
				return stage.MediaError(ctx, Transcript, "write transcript", err)
			}
			pc.SetTranscriptPath(path)
			logger.Info("transcript written",
				logging.String(logging.FieldEventType, "transcript_complete"),
				logging.String("path", path),
				logging.Int("cues", len(cues)),
				logging.Int("dropped", len(removed)),
			)
			return nil
		},
	}
}
