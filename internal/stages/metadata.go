package stages

import (
	"context"
	"errors"

	"reelcut/internal/logging"
	"reelcut/internal/metadata"
	"reelcut/internal/pipeline"
	"reelcut/internal/stage"
	"reelcut/internal/subtitles"
	"reelcut/internal/textutil"
)

func (b builder) generateMetadata() pipeline.Stage {
	var gen *metadata.Generator
	if b.deps.Provider != nil {
		gen = metadata.NewGenerator(b.deps.Provider, b.deps.MetadataLanguage)
	}
	return pipeline.Stage{
		Name:        GenerateMetadata,
		Description: "Ask the language model for a title, description and hashtags",
		Requires:    []pipeline.Field{pipeline.FieldTranscriptPath, pipeline.FieldStem},
		Provides:    []pipeline.Field{pipeline.FieldMetadataPath},
		Ready: func() error {
			if gen == nil {
				return errors.New("no metadata provider configured (set metadata.api_key)")
			}
			return nil
		},
		Health: func(ctx context.Context) stage.Health {
			if b.deps.Provider == nil {
				return stage.Unhealthy(GenerateMetadata, "metadata provider not configured")
			}
			return stage.FromError(GenerateMetadata, b.deps.Provider.HealthCheck(ctx))
		},
		Run: func(ctx context.Context, pc *pipeline.Context) error {
			cues, err := subtitles.ReadFile(pc.TranscriptPath())
			if err != nil {
				return stage.MediaError(ctx, GenerateMetadata, "read transcript", err)
			}
			md, err := gen.Generate(ctx, subtitles.PlainText(cues), textutil.TitleFromStem(pc.Stem()))
			if err != nil {
				return stage.CollaboratorError(ctx, GenerateMetadata, "generate", "check metadata.provider, metadata.model and the API key", err)
			}
			path := pc.Layout().Metadata(pc.Stem())
			if err := metadata.Write(path, md); err != nil {
				return stage.MediaError(ctx, GenerateMetadata, "write metadata", err)
			}
			pc.SetMetadataPath(path)
			b.log(ctx).Info("metadata written",
				logging.String(logging.FieldEventType, "metadata_complete"),
				logging.String("path", path),
				logging.String("title", md.Title),
				logging.Int("hashtags", len(md.Hashtags)),
			)
			return nil
		},
	}
}
