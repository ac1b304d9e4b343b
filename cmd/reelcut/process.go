package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelcut/internal/config"
	"reelcut/internal/workflow"
)

// processFlags override the matching config values when set on the command
// line.
type processFlags struct {
	pipeline       []string
	clipInterval   float64
	soundThreshold float64
	discardSilence bool
	gainFactor     float64
	metadata       bool
	splitSize      int
	combine        bool
	keepFragments  bool
	workers        int
}

func (f *processFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.pipeline, "pipeline", nil, "Stages to apply, in order (comma separated)")
	fs.Float64VarP(&f.clipInterval, "clip-interval", "c", 2, "Silence sampling window in seconds")
	fs.Float64VarP(&f.soundThreshold, "sound-threshold", "s", 0.01, "RMS amplitude at or below which a window is silent")
	fs.BoolVarP(&f.discardSilence, "discard-silence", "d", false, "Drop silent segments instead of keeping them")
	fs.Float64VarP(&f.gainFactor, "gain", "g", 1.0, "Audio gain factor (2.0 doubles the volume)")
	fs.BoolVar(&f.metadata, "metadata", false, "Generate title, description and hashtags after the pipeline")
	fs.IntVar(&f.splitSize, "split-size", 0, "Split inputs larger than this many MB into fragments")
	fs.BoolVar(&f.combine, "combine", false, "Join processed fragments back into one file")
	fs.BoolVar(&f.keepFragments, "keep-fragments", false, "Keep fragment files after the run")
	fs.IntVarP(&f.workers, "workers", "j", 1, "Number of files processed concurrently")
}

// apply copies every flag the user set into cfg and revalidates it.
func (f *processFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("pipeline") {
		stages := make([]string, 0, len(f.pipeline))
		for _, name := range f.pipeline {
			name = strings.ToLower(strings.TrimSpace(name))
			if name != "" {
				stages = append(stages, name)
			}
		}
		cfg.Pipeline.Stages = stages
	}
	if changed("clip-interval") {
		cfg.Silence.ClipInterval = f.clipInterval
	}
	if changed("sound-threshold") {
		cfg.Silence.SoundThreshold = f.soundThreshold
	}
	if changed("discard-silence") {
		cfg.Silence.DiscardSilence = f.discardSilence
	}
	if changed("gain") {
		cfg.Audio.GainFactor = f.gainFactor
	}
	if changed("metadata") {
		cfg.Pipeline.Metadata = f.metadata
	}
	if changed("split-size") {
		cfg.Split.SizeMB = f.splitSize
	}
	if changed("combine") {
		cfg.Split.Combine = f.combine
	}
	if changed("keep-fragments") {
		cfg.Split.KeepFragments = f.keepFragments
	}
	if changed("workers") && f.workers > 0 {
		cfg.Pipeline.FileWorkers = f.workers
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

func runProcess(cmd *cobra.Command, ctx *commandContext, flags *processFlags, inputs []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := flags.apply(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	logger, err := ctx.logger(cfg)
	if err != nil {
		return err
	}

	tk, err := buildToolkit(cmd.Context(), cfg, logger, progressWriter(cfg))
	if err != nil {
		return err
	}
	defer tk.Close()

	opts, err := tk.managerOptions(cfg, logger)
	if err != nil {
		return err
	}
	mgr := workflow.NewManager(cfg, tk.registry, tk.decoder, tk.encoder, logger, opts...)

	summary, runErr := mgr.Run(cmd.Context(), inputs)
	if len(summary.Files) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
	}
	if runErr != nil {
		return runErr
	}
	if failed := summary.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(summary.Files))
	}
	return nil
}
