package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags processFlags
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:   "reelcut [flags] <video>...",
		Short: "Cut silence, transcribe and package talking-head videos",
		Long: `reelcut runs an ordered pipeline of stages over each input video.

Stages are given with --pipeline (comma separated) or pipeline.stages in the
config file, for example:

  reelcut --pipeline trim_by_silence,save_join talk.mp4
  reelcut --pipeline denoise,transcript,subtitles,save_video --metadata talk.mp4

Run "reelcut stages" for the full list.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runProcess(cmd, ctx, &flags, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.configFlag, "config", "", "Configuration file (default ~/.config/reelcut/config.toml)")
	flags.register(rootCmd)

	rootCmd.AddCommand(newStagesCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
