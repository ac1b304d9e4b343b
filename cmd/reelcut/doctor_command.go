package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reelcut/internal/logging"
	"reelcut/internal/preflight"
	"reelcut/internal/stage"
	"reelcut/internal/workflow"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories and provider credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			anchor, err := os.Executable()
			if err != nil {
				anchor = ""
			}
			statuses := preflight.CheckSystemDeps(cfg, anchor)

			tk, err := buildToolkit(cmd.Context(), cfg, logging.NewNop(), nil)
			if err != nil {
				return err
			}
			defer tk.Close()
			results := preflight.RunAll(cmd.Context(), cfg, tk.probes(cfg)...)

			mgr := workflow.NewManager(cfg, tk.registry, tk.decoder, tk.encoder, logging.NewNop())
			_, planErr := mgr.Plan()
			healths := mgr.Health(cmd.Context())

			var lines []string
			lines = append(lines, renderSectionHeader("External tools", colorize)...)
			lines = append(lines, dependencyLines(statuses, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Directories and services", colorize)...)
			lines = append(lines, preflightLines(results, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Pipeline", colorize)...)
			if planErr != nil {
				lines = append(lines, renderStatusLine("Plan", statusError, planErr.Error(), colorize))
			} else {
				lines = append(lines, renderStatusLine("Plan", statusOK, fmt.Sprintf("%d stages", len(healths)), colorize))
			}
			lines = append(lines, healthLines(healths, colorize)...)
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}

			if preflight.Failed(statuses) || !preflight.Passed(results) || planErr != nil || !stage.AllReady(healths) {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}
}
