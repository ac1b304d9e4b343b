package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelcut/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs from the history ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.History.Enabled {
				fmt.Fprintln(out, "History is disabled (history.enabled = false)")
				return nil
			}
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			if id := strings.TrimSpace(runID); id != "" {
				return printRun(cmd, store, id)
			}

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				finished := "running"
				if r.Done() {
					finished = formatElapsed(r.Finished.Sub(r.Started))
				}
				rows = append(rows, []string{
					r.ID,
					r.Started.Local().Format("2006-01-02 15:04:05"),
					strings.Join(r.Stages, ","),
					strconv.Itoa(r.Inputs),
					strconv.Itoa(r.Failed),
					finished,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Stages", "Files", "Failed", "Elapsed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "Show the files and stages of one run")
	return cmd
}

func printRun(cmd *cobra.Command, store *history.Store, runID string) error {
	files, err := store.Files(cmd.Context(), runID)
	if err != nil {
		return err
	}
	events, err := store.Stages(cmd.Context(), runID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(files) == 0 && len(events) == 0 {
		return fmt.Errorf("run %s not found", runID)
	}

	fileRows := make([][]string, 0, len(files))
	for _, f := range files {
		stage := f.Stage
		if stage == "" {
			stage = "-"
		}
		fileRows = append(fileRows, []string{f.Path, f.Status, stage, outputsCell(f.Outputs), formatElapsed(f.Duration)})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"File", "Status", "Stage", "Outputs", "Elapsed"},
		fileRows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))

	stageRows := make([][]string, 0, len(events))
	for _, e := range events {
		outcome := "ok"
		if e.Error != "" {
			outcome = e.ErrorKind + ": " + e.Error
		}
		fragment := "-"
		if e.Fragment >= 0 {
			fragment = strconv.Itoa(e.Fragment + 1)
		}
		stageRows = append(stageRows, []string{e.File, fragment, e.Stage, formatElapsed(e.Duration), outcome})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"File", "Fragment", "Stage", "Elapsed", "Outcome"},
		stageRows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	))
	return nil
}
