package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"reelcut/internal/workflow"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderSummary formats the per-file outcome of a run.
func renderSummary(summary workflow.Summary) string {
	rows := make([][]string, 0, len(summary.Files))
	for _, f := range summary.Files {
		stage := f.Stage
		if stage == "" {
			stage = "-"
		}
		rows = append(rows, []string{
			filepath.Base(f.Path),
			string(f.Status),
			stage,
			outputsCell(f.Outputs),
			formatElapsed(f.Elapsed),
		})
	}
	out := renderTable(
		[]string{"File", "Status", "Stage", "Outputs", "Elapsed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
	return fmt.Sprintf("%s\n%d succeeded, %d failed, %d skipped in %s",
		out,
		summary.Count(workflow.StatusSucceeded),
		summary.Count(workflow.StatusFailed),
		summary.Count(workflow.StatusSkipped),
		formatElapsed(summary.Elapsed),
	)
}

func outputsCell(outputs []string) string {
	if len(outputs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(outputs))
	for _, o := range outputs {
		names = append(names, filepath.Base(o))
	}
	return strings.Join(names, "\n")
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
