package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelcut/internal/pipeline"
	"reelcut/internal/stages"
)

func newStagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "stages",
		Short:       "List the available pipeline stages",
		Annotations: map[string]string{skipConfigLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Listing needs no collaborators; unbound stages still describe
			// their fields.
			reg, err := stages.NewRegistry(stages.Deps{})
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(reg.Names()))
			for _, s := range reg.Stages() {
				rows = append(rows, []string{
					s.Name,
					joinFields(s.Requires),
					joinFields(s.Provides),
					s.Description,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Stage", "Requires", "Provides", "Description"},
				rows,
				nil,
			))
			fmt.Fprintln(out, "Every context starts with: "+joinFields(pipeline.SeedFields))
			return nil
		},
	}
}

func joinFields(fields []pipeline.Field) string {
	if len(fields) == 0 {
		return "-"
	}
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
