package main

import (
	"github.com/goalbreaker/goalbreaker-api/internal/generation"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newModelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models goals can be broken down with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load(cmd)
			if err != nil {
				return err
			}

			catalog, err := generation.NewCatalogFromConfig(cfg.LLM)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"ID", "Name", "Description", "Default"})
			for _, m := range catalog.Models() {
				def := ""
				if m.ID == catalog.Default() {
					def = "*"
				}
				t.AppendRow(table.Row{m.ID, m.Name, m.Description, def})
			}
			t.Render()
			return nil
		},
	}
}
