package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/goliatone/go-crudgen"
)

func newRoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes generated for the declared models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, _ := cmd.Flags().GetString("prefix")
			app, err := buildApp(cmd.Context(), declarationsPath(cmd),
				crudgen.WithPrefix(prefix),
				crudgen.WithLogger(slogcontext.FromCtx(cmd.Context())),
			)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Name", "Kind", "Methods", "Pattern"})
			for _, route := range app.Routes {
				t.AppendRow(table.Row{
					route.Name,
					string(route.Kind),
					strings.Join(route.Kind.Methods(), ","),
					route.Pattern(prefix),
				})
			}
			style := table.StyleLight
			style.Options.DrawBorder = false
			t.SetStyle(style)
			t.Render()
			return nil
		},
	}
	cmd.Flags().String("prefix", "/", "path the routes are mounted below")
	return cmd
}
