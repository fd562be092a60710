package main

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/goliatone/go-crudgen"
	"github.com/goliatone/go-crudgen/pkg/openapi"
)

func newOpenAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print an OpenAPI 3 description of the generated routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			prefix, _ := flags.GetString("prefix")
			format, _ := flags.GetString("format")
			title, _ := flags.GetString("title")
			version, _ := flags.GetString("version")
			server, _ := flags.GetString("server")

			var encode func(*openapi3.T) ([]byte, error)
			switch format {
			case "json":
				encode = openapi.JSON
			case "yaml":
				encode = openapi.YAML
			default:
				return fmt.Errorf("invalid format %q (json, yaml)", format)
			}

			app, err := buildApp(cmd.Context(), declarationsPath(cmd),
				crudgen.WithPrefix(prefix),
				crudgen.WithLogger(slogcontext.FromCtx(cmd.Context())),
			)
			if err != nil {
				return err
			}
			doc, err := openapi.Build(cmd.Context(), app.Routes, prefix,
				openapi.WithTitle(title),
				openapi.WithVersion(version),
				openapi.WithServer(server),
			)
			if err != nil {
				return err
			}
			out, err := encode(doc)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().String("prefix", "/", "path the routes are mounted below")
	cmd.Flags().StringP("format", "o", "yaml", "output format (json, yaml)")
	cmd.Flags().String("title", "crudgen", "document title")
	cmd.Flags().String("version", "0.0.0", "document version")
	cmd.Flags().String("server", "", "server URL added to the document")
	return cmd
}
