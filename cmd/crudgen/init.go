package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/goliatone/go-crudgen/internal/prompt"
	"github.com/goliatone/go-crudgen/pkg/config"
)

// promptDriver builds the interactive driver; tests replace it.
var promptDriver = prompt.NewSurveyDriver

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a YAML declaration file by answering a few questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _ := cmd.Flags().GetString("app")
			force, _ := cmd.Flags().GetBool("force")
			path := declarationsPath(cmd)

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite it", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			drafts, err := prompt.AuthorModels(cmd.Context(), promptDriver(), app)
			if err != nil {
				return err
			}
			data, err := config.EncodeYAML(drafts...)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			slogcontext.FromCtx(cmd.Context()).Info("declarations written", "path", path, "models", len(drafts))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d model(s) to %s\n", len(drafts), path)
			return err
		},
	}
	cmd.Flags().String("app", "main", "app label of the declared models")
	cmd.Flags().Bool("force", false, "overwrite an existing declaration file")
	return cmd
}
