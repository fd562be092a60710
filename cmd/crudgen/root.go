package main

import (
	"os"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/goliatone/go-crudgen/internal/cli/log"
	"github.com/goliatone/go-crudgen/pkg/config"
)

const declarationsFlag = "declarations"

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := New().Execute(); err != nil {
		os.Exit(1)
	}
}

// New builds the crudgen command tree.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crudgen [sub-command]",
		Short: "Serve and inspect CRUD views generated from model declarations",
		Long: `crudgen reads model declarations (YAML, TOML or JSON) and generates list,
detail, create, update and delete views for every concrete model.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := log.GetBaseLogger(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(slogcontext.NewCtx(cmd.Context(), logger))
			return nil
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	log.RegisterLoggingFlags(cmd)
	cmd.PersistentFlags().StringP(declarationsFlag, "d", "",
		`declaration file or directory (defaults to $CRUDGEN_DECLARATIONS or "`+config.DefaultDeclarations+`")`)

	cmd.AddCommand(
		newServeCmd(),
		newRoutesCmd(),
		newOpenAPICmd(),
		newInitCmd(),
		newEventsCmd(),
	)
	return cmd
}

func declarationsPath(cmd *cobra.Command) string {
	if flag := cmd.Flag(declarationsFlag); flag != nil && flag.Value.String() != "" {
		return flag.Value.String()
	}
	if path := os.Getenv("CRUDGEN_DECLARATIONS"); path != "" {
		return path
	}
	return config.DefaultDeclarations
}
