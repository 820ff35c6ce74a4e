package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/attpc/synchronizer/internal/config"
)

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create a new template config file",
		Long: `Write a template configuration to the path given with -c/--config.

An existing file at that path is overwritten.

Example:
  synchronizer -c config.yml new`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeTemplate(rootOpts, cmd)
		},
	}
}

func writeTemplate(opts *RootOptions, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	cfg := config.Default()
	if err := cfg.Save(opts.Config); err != nil {
		return f.Fail(ExitCommandError, CodeGeneric, "failed to write template", err)
	}

	if opts.Format == "json" {
		return f.Success(map[string]any{"path": opts.Config, "config": cfg})
	}
	return f.Success(fmt.Sprintf("Wrote template configuration to %s", opts.Config))
}
