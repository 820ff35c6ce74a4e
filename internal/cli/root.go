package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/attpc/synchronizer/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config  string
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the synchronizer command. Without a subcommand it
// synchronizes the configured runs.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	syncOpts := &SyncOptions{RootOptions: opts}

	cmd := &cobra.Command{
		Use:   "synchronizer",
		Short: "Synchronize AT-TPC GET and FRIB event streams",
		Long: `Synchronize the GET and FRIB data of AT-TPC merger runs by their
timestamps.

The two DAQs are clocked independently and may lose or gain events
relative to each other. The synchronizer aligns both timestamp streams,
absorbs extra FRIB events and writes one synchronized container per run
to the sync path.

Exit codes:
  0 - All runs synchronized (missing runs are skipped)
  1 - A run failed
  2 - Command error (bad configuration, missing directories, etc.)

Examples:
  synchronizer -c config.yml
  synchronizer -c config.yml new
  synchronizer -c config.yml plan 55 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if !isValidFormat(opts.Format) {
				return f.Fail(ExitCommandError, CodeGeneric, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			if opts.Config == "" {
				return f.Fail(ExitCommandError, CodeGeneric, "a configuration file is required (-c/--config)", nil)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(syncOpts, cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to a configuration file (YAML)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.Flags().IntVar(&syncOpts.Jobs, "jobs", 0, "runs processed concurrently (overrides the configuration)")

	cmd.AddCommand(NewNewCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newLogger builds the text logger used by every command and installs it
// as the default.
func newLogger(verbose bool, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// loadConfig loads the configuration and maps failures to command errors.
func loadConfig(opts *RootOptions, f *OutputFormatter) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, f.Fail(ExitCommandError, CodeInvalidConfig, "failed to load configuration", err)
	}
	return cfg, nil
}
