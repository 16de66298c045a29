package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/vqb/internal/config"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose    bool
	Format     string
	DBPath     string
	Backend    string
	ConfigFile string
}

// NewRootCommand creates the root vqb command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	v := config.New()

	cmd := &cobra.Command{
		Use:   "vqb",
		Short: "vqb - visual query builder pipelines",
		Long: `vqb translates visual query builder pipelines into backend queries.

A pipeline is an ordered list of steps (domain, filter, select, rename,
delete, newcolumn, aggregate, custom). Registered translators turn it into
a MongoDB aggregation pipeline or a SQLite query, and Mongo stage lists
convert back into pipelines. Pipelines can be saved with their revision
history in a local SQLite database.

Settings come from flags, VQB_* environment variables and vqb.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(v, cmd.ErrOrStderr())
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, config.KeyVerbose, "v", false, "enable verbose output")
	flags.StringVar(&opts.Format, config.KeyFormat, "text", "output format (text|json)")
	flags.StringVar(&opts.DBPath, config.KeyDB, "vqb.db", "path to the SQLite database holding saved pipelines")
	flags.StringVar(&opts.Backend, config.KeyBackend, "mongo36", "translator backend")
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default ./vqb.yaml)")

	for _, key := range []string{config.KeyVerbose, config.KeyFormat, config.KeyDB, config.KeyBackend} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}

	cmd.AddCommand(
		NewTranslateCommand(opts),
		NewToMongoCommand(opts),
		NewFromMongoCommand(opts),
		NewBackendsCommand(opts),
		NewValidateCommand(opts),
		NewSaveCommand(opts),
		NewListCommand(opts),
		NewShowCommand(opts),
		NewHistoryCommand(opts),
		NewDeleteCommand(opts),
		NewFindCommand(opts),
		NewTestCommand(opts),
	)

	return cmd
}

// load resolves flags, environment and config file into opts and sets up
// logging.
func (opts *RootOptions) load(v *viper.Viper, logOut io.Writer) error {
	cfg, err := config.Load(v, opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(logOut, "Error [%s]: invalid configuration: %v\n", ErrCodeGeneric, err)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	opts.Verbose = cfg.Verbose
	opts.Format = cfg.Format
	opts.DBPath = cfg.DBPath
	opts.Backend = cfg.Backend

	configureLogging(logOut, opts.Verbose)
	slog.Debug("configuration loaded", "db", opts.DBPath, "backend", opts.Backend, "format", opts.Format)
	return nil
}

// configureLogging installs the default slog handler: info level, debug
// with --verbose.
func configureLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// newFormatter builds the formatter for cmd from the resolved options.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
