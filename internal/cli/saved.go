package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/vqb/internal/pipeline"
	"github.com/roach88/vqb/internal/store"
)

// StoreFactory opens the pipeline store. Tests override it to inject
// deterministic IDs and clocks.
var StoreFactory = func(path string) (*store.Store, error) {
	return store.Open(path)
}

// SaveOutput reports the result of the save command.
type SaveOutput struct {
	Revision store.Revision `json:"revision"`
	Inserted bool           `json:"inserted"`
}

// DeleteOutput reports the result of the delete command.
type DeleteOutput struct {
	Name    string `json:"name"`
	Deleted int64  `json:"deleted"`
}

func openStore(opts *RootOptions) (*store.Store, error) {
	slog.Debug("opening database", "path", opts.DBPath)
	st, err := StoreFactory(opts.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// withStore opens the store, runs fn and closes the store.
func withStore(opts *RootOptions, formatter *OutputFormatter, fn func(st *store.Store) error) error {
	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	return fn(st)
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <name> <pipeline-file>",
		Short: "Save a pipeline as the next revision of a name",
		Long: `Save a pipeline file under a name in the database given by --db.

Each save appends a revision. Saving a pipeline identical to the latest
revision is a no-op.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runSave(opts *RootOptions, name, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	p, err := pipeline.LoadFile(path)
	if err != nil {
		return formatter.Fail("failed to load pipeline", err)
	}

	return withStore(opts, formatter, func(st *store.Store) error {
		rev, inserted, err := st.Save(commandContext(cmd), name, p)
		if err != nil {
			return formatter.Fail("failed to save pipeline", err)
		}

		out := SaveOutput{Revision: rev, Inserted: inserted}
		return formatter.Success(out, func(w io.Writer) error {
			if !inserted {
				_, err := fmt.Fprintf(w, "Unchanged: %s revision %d\n", rev.Name, rev.Number)
				return err
			}
			_, err := fmt.Fprintf(w, "✓ Saved %s revision %d (%s)\n", rev.Name, rev.Number, shortFingerprint(rev.Fingerprint))
			return err
		})
	})
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List saved pipelines",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}

	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	return withStore(opts, formatter, func(st *store.Store) error {
		summaries, err := st.List(commandContext(cmd))
		if err != nil {
			return formatter.Fail("failed to list pipelines", err)
		}

		return formatter.Success(summaries, func(w io.Writer) error {
			if len(summaries) == 0 {
				_, err := fmt.Fprintln(w, "No saved pipelines.")
				return err
			}
			for _, s := range summaries {
				if _, err := fmt.Fprintf(w, "%s\trev %d\t%d step(s)\t%s\t%s\n",
					s.Name, s.Latest, s.Steps, shortFingerprint(s.Fingerprint), formatSavedAt(s.SavedAt)); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var revision int64

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved pipeline",
		Long: `Print the latest revision of a saved pipeline, or the revision given
by --revision.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], revision, cmd)
		},
	}

	cmd.Flags().Int64Var(&revision, "revision", 0, "revision number (default latest)")

	return cmd
}

func runShow(opts *RootOptions, name string, revision int64, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	return withStore(opts, formatter, func(st *store.Store) error {
		var (
			rev store.Revision
			err error
		)
		if revision > 0 {
			rev, err = st.Get(commandContext(cmd), name, revision)
		} else {
			rev, err = st.Latest(commandContext(cmd), name)
		}
		if err != nil {
			return formatter.Fail(fmt.Sprintf("failed to load %q", name), err)
		}

		if formatter.Format == "json" {
			return formatter.Success(rev, nil)
		}
		fmt.Fprintf(formatter.Writer, "# %s revision %d (%s) saved %s\n",
			rev.Name, rev.Number, shortFingerprint(rev.Fingerprint), formatSavedAt(rev.SavedAt))
		return outputPipeline(formatter, rev.Pipeline)
	})
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "history <name>",
		Short:         "List the revisions of a saved pipeline",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runHistory(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	return withStore(opts, formatter, func(st *store.Store) error {
		revisions, err := st.History(commandContext(cmd), name)
		if err != nil {
			return formatter.Fail(fmt.Sprintf("failed to load history of %q", name), err)
		}
		if len(revisions) == 0 {
			return formatter.Fail(fmt.Sprintf("failed to load history of %q", name), store.ErrNotFound)
		}

		return formatter.Success(revisions, func(w io.Writer) error {
			return writeRevisions(w, revisions)
		})
	})
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a saved pipeline and all its revisions",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDelete(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	return withStore(opts, formatter, func(st *store.Store) error {
		n, err := st.Delete(commandContext(cmd), name)
		if err != nil {
			return formatter.Fail(fmt.Sprintf("failed to delete %q", name), err)
		}

		out := DeleteOutput{Name: name, Deleted: n}
		return formatter.Success(out, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "✓ Deleted %s (%d revision(s))\n", name, n)
			return err
		})
	})
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <pipeline-file>",
		Short: "Find saved revisions identical to a pipeline",
		Long: `Fingerprint a pipeline file and list every saved revision with the
same fingerprint, whatever its name.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runFind(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	p, err := pipeline.LoadFile(path)
	if err != nil {
		return formatter.Fail("failed to load pipeline", err)
	}
	fingerprint, err := pipeline.Fingerprint(p)
	if err != nil {
		return formatter.Fail("failed to fingerprint pipeline", err)
	}
	formatter.VerboseLog("Fingerprint: %s", fingerprint)

	return withStore(opts, formatter, func(st *store.Store) error {
		revisions, err := st.FindByFingerprint(commandContext(cmd), fingerprint)
		if err != nil {
			return formatter.Fail("failed to search revisions", err)
		}

		return formatter.Success(revisions, func(w io.Writer) error {
			if len(revisions) == 0 {
				_, err := fmt.Fprintln(w, "No matching revisions.")
				return err
			}
			return writeRevisions(w, revisions)
		})
	})
}

func writeRevisions(w io.Writer, revisions []store.Revision) error {
	for _, rev := range revisions {
		if _, err := fmt.Fprintf(w, "%s\trev %d\t%d step(s)\t%s\t%s\n",
			rev.Name, rev.Number, len(rev.Pipeline), shortFingerprint(rev.Fingerprint), formatSavedAt(rev.SavedAt)); err != nil {
			return err
		}
	}
	return nil
}

// shortFingerprint abbreviates a fingerprint for text output.
func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func formatSavedAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
