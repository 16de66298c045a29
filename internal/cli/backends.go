package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vqb/internal/pipeline"
	"github.com/roach88/vqb/internal/translator"
)

// BackendInfo describes the capabilities of one registered translator.
type BackendInfo struct {
	Name        string          `json:"name"`
	Supported   []pipeline.Kind `json:"supported"`
	Unsupported []pipeline.Kind `json:"unsupported"`
}

// StepSupport lists the backends handling one step kind.
type StepSupport struct {
	Step     pipeline.Kind `json:"step"`
	Backends []string      `json:"backends"`
}

// NewBackendsCommand creates the backends command.
func NewBackendsCommand(rootOpts *RootOptions) *cobra.Command {
	var step string

	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List registered translators and their capabilities",
		Long: `List the registered translator backends with the step kinds each one
supports. With --step, list only the backends supporting that kind.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackends(rootOpts, step, cmd)
		},
	}

	cmd.Flags().StringVar(&step, "step", "", "only list backends supporting this step kind")

	return cmd
}

func runBackends(opts *RootOptions, step string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if step != "" {
		kind, err := pipeline.ParseKind(step)
		if err != nil {
			return formatter.Fail("invalid --step", err)
		}
		support := StepSupport{Step: kind, Backends: translator.BackendsSupporting(kind)}
		return formatter.Success(support, func(w io.Writer) error {
			for _, name := range support.Backends {
				if _, err := fmt.Fprintln(w, name); err != nil {
					return err
				}
			}
			return nil
		})
	}

	var infos []BackendInfo
	for _, name := range translator.Default.Names() {
		tr, err := translator.Default.New(name)
		if err != nil {
			return formatter.Fail("failed to create backend", err)
		}
		infos = append(infos, BackendInfo{
			Name:        name,
			Supported:   tr.SupportedSteps(),
			Unsupported: tr.UnsupportedSteps(),
		})
	}

	return formatter.Success(infos, func(w io.Writer) error {
		for _, info := range infos {
			if _, err := fmt.Fprintf(w, "%s\n  supported:   %s\n  unsupported: %s\n",
				info.Name, joinKinds(info.Supported), joinKinds(info.Unsupported)); err != nil {
				return err
			}
		}
		return nil
	})
}

func joinKinds(kinds []pipeline.Kind) string {
	if len(kinds) == 0 {
		return "-"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
