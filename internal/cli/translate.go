package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roach88/vqb/internal/mongo"
	"github.com/roach88/vqb/internal/pipeline"
	"github.com/roach88/vqb/internal/querysql"
	"github.com/roach88/vqb/internal/state"
	"github.com/roach88/vqb/internal/translator"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	UpTo   int
	Domain string
}

// SQLQuery is the output of the sqlite backend.
type SQLQuery struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <pipeline-file>",
		Short: "Translate a pipeline with a registered backend",
		Long: `Translate a pipeline file (.json, .yaml or .cue) with the backend
selected by --backend.

mongo36 prints the simplified aggregation stages as Extended JSON. sqlite
prints the compiled SQL statement and its parameters.

Example:
  vqb translate pipeline.yaml
  vqb translate --backend sqlite --upto 2 pipeline.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.UpTo, "upto", state.NoSelection, "translate only the steps up to this index")
	cmd.Flags().StringVar(&opts.Domain, "domain", "", "replace the pipeline domain")

	return cmd
}

func runTranslate(opts *TranslateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	p, err := pipeline.LoadFile(path)
	if err != nil {
		return formatter.Fail("failed to load pipeline", err)
	}

	s := state.New()
	s.SetPipeline(p)
	if opts.Domain != "" {
		s.SetCurrentDomain(opts.Domain)
	}
	if opts.UpTo != state.NoSelection {
		// The prepended domain step shifts the requested index.
		upTo := opts.UpTo
		if len(s.Pipeline) > len(p) {
			upTo++
		}
		if err := s.SelectStep(upTo); err != nil {
			return formatter.Fail("invalid --upto", err)
		}
	}
	active := s.ActivePipeline()
	formatter.VerboseLog("Translating %d of %d step(s) with %s", len(active), len(s.Pipeline), opts.Backend)

	tr, err := translator.Default.New(opts.Backend)
	if err != nil {
		return formatter.Fail("failed to select backend", err)
	}

	switch t := tr.(type) {
	case *mongo.Mongo36:
		stages, err := t.Query(active)
		if err != nil {
			return formatter.Fail("translation failed", err)
		}
		slog.Debug("pipeline translated", "backend", opts.Backend, "stages", len(stages))
		return outputStages(formatter, stages)
	case *querysql.SQLite:
		query, params, err := t.Query(active)
		if err != nil {
			return formatter.Fail("translation failed", err)
		}
		slog.Debug("pipeline translated", "backend", opts.Backend, "params", len(params))
		return outputSQL(formatter, SQLQuery{SQL: query, Params: params})
	default:
		out, err := tr.Translate(active)
		if err != nil {
			return formatter.Fail("translation failed", err)
		}
		return formatter.Success(out, nil)
	}
}

// outputStages prints Mongo stages as a relaxed Extended JSON array.
func outputStages(formatter *OutputFormatter, stages []bson.D) error {
	data, err := pipeline.EncodeDocuments(stages)
	if err != nil {
		return formatter.Fail("failed to encode stages", err)
	}
	return formatter.Success(json.RawMessage(data), func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s\n", data)
		return err
	})
}

// outputSQL prints the statement followed by its JSON-encoded parameters.
func outputSQL(formatter *OutputFormatter, q SQLQuery) error {
	if q.Params == nil {
		q.Params = []any{}
	}
	return formatter.Success(q, func(w io.Writer) error {
		params, err := json.Marshal(q.Params)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n-- params: %s\n", q.SQL, params)
		return err
	})
}
