package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/vqb/internal/mongo"
	"github.com/roach88/vqb/internal/pipeline"
)

// NewToMongoCommand creates the to-mongo command.
func NewToMongoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "to-mongo <pipeline-file>",
		Short: "Convert a pipeline to Mongo stages",
		Long: `Convert a pipeline into MongoDB aggregation stages with the strict
structural converter: only equality filters are accepted and aggregate
steps are rejected. Adjacent $match and $project stages are merged.

Use "vqb translate --backend mongo36" for the full translator.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToMongo(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runToMongo(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	p, err := pipeline.LoadFile(path)
	if err != nil {
		return formatter.Fail("failed to load pipeline", err)
	}

	stages, err := mongo.PipeToMongo(p)
	if err != nil {
		return formatter.Fail("conversion failed", err)
	}
	formatter.VerboseLog("Converted %d step(s) into %d stage(s)", len(p), len(stages))

	return outputStages(formatter, stages)
}

// NewFromMongoCommand creates the from-mongo command.
func NewFromMongoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "from-mongo <stages-file>",
		Short: "Convert Mongo stages to a pipeline",
		Long: `Convert a list of MongoDB $match and $project stages into pipeline
steps. The stages file is a .json or .yaml list, or a .cue file declaring
a "stages" list.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFromMongo(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runFromMongo(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	stages, err := pipeline.LoadDocumentsFile(path)
	if err != nil {
		return formatter.Fail("failed to load stages", err)
	}

	p, err := mongo.MongoToPipe(stages)
	if err != nil {
		return formatter.Fail("conversion failed", err)
	}
	formatter.VerboseLog("Converted %d stage(s) into %d step(s)", len(stages), len(p))

	return outputPipeline(formatter, p)
}

// outputPipeline prints a pipeline as its JSON step list.
func outputPipeline(formatter *OutputFormatter, p pipeline.Pipeline) error {
	data, err := json.Marshal(p)
	if err != nil {
		return formatter.Fail("failed to encode pipeline", err)
	}
	return formatter.Success(json.RawMessage(data), func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s\n", data)
		return err
	})
}
