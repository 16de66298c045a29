package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/vqb/internal/mongo"
	"github.com/roach88/vqb/internal/pipeline"
	"github.com/roach88/vqb/internal/querysql"
	"github.com/roach88/vqb/internal/translator"
)

// Codes recorded for failures that are not translator errors.
const (
	CodeMalformedStep = "MALFORMED_STEP"
	CodeNoDomain      = "NO_DOMAIN"
	CodeError         = "ERROR"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load the pipeline file
//  2. Translate it with every requested backend
//  3. Evaluate assertions
//
// Translation failures are recorded in the result, not returned. Run
// returns an error only when the pipeline cannot be loaded or ctx is done.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	p, err := pipeline.LoadFile(scenario.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}

	backends := scenario.Backends
	if len(backends) == 0 {
		backends = translator.Default.Names()
	}

	result := NewResult()
	for _, name := range backends {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Translations = append(result.Translations, translate(name, p))
	}

	slog.Debug("scenario executed", "scenario", scenario.Name, "backends", len(backends))

	for _, err := range EvaluateAssertions(p, result, scenario.Assertions) {
		result.AddError(err.Error())
	}

	return result, nil
}

// translate renders p with the named backend.
func translate(name string, p pipeline.Pipeline) Translation {
	out, err := Render(name, p)
	if err != nil {
		return Translation{Backend: name, Code: ErrorCode(err), Error: err.Error()}
	}
	return Translation{Backend: name, Output: out}
}

// Render translates p with the named backend and formats the result the
// way the translate command prints it: an Extended JSON stage array for
// mongo36, the statement and its parameters for sqlite.
func Render(name string, p pipeline.Pipeline) (string, error) {
	tr, err := translator.Default.New(name)
	if err != nil {
		return "", err
	}

	switch t := tr.(type) {
	case *mongo.Mongo36:
		stages, err := t.Query(p)
		if err != nil {
			return "", err
		}
		data, err := pipeline.EncodeDocuments(stages)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case *querysql.SQLite:
		query, params, err := t.Query(p)
		if err != nil {
			return "", err
		}
		if params == nil {
			params = []any{}
		}
		data, err := json.Marshal(params)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s\n-- params: %s", query, data), nil
	default:
		out, err := tr.Translate(p)
		if err != nil {
			return "", err
		}
		data, err := json.Marshal(out)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// ErrorCode categorizes a translation failure.
func ErrorCode(err error) string {
	var terr *translator.Error
	switch {
	case errors.As(err, &terr):
		return string(terr.Code)
	case errors.Is(err, pipeline.ErrMalformedStep):
		return CodeMalformedStep
	case errors.Is(err, querysql.ErrNoDomain):
		return CodeNoDomain
	default:
		return CodeError
	}
}
