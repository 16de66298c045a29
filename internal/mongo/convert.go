package mongo

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roach88/vqb/internal/pipeline"
)

// MongoToPipe converts Mongo stages into pipeline steps, in stage order.
//
// The only error is a malformed stage: a stage without exactly one operator
// key, a $match or $project whose body is not a document, or a $match with a
// non-string domain. The error wraps pipeline.ErrMalformedStep.
func MongoToPipe(stages []bson.D) (pipeline.Pipeline, error) {
	out := pipeline.Pipeline{}
	for i, stage := range stages {
		if len(stage) != 1 {
			return nil, fmt.Errorf("%w: stage %d must hold exactly one operator, got %d keys",
				pipeline.ErrMalformedStep, i, len(stage))
		}

		var steps []pipeline.Step
		switch stage[0].Key {
		case OpMatch:
			body, err := stageBody(i, stage)
			if err != nil {
				return nil, err
			}
			if steps, err = fromMatch(body); err != nil {
				return nil, fmt.Errorf("stage %d (%s): %w", i, OpMatch, err)
			}
		case OpProject:
			body, err := stageBody(i, stage)
			if err != nil {
				return nil, err
			}
			steps = fromProject(body)
		default:
			steps = []pipeline.Step{&pipeline.Custom{Query: pipeline.CloneDocument(stage)}}
		}
		out = append(out, steps...)
	}
	return out, nil
}

// fromMatch emits the domain step, if any, then one filter per remaining
// column sorted by column name.
func fromMatch(body bson.D) ([]pipeline.Step, error) {
	var steps []pipeline.Step
	var filters bson.D
	for _, e := range body {
		if e.Key != "domain" {
			filters = append(filters, e)
			continue
		}
		domain, ok := e.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: domain must be a string, got %T", pipeline.ErrMalformedStep, e.Value)
		}
		steps = append(steps, &pipeline.Domain{Domain: domain})
	}

	slices.SortStableFunc(filters, func(a, b bson.E) int { return cmp.Compare(a.Key, b.Key) })
	for _, e := range filters {
		steps = append(steps, &pipeline.Filter{Column: e.Key, Value: pipeline.CloneValue(e.Value)})
	}
	return steps, nil
}

// fromProject classifies projection entries and emits them grouped as
// select, renames, delete, then new columns.
func fromProject(body bson.D) []pipeline.Step {
	var (
		selected []string
		renames  []pipeline.Step
		deleted  []string
		computed []pipeline.Step
	)

	for _, e := range body {
		switch spec := e.Value.(type) {
		case string:
			switch {
			case spec == "$"+e.Key:
				selected = append(selected, e.Key)
			case strings.HasPrefix(spec, "$"):
				renames = append(renames, &pipeline.Rename{OldName: spec[1:], NewName: e.Key})
			default:
				computed = append(computed, &pipeline.NewColumn{Column: e.Key, Query: spec})
			}
		case bool:
			if spec {
				selected = append(selected, e.Key)
			} else {
				deleted = append(deleted, e.Key)
			}
		default:
			zero, numeric := isZero(spec)
			switch {
			case !numeric:
				computed = append(computed, &pipeline.NewColumn{Column: e.Key, Query: pipeline.CloneValue(spec)})
			case zero:
				deleted = append(deleted, e.Key)
			default:
				selected = append(selected, e.Key)
			}
		}
	}

	var steps []pipeline.Step
	if len(selected) > 0 {
		steps = append(steps, &pipeline.Select{Columns: selected})
	}
	steps = append(steps, renames...)
	if len(deleted) > 0 {
		steps = append(steps, &pipeline.Delete{Columns: deleted})
	}
	return append(steps, computed...)
}

// isZero reports whether v is numeric and, if so, whether it equals zero.
func isZero(v any) (zero, numeric bool) {
	switch n := v.(type) {
	case int:
		return n == 0, true
	case int32:
		return n == 0, true
	case int64:
		return n == 0, true
	case float64:
		return n == 0, true
	case float32:
		return n == 0, true
	default:
		return false, false
	}
}
