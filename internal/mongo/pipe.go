package mongo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roach88/vqb/internal/pipeline"
	"github.com/roach88/vqb/internal/translator"
)

// PipeToMongo converts a pipeline into simplified Mongo stages.
//
// Errors:
//   - a filter with an operator other than equality: UNSUPPORTED_OPERATOR
//   - an aggregate step: STEP_NOT_SUPPORTED (no single-stage equivalent;
//     use the mongo36 translator)
//   - a nil step: MALFORMED_STEP
//
// An empty pipeline yields an empty stage list.
func PipeToMongo(p pipeline.Pipeline) ([]bson.D, error) {
	out, err := newStructural().Translate(p)
	if err != nil {
		return nil, err
	}
	stages, err := toStages(out)
	if err != nil {
		return nil, err
	}
	return Simplify(stages), nil
}

// newStructural returns the dispatch table shared by PipeToMongo and the
// mongo36 translator: one stage per step, equality filters only, no
// aggregate.
func newStructural() *translator.Base {
	b := translator.NewBase()
	b.Handle(pipeline.KindDomain, domainStage)
	b.Handle(pipeline.KindFilter, equalityFilterStage)
	b.Handle(pipeline.KindSelect, selectStage)
	b.Handle(pipeline.KindRename, renameStage)
	b.Handle(pipeline.KindDelete, deleteStage)
	b.Handle(pipeline.KindNewColumn, newColumnStage)
	b.Handle(pipeline.KindCustom, customStage)
	return b
}

func domainStage(step pipeline.Step) (translator.OutputStep, error) {
	s := step.(*pipeline.Domain)
	return NewStage(OpMatch, bson.D{{Key: "domain", Value: s.Domain}}), nil
}

func equalityFilterStage(step pipeline.Step) (translator.OutputStep, error) {
	s := step.(*pipeline.Filter)
	if !s.IsEquality() {
		return nil, translator.NewUnsupportedOperator(s.Operator)
	}
	return NewStage(OpMatch, bson.D{{Key: s.Column, Value: pipeline.CloneValue(s.Value)}}), nil
}

func selectStage(step pipeline.Step) (translator.OutputStep, error) {
	return NewStage(OpProject, projection(step.(*pipeline.Select).Columns, 1)), nil
}

func renameStage(step pipeline.Step) (translator.OutputStep, error) {
	s := step.(*pipeline.Rename)
	return NewStage(OpProject, bson.D{{Key: s.NewName, Value: "$" + s.OldName}}), nil
}

func deleteStage(step pipeline.Step) (translator.OutputStep, error) {
	return NewStage(OpProject, projection(step.(*pipeline.Delete).Columns, 0)), nil
}

func newColumnStage(step pipeline.Step) (translator.OutputStep, error) {
	s := step.(*pipeline.NewColumn)
	return NewStage(OpProject, bson.D{{Key: s.Column, Value: pipeline.CloneValue(s.Query)}}), nil
}

func customStage(step pipeline.Step) (translator.OutputStep, error) {
	q := pipeline.CloneDocument(step.(*pipeline.Custom).Query)
	if q == nil {
		q = bson.D{}
	}
	return q, nil
}

// projection maps every column to flag (1 keeps, 0 drops).
func projection(columns []string, flag int32) bson.D {
	d := make(bson.D, 0, len(columns))
	for _, c := range columns {
		d = append(d, bson.E{Key: c, Value: flag})
	}
	return d
}

// toStages narrows translator output to stages.
func toStages(out []translator.OutputStep) ([]bson.D, error) {
	stages := make([]bson.D, len(out))
	for i, o := range out {
		st, ok := o.(bson.D)
		if !ok {
			return nil, fmt.Errorf("output %d: expected bson.D stage, got %T", i, o)
		}
		stages[i] = st
	}
	return stages, nil
}
