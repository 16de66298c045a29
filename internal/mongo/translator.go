package mongo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roach88/vqb/internal/pipeline"
	"github.com/roach88/vqb/internal/translator"
)

// Backend is the registry name of the Mongo translator.
const Backend = "mongo36"

func init() {
	translator.Register(Backend, func() translator.Translator { return NewMongo36() })
}

// comparisons maps filter operators to Mongo query operators.
var comparisons = map[string]string{
	pipeline.OpNe:  "$ne",
	pipeline.OpGt:  "$gt",
	pipeline.OpGe:  "$gte",
	pipeline.OpLt:  "$lt",
	pipeline.OpLe:  "$lte",
	pipeline.OpIn:  "$in",
	pipeline.OpNin: "$nin",
}

// accumulators maps aggregation functions to $group accumulators.
var accumulators = map[string]string{
	pipeline.AggSum:   "$sum",
	pipeline.AggAvg:   "$avg",
	pipeline.AggCount: "$sum",
	pipeline.AggMin:   "$min",
	pipeline.AggMax:   "$max",
}

// Mongo36 translates pipelines into MongoDB 3.6 aggregation stages.
// It supports every step kind.
type Mongo36 struct {
	*translator.Base
}

// NewMongo36 creates the translator.
func NewMongo36() *Mongo36 {
	t := &Mongo36{Base: newStructural()}
	t.Handle(pipeline.KindFilter, filterStage)
	t.Handle(pipeline.KindAggregate, aggregateStages)
	return t
}

// Query translates p and simplifies the result into a ready-to-run
// aggregation pipeline.
func (t *Mongo36) Query(p pipeline.Pipeline) ([]bson.D, error) {
	out, err := t.Translate(p)
	if err != nil {
		return nil, err
	}
	stages, err := toStages(out)
	if err != nil {
		return nil, err
	}
	return Simplify(stages), nil
}

func filterStage(step pipeline.Step) (translator.OutputStep, error) {
	s := step.(*pipeline.Filter)
	if s.IsEquality() {
		return equalityFilterStage(step)
	}
	op, ok := comparisons[s.Operator]
	if !ok {
		return nil, translator.NewUnsupportedOperator(s.Operator)
	}
	cond := bson.D{{Key: op, Value: pipeline.CloneValue(s.Value)}}
	return NewStage(OpMatch, bson.D{{Key: s.Column, Value: cond}}), nil
}

// aggregateStages emits a $group keyed on the "on" columns followed by a
// $project that lifts the group key back to top-level columns.
func aggregateStages(step pipeline.Step) (translator.OutputStep, error) {
	s := step.(*pipeline.Aggregate)

	var id any
	if len(s.On) > 0 {
		key := make(bson.D, 0, len(s.On))
		for _, c := range s.On {
			key = append(key, bson.E{Key: c, Value: "$" + c})
		}
		id = key
	}

	group := bson.D{{Key: "_id", Value: id}}
	project := make(bson.D, 0, len(s.On)+len(s.Aggregations)+1)
	for _, c := range s.On {
		project = append(project, bson.E{Key: c, Value: "$_id." + c})
	}
	for _, a := range s.Aggregations {
		acc, ok := accumulators[a.AggFunction]
		if !ok {
			return nil, fmt.Errorf("%w: unknown aggfunction %q", pipeline.ErrMalformedStep, a.AggFunction)
		}
		var operand any = "$" + a.Column
		if a.AggFunction == pipeline.AggCount {
			operand = int32(1)
		}
		group = append(group, bson.E{Key: a.Name, Value: bson.D{{Key: acc, Value: operand}}})
		project = append(project, bson.E{Key: a.Name, Value: int32(1)})
	}
	project = append(project, bson.E{Key: "_id", Value: int32(0)})

	return translator.Sequence{
		NewStage(OpGroup, group),
		NewStage(OpProject, project),
	}, nil
}
