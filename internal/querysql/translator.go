package querysql

import (
	"github.com/roach88/vqb/internal/pipeline"
	"github.com/roach88/vqb/internal/translator"
)

// Backend is the registry name of the SQLite translator.
const Backend = "sqlite"

func init() {
	translator.Register(Backend, func() translator.Translator { return NewSQLite() })
}

// SQLite translates pipelines into Fragments.
type SQLite struct {
	*translator.Base
}

// NewSQLite creates the translator.
func NewSQLite() *SQLite {
	t := &SQLite{Base: translator.NewBase()}
	t.Handle(pipeline.KindDomain, func(step pipeline.Step) (translator.OutputStep, error) {
		return From{Table: step.(*pipeline.Domain).Domain}, nil
	})
	t.Handle(pipeline.KindFilter, func(step pipeline.Step) (translator.OutputStep, error) {
		pred, err := predicate(step.(*pipeline.Filter))
		if err != nil {
			return nil, err
		}
		return Where{Pred: pred}, nil
	})
	t.Handle(pipeline.KindSelect, func(step pipeline.Step) (translator.OutputStep, error) {
		return Columns{Names: step.(*pipeline.Select).Columns}, nil
	})
	t.Handle(pipeline.KindAggregate, func(step pipeline.Step) (translator.OutputStep, error) {
		s := step.(*pipeline.Aggregate)
		return GroupBy{On: s.On, Aggregations: s.Aggregations}, nil
	})
	return t
}

// Query translates p and compiles the result.
// Returns (sql, params, error).
func (t *SQLite) Query(p pipeline.Pipeline) (string, []any, error) {
	out, err := t.Translate(p)
	if err != nil {
		return "", nil, err
	}
	return Compile(out)
}
