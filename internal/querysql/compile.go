package querysql

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roach88/vqb/internal/pipeline"
	"github.com/roach88/vqb/internal/translator"
)

// Compile stacks translated fragments into one SQL statement.
// Returns (sql, params, error).
//
// The first fragment must come from a domain step. Every value is a
// parameter; the SQL text only carries quoted identifiers.
func Compile(fragments []translator.OutputStep) (string, []any, error) {
	var q *sq.SelectBuilder
	for i, out := range fragments {
		f, ok := out.(Fragment)
		if !ok {
			return "", nil, fmt.Errorf("fragment %d: expected Fragment, got %T", i, out)
		}
		next, err := f.wrap(q, fmt.Sprintf("s%d", i))
		if err != nil {
			return "", nil, fmt.Errorf("fragment %d: %w", i, err)
		}
		q = &next
	}
	if q == nil {
		return "", nil, ErrNoDomain
	}
	return q.ToSql()
}

// predicate builds the WHERE condition of a filter step.
func predicate(f *pipeline.Filter) (sq.Sqlizer, error) {
	col := quoteIdent(f.Column)

	switch f.Operator {
	case pipeline.OpIn, pipeline.OpNin:
		list, err := listParam(f.Value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.Column, err)
		}
		if f.Operator == pipeline.OpIn {
			return sq.Eq{col: list}, nil
		}
		return sq.NotEq{col: list}, nil
	}

	v, err := param(f.Value)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", f.Column, err)
	}
	switch f.Operator {
	case "", pipeline.OpEq:
		return sq.Eq{col: v}, nil
	case pipeline.OpNe:
		return sq.NotEq{col: v}, nil
	case pipeline.OpGt:
		return sq.Gt{col: v}, nil
	case pipeline.OpGe:
		return sq.GtOrEq{col: v}, nil
	case pipeline.OpLt:
		return sq.Lt{col: v}, nil
	case pipeline.OpLe:
		return sq.LtOrEq{col: v}, nil
	default:
		return nil, translator.NewUnsupportedOperator(f.Operator)
	}
}

// param converts a filter value to a driver parameter. Only scalars are
// accepted; documents and arrays cannot be bound as one parameter.
func param(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, int, int32, int64, float64:
		return val, nil
	case float32:
		return float64(val), nil
	case bson.DateTime:
		return val.Time().UTC(), nil
	default:
		return nil, fmt.Errorf("value of type %T cannot be a SQL parameter", v)
	}
}

// listParam converts the value of an in/nin filter. A scalar is treated
// as a one-element list.
func listParam(v any) ([]any, error) {
	var elems []any
	switch val := v.(type) {
	case bson.A:
		elems = val
	case []any:
		elems = val
	default:
		elems = []any{val}
	}

	out := make([]any, len(elems))
	for i, e := range elems {
		p, err := param(e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}
