package querysql

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/vqb/internal/pipeline"
)

// ErrNoDomain is returned when a query has no leading domain fragment.
var ErrNoDomain = errors.New("query must start with a domain step")

// Fragment is the SQL output of one pipeline step.
//
// Fragment is a sealed interface: only types in this package implement it.
type Fragment interface {
	// wrap builds this step's statement on top of prev, the statement of
	// the previous steps (nil for the first fragment). alias names prev
	// when it becomes a subquery.
	wrap(prev *sq.SelectBuilder, alias string) (sq.SelectBuilder, error)
}

// From selects every column of a table.
type From struct {
	Table string
}

// Where keeps the rows matching Pred.
type Where struct {
	Pred sq.Sqlizer
}

// Columns keeps only the listed columns, in order.
type Columns struct {
	Names []string
}

// GroupBy groups rows on On and computes one aggregate per Aggregation.
// Rows come out ordered by the group columns.
type GroupBy struct {
	On           []string
	Aggregations []pipeline.Aggregation
}

func (f From) wrap(prev *sq.SelectBuilder, _ string) (sq.SelectBuilder, error) {
	if prev != nil {
		return sq.SelectBuilder{}, fmt.Errorf("domain %q must be the first step", f.Table)
	}
	return sq.Select("*").From(quoteIdent(f.Table)), nil
}

func (f Where) wrap(prev *sq.SelectBuilder, alias string) (sq.SelectBuilder, error) {
	if prev == nil {
		return sq.SelectBuilder{}, ErrNoDomain
	}
	return sq.Select("*").FromSelect(*prev, alias).Where(f.Pred), nil
}

func (f Columns) wrap(prev *sq.SelectBuilder, alias string) (sq.SelectBuilder, error) {
	if prev == nil {
		return sq.SelectBuilder{}, ErrNoDomain
	}
	return sq.Select(quoteIdents(f.Names)...).FromSelect(*prev, alias), nil
}

func (f GroupBy) wrap(prev *sq.SelectBuilder, alias string) (sq.SelectBuilder, error) {
	if prev == nil {
		return sq.SelectBuilder{}, ErrNoDomain
	}

	on := quoteIdents(f.On)
	cols := append([]string{}, on...)
	for _, a := range f.Aggregations {
		expr, err := aggregateExpr(a)
		if err != nil {
			return sq.SelectBuilder{}, err
		}
		cols = append(cols, expr+" AS "+quoteIdent(a.Name))
	}

	q := sq.Select(cols...).FromSelect(*prev, alias)
	if len(on) > 0 {
		q = q.GroupBy(on...).OrderBy(on...)
	}
	return q, nil
}

// aggregateExpr renders the SQL aggregate call for a.
func aggregateExpr(a pipeline.Aggregation) (string, error) {
	switch a.AggFunction {
	case pipeline.AggSum:
		return "SUM(" + quoteIdent(a.Column) + ")", nil
	case pipeline.AggAvg:
		return "AVG(" + quoteIdent(a.Column) + ")", nil
	case pipeline.AggMin:
		return "MIN(" + quoteIdent(a.Column) + ")", nil
	case pipeline.AggMax:
		return "MAX(" + quoteIdent(a.Column) + ")", nil
	case pipeline.AggCount:
		return "COUNT(*)", nil
	default:
		return "", fmt.Errorf("%w: unknown aggfunction %q", pipeline.ErrMalformedStep, a.AggFunction)
	}
}

// quoteIdent double-quotes a SQL identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return out
}
