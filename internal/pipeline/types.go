package pipeline

import "go.mongodb.org/mongo-driver/v2/bson"

// Pipeline is an ordered sequence of steps.
type Pipeline []Step

// Step represents one transformation in a pipeline.
//
// This is a sealed interface - only pointer types in this package implement
// it. Kind returns the step tag used for dispatch and serialization.
type Step interface {
	Kind() Kind
	stepNode() // Marker method - seals interface to this package
}

// Domain selects the base dataset a pipeline starts from.
type Domain struct {
	Domain string
}

// Filter keeps rows where Column compares to Value with Operator.
//
// An empty Operator means equality. Known operators are listed in
// FilterOperators.
type Filter struct {
	Column   string
	Value    any
	Operator string
}

// Select keeps only the listed columns, in order.
type Select struct {
	Columns []string
}

// Rename renames one column.
type Rename struct {
	OldName string
	NewName string
}

// Delete drops the listed columns.
type Delete struct {
	Columns []string
}

// NewColumn adds Column computed from a backend expression.
type NewColumn struct {
	Column string
	Query  any
}

// Aggregate groups rows by On and computes Aggregations per group.
type Aggregate struct {
	On           []string
	Aggregations []Aggregation
}

// Aggregation is one computed column of an Aggregate step.
type Aggregation struct {
	Name        string // output column
	Column      string // input column
	AggFunction string // sum | avg | count | min | max
}

// Custom carries a backend stage verbatim.
type Custom struct {
	Query bson.D
}

func (*Domain) Kind() Kind    { return KindDomain }
func (*Filter) Kind() Kind    { return KindFilter }
func (*Select) Kind() Kind    { return KindSelect }
func (*Rename) Kind() Kind    { return KindRename }
func (*Delete) Kind() Kind    { return KindDelete }
func (*NewColumn) Kind() Kind { return KindNewColumn }
func (*Aggregate) Kind() Kind { return KindAggregate }
func (*Custom) Kind() Kind    { return KindCustom }

func (*Domain) stepNode()    {}
func (*Filter) stepNode()    {}
func (*Select) stepNode()    {}
func (*Rename) stepNode()    {}
func (*Delete) stepNode()    {}
func (*NewColumn) stepNode() {}
func (*Aggregate) stepNode() {}
func (*Custom) stepNode()    {}

// Filter operators.
const (
	OpEq  = "eq"
	OpNe  = "ne"
	OpGt  = "gt"
	OpGe  = "ge"
	OpLt  = "lt"
	OpLe  = "le"
	OpIn  = "in"
	OpNin = "nin"
)

// FilterOperators lists the operators a Filter step may carry.
var FilterOperators = map[string]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGe: true,
	OpLt: true, OpLe: true, OpIn: true, OpNin: true,
}

// IsEquality reports whether the filter compares with plain equality.
func (f *Filter) IsEquality() bool {
	return f.Operator == "" || f.Operator == OpEq
}

// Aggregation functions.
const (
	AggSum   = "sum"
	AggAvg   = "avg"
	AggCount = "count"
	AggMin   = "min"
	AggMax   = "max"
)

// AggFunctions lists the functions an Aggregation may use.
var AggFunctions = map[string]bool{
	AggSum: true, AggAvg: true, AggCount: true, AggMin: true, AggMax: true,
}

// First returns the first step of the pipeline, or nil when it is empty.
func (p Pipeline) First() Step {
	if len(p) == 0 {
		return nil
	}
	return p[0]
}

// DomainName returns the domain selected by the leading Domain step.
// The second result is false when the pipeline does not start with one.
func (p Pipeline) DomainName() (string, bool) {
	d, ok := p.First().(*Domain)
	if !ok {
		return "", false
	}
	return d.Domain, true
}

// Clone returns a copy of the pipeline whose step values are not shared
// with p. Expressions are copied with bson-aware deep copy.
func (p Pipeline) Clone() Pipeline {
	if p == nil {
		return nil
	}
	out := make(Pipeline, len(p))
	for i, s := range p {
		out[i] = CloneStep(s)
	}
	return out
}

// CloneStep returns a deep copy of s.
func CloneStep(s Step) Step {
	switch st := s.(type) {
	case *Domain:
		c := *st
		return &c
	case *Filter:
		return &Filter{Column: st.Column, Value: CloneValue(st.Value), Operator: st.Operator}
	case *Select:
		return &Select{Columns: cloneStrings(st.Columns)}
	case *Rename:
		c := *st
		return &c
	case *Delete:
		return &Delete{Columns: cloneStrings(st.Columns)}
	case *NewColumn:
		return &NewColumn{Column: st.Column, Query: CloneValue(st.Query)}
	case *Aggregate:
		aggs := make([]Aggregation, len(st.Aggregations))
		copy(aggs, st.Aggregations)
		return &Aggregate{On: cloneStrings(st.On), Aggregations: aggs}
	case *Custom:
		return &Custom{Query: CloneDocument(st.Query)}
	default:
		return s
	}
}

// CloneValue deep-copies bson documents and arrays; scalars are returned as is.
func CloneValue(v any) any {
	switch val := v.(type) {
	case bson.D:
		return CloneDocument(val)
	case bson.A:
		out := make(bson.A, len(val))
		for i, elem := range val {
			out[i] = CloneValue(elem)
		}
		return out
	case bson.M:
		out := make(bson.M, len(val))
		for k, elem := range val {
			out[k] = CloneValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = CloneValue(elem)
		}
		return out
	default:
		return v
	}
}

// CloneDocument deep-copies a bson.D.
func CloneDocument(d bson.D) bson.D {
	if d == nil {
		return nil
	}
	out := make(bson.D, len(d))
	for i, e := range d {
		out[i] = bson.E{Key: e.Key, Value: CloneValue(e.Value)}
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
