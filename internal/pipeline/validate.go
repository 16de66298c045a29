package pipeline

import "fmt"

// ValidationResult contains the presence analysis of a pipeline.
type ValidationResult struct {
	// Valid is true when no warnings were produced.
	Valid bool

	// Warnings lists missing fields and convention violations, in step order.
	Warnings []string
}

// Validate checks that every step carries its required fields and that the
// pipeline starts with a domain step.
//
// Only presence is checked: values are never type-checked against a
// backend. Validate is a pure function with no side effects.
func Validate(p Pipeline) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	if len(p) > 0 && p[0] != nil {
		if _, ok := p[0].(*Domain); !ok {
			v.addWarning("step 0 (%s): pipeline should start with a domain step", p[0].Kind())
		}
	}
	for i, s := range p {
		v.validateStep(i, s)
	}

	return ValidationResult{
		Valid:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) require(i int, kind Kind, field string, present bool) {
	if !present {
		v.addWarning("step %d (%s): missing %s", i, kind, field)
	}
}

func (v *validator) validateStep(i int, s Step) {
	if s == nil {
		v.addWarning("step %d: nil step", i)
		return
	}

	switch st := s.(type) {
	case *Domain:
		v.require(i, st.Kind(), fieldDomain, st.Domain != "")
	case *Filter:
		v.require(i, st.Kind(), fieldColumn, st.Column != "")
		if st.Operator != "" && !FilterOperators[st.Operator] {
			v.addWarning("step %d (%s): unknown operator %q", i, st.Kind(), st.Operator)
		}
	case *Select:
		v.require(i, st.Kind(), fieldColumns, len(st.Columns) > 0)
	case *Rename:
		v.require(i, st.Kind(), fieldOldName, st.OldName != "")
		v.require(i, st.Kind(), fieldNewName, st.NewName != "")
	case *Delete:
		v.require(i, st.Kind(), fieldColumns, len(st.Columns) > 0)
	case *NewColumn:
		v.require(i, st.Kind(), fieldColumn, st.Column != "")
		v.require(i, st.Kind(), fieldQuery, st.Query != nil)
	case *Aggregate:
		v.require(i, st.Kind(), fieldAggregations, len(st.Aggregations) > 0)
		for j, a := range st.Aggregations {
			if a.Name == "" || a.AggFunction == "" {
				v.addWarning("step %d (%s): aggregation %d needs name and aggfunction", i, st.Kind(), j)
			}
			if a.AggFunction != "" && !AggFunctions[a.AggFunction] {
				v.addWarning("step %d (%s): unknown aggfunction %q", i, st.Kind(), a.AggFunction)
			}
			if a.Column == "" && a.AggFunction != AggCount {
				v.addWarning("step %d (%s): aggregation %d needs a column", i, st.Kind(), j)
			}
		}
	case *Custom:
		v.require(i, st.Kind(), fieldQuery, len(st.Query) > 0)
	}
}
