package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/roach88/vqb/internal/mongo"
	"github.com/roach88/vqb/internal/pipeline"
	"github.com/roach88/vqb/internal/translator"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Backend  string // Backend checked, if any
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	if e.Backend != "" {
		fmt.Fprintf(&buf, "Assertion failed: %s (%s)\n", e.Type, e.Backend)
	} else {
		fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	}
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against the pipeline and the
// run result. It returns one error per failed assertion, in order.
func EvaluateAssertions(p pipeline.Pipeline, result *Result, assertions []Assertion) []error {
	var errs []error
	for _, a := range assertions {
		if err := evaluate(p, result, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func evaluate(p pipeline.Pipeline, result *Result, a Assertion) error {
	switch a.Type {
	case AssertTranslates:
		return assertTranslates(result, a)
	case AssertFails:
		return assertFails(result, a)
	case AssertOutputContains:
		return assertOutputContains(result, a)
	case AssertSupports:
		return assertSupports(a)
	case AssertValid:
		return assertValid(p)
	case AssertRoundTrip:
		return assertRoundTrip(p)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// translation looks up the backend outcome, failing when the backend was
// not part of the run.
func translation(result *Result, a Assertion) (Translation, error) {
	t, ok := result.Translation(a.Backend)
	if !ok {
		return Translation{}, &AssertionError{
			Type:     a.Type,
			Backend:  a.Backend,
			Expected: "backend in scenario backends",
			Actual:   "backend not run",
		}
	}
	return t, nil
}

func assertTranslates(result *Result, a Assertion) error {
	t, err := translation(result, a)
	if err != nil {
		return err
	}
	if t.Error != "" {
		return &AssertionError{
			Type:     a.Type,
			Backend:  a.Backend,
			Expected: "successful translation",
			Actual:   t.Error,
		}
	}
	return nil
}

func assertFails(result *Result, a Assertion) error {
	t, err := translation(result, a)
	if err != nil {
		return err
	}
	if t.Code != a.Code {
		actual := "success"
		if t.Code != "" {
			actual = t.Code
		}
		return &AssertionError{
			Type:     a.Type,
			Backend:  a.Backend,
			Expected: a.Code,
			Actual:   actual,
		}
	}
	return nil
}

func assertOutputContains(result *Result, a Assertion) error {
	t, err := translation(result, a)
	if err != nil {
		return err
	}
	if !strings.Contains(t.Output, a.Contains) {
		return &AssertionError{
			Type:     a.Type,
			Backend:  a.Backend,
			Expected: fmt.Sprintf("output containing %q", a.Contains),
			Actual:   fmt.Sprintf("%q", t.Output),
		}
	}
	return nil
}

func assertSupports(a Assertion) error {
	tr, err := translator.Default.New(a.Backend)
	if err != nil {
		return &AssertionError{
			Type:     a.Type,
			Backend:  a.Backend,
			Expected: "registered backend",
			Actual:   err.Error(),
		}
	}

	var missing []string
	for _, name := range a.Steps {
		kind, err := pipeline.ParseKind(name)
		if err != nil || !tr.Supports(kind) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &AssertionError{
			Type:     a.Type,
			Backend:  a.Backend,
			Expected: fmt.Sprintf("support for %s", strings.Join(a.Steps, ", ")),
			Actual:   fmt.Sprintf("unsupported: %s", strings.Join(missing, ", ")),
		}
	}
	return nil
}

func assertValid(p pipeline.Pipeline) error {
	v := pipeline.Validate(p)
	if !v.Valid {
		return &AssertionError{
			Type:     AssertValid,
			Expected: "no validation warnings",
			Actual:   strings.Join(v.Warnings, "; "),
		}
	}
	return nil
}

// assertRoundTrip converts p to stages, back to a pipeline and to stages
// again. Both stage lists must encode identically.
func assertRoundTrip(p pipeline.Pipeline) error {
	fail := func(actual string) error {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: "identical stages after mongoToPipe",
			Actual:   actual,
		}
	}

	first, err := mongo.PipeToMongo(p)
	if err != nil {
		return fail(err.Error())
	}
	back, err := mongo.MongoToPipe(first)
	if err != nil {
		return fail(err.Error())
	}
	second, err := mongo.PipeToMongo(back)
	if err != nil {
		return fail(err.Error())
	}

	want, err := pipeline.EncodeDocuments(first)
	if err != nil {
		return fail(err.Error())
	}
	got, err := pipeline.EncodeDocuments(second)
	if err != nil {
		return fail(err.Error())
	}
	if !bytes.Equal(want, got) {
		return fail(string(got))
	}
	return nil
}
