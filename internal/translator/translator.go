package translator

import (
	"fmt"

	"github.com/roach88/vqb/internal/pipeline"
)

// OutputStep is the backend-specific result of translating one step.
// Its shape is opaque to this package.
type OutputStep = any

// Sequence is an OutputStep holding several ordered outputs. Translate
// flattens it into the result.
type Sequence []OutputStep

// Handler translates one step. The step passed in always has the kind the
// handler was registered for.
type Handler func(step pipeline.Step) (OutputStep, error)

// Translator is the contract every backend translator fulfills.
type Translator interface {
	// Supports reports whether the translator handles the step kind.
	Supports(kind pipeline.Kind) bool

	// SupportedSteps returns the handled kinds, sorted ascending.
	SupportedSteps() []pipeline.Kind

	// UnsupportedSteps returns the unhandled kinds, sorted ascending.
	UnsupportedSteps() []pipeline.Kind

	// Translate converts a pipeline into backend output steps, in order.
	Translate(p pipeline.Pipeline) ([]OutputStep, error)
}

// entry is one row of the dispatch table.
type entry struct {
	handler   Handler
	supported bool
}

// Base implements Translator on top of an explicit dispatch table.
//
// NewBase fills the table with the unsupported sentinel for every kind.
// Embed *Base in a concrete translator and call Handle for each supported
// kind. A Base with no handlers supports nothing.
type Base struct {
	table map[pipeline.Kind]entry
}

// NewBase creates a dispatch table where every step kind is unsupported.
func NewBase() *Base {
	b := &Base{table: make(map[pipeline.Kind]entry, len(pipeline.Kinds()))}
	for _, k := range pipeline.Kinds() {
		b.table[k] = entry{handler: unsupported(k)}
	}
	return b
}

// unsupported returns the sentinel handler for kind.
func unsupported(kind pipeline.Kind) Handler {
	return func(pipeline.Step) (OutputStep, error) {
		return nil, NewStepNotSupported(kind)
	}
}

// Handle declares support for kind by installing h in the dispatch table.
// A later call for the same kind replaces the handler.
//
// Panics if kind is outside the closed set or h is nil: both are
// programming errors in the translator's constructor.
func (b *Base) Handle(kind pipeline.Kind, h Handler) {
	if !kind.Valid() {
		panic(fmt.Sprintf("translator: cannot handle unknown step kind %q", kind))
	}
	if h == nil {
		panic(fmt.Sprintf("translator: nil handler for step kind %q", kind))
	}
	b.table[kind] = entry{handler: h, supported: true}
}

// Supports reports whether kind has a handler. Kinds outside the closed set
// are never supported.
func (b *Base) Supports(kind pipeline.Kind) bool {
	return b.table[kind].supported
}

// SupportedSteps returns the kinds with a handler, sorted ascending.
func (b *Base) SupportedSteps() []pipeline.Kind {
	return b.partition(true)
}

// UnsupportedSteps returns the kinds without a handler, sorted ascending.
func (b *Base) UnsupportedSteps() []pipeline.Kind {
	return b.partition(false)
}

// partition walks the closed set in its sorted order, so the result needs
// no extra sort.
func (b *Base) partition(supported bool) []pipeline.Kind {
	out := []pipeline.Kind{}
	for _, k := range pipeline.Kinds() {
		if b.table[k].supported == supported {
			out = append(out, k)
		}
	}
	return out
}

// Translate dispatches every step to its handler, in order, and collects
// the outputs. Sequence outputs are flattened.
//
// Translation stops at the first failing step and no partial result is
// returned. The error keeps its type, so IsStepNotSupported and
// UnsupportedKind work on it.
func (b *Base) Translate(p pipeline.Pipeline) ([]OutputStep, error) {
	result := make([]OutputStep, 0, len(p))
	for i, step := range p {
		if step == nil || !step.Kind().Valid() {
			return nil, fmt.Errorf("translate step %d: %w", i, NewMalformedStep(step))
		}
		kind := step.Kind()
		out, err := b.table[kind].handler(step)
		if err != nil {
			return nil, fmt.Errorf("translate step %d (%s): %w", i, kind, err)
		}
		if seq, ok := out.(Sequence); ok {
			result = append(result, seq...)
			continue
		}
		result = append(result, out)
	}
	return result, nil
}
