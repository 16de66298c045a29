// Package state holds the editor state the pipeline engine reads and
// writes: the pipeline being edited, the available domains and the current
// selections.
//
// State is owned by a single caller and is not safe for concurrent use.
package state

import (
	"fmt"
	"slices"

	"github.com/roach88/vqb/internal/pipeline"
	"github.com/roach88/vqb/internal/translator"
)

// NoSelection is the SelectedStepIndex when no step is selected.
const NoSelection = -1

// Dataset is a tabular preview of a pipeline result.
type Dataset struct {
	Headers []string
	Data    [][]any
}

// State is the editor state.
type State struct {
	Pipeline          pipeline.Pipeline
	Domains           []string
	CurrentDomain     string
	SelectedStepIndex int
	SelectedColumns   []string
	Dataset           Dataset
}

// New returns an empty state with no selected step.
func New() *State {
	return &State{
		Pipeline:          pipeline.Pipeline{},
		SelectedStepIndex: NoSelection,
	}
}

// SetPipeline replaces the pipeline. The selection is kept if it still
// points at a step, otherwise it moves to the last step.
func (s *State) SetPipeline(p pipeline.Pipeline) {
	if p == nil {
		p = pipeline.Pipeline{}
	}
	s.Pipeline = p
	if s.SelectedStepIndex >= len(p) {
		s.SelectedStepIndex = len(p) - 1
	}
}

// SetDomains replaces the domain list and makes the first domain current.
// An empty list clears the current domain.
func (s *State) SetDomains(domains []string) {
	s.Domains = slices.Clone(domains)
	if len(domains) == 0 {
		s.CurrentDomain = ""
		return
	}
	s.CurrentDomain = domains[0]
}

// SetCurrentDomain changes the current domain and seeds the pipeline with
// it: a leading domain step is replaced, otherwise one is prepended. An
// empty domain only clears CurrentDomain.
func (s *State) SetCurrentDomain(domain string) {
	s.CurrentDomain = domain
	if domain == "" {
		return
	}

	step := &pipeline.Domain{Domain: domain}
	if _, ok := s.Pipeline.First().(*pipeline.Domain); ok {
		s.Pipeline = append(pipeline.Pipeline{step}, s.Pipeline[1:]...)
		return
	}
	s.Pipeline = append(pipeline.Pipeline{step}, s.Pipeline...)
	if s.SelectedStepIndex != NoSelection {
		s.SelectedStepIndex++
	}
}

// SelectStep marks the step at index as selected. NoSelection clears the
// selection.
func (s *State) SelectStep(index int) error {
	if index != NoSelection && (index < 0 || index >= len(s.Pipeline)) {
		return fmt.Errorf("select step %d: out of range [0, %d)", index, len(s.Pipeline))
	}
	s.SelectedStepIndex = index
	return nil
}

// DeleteStep removes the step at index. A selection after the removed step
// shifts down so it keeps pointing at the same step; selecting the removed
// step moves the selection to the previous one.
func (s *State) DeleteStep(index int) error {
	if index < 0 || index >= len(s.Pipeline) {
		return fmt.Errorf("delete step %d: out of range [0, %d)", index, len(s.Pipeline))
	}
	s.Pipeline = slices.Delete(slices.Clone(s.Pipeline), index, index+1)
	if s.SelectedStepIndex >= index {
		s.SelectedStepIndex--
	}
	return nil
}

// ToggleColumnSelection selects column alone, or clears the selection when
// column is already the only selected column.
func (s *State) ToggleColumnSelection(column string) {
	if len(s.SelectedColumns) == 1 && s.SelectedColumns[0] == column {
		s.SelectedColumns = nil
		return
	}
	s.SelectedColumns = []string{column}
}

// SetDataset replaces the preview dataset.
func (s *State) SetDataset(d Dataset) {
	s.Dataset = d
}

// ActivePipeline returns the steps up to and including the selected one,
// or the whole pipeline when nothing is selected.
func (s *State) ActivePipeline() pipeline.Pipeline {
	if s.SelectedStepIndex == NoSelection {
		return s.Pipeline
	}
	return s.Pipeline[:s.SelectedStepIndex+1]
}

// IsPipelineEmpty reports whether the pipeline has no steps.
func (s *State) IsPipelineEmpty() bool {
	return len(s.Pipeline) == 0
}

// Translate runs the active pipeline through the named backend of r.
func (s *State) Translate(r *translator.Registry, backend string) ([]translator.OutputStep, error) {
	return r.Translate(backend, s.ActivePipeline())
}
