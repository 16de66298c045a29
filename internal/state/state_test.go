package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vqb/internal/pipeline"
	"github.com/roach88/vqb/internal/translator"
)

func samplePipeline() pipeline.Pipeline {
	return pipeline.Pipeline{
		&pipeline.Domain{Domain: "sales"},
		&pipeline.Rename{OldName: "a", NewName: "b"},
		&pipeline.Delete{Columns: []string{"c"}},
	}
}

func TestNew(t *testing.T) {
	s := New()

	assert.True(t, s.IsPipelineEmpty())
	assert.Equal(t, NoSelection, s.SelectedStepIndex)
	assert.Empty(t, s.CurrentDomain)
}

func TestSetDomains(t *testing.T) {
	s := New()

	s.SetDomains([]string{"foo", "bar"})
	assert.Equal(t, []string{"foo", "bar"}, s.Domains)
	assert.Equal(t, "foo", s.CurrentDomain)

	s.SetDomains(nil)
	assert.Empty(t, s.Domains)
	assert.Equal(t, "", s.CurrentDomain)
}

func TestSetDomains_CopiesInput(t *testing.T) {
	s := New()
	domains := []string{"foo", "bar"}

	s.SetDomains(domains)
	domains[0] = "changed"

	assert.Equal(t, "foo", s.Domains[0])
}

func TestSetCurrentDomain_EmptyPipeline(t *testing.T) {
	s := New()

	s.SetCurrentDomain("foo")

	assert.Equal(t, "foo", s.CurrentDomain)
	assert.Equal(t, pipeline.Pipeline{&pipeline.Domain{Domain: "foo"}}, s.Pipeline)
}

func TestSetCurrentDomain_ReplacesLeadingDomain(t *testing.T) {
	s := New()
	s.SetPipeline(samplePipeline())

	s.SetCurrentDomain("bar")

	want := samplePipeline()
	want[0] = &pipeline.Domain{Domain: "bar"}
	assert.Equal(t, want, s.Pipeline)
}

func TestSetCurrentDomain_PrependsWhenNoDomain(t *testing.T) {
	s := New()
	s.SetPipeline(pipeline.Pipeline{&pipeline.Select{Columns: []string{"a"}}})
	require.NoError(t, s.SelectStep(0))

	s.SetCurrentDomain("bar")

	assert.Equal(t, pipeline.Pipeline{
		&pipeline.Domain{Domain: "bar"},
		&pipeline.Select{Columns: []string{"a"}},
	}, s.Pipeline)
	assert.Equal(t, 1, s.SelectedStepIndex, "selection follows the selected step")
}

func TestSetCurrentDomain_EmptyKeepsPipeline(t *testing.T) {
	s := New()
	s.SetPipeline(samplePipeline())

	s.SetCurrentDomain("")

	assert.Equal(t, "", s.CurrentDomain)
	assert.Equal(t, samplePipeline(), s.Pipeline)
}

func TestSetCurrentDomain_DoesNotAliasPreviousPipeline(t *testing.T) {
	s := New()
	original := samplePipeline()
	s.SetPipeline(original)

	s.SetCurrentDomain("bar")

	assert.Equal(t, "sales", original[0].(*pipeline.Domain).Domain)
}

func TestSelectStep(t *testing.T) {
	s := New()
	s.SetPipeline(samplePipeline())

	require.NoError(t, s.SelectStep(2))
	assert.Equal(t, 2, s.SelectedStepIndex)

	require.NoError(t, s.SelectStep(NoSelection))
	assert.Equal(t, NoSelection, s.SelectedStepIndex)

	assert.Error(t, s.SelectStep(3))
	assert.Error(t, s.SelectStep(-2))
}

func TestDeleteStep(t *testing.T) {
	s := New()
	s.SetPipeline(samplePipeline())

	require.NoError(t, s.DeleteStep(1))

	assert.Equal(t, pipeline.Pipeline{
		&pipeline.Domain{Domain: "sales"},
		&pipeline.Delete{Columns: []string{"c"}},
	}, s.Pipeline)
}

func TestDeleteStep_OutOfRange(t *testing.T) {
	s := New()
	s.SetPipeline(samplePipeline())

	err := s.DeleteStep(3)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
	assert.Len(t, s.Pipeline, 3)
	assert.Error(t, s.DeleteStep(-1))
}

func TestDeleteStep_AdjustsSelection(t *testing.T) {
	tests := []struct {
		name     string
		selected int
		deleted  int
		want     int
	}{
		{"selection before deleted step", 0, 2, 0},
		{"selection after deleted step", 2, 1, 1},
		{"selected step deleted", 1, 1, 0},
		{"no selection", NoSelection, 0, NoSelection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.SetPipeline(samplePipeline())
			require.NoError(t, s.SelectStep(tt.selected))

			require.NoError(t, s.DeleteStep(tt.deleted))

			assert.Equal(t, tt.want, s.SelectedStepIndex)
		})
	}
}

func TestDeleteStep_DoesNotMutateCallerSlice(t *testing.T) {
	s := New()
	original := samplePipeline()
	s.SetPipeline(original)

	require.NoError(t, s.DeleteStep(0))

	assert.Equal(t, pipeline.KindDomain, original[0].Kind())
	assert.Equal(t, pipeline.KindRename, original[1].Kind())
}

func TestSetPipeline_ClampsSelection(t *testing.T) {
	s := New()
	s.SetPipeline(samplePipeline())
	require.NoError(t, s.SelectStep(2))

	s.SetPipeline(samplePipeline()[:1])
	assert.Equal(t, 0, s.SelectedStepIndex)

	s.SetPipeline(nil)
	assert.Equal(t, NoSelection, s.SelectedStepIndex)
	assert.True(t, s.IsPipelineEmpty())
}

func TestToggleColumnSelection(t *testing.T) {
	s := New()

	s.ToggleColumnSelection("a")
	assert.Equal(t, []string{"a"}, s.SelectedColumns)

	s.ToggleColumnSelection("b")
	assert.Equal(t, []string{"b"}, s.SelectedColumns)

	s.ToggleColumnSelection("b")
	assert.Empty(t, s.SelectedColumns)
}

func TestSetDataset(t *testing.T) {
	s := New()
	d := Dataset{Headers: []string{"a"}, Data: [][]any{{1}}}

	s.SetDataset(d)

	assert.Equal(t, d, s.Dataset)
}

func TestActivePipeline(t *testing.T) {
	s := New()
	s.SetPipeline(samplePipeline())

	assert.Equal(t, samplePipeline(), s.ActivePipeline())

	require.NoError(t, s.SelectStep(1))
	assert.Equal(t, samplePipeline()[:2], s.ActivePipeline())
}

func TestTranslate_UsesActivePipeline(t *testing.T) {
	b := translator.NewBase()
	b.Handle(pipeline.KindDomain, func(step pipeline.Step) (translator.OutputStep, error) {
		return step.(*pipeline.Domain).Domain, nil
	})
	r := translator.NewRegistry()
	r.Register("domains-only", func() translator.Translator { return b })

	s := New()
	s.SetPipeline(samplePipeline())

	_, err := s.Translate(r, "domains-only")
	assert.True(t, translator.IsStepNotSupported(err))

	require.NoError(t, s.SelectStep(0))
	out, err := s.Translate(r, "domains-only")
	require.NoError(t, err)
	assert.Equal(t, []translator.OutputStep{"sales"}, out)

	_, err = s.Translate(r, "missing")
	assert.True(t, translator.IsUnknownBackend(err))
}
