package harness

// Translation is the outcome of one backend on the scenario pipeline.
type Translation struct {
	Backend string `json:"backend"`

	// Output is the rendered query. Empty when the translation failed.
	Output string `json:"output,omitempty"`

	// Code categorizes the failure. Empty on success.
	Code string `json:"code,omitempty"`

	// Error is the failure message. Empty on success.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Translations are in backend order.
	Translations []Translation `json:"translations"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:         true,
		Translations: []Translation{},
		Errors:       []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Translation returns the outcome for backend, or false if the backend
// was not run.
func (r *Result) Translation(backend string) (Translation, bool) {
	for _, t := range r.Translations {
		if t.Backend == backend {
			return t, true
		}
	}
	return Translation{}, false
}
