package harness

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name  string   `json:"name"`
	IDs   []string `json:"ids,omitempty"`
	Error string   `json:"error,omitempty"`

	// Failure is empty when the case met its expectation.
	Failure string `json:"failure,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every case met its expectation.
	Pass bool `json:"pass"`

	Cases []CaseResult `json:"cases"`

	// Errors contains one message per failed case.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddCase appends a case outcome, failing the result if the case failed.
func (r *Result) AddCase(c CaseResult) {
	r.Cases = append(r.Cases, c)
	if c.Failure != "" {
		r.Errors = append(r.Errors, c.Name+": "+c.Failure)
		r.Pass = false
	}
}
