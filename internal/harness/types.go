package harness

// TraceEvent records the outcome of a single scenario step against the
// assembler under test.
type TraceEvent struct {
	Op    string `json:"op"`
	Table string `json:"table,omitempty"`
	RowID int64  `json:"row_id,omitempty"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Result is the outcome of executing a Scenario.
type Result struct {
	// Pass is true if every step and assertion succeeded.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step failures and assertion failures. Empty if Pass.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing, empty Result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}, Errors: []string{}}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step outcome to the trace. A non-OK event also
// marks the result as failed.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
	if !event.OK {
		r.Pass = false
	}
}
