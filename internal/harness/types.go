package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Step    int    `json:"step"`
	Op      string `json:"op"`
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
	Seq     int64  `json:"seq"`
	Error   string `json:"error,omitempty"`

	// State is the snapshot after the step, as plain Go data.
	// Only set when the step produced a snapshot.
	State any `json:"state,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation, assertion and invariant held.
	Pass bool `json:"pass"`

	// InstanceID is the id the run's instance was created with.
	InstanceID string `json:"instance_id"`

	// Trace has one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Transitions counts snapshots produced after the initial one.
	Transitions int `json:"transitions"`

	// Final is the last snapshot, as plain Go data.
	Final any `json:"final"`

	// Errors holds every failed check. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failed check and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
