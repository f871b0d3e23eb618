package domain

import "github.com/hearthd/hearthd/pkg/schema"

// ResultType enumerates the outcomes a wizard step may produce.
type ResultType string

const (
	// ResultForm asks the caller to collect user input for StepID.
	ResultForm ResultType = "form"
	// ResultCreateEntry is terminal: the wizard finished with data.
	ResultCreateEntry ResultType = "create_entry"
	// ResultAbort is terminal: the wizard gave up without producing data.
	ResultAbort ResultType = "abort"
	// ResultExternalStep hands control to an external redirect (OAuth
	// and friends); the flow stays parked until resumed out-of-band.
	ResultExternalStep ResultType = "external"
	// ResultShowProgress reports a long-running background step; the
	// caller polls until the handler returns ResultProgressDone.
	ResultShowProgress ResultType = "progress"
	// ResultProgressDone signals the background step finished and names
	// the step to advance to next.
	ResultProgressDone ResultType = "progress_done"
)

// Terminal reports whether t removes the flow from the in-progress set.
func (t ResultType) Terminal() bool {
	return t == ResultCreateEntry || t == ResultAbort
}

// Valid reports whether t is one of the supported result types.
func (t ResultType) Valid() bool {
	switch t {
	case ResultForm, ResultCreateEntry, ResultAbort,
		ResultExternalStep, ResultShowProgress, ResultProgressDone:
		return true
	}
	return false
}

// StepResult is the tagged outcome of one handler invocation. Only the
// fields relevant to Type are populated; FlowID and Handler are filled in
// by the flow manager before the result is handed back to the caller.
type StepResult struct {
	Type    ResultType `json:"type"`
	FlowID  string     `json:"flow_id,omitempty"`
	Handler string     `json:"handler,omitempty"`

	// Form / ExternalStep / ShowProgress: the step to invoke next.
	StepID string `json:"step_id,omitempty"`

	// Form only.
	Schema                  *schema.Schema    `json:"-"`
	DescriptionPlaceholders map[string]string `json:"description_placeholders,omitempty"`
	Errors                  map[string]string `json:"errors,omitempty"`

	// CreateEntry only. Data is stripped before crossing a trust
	// boundary; EntryID is what untrusted callers get back.
	Title   string         `json:"title,omitempty"`
	Data    map[string]any `json:"-"`
	EntryID string         `json:"result,omitempty"`

	// Abort only.
	Reason string `json:"reason,omitempty"`

	// ExternalStep only.
	URL string `json:"url,omitempty"`

	// ShowProgress / ProgressDone only.
	ProgressAction string `json:"progress_action,omitempty"`
	NextStepID     string `json:"next_step_id,omitempty"`
}

// ShowForm builds a form result for stepID with an optional schema.
func ShowForm(stepID string, s *schema.Schema) StepResult {
	return StepResult{Type: ResultForm, StepID: stepID, Schema: s}
}

// WithErrors attaches field errors to a form result, re-rendering the form.
func (r StepResult) WithErrors(errs map[string]string) StepResult {
	r.Errors = errs
	return r
}

// WithPlaceholders attaches description placeholders to a form result.
func (r StepResult) WithPlaceholders(ph map[string]string) StepResult {
	r.DescriptionPlaceholders = ph
	return r
}

// CreateEntry builds the terminal success result.
func CreateEntry(title string, data map[string]any) StepResult {
	return StepResult{Type: ResultCreateEntry, Title: title, Data: data}
}

// Abort builds the terminal failure result.
func Abort(reason string) StepResult {
	return StepResult{Type: ResultAbort, Reason: reason}
}

// ExternalStep builds a redirect result; the flow resumes at stepID.
func ExternalStep(stepID, url string) StepResult {
	return StepResult{Type: ResultExternalStep, StepID: stepID, URL: url}
}

// ShowProgress builds a polling result; the flow stays on stepID.
func ShowProgress(stepID, action string) StepResult {
	return StepResult{Type: ResultShowProgress, StepID: stepID, ProgressAction: action}
}

// ProgressDone signals the background work completed; the next advance
// call runs nextStepID.
func ProgressDone(nextStepID string) StepResult {
	return StepResult{Type: ResultProgressDone, NextStepID: nextStepID}
}
