package domain

// FlowKind distinguishes the two wizard variants sharing one state machine.
type FlowKind string

const (
	// KindConfig creates a new config entry when the wizard completes.
	KindConfig FlowKind = "config"
	// KindOptions reconfigures an existing entry in place.
	KindOptions FlowKind = "options"
)

// Context keys and well-known source values. Every flow context carries a
// "source" key describing who initiated it.
const (
	ContextSource = "source"

	SourceUser      = "user"
	SourceDiscovery = "discovery"
	SourceImport    = "import"
)

// Flow is one in-progress wizard instance. It is owned by a flow manager
// and must only be mutated while that manager holds the flow's lock.
type Flow struct {
	// ID is assigned at creation and stable for the flow's life.
	ID string `json:"flow_id"`

	// HandlerKey is the integration domain for config flows, or the
	// entry ID being reconfigured for options flows.
	HandlerKey string `json:"handler"`

	Kind FlowKind `json:"kind"`

	// Context carries creation-time metadata (source, discovery info).
	// Steps may read it; the engine never interprets it beyond "source".
	Context map[string]any `json:"context"`

	// CurrentStepID names the step the handler will run on the next
	// advance call.
	CurrentStepID string `json:"step_id"`

	// Entry is set for options flows: the entry being reconfigured.
	Entry *ConfigEntry `json:"-"`
}

// Source returns the flow's originating source, or "" if unset.
func (f *Flow) Source() string {
	src, _ := f.Context[ContextSource].(string)
	return src
}

// Summary is the externally visible snapshot of an in-progress flow.
// It deliberately excludes the live handler and any collected data.
type Summary struct {
	FlowID        string         `json:"flow_id"`
	HandlerKey    string         `json:"handler"`
	Kind          FlowKind       `json:"kind"`
	Context       map[string]any `json:"context"`
	CurrentStepID string         `json:"step_id"`
}

// Summarize produces a Summary with a defensive copy of the context.
func (f *Flow) Summarize() Summary {
	ctx := make(map[string]any, len(f.Context))
	for k, v := range f.Context {
		ctx[k] = v
	}
	return Summary{
		FlowID:        f.ID,
		HandlerKey:    f.HandlerKey,
		Kind:          f.Kind,
		Context:       ctx,
		CurrentStepID: f.CurrentStepID,
	}
}
