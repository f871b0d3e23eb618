package domain

// EntryState tracks where an entry is in the external setup pipeline.
// The flow engine only ever writes NotLoaded; the rest belong to the
// load/unload machinery.
type EntryState string

const (
	StateNotLoaded      EntryState = "not_loaded"
	StateLoaded         EntryState = "loaded"
	StateSetupError     EntryState = "setup_error"
	StateSetupRetry     EntryState = "setup_retry"
	StateFailedUnload   EntryState = "failed_unload"
	StateMigrationError EntryState = "migration_error"
)

// ConnectionClass hints at how an integration reaches its device or
// service. Purely informational for this core.
type ConnectionClass string

const (
	ConnClassLocalPush  ConnectionClass = "local_push"
	ConnClassLocalPoll  ConnectionClass = "local_polling"
	ConnClassCloudPush  ConnectionClass = "cloud_push"
	ConnClassCloudPoll  ConnectionClass = "cloud_polling"
	ConnClassAssumed    ConnectionClass = "assumed_state"
	ConnClassUnknown    ConnectionClass = "unknown"
)

// SystemOptions are entry-level behavioral flags independent of the
// integration's own data.
type SystemOptions struct {
	DisableNewEntities bool `json:"disable_new_entities" mapstructure:"disable_new_entities"`
}

// ConfigEntry is a persisted configuration record produced by a completed
// config flow.
type ConfigEntry struct {
	// EntryID is assigned at creation and immutable.
	EntryID string `json:"entry_id"`

	// Domain names the owning integration; immutable.
	Domain string `json:"domain"`

	Title string         `json:"title"`
	Data  map[string]any `json:"data"`

	// Source records the context that initiated the originating flow.
	Source string `json:"source"`

	State EntryState `json:"state"`

	ConnectionClass ConnectionClass `json:"connection_class"`

	SystemOptions SystemOptions `json:"system_options"`
}

// Clone returns a deep copy so registry internals never leak by pointer.
func (e *ConfigEntry) Clone() *ConfigEntry {
	cp := *e
	cp.Data = make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		cp.Data[k] = v
	}
	return &cp
}

// RemoveResult is the outcome of deleting an entry. Teardown is
// best-effort: the entry is gone from the registry either way, but a
// failed unload is reported so the caller can surface it.
type RemoveResult struct {
	RequireRestart bool   `json:"require_restart"`
	UnloadError    string `json:"unload_error,omitempty"`
}
