// Package entries owns the registry of persisted config entries: the
// records a completed config flow leaves behind. The registry is the
// in-memory source of truth during a run; every mutation writes through
// to a ports.EntryStore, and Restore rebuilds the registry from the store
// at boot.
//
// Entry load/unload against live resources happens in the external setup
// pipeline. Create notifies it fire-and-forget; Remove tears down
// best-effort — an unload failure is reported in the removal outcome but
// never blocks deletion.
package entries
