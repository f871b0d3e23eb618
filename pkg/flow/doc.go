// Package flow drives setup wizards: it owns the set of in-progress
// flows, executes integration step handlers, and enforces the result-type
// state machine that every wizard moves through.
//
// One Manager type serves both wizard variants. The façade builds two
// instances: a config manager whose terminal success creates a new entry,
// and an options manager whose terminal success rewrites an existing
// entry's data. Everything else — locking, step dispatch, result
// application, expiry — is shared.
//
// Operations on one flow ID are strictly serialized through a refcounted
// per-flow mutex; distinct flows never contend. Handlers run while
// holding only their own flow's lock, so a slow handler cannot stall
// unrelated wizards.
package flow
