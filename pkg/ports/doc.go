// Package ports defines the interfaces between the setup engine core and
// its collaborators: pluggable step handlers, entry persistence, the
// setup pipeline that loads entries against live resources, and the
// access guard the transport layer consults before mutating calls.
//
// The core accepts these interfaces and returns concrete structs;
// adapters under pkg/adapters provide the implementations.
package ports
