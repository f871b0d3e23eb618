// Package domain holds the core types of the hearthd setup engine: flows
// (in-progress configuration wizards), step results (the bounded set of
// outcomes a wizard step may produce), and config entries (the persistent
// records a successful wizard leaves behind).
//
// The types here carry no behavior beyond construction and copying. The
// state machine that drives them lives in pkg/flow; the entry lifecycle
// lives in pkg/entries.
package domain
