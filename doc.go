// Package hearthd is the setup engine of the hearthd automation hub: the
// machinery behind interactive, multi-step wizards ("flows") that
// configure pluggable integrations, and the registry of the persistent
// configuration records ("entries") those wizards produce.
//
// The Hub type wires the pieces together for embedded use:
//
//	hub := hearthd.New()
//	demo.Register(hub.Handlers)
//
//	result, err := hub.ConfigFlows.Start(ctx, "demo",
//	    map[string]any{"source": "user"}, nil)
//
// Transports live under pkg/adapters; the engine itself never speaks
// HTTP. See pkg/flow for the state machine, pkg/entries for the entry
// registry, and integrations/demo for a worked integration.
package hearthd
