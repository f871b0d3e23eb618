// Package observability turns engine lifecycle events into Prometheus
// metrics. Metrics implements ports.Notifier, so it plugs into the flow
// managers and entry registry the same way any other event consumer does;
// Fanout combines several consumers into one.
package observability
