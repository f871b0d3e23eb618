package ports

import (
	"context"

	"github.com/hearthd/hearthd/pkg/domain"
)

// StepHandler is one integration's wizard logic. The flow manager calls
// Step with the flow's current step ID and whatever input the caller
// submitted (nil on first invocation of a step).
//
// A handler must return one of the bounded result types in pkg/domain;
// anything else fails the flow with domain.ErrInvalidResult. Handlers are
// exclusively owned by a single flow and never called concurrently.
type StepHandler interface {
	Step(ctx context.Context, stepID string, input map[string]any) (domain.StepResult, error)
}

// StepFunc adapts a plain function to the StepHandler interface.
type StepFunc func(ctx context.Context, stepID string, input map[string]any) (domain.StepResult, error)

func (f StepFunc) Step(ctx context.Context, stepID string, input map[string]any) (domain.StepResult, error) {
	return f(ctx, stepID, input)
}

// HandlerFactory produces a fresh handler bound to one flow. The flow
// carries the creation context and, for options flows, the entry being
// reconfigured.
type HandlerFactory func(flow *domain.Flow) (StepHandler, error)

// ConnectionClassifier is optionally implemented by config-flow handlers
// to declare how their integration reaches its device or service. The
// classification is stamped onto the entry at creation; handlers that do
// not implement it get domain.ConnClassUnknown.
type ConnectionClassifier interface {
	ConnectionClass() domain.ConnectionClass
}
