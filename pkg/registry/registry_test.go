package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/ports"
	"github.com/hearthd/hearthd/pkg/registry"
)

func noopFactory(f *domain.Flow) (ports.StepHandler, error) {
	return ports.StepFunc(func(ctx context.Context, stepID string, input map[string]any) (domain.StepResult, error) {
		return domain.Abort("noop"), nil
	}), nil
}

func TestResolve_UnknownDomain(t *testing.T) {
	reg := registry.New()

	_, err := reg.Resolve("ghost")
	assert.ErrorIs(t, err, domain.ErrUnknownHandler)
}

func TestRegisterAndResolve(t *testing.T) {
	reg := registry.New()
	reg.Register("hue", noopFactory)

	factory, err := reg.Resolve("hue")
	require.NoError(t, err)
	require.NotNil(t, factory)

	handler, err := factory(&domain.Flow{ID: "f1", HandlerKey: "hue"})
	require.NoError(t, err)

	result, err := handler.Step(context.Background(), "user", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultAbort, result.Type)
}

func TestResolveOptions_OnlyWhenRegistered(t *testing.T) {
	reg := registry.New()
	reg.Register("hue", noopFactory)

	_, err := reg.ResolveOptions("hue")
	assert.ErrorIs(t, err, domain.ErrUnknownHandler)
	assert.False(t, reg.SupportsOptions("hue"))

	reg.RegisterOptions("hue", noopFactory)

	_, err = reg.ResolveOptions("hue")
	assert.NoError(t, err)
	assert.True(t, reg.SupportsOptions("hue"))
}

func TestDomains_Sorted(t *testing.T) {
	reg := registry.New()
	reg.Register("zwave", noopFactory)
	reg.Register("hue", noopFactory)
	reg.Register("mqtt", noopFactory)
	reg.RegisterOptions("shade", noopFactory) // options-only, not listed

	assert.Equal(t, []string{"hue", "mqtt", "zwave"}, reg.Domains())
}
