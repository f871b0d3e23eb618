package schema_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthd/hearthd/pkg/schema"
)

func TestNew_RejectsMalformedSchemas(t *testing.T) {
	cases := []struct {
		name   string
		fields []schema.Field
	}{
		{
			name:   "empty field name",
			fields: []schema.Field{schema.Required("", schema.String())},
		},
		{
			name:   "nil type",
			fields: []schema.Field{schema.Required("host", nil)},
		},
		{
			name: "duplicate field",
			fields: []schema.Field{
				schema.Required("host", schema.String()),
				schema.Optional("host", schema.Int()),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schema.New(tc.fields...)
			assert.ErrorIs(t, err, schema.ErrMalformedSchema)
		})
	}
}

func TestMustNew_PanicsOnAuthoringBug(t *testing.T) {
	assert.Panics(t, func() {
		schema.MustNew(schema.Required("", schema.String()))
	})
}

func TestValidate_RequiredAndTypes(t *testing.T) {
	s := schema.MustNew(
		schema.Required("name", schema.String()),
		schema.Optional("port", schema.Int()),
		schema.Optional("mode", schema.Select("auto", "manual")),
	)

	t.Run("valid input", func(t *testing.T) {
		errs := s.Validate(map[string]any{"name": "kitchen", "port": 8123})
		assert.Nil(t, errs)
	})

	t.Run("missing required field", func(t *testing.T) {
		errs := s.Validate(map[string]any{"port": 8123})
		require.NotNil(t, errs)
		assert.Equal(t, "required", errs["name"])
	})

	t.Run("wrong type", func(t *testing.T) {
		errs := s.Validate(map[string]any{"name": "kitchen", "port": "not-a-number"})
		require.NotNil(t, errs)
		assert.Contains(t, errs["port"], "expected int")
	})

	t.Run("json numbers accepted as ints", func(t *testing.T) {
		errs := s.Validate(map[string]any{"name": "kitchen", "port": float64(8123)})
		assert.Nil(t, errs)
	})

	t.Run("select rejects unknown option", func(t *testing.T) {
		errs := s.Validate(map[string]any{"name": "kitchen", "mode": "turbo"})
		require.NotNil(t, errs)
		assert.Contains(t, errs["mode"], "not one of")
	})
}

func TestValidate_NilSchemaAcceptsAnything(t *testing.T) {
	var s *schema.Schema
	assert.Nil(t, s.Validate(map[string]any{"whatever": 1}))
}

func TestApply_FillsDefaultsWithoutMutatingInput(t *testing.T) {
	s := schema.MustNew(
		schema.Required("name", schema.String()),
		schema.Optional("host", schema.String()).Default("localhost"),
		schema.Optional("port", schema.Int()).Default(8123),
	)

	input := map[string]any{"name": "kitchen", "port": 9000}
	out := s.Apply(input)

	assert.Equal(t, "kitchen", out["name"])
	assert.Equal(t, "localhost", out["host"])
	assert.Equal(t, 9000, out["port"])

	_, touched := input["host"]
	assert.False(t, touched, "Apply must not mutate its input")
}

func TestEncode_PreservesDeclarationOrder(t *testing.T) {
	s := schema.MustNew(
		schema.Required("name", schema.String()),
		schema.Optional("host", schema.String()).Default("localhost"),
		schema.Optional("port", schema.Int()).Constrain("min", 1).Constrain("max", 65535),
		schema.Optional("password", schema.String()).Secret(),
		schema.Optional("mode", schema.Select("auto", "manual")),
	)

	descs := schema.Encode(s)
	require.Len(t, descs, 5)

	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"name", "host", "port", "password", "mode"}, names)

	assert.True(t, descs[0].Required)
	assert.Equal(t, "localhost", descs[1].Default)
	assert.Equal(t, map[string]any{"min": 1, "max": 65535}, descs[2].Constraints)
	assert.True(t, descs[3].Secret)
	assert.Equal(t, []string{"auto", "manual"}, descs[4].Options)
}

func TestEncode_NilSchemaIsEmptyNotNull(t *testing.T) {
	descs := schema.Encode(nil)
	assert.NotNil(t, descs)
	assert.Empty(t, descs)
}

func TestParseType_RoundTrip(t *testing.T) {
	for _, name := range []string{"string", "int", "float", "bool", "[string]", "[int]"} {
		parsed, err := schema.ParseType(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, parsed.Name())
	}

	_, err := schema.ParseType("quaternion")
	assert.Error(t, err)
}

func TestCustomType(t *testing.T) {
	even := schema.Custom("even", func(v any) error {
		n, ok := v.(int)
		if !ok || n%2 != 0 {
			return fmt.Errorf("expected an even int")
		}
		return nil
	})

	s := schema.MustNew(schema.Required("count", even))
	assert.Nil(t, s.Validate(map[string]any{"count": 4}))
	assert.NotNil(t, s.Validate(map[string]any{"count": 3}))
}

func TestConstrain_DoesNotShareMaps(t *testing.T) {
	base := schema.Optional("port", schema.Int()).Constrain("min", 1)
	derived := base.Constrain("max", 10)

	assert.Len(t, base.Constraints, 1)
	assert.Len(t, derived.Constraints, 2)
}

func TestSliceType_ValidatesElements(t *testing.T) {
	s := schema.MustNew(schema.Required("hosts", schema.Slice(schema.String())))

	assert.Nil(t, s.Validate(map[string]any{"hosts": []any{"a", "b"}}))

	errs := s.Validate(map[string]any{"hosts": []any{"a", 7}})
	if assert.NotNil(t, errs) {
		assert.Contains(t, errs["hosts"], "element 1")
	}
}
