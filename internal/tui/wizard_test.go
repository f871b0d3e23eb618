package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	cases := []struct {
		fieldType string
		raw       string
		want      any
		wantErr   bool
	}{
		{"string", "hello", "hello", false},
		{"int", "8123", 8123, false},
		{"int", "eight", nil, true},
		{"float", "1.5", 1.5, false},
		{"float", "x", nil, true},
		{"bool", "yes", true, false},
		{"bool", "Y", true, false},
		{"bool", "no", false, false},
		{"bool", "0", false, false},
		{"bool", "maybe", nil, true},
		{"select", "auto", "auto", false},
	}

	for _, tc := range cases {
		got, err := parseValue(tc.fieldType, tc.raw)
		if tc.wantErr {
			assert.Error(t, err, "%s %q", tc.fieldType, tc.raw)
			continue
		}
		require.NoError(t, err, "%s %q", tc.fieldType, tc.raw)
		assert.Equal(t, tc.want, got)
	}
}
