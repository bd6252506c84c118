// Package schema_test contains tests for the schema package's public interface.
package schema_test

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/filemon/pkg/schema"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err  schema.ValidationError
		want string
	}{
		"with path": {
			err: schema.ValidationError{
				Path:   mustBuildPath(t, "command"),
				Detail: "value is required",
			},
			want: "error at $.command: value is required",
		},
		"with field": {
			err: schema.ValidationError{
				Field:  "paths",
				Detail: "expected array",
			},
			want: "error at paths: expected array",
		},
		"without path": {
			err: schema.ValidationError{
				Detail: "value is required",
			},
			want: "validation error: value is required",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := tc.err.Error()
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewValidator(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		errMsg     string
		schemaData []byte
		wantErr    bool
	}{
		"valid schema": {
			schemaData: []byte(`{
				"type": "object",
				"properties": {
					"command": {"type": "string"}
				},
				"required": ["command"]
			}`),
		},
		"invalid json": {
			schemaData: []byte(`{"invalid": json}`),
			wantErr:    true,
			errMsg:     "unmarshal schema",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			v, err := schema.NewValidator("/test.json", tc.schemaData)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorContains(t, err, tc.errMsg)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, v)
		})
	}
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	schemaData := []byte(`{
		"type": "object",
		"properties": {
			"command": {"type": "string"},
			"paths": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["command"]
	}`)

	v, err := schema.NewValidator("/test.json", schemaData)
	require.NoError(t, err)

	tcs := map[string]struct {
		data    any
		wantErr bool
	}{
		"valid": {
			data: map[string]any{
				"command": "make build",
				"paths":   []any{"/tmp"},
			},
		},
		"missing required field": {
			data:    map[string]any{"paths": []any{"/tmp"}},
			wantErr: true,
		},
		"wrong type": {
			data:    map[string]any{"command": 42},
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := v.Validate(tc.data)
			if tc.wantErr {
				require.Error(t, err)

				var vErr *schema.ValidationError
				require.ErrorAs(t, err, &vErr)

				return
			}

			require.NoError(t, err)
		})
	}
}

func mustBuildPath(t *testing.T, parts ...string) *yaml.Path {
	t.Helper()

	pb := yaml.PathBuilder{}
	current := pb.Root()

	for _, part := range parts {
		current = current.Child(part)
	}

	return current.Build()
}
