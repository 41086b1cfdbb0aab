package spec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pkordes/trip-tracker/spec"
)

type document struct {
	OpenAPI string                    `yaml:"openapi"`
	Paths   map[string]map[string]any `yaml:"paths"`
}

// TestOpenAPI_documentsEveryRoute keeps the embedded document in step with
// the routes mounted by handler.Server.
func TestOpenAPI_documentsEveryRoute(t *testing.T) {
	var doc document
	require.NoError(t, yaml.Unmarshal(spec.OpenAPI, &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)

	routes := map[string][]string{
		"/healthz":                               {"get"},
		"/openapi.yaml":                          {"get"},
		"/metrics":                               {"get"},
		"/state":                                 {"get"},
		"/contact-form":                          {"put"},
		"/stop-popup":                            {"delete"},
		"/trips":                                 {"get"},
		"/trips/refresh":                         {"post"},
		"/trips/{tripID}/select":                 {"post"},
		"/trips/{tripID}/stops/{ordinal}/select": {"post"},
		"/stops":                                 {"get"},
		"/stops/refresh":                         {"post"},
		"/reports":                               {"get", "post"},
		"/reports/delete":                        {"post"},
		"/reports/{index}":                       {"delete"},
	}
	require.Len(t, doc.Paths, len(routes))
	for path, methods := range routes {
		item, ok := doc.Paths[path]
		require.True(t, ok, "missing path %s", path)
		for _, m := range methods {
			op, ok := item[m].(map[string]any)
			require.True(t, ok, "missing %s %s", m, path)
			assert.NotEmpty(t, op["operationId"], "%s %s has no operationId", m, path)
		}
	}
}
