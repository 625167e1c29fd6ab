package api

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 10, clampLimit("", 10, 100))
	assert.Equal(t, 25, clampLimit("25", 10, 100))
	assert.Equal(t, 100, clampLimit("500", 10, 100))
	assert.Equal(t, 10, clampLimit("0", 10, 100))
	assert.Equal(t, 10, clampLimit("-3", 10, 100))
	assert.Equal(t, 10, clampLimit("abc", 10, 100))
}

func TestQualifyQuotesSchemaAndTable(t *testing.T) {
	h := &handlers{schema: "gold"}
	assert.Equal(t, `"gold"."dim_date"`, h.qualify("dim_date"))

	h.schema = `we"ird`
	assert.Equal(t, `"we""ird"."dim_date"`, h.qualify("dim_date"))
}

func TestNewRouterRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRouter(nil, "gold", logger)

	paths := make(map[string]bool)
	for _, route := range r.Routes() {
		paths[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /api/production-daily",
		"GET /api/energy-mix",
		"GET /api/capacity-by-region",
		"GET /api/monthly-summary",
		"GET /api/plants/top",
	} {
		require.True(t, paths[want], want)
	}
}
