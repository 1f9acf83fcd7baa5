// AngelaMos | 2026
// metrics_test.go

package core

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/users/discord?id=1234", "/users/discord"},
		{"/users/42/accesses", "/users/{id}/accesses"},
		{"/users/7c9e6679-7425-40de-944b-e07fc1f90ae7/accesses", "/users/{id}/accesses"},
		{"/products/17", "/products/{id}"},
		{"/", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEndpoint(tt.path))
		})
	}
}

func TestMetricsRecordAndServe(t *testing.T) {
	m := NewMetrics()

	m.ObserveCommand("sync", "success", 150*time.Millisecond)
	m.ObserveCommand("sync", "success", 50*time.Millisecond)
	m.ObserveCommerceRequest("/products/{id}", 200, 20*time.Millisecond)
	m.ObserveCommerceRequest("/products/{id}", 0, time.Second)
	m.ObserveRoleMutation("add")

	assert.InDelta(t, 2, testutil.ToFloat64(m.commandsTotal.WithLabelValues("sync", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.commerceRequests.WithLabelValues("/products/{id}", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.roleMutations.WithLabelValues("add")), 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "entitlement_bot_commands_total")
	assert.Contains(t, rec.Body.String(), "entitlement_bot_role_mutations_total")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveCommand("products", "failure", time.Second)
		m.ObserveCommerceRequest("/products/{id}", 500, time.Second)
		m.ObserveRoleMutation("remove")
	})
}
