package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/authcore/internal/handlers/testutil"
	"github.com/charlesng35/authcore/internal/monitoring"
)

func decodeHealth(t *testing.T, env *testutil.Env, path string, status int) monitoring.HealthReport {
	t.Helper()

	w := env.Request(http.MethodGet, path, nil)
	require.Equal(t, status, w.Code, w.Body.String())

	var report monitoring.HealthReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	return report
}

func staticCheck(name string, status monitoring.ProbeStatus) monitoring.Check {
	return monitoring.NewCheck(name, func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: status, Details: name + " probe"}
	})
}

func TestHealthUp(t *testing.T) {
	env := testutil.NewEnv(t)

	for _, path := range []string{"/health", "/api/health"} {
		report := decodeHealth(t, env, path, http.StatusOK)
		require.True(t, report.Success)
		require.Equal(t, monitoring.StatusUp, report.Status)
		require.Len(t, report.Checks, 1)
		require.Equal(t, "database", report.Checks[0].Component)
	}
}

func TestHealthDegradedStaysAvailable(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithHealthCheck(staticCheck("cache", monitoring.StatusDegraded)))

	report := decodeHealth(t, env, "/health", http.StatusOK)
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDegraded, report.Status)
	require.Len(t, report.Checks, 2)
}

func TestHealthDownReturnsUnavailable(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithHealthCheck(staticCheck("maintenance", monitoring.StatusDown)))

	report := decodeHealth(t, env, "/health", http.StatusServiceUnavailable)
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Equal(t, "maintenance probe", report.Checks[1].Details)
}

func TestMetricsAndUnknownRoutes(t *testing.T) {
	env := testutil.NewEnv(t)
	decodeHealth(t, env, "/health", http.StatusOK)

	w := env.Request(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "authcore_api_latency_seconds")

	w = env.Request(http.MethodGet, "/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "NOT_FOUND", testutil.DecodeResponse(t, w).Error.Code)
}
