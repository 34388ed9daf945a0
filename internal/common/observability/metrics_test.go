package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordRequest(t *testing.T) {
	reg := promclient.NewRegistry()
	obs, err := New("franchise-leads-test", reg)
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	obs.RecordRequest(context.Background(), "POST", "/submit", 200, 12*time.Millisecond)
	obs.RecordRequest(context.Background(), "GET", "/admin/leads", 401, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "http_server_requests_total")
	assert.Contains(t, joined, "http_server_duration_milliseconds")

	labels := map[string]bool{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = true
			}
		}
	}
	assert.True(t, labels["http_route"], "labels: %v", labels)
	assert.True(t, labels["http_status_code"], "labels: %v", labels)
}

func TestObservability_NilIsNoop(t *testing.T) {
	var obs *Observability
	obs.RecordRequest(context.Background(), "GET", "/health", 200, time.Millisecond)
	assert.NoError(t, obs.Shutdown(context.Background()))
}
