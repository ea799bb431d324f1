package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveGeneration(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveGeneration(5, 2, 150*time.Millisecond)
	m.ObserveGeneration(1, 0, 20*time.Millisecond)

	assert.Equal(t, 6.0, testutil.ToFloat64(m.blocksCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.blocksSkipped))
	assert.Equal(t, 1, testutil.CollectAndCount(m.generationDuration))
}

func TestMetrics_RequestTransitionAndDigest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RequestTransition(model.RequestStatusRequested)
	m.RequestTransition(model.RequestStatusRequested)
	m.RequestTransition(model.RequestStatusRejected)
	m.DigestRun(nil)
	m.DigestRun(errors.New("db down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestTransitions.WithLabelValues("requested")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTransitions.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.digestRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.digestRuns.WithLabelValues("error")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveGeneration(3, 0, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "colloqui_meeting_blocks_created_total 3")
}

func TestMetrics_Push(t *testing.T) {
	var (
		method, path string
		body         []byte
	)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	m := New(prometheus.NewRegistry())
	m.ObserveGeneration(4, 1, 50*time.Millisecond)

	err := m.Push(context.Background(), gateway.URL, "colloqui_generate", map[string]string{"teacher_id": "12"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/colloqui_generate/teacher_id/12", path)
	assert.Contains(t, string(body), "colloqui_meeting_blocks_created_total")
	assert.Contains(t, string(body), "colloqui_generation_duration_seconds")
}

func TestMetrics_PushGatewayError(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer gateway.Close()

	m := New(prometheus.NewRegistry())

	err := m.Push(context.Background(), gateway.URL, "colloqui_generate", nil)
	assert.Error(t, err)
}
