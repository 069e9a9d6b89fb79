package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKale112/devConnector/internal/events"
)

func TestInstrument_CountsByRouteAndCode(t *testing.T) {
	m := New()
	h := m.Instrument("GET /api/posts/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/posts/x", nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET /api/posts/{id}", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.latency))
}

func TestCountActivity(t *testing.T) {
	m := New()
	rec := &events.Recorder{}
	p := m.CountActivity(rec)
	require.NoError(t, p.Publish(context.Background(), events.Event{Type: events.PostLiked}))
	require.NoError(t, p.Publish(context.Background(), events.Event{Type: events.PostLiked}))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.activity.WithLabelValues(events.PostLiked)))
	assert.Len(t, rec.Events(), 2)
}

func TestHandler_Exposes(t *testing.T) {
	m := New()
	m.Instrument("GET /healthz", http.NotFoundHandler()).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "devconnector_http_requests_total")
}
