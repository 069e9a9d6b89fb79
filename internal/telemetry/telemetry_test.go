package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func TestInit_WithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), "devconnector-test", "")
	require.NoError(t, err)
	defer shutdown(context.Background())

	var traced bool
	h := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traced = trace.SpanContextFromContext(r.Context()).IsValid()
	}), "test")
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, traced)
}

func TestInit_ExportsToCollectorURL(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	ctx := context.Background()
	shutdown, err := Init(ctx, "devconnector-test", collector.URL)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(ctx, "op")
	span.End()
	require.NoError(t, shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, paths)
	assert.Equal(t, "/v1/traces", paths[0])
}
