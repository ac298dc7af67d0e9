package telemetry_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/msomdec/passgate/internal/telemetry"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), "passgate-test", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so nothing is exported.
	shutdown, err := telemetry.Setup(context.Background(), "passgate-test", "http://192.0.2.1:4318")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	rec := tracetest.NewSpanRecorder()
	return rec, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
}

func attr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestMiddleware_RecordsRouteAndStatus(t *testing.T) {
	rec, tp := newRecorder()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, trace.SpanContextFromContext(r.Context()).IsValid())
		w.WriteHeader(http.StatusUnauthorized)
	})

	w := httptest.NewRecorder()
	telemetry.Middleware(tp, mux).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Equal(t, "GET /api/users/me", span.Name())

	status, ok := attr(span.Attributes(), "http.response.status_code")
	require.True(t, ok)
	assert.Equal(t, int64(http.StatusUnauthorized), status.AsInt64())
	assert.Equal(t, codes.Unset, span.Status().Code)
}

func TestMiddleware_MarksServerErrors(t *testing.T) {
	rec, tp := newRecorder()

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	telemetry.Middleware(tp, h).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/boom", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, http.MethodPost, spans[0].Name())
}

func TestMiddleware_ContinuesRemoteTrace(t *testing.T) {
	rec, tp := newRecorder()
	otel.SetTextMapPropagator(propagation.TraceContext{})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	telemetry.Middleware(tp, h).ServeHTTP(httptest.NewRecorder(), req)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.True(t, spans[0].Parent().IsRemote())
}
