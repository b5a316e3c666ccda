package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// These tests swap the global tracer provider, so they do not run in parallel.

func TestRouteSpansJoinIncomingTrace(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("study-planner-api"))
	r.HandleFunc("/api/v1/schedules/today", func(w http.ResponseWriter, r *http.Request) {
		_, span := StartSpan(r.Context(), "calendar", "GetTodaySchedule")
		EndSpan(span, nil)
		w.WriteHeader(http.StatusOK)
	})

	const traceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedules/today", nil)
	req.Header.Set("traceparent", traceParent)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected route span and service span, got %d", len(spans))
	}
	for _, s := range spans {
		if got := s.SpanContext.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
			t.Errorf("span %q not joined to incoming trace, trace id %s", s.Name, got)
		}
	}
}

func TestEndSpanRecordsError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)

	_, span := StartSpan(context.Background(), "calendar", "CreateSchedule", attribute.String("date", "2025-03-10"))
	EndSpan(span, errors.New("schedule conflicts detected"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status.Code)
	}
	if len(got.Events) == 0 {
		t.Error("expected the error to be recorded as a span event")
	}
	found := false
	for _, a := range got.Attributes {
		if a.Key == "date" && a.Value.AsString() == "2025-03-10" {
			found = true
		}
	}
	if !found {
		t.Error("expected date attribute on span")
	}
}
