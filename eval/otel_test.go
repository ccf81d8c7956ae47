package eval

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObserverNilSafe(t *testing.T) {
	var obs *Observer
	obs.Record(context.Background(), ResultRecord{SampleID: "a"})

	obs, err := NewObserver(ObserverOptions{})
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}
	obs.Record(context.Background(), ResultRecord{SampleID: "a"})
}

func TestObserverSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	obs, err := NewObserver(ObserverOptions{Tracer: provider.Tracer("test")})
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}

	obs.Record(context.Background(), ResultRecord{
		SampleID: "pass", Category: CategoryNormal, Accuracy: 1,
	})
	obs.Record(context.Background(), ResultRecord{
		SampleID: "fail", Category: CategoryNormal, ErrorType: ErrTypeParamValue,
	})

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Name() != "eval.sample" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("passing sample span status = %v, want Ok", spans[0].Status().Code)
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("failing sample span status = %v, want Error", spans[1].Status().Code)
	}
	if spans[1].Status().Description != ErrTypeParamValue {
		t.Errorf("span status description = %q", spans[1].Status().Description)
	}
}

func TestObserverMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	obs, err := NewObserver(ObserverOptions{MeterProvider: provider})
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}

	ctx := context.Background()
	obs.Record(ctx, ResultRecord{SampleID: "a", Category: CategoryNormal, Accuracy: 1})
	obs.Record(ctx, ResultRecord{SampleID: "b", Category: CategoryNormal, Accuracy: 0})
	obs.Record(ctx, ResultRecord{SampleID: "c", Category: CategoryAgent, Accuracy: 0.5})

	var data metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &data); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var samples int64
	var histogramCount uint64
	for _, scope := range data.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch m.Name {
			case "eval.samples":
				sum := m.Data.(metricdata.Sum[int64])
				for _, dp := range sum.DataPoints {
					samples += dp.Value
				}
			case "eval.accuracy":
				hist := m.Data.(metricdata.Histogram[float64])
				for _, dp := range hist.DataPoints {
					histogramCount += dp.Count
				}
			}
		}
	}
	if samples != 3 {
		t.Errorf("sample counter = %d, want 3", samples)
	}
	if histogramCount != 3 {
		t.Errorf("accuracy histogram count = %d, want 3", histogramCount)
	}
}
