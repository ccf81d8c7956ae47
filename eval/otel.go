package eval

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observer emits optional OpenTelemetry spans and metrics per evaluated
// sample. A nil tracer or meter disables that half; observability failures
// never affect evaluation results.
type Observer struct {
	tracer trace.Tracer

	accuracyHistogram metric.Float64Histogram
	sampleCounter     metric.Int64Counter
}

// ObserverOptions configures an Observer.
type ObserverOptions struct {
	// Tracer creates one span per evaluated sample.
	Tracer trace.Tracer

	// MeterProvider backs the accuracy histogram and sample counter.
	MeterProvider metric.MeterProvider
}

// NewObserver builds an observer from whatever half of the options is set.
func NewObserver(opts ObserverOptions) (*Observer, error) {
	obs := &Observer{tracer: opts.Tracer}

	if opts.MeterProvider != nil {
		meter := opts.MeterProvider.Meter("github.com/robustcall/sdk/eval")
		var err error

		obs.accuracyHistogram, err = meter.Float64Histogram(
			"eval.accuracy",
			metric.WithDescription("Per-sample accuracy from 0.0 to 1.0"),
			metric.WithUnit("1"),
		)
		if err != nil {
			return nil, fmt.Errorf("create accuracy histogram: %w", err)
		}

		obs.sampleCounter, err = meter.Int64Counter(
			"eval.samples",
			metric.WithDescription("Number of samples evaluated"),
			metric.WithUnit("1"),
		)
		if err != nil {
			return nil, fmt.Errorf("create sample counter: %w", err)
		}
	}
	return obs, nil
}

// Record emits a span and metrics for one result record. Safe to call on a
// nil or partially configured observer.
func (o *Observer) Record(ctx context.Context, rec ResultRecord) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("sample.id", rec.SampleID),
		attribute.String("sample.category", string(rec.Category)),
	}

	if o.tracer != nil {
		_, span := o.tracer.Start(ctx, "eval.sample")
		span.SetAttributes(attrs...)
		span.SetAttributes(attribute.Float64("eval.accuracy", rec.Accuracy))
		if rec.SecondaryMetric != nil {
			span.SetAttributes(attribute.Float64("eval.process_accuracy", *rec.SecondaryMetric))
		}
		if rec.ErrorType != "" {
			span.SetAttributes(attribute.String("eval.error_type", rec.ErrorType))
			span.SetStatus(codes.Error, rec.ErrorType)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}

	opts := metric.WithAttributes(attrs...)
	if o.accuracyHistogram != nil {
		o.accuracyHistogram.Record(ctx, rec.Accuracy, opts)
	}
	if o.sampleCounter != nil {
		o.sampleCounter.Add(ctx, 1, opts)
	}
}
