package twinmodel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/go-twinmodel/go-twinmodel")
var meter = otel.Meter("github.com/go-twinmodel/go-twinmodel")

const (
	// twinGraphName is the attribute key used to associate each record with
	// the corresponding twin graph name. This enables detailed analysis of
	// metrics, such as publishDuration and publishFailures, allowing both
	// collective examination across all twin graphs and individual analysis
	// per graph.
	twinGraphName = "twingraph"
)

var (
	// publishDuration measures the duration of publishing a single
	// ForestChanged notification to the pubsub service.
	//
	// Each record is associated with the twinGraphName.
	publishDuration metric.Float64Histogram
	// publishFailures measures the number of failed ForestChanged publishes.
	//
	// Each record is associated with the twinGraphName.
	publishFailures metric.Int64Counter
)

func init() {
	var err error
	publishDuration, err = meter.Float64Histogram(
		"forestChanged.publish.duration",
		metric.WithDescription("The duration of publishing a single ForestChanged notification to the pubsub service."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic("twinmodel: failed to init 'forestChanged.publish.duration' instrument")
	}

	publishFailures, err = meter.Int64Counter(
		"forestChanged.publish.failures",
		metric.WithDescription("The number of ForestChanged publishes that have failed."),
	)
	if err != nil {
		panic("twinmodel: failed to init 'forestChanged.publish.failures' instrument")
	}
}

// measurePublish measures a single ForestChanged publish using the
// measurements publishDuration and publishFailures. If the publish succeeded,
// we record its duration. If it failed, we increment the failure counter.
//
// Each record, whether it's for publish duration or failures, is labeled with
// the relevant twin graph name. This labeling allows for collective analysis
// of all publishes, as well as detailed individual analysis per twin graph.
//
// According to [metric] documentation, [metric.WithAttributeSet] should be used
// instead of [metric.WithAttributes] for performance optimization.
func measurePublish(ctx context.Context, graphName string, succeeded bool, d time.Duration) {
	// According to go.opentelemetry.io/otel/attribute package documentation,
	// attribute.Set should be used instead of attribute.KeyValue directly for
	// performance optimization.
	attrs := attribute.NewSet(attribute.String(twinGraphName, graphName))
	if succeeded {
		// We use floating-point division here for higher precision (instead of the
		// Millisecond method).
		duration := float64(d) / float64(time.Millisecond)
		publishDuration.Record(ctx, duration, metric.WithAttributeSet(attrs))
	} else {
		publishFailures.Add(ctx, 1, metric.WithAttributeSet(attrs))
	}
}
