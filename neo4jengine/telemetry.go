package neo4jengine

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/go-twinmodel/go-twinmodel/neo4jengine")
var meter = otel.Meter("github.com/go-twinmodel/go-twinmodel/neo4jengine")

var (
	// placeholderCounter counts how many times PutEdge created or touched an
	// endpoint node that has no stored instance yet. This counter will help us
	// monitor producers that store edges ahead of their instances.
	placeholderCounter metric.Int64Counter
)

func init() {
	// We're initiating the metric instruments on the otel meter. Encountering an
	// error during an instrument's initialisation triggers a panic. This scenario
	// should not occur; if it does, it is likely related to the attributes applied
	// on the instrument.
	var err error
	placeholderCounter, err = meter.Int64Counter(
		"engine_edge_placeholder_endpoint_counter",
		metric.WithDescription("how many times an edge was stored before its endpoint instances"),
	)
	if err != nil {
		s := fmt.Sprintf("engine: failed to init 'engine_edge_placeholder_endpoint_counter' instrument: %v", err)
		panic(s)
	}
}
