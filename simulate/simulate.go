// Package simulate generates mock telemetry readings for twin instances based
// on their resolved models. It is intended for exercising downstream consumers
// of a twin graph before real devices are connected.
package simulate

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	twinmodel "github.com/go-twinmodel/go-twinmodel"
)

// A Reading is a single mock telemetry snapshot for one twin instance. Data
// holds one value per Telemetry content of the instance's resolved model,
// keyed by the telemetry name.
type Reading struct {
	Timestamp time.Time      `json:"timestamp"`
	TwinID    string         `json:"twin_id"`
	Data      map[string]any `json:"data"`
}

// A Generator produces mock telemetry readings. The zero value is not usable;
// construct one with NewGenerator.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a Generator seeded from the given source. Passing a
// fixed-seed source yields reproducible readings, which tests rely on.
func NewGenerator(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// Reading produces one mock telemetry snapshot for the given instance, with a
// value for every Telemetry content of the resolved model.
func (g *Generator) Reading(resolved twinmodel.ResolvedInterface, instanceID string) Reading {
	r := Reading{
		Timestamp: time.Now(),
		TwinID:    instanceID,
		Data:      make(map[string]any),
	}
	for _, tel := range resolved.OfKind(twinmodel.Telemetry) {
		r.Data[tel.Name] = g.value(tel.Name, tel.SchemaName())
	}
	return r
}

// value produces a plausible reading for a telemetry based on its name, so
// simulated plants behave recognizably (temperatures in degrees, voltages
// near mains level, percentages within 0..100). Names with no recognized
// meaning fall back to the schema's generic range.
func (g *Generator) value(name, schema string) any {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "temp"):
		return round1(g.uniform(20.0, 80.0))
	case strings.Contains(lower, "current"):
		return round2(g.uniform(5.0, 20.0))
	case strings.Contains(lower, "volt"):
		return round1(g.uniform(220.0, 240.0))
	case strings.Contains(lower, "pressure"):
		return round2(g.uniform(1.0, 5.0))
	case strings.Contains(lower, "flow"):
		return round2(g.uniform(10.0, 50.0))
	case strings.Contains(lower, "level"):
		return round1(g.uniform(0.0, 100.0))
	case strings.Contains(lower, "vib"):
		return round2(g.uniform(0.1, 2.0))
	}
	switch schema {
	case "double", "float":
		return round2(g.uniform(0.0, 100.0))
	case "integer", "long":
		return g.rng.IntN(101)
	}
	return 0.0
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
func round2(f float64) float64 { return math.Round(f*100) / 100 }

// DefaultValue returns the neutral value for the given content schema: the
// empty string, zero, or false for primitives, and the first enum value for
// Enum schemas. It returns nil for schemas it does not understand.
func DefaultValue(schema json.RawMessage) any {
	var name string
	if err := json.Unmarshal(schema, &name); err == nil {
		switch name {
		case "string":
			return ""
		case "double", "float":
			return 0.0
		case "integer", "long":
			return 0
		case "boolean":
			return false
		}
		return nil
	}

	var complexSchema struct {
		Type       string `json:"@type"`
		EnumValues []struct {
			EnumValue any `json:"enumValue"`
		} `json:"enumValues"`
	}
	if err := json.Unmarshal(schema, &complexSchema); err == nil &&
		complexSchema.Type == "Enum" && len(complexSchema.EnumValues) > 0 {
		return complexSchema.EnumValues[0].EnumValue
	}
	return nil
}
