package twinmodel

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// A Diagnostic is a non-fatal finding about an instance's conformance to its
// resolved model. Diagnostics never fail forest construction; they are
// reported for operators to act on.
type Diagnostic struct {
	// InstanceID identifies the instance the finding concerns.
	InstanceID string
	// Property names the offending property, when the finding concerns one.
	Property string
	// Message describes the finding.
	Message string
}

func (d Diagnostic) String() string {
	if d.Property == "" {
		return fmt.Sprintf("%s: %s", d.InstanceID, d.Message)
	}
	return fmt.Sprintf("%s: property %q: %s", d.InstanceID, d.Property, d.Message)
}

// CheckProperties compares an instance's property values against the Property
// contents of its resolved model and reports mismatches as diagnostics.
//
// Two kinds of findings are reported: a property set on the instance that the
// model does not declare, and a property value whose dynamic type does not fit
// the declared schema. Schemas with no known value mapping are skipped rather
// than reported, because the model may legitimately use a complex schema this
// check does not understand.
func CheckProperties(resolved ResolvedInterface, inst Instance) []Diagnostic {
	declared := make(map[string]ContentItem)
	for _, item := range resolved.OfKind(Property) {
		declared[item.Name] = item
	}

	var findings []Diagnostic
	for _, name := range sortedKeys(inst.Properties) {
		item, ok := declared[name]
		if !ok {
			findings = append(findings, Diagnostic{
				InstanceID: inst.ID,
				Property:   name,
				Message:    fmt.Sprintf("not declared by model %s", resolved.ID),
			})
			continue
		}
		if msg := checkValue(inst.Properties[name], item.SchemaName()); msg != "" {
			findings = append(findings, Diagnostic{
				InstanceID: inst.ID,
				Property:   name,
				Message:    msg,
			})
		}
	}
	return findings
}

// AuditStore checks every instance in the store against its resolved model
// and collects the findings. Instances whose model cannot be resolved yield a
// single diagnostic carrying the resolution failure instead of aborting the
// audit; other resolution work proceeds regardless.
//
// Instances are checked concurrently, one goroutine per instance, but the
// returned findings follow the store's declaration order. The context cancels
// outstanding checks; a cancellation is the only error AuditStore returns.
func AuditStore(ctx context.Context, resolver *Resolver, store *InstanceStore) ([]Diagnostic, error) {
	ids := store.IDs()
	perInstance := make([][]Diagnostic, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			inst, err := store.Get(id)
			if err != nil {
				return err
			}
			resolved, err := resolver.Resolve(inst.ModelID)
			if err != nil {
				perInstance[i] = []Diagnostic{{
					InstanceID: inst.ID,
					Message:    fmt.Sprintf("model %s: %v", inst.ModelID, err),
				}}
				return nil
			}
			perInstance[i] = CheckProperties(resolved, inst)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var findings []Diagnostic
	for _, f := range perInstance {
		findings = append(findings, f...)
	}
	return findings, nil
}

// checkValue reports a mismatch message when the dynamic type of v does not
// fit the named schema, or "" when it does or when the schema is not a
// primitive this check understands.
func checkValue(v any, schema string) string {
	switch schema {
	case "boolean":
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("expected boolean, got %T", v)
		}
	case "string":
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("expected string, got %T", v)
		}
	case "integer", "long":
		switch v.(type) {
		case int, int32, int64:
		case float64:
			// JSON decoding yields float64 for all numbers.
			if f := v.(float64); f != float64(int64(f)) {
				return fmt.Sprintf("expected %s, got fractional number %v", schema, f)
			}
		default:
			return fmt.Sprintf("expected %s, got %T", schema, v)
		}
	case "double", "float":
		switch v.(type) {
		case float32, float64, int, int32, int64:
		default:
			return fmt.Sprintf("expected %s, got %T", schema, v)
		}
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
