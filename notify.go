package twinmodel

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danielorbach/go-component"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gocloud.dev/pubsub"
)

// ForestChanged notifies about a change to a twin graph's forest. It carries
// the forest hash before and after the change together with the full forest
// that resulted from the change, so consumers can rebuild their view without
// re-reading the graph store.
type ForestChanged struct {
	// Before is the hash of the forest before the change. It is the zero
	// ForestHash when the forest is built for the first time.
	Before ForestHash
	// After is the hash of the forest after the change.
	After ForestHash
	// Forest is the validated forest after the change.
	Forest *Forest
	// Timestamp is the moment the change was observed.
	Timestamp time.Time
}

// IsEmpty reports whether the notification describes no actual change, which
// is the case when the forest hash before and after are the same.
func (c ForestChanged) IsEmpty() bool {
	return c.Before == c.After
}

// A Notifier publishes ForestChanged notifications to a pubsub topic, encoded
// using gob. Each publish is measured and labeled with the notifier's twin
// graph name (e.g. "planttwin").
type Notifier struct {
	graphName string
	sink      *pubsub.Topic
}

// NewNotifier returns a Notifier that publishes to the given sink.
func NewNotifier(graphName string, sink *pubsub.Topic) *Notifier {
	return &Notifier{graphName: graphName, sink: sink}
}

// Publish encodes the given notification using gob and sends it to the
// notifier's sink. Empty notifications are skipped without touching the
// pubsub service.
func (n *Notifier) Publish(ctx context.Context, changed ForestChanged) (err error) {
	ctx, span := tracer.Start(ctx, "notifier.Publish", trace.WithAttributes(
		attribute.String("forest.before", changed.Before.String()),
		attribute.String("forest.after", changed.After.String()),
	))
	defer span.End()

	defer func(start time.Time) {
		measurePublish(ctx, n.graphName, err == nil, time.Since(start))
	}(time.Now())

	if changed.IsEmpty() {
		return nil
	}

	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(changed); err != nil {
		err := fmt.Errorf("encode gob: %w", err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := n.sink.Send(ctx, &pubsub.Message{
		Body: body.Bytes(),
		Metadata: map[string]string{
			"forest-after": changed.After.String(),
		},
	}); err != nil {
		err := fmt.Errorf("send: %w", err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// A ForestView holds the last known forest of a twin graph, as reported by
// ForestChanged notifications. Use TrackForest to keep a ForestView current.
//
// A ForestView is safe for concurrent use.
type ForestView struct {
	mu     sync.Mutex
	forest *Forest
	hash   ForestHash
}

// Current returns the last known forest and its hash. It indicates by
// ok == false that no notification has been observed yet.
//
// Current is safe for concurrent use.
func (v *ForestView) Current() (forest *Forest, hash ForestHash, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.forest, v.hash, v.forest != nil
}

func (v *ForestView) update(changed ForestChanged) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.forest = changed.Forest
	v.hash = changed.After
}

// TrackForest returns a component.Proc that tracks ForestChanged notifications
// of a twin graph and maintains an up-to-date view of its forest. Use the
// Current method of ForestView to access the last known forest.
//
// This procedure runs sequentially over ForestChanged messages. When the
// previous hash of an incoming notification does not match the last handled
// hash, the procedure has missed a notification and exits, because it cannot
// trust its view anymore.
func TrackForest(view *ForestView, source *pubsub.Subscription) component.Proc {
	return func(l *component.L) {
		var trackedForest ForestHash
		for l.Continue() {
			msg, err := source.Receive(l.GraceContext())
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				l.Errorf("receive: %v", err)
				continue
			}
			var changed ForestChanged
			dec := gob.NewDecoder(bytes.NewReader(msg.Body))
			if err := dec.Decode(&changed); err != nil {
				l.Fatalf("Failed to unmarshal forest changes; stopping forest tracking: %v\n", err)
			}

			if trackedForest != (ForestHash{}) && trackedForest != changed.Before {
				l.Logf("Detected a discontinuity in ForestChanged messages: last handled forest hash %s, received previous forest hash %s",
					trackedForest.String(), changed.Before.String())
				l.Fatalf("Exiting due to detected discontinuity")
			}

			view.update(changed)
			trackedForest = changed.After
			msg.Ack()
		}
	}
}
