package twinmodel

import (
	"bytes"
	"context"
	"encoding/gob"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gocloud.dev/pubsub/mempubsub"
)

func TestForestChangedIsEmpty(t *testing.T) {
	forest, err := BuildForest(nil, storeOf("a"))
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	h := HashForest(forest)

	tests := []struct {
		Name    string
		Changed ForestChanged
		Want    bool
	}{
		{Name: "Same", Changed: ForestChanged{Before: h, After: h}, Want: true},
		{Name: "Different", Changed: ForestChanged{After: h}, Want: false},
		{Name: "Zero", Changed: ForestChanged{}, Want: true},
	}
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			if got := tt.Changed.IsEmpty(); got != tt.Want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.Want)
			}
		})
	}
}

func TestForestChangedGobMarshalling(t *testing.T) {
	forest, err := BuildForest(
		[]Edge{{Source: "pump-001", Target: "tank-001"}},
		storeOf("pump-001", "tank-001"),
	)
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}

	value := ForestChanged{
		Before:    ForestHash{1},
		After:     HashForest(forest),
		Forest:    forest,
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	var p bytes.Buffer
	if err := gob.NewEncoder(&p).Encode(value); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var got ForestChanged
	if err := gob.NewDecoder(&p).Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(value, got); diff != "" {
		t.Errorf("Round-trip mismatch (-want +got):\n%v", diff)
	}
}

func TestNotifierPublish(t *testing.T) {
	ctx := context.Background()
	topic := mempubsub.NewTopic()
	defer topic.Shutdown(ctx)
	sub := mempubsub.NewSubscription(topic, time.Second)
	defer sub.Shutdown(ctx)

	forest, err := BuildForest(nil, storeOf("pump-001"))
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	changed := ForestChanged{
		After:     HashForest(forest),
		Forest:    forest,
		Timestamp: time.Now().UTC(),
	}

	notifier := NewNotifier("planttwin", topic)
	if err := notifier.Publish(ctx, changed); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	receiveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	msg, err := sub.Receive(receiveCtx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	msg.Ack()

	if got, want := msg.Metadata["forest-after"], changed.After.String(); got != want {
		t.Errorf("Metadata[forest-after] = %q, want %q", got, want)
	}
	var got ForestChanged
	if err := gob.NewDecoder(bytes.NewReader(msg.Body)).Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(changed, got); diff != "" {
		t.Errorf("Received notification mismatch (-want +got):\n%v", diff)
	}
}

// Publishing an empty notification must not touch the pubsub service at all.
func TestNotifierSkipsEmpty(t *testing.T) {
	ctx := context.Background()
	topic := mempubsub.NewTopic()
	defer topic.Shutdown(ctx)
	sub := mempubsub.NewSubscription(topic, time.Second)
	defer sub.Shutdown(ctx)

	notifier := NewNotifier("planttwin", topic)
	if err := notifier.Publish(ctx, ForestChanged{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	receiveCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if msg, err := sub.Receive(receiveCtx); err == nil {
		msg.Ack()
		t.Error("Receive returned a message for an empty notification")
	}
}

func TestForestView(t *testing.T) {
	var view ForestView

	if _, _, ok := view.Current(); ok {
		t.Error("Current() on a fresh view reports ok = true")
	}

	forest, err := BuildForest(nil, storeOf("pump-001"))
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	changed := ForestChanged{After: HashForest(forest), Forest: forest}
	view.update(changed)

	got, hash, ok := view.Current()
	if !ok {
		t.Fatal("Current() reports ok = false after an update")
	}
	if hash != changed.After {
		t.Errorf("Current() hash = %v, want %v", hash, changed.After)
	}
	if diff := cmp.Diff(forest, got); diff != "" {
		t.Errorf("Current() forest mismatch (-want +got):\n%v", diff)
	}
}
