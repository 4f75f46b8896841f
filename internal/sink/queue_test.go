package sink

import (
	"context"
	"testing"
	"time"
)

func TestQueueDeliverAndConsume(t *testing.T) {
	q := NewQueue(2)
	ctx := context.Background()

	if err := q.Deliver(ctx, "http://example.com/a"); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if err := q.Deliver(ctx, "http://example.com/b"); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	q.Close()

	var got []string
	for uri := range q.URIs() {
		got = append(got, uri)
	}
	if len(got) != 2 || got[0] != "http://example.com/a" || got[1] != "http://example.com/b" {
		t.Fatalf("consumed %v, want both uris in order", got)
	}
}

func TestQueueDeliverHonoursContext(t *testing.T) {
	q := NewQueue(1)
	ctx := context.Background()
	if err := q.Deliver(ctx, "http://example.com/a"); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	full, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := q.Deliver(full, "http://example.com/b"); err == nil {
		t.Fatal("deliver into a full queue should fail once ctx expires")
	}
}
