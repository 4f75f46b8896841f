package crawler

import (
	"testing"
	"time"
)

func TestDiscoveredAddAndExpiry(t *testing.T) {
	now := time.Now()
	d := NewDiscovered(10 * time.Second)
	d.now = func() time.Time { return now }

	if !d.Add("http://example.com/a") {
		t.Fatal("first add should report a new entry")
	}
	if d.Add("http://example.com/a") {
		t.Fatal("immediate repeat add should report an existing entry")
	}

	now = now.Add(11 * time.Second)
	if !d.Add("http://example.com/a") {
		t.Fatal("add after expiry should report a new entry again")
	}
}

func TestDiscoveredExcludesExpired(t *testing.T) {
	now := time.Now()
	d := NewDiscovered(time.Minute)
	d.now = func() time.Time { return now }

	d.Add("http://example.com/a")
	now = now.Add(30 * time.Second)
	d.Add("http://example.com/b")

	if got := d.Size(); got != 2 {
		t.Fatalf("size = %d, want 2", got)
	}

	now = now.Add(45 * time.Second)
	if got := d.Size(); got != 1 {
		t.Fatalf("size after expiry = %d, want 1", got)
	}
	uris := d.List()
	if len(uris) != 1 || uris[0] != "http://example.com/b" {
		t.Fatalf("list = %v, want only the unexpired entry", uris)
	}
}

func TestDiscoveredListOldestFirst(t *testing.T) {
	now := time.Now()
	d := NewDiscovered(time.Hour)
	d.now = func() time.Time { return now }

	d.Add("http://example.com/first")
	now = now.Add(time.Second)
	d.Add("http://example.com/second")
	now = now.Add(time.Second)
	d.Add("http://example.com/third")

	uris := d.List()
	want := []string{
		"http://example.com/first",
		"http://example.com/second",
		"http://example.com/third",
	}
	for i := range want {
		if uris[i] != want[i] {
			t.Fatalf("list[%d] = %q, want %q", i, uris[i], want[i])
		}
	}
}
