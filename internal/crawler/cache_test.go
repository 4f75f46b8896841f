package crawler

import "testing"

func TestFingerprintCacheCheckAfterPut(t *testing.T) {
	cache := NewFingerprintCache(8)

	uri := "http://example.com/devices/1"
	if cache.Check(uri) {
		t.Fatalf("expected %q to be absent from a fresh cache", uri)
	}
	if cache.Put(uri) {
		t.Fatalf("first put of %q should not report a collision", uri)
	}
	if !cache.Check(uri) {
		t.Fatalf("expected %q to be present after put", uri)
	}
	if cache.Put(uri) {
		t.Fatalf("re-putting the same uri should not report a collision")
	}
}

func TestFingerprintCacheSlotIndependence(t *testing.T) {
	cache := NewFingerprintCache(8)

	// Find two URIs that land in different slots so one visit cannot
	// disturb the other.
	a := "http://example.com/sites/1"
	b := ""
	for i := 0; i < 10000; i++ {
		candidate := uriWithSuffix(i)
		fresh := NewFingerprintCache(8)
		fresh.Put(a)
		if !fresh.Check(a) {
			continue
		}
		fresh.Put(candidate)
		if fresh.Check(a) {
			b = candidate
			break
		}
	}
	if b == "" {
		t.Fatal("could not find a uri in a different slot")
	}

	cache.Put(a)
	cache.Put(b)
	if !cache.Check(a) || !cache.Check(b) {
		t.Fatal("visiting one uri must not affect another in a different slot")
	}
}

func TestFingerprintCacheCollisionEvicts(t *testing.T) {
	// A 1-bit mask gives two slots, so a handful of URIs is guaranteed to
	// collide.
	cache := NewFingerprintCache(1)

	uris := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		uris = append(uris, uriWithSuffix(i))
	}

	sawCollision := false
	var evictor string
	for _, uri := range uris {
		if cache.Put(uri) {
			sawCollision = true
			evictor = uri
		}
	}
	if !sawCollision {
		t.Fatal("expected at least one collision with a 2-slot table")
	}
	if !cache.Check(evictor) {
		t.Fatal("last write must win the slot")
	}
}

func TestFingerprintCacheClear(t *testing.T) {
	cache := NewFingerprintCache(4)
	uri := "http://example.com/sensors/3"
	cache.Put(uri)
	cache.Clear()
	if cache.Check(uri) {
		t.Fatal("expected cache to be empty after clear")
	}
}

func uriWithSuffix(i int) string {
	return "http://example.com/resources/" + string(rune('a'+i%26)) + "/" + string(rune('0'+i%10))
}
