package crawler

import (
	"sort"
	"time"
)

// Discovered is a time-decayed set of result URIs. An entry older than the
// configured persistence window is treated as absent, which lets the crawler
// re-emit a resource after the window passes without ever growing without
// bound on a stable graph.
type Discovered struct {
	entries     map[string]time.Time
	persistence time.Duration
	now         func() time.Time
}

// NewDiscovered creates a set whose entries expire after persistence.
func NewDiscovered(persistence time.Duration) *Discovered {
	return &Discovered{
		entries:     make(map[string]time.Time),
		persistence: persistence,
		now:         time.Now,
	}
}

// Add inserts or refreshes uri and reports whether it was absent or expired
// at call time. A true result means the uri is genuinely new and should be
// emitted downstream.
func (d *Discovered) Add(uri string) bool {
	now := d.now()
	at, ok := d.entries[uri]
	d.entries[uri] = now
	if !ok {
		return true
	}
	return now.Sub(at) > d.persistence
}

// Size counts unexpired entries.
func (d *Discovered) Size() int {
	d.compact()
	return len(d.entries)
}

// List returns the unexpired URIs, oldest first.
func (d *Discovered) List() []string {
	d.compact()
	uris := make([]string, 0, len(d.entries))
	for uri := range d.entries {
		uris = append(uris, uri)
	}
	sort.Slice(uris, func(i, j int) bool {
		a, b := d.entries[uris[i]], d.entries[uris[j]]
		if a.Equal(b) {
			return uris[i] < uris[j]
		}
		return a.Before(b)
	})
	return uris
}

func (d *Discovered) compact() {
	now := d.now()
	for uri, at := range d.entries {
		if now.Sub(at) > d.persistence {
			delete(d.entries, uri)
		}
	}
}
