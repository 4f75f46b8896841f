package crawler

import (
	"testing"

	"github.com/dramsay9/chain-crawler/pkg/types"
)

func TestMatchLinksPluralRequiresCollection(t *testing.T) {
	cq := compileQuery(types.Query{Type: "sensor"})

	collection := types.LinkRecord{
		Href:           "http://example.com/sensors/1",
		Type:           "sensors",
		FromCollection: true,
	}
	if got := cq.matchLinks([]types.LinkRecord{collection}); len(got) != 1 {
		t.Fatalf("plural type from collection should match, got %v", got)
	}

	notCollection := collection
	notCollection.FromCollection = false
	if got := cq.matchLinks([]types.LinkRecord{notCollection}); len(got) != 0 {
		t.Fatalf("plural type outside a collection must not match, got %v", got)
	}

	singular := types.LinkRecord{Href: "http://example.com/sensors/2", Type: "Sensor"}
	if got := cq.matchLinks([]types.LinkRecord{singular}); len(got) != 1 {
		t.Fatalf("singular type should match regardless of collection, got %v", got)
	}
}

func TestMatchLinksNamespaceAndExplicitPlural(t *testing.T) {
	cq := compileQuery(types.Query{
		Namespace: "http://example.com/rels/",
		Type:      "person",
		Plural:    "people",
	})

	rec := types.LinkRecord{
		Href:           "http://example.com/people/7",
		Type:           "http://example.com/rels/people",
		FromCollection: true,
	}
	if got := cq.matchLinks([]types.LinkRecord{rec}); len(got) != 1 {
		t.Fatalf("explicit plural with namespace should match, got %v", got)
	}
}

func TestMatchLinksTitleAnded(t *testing.T) {
	cq := compileQuery(types.Query{Type: "device", Title: "Test004"})

	records := []types.LinkRecord{
		{Href: "http://example.com/devices/1", Type: "device", Title: "test004"},
		{Href: "http://example.com/devices/2", Type: "device", Title: "other"},
		{Href: "http://example.com/sites/1", Type: "site", Title: "test004"},
	}
	got := cq.matchLinks(records)
	if len(got) != 1 || got[0] != "http://example.com/devices/1" {
		t.Fatalf("type and title must both hold, got %v", got)
	}
}

func TestMatchLinksNoCriteriaMatchesEverything(t *testing.T) {
	cq := compileQuery(types.Query{})
	records := []types.LinkRecord{
		{Href: "http://example.com/a", Type: "x"},
		{Href: "http://example.com/b", Type: "y"},
	}
	if got := cq.matchLinks(records); len(got) != 2 {
		t.Fatalf("empty query should match all links, got %v", got)
	}
}

func TestMatchCurrentWithAttributes(t *testing.T) {
	cq := compileQuery(types.Query{
		Type:  "sensor",
		Extra: map[string]any{"sensor_type": "AlphasenseO3-A4"},
	})

	pos := types.Position{
		URI:   "http://example.com/sensors/9",
		Type:  "sensors",
		Title: "o3 sensor",
	}
	doc := map[string]any{"sensor_type": "AlphasenseO3-A4"}
	if got := cq.matchCurrent(pos, doc); len(got) != 1 || got[0] != pos.URI {
		t.Fatalf("attribute match should return the current uri, got %v", got)
	}

	if got := cq.matchCurrent(pos, map[string]any{"sensor_type": "other"}); len(got) != 0 {
		t.Fatalf("wrong attribute value must not match, got %v", got)
	}
	if got := cq.matchCurrent(pos, map[string]any{}); len(got) != 0 {
		t.Fatalf("missing attribute must not match, got %v", got)
	}
}

func TestMatchCurrentNumericAttribute(t *testing.T) {
	// JSON numbers decode to float64; the comparison has to cope when the
	// caller supplied an int.
	cq := compileQuery(types.Query{Extra: map[string]any{"site_id": 3}})
	pos := types.Position{URI: "http://example.com/devices/3", Type: "device"}
	if got := cq.matchCurrent(pos, map[string]any{"site_id": float64(3)}); len(got) != 1 {
		t.Fatalf("numeric attribute should match across decode types, got %v", got)
	}
}
