package crawler

import (
	"fmt"
	"strings"

	"github.com/dramsay9/chain-crawler/pkg/types"
)

// compiledQuery is a Query normalised for matching: namespace applied,
// everything lowercased, plural forms precomputed.
type compiledQuery struct {
	typ     string
	plurals []string
	title   string
	extra   map[string]any
}

func compileQuery(q types.Query) compiledQuery {
	cq := compiledQuery{extra: q.Extra}
	if q.Type != "" {
		cq.typ = strings.ToLower(q.Namespace + q.Type)
		// There is no general way back from a plural relation name to its
		// singular, so precompute the forms a collection of this type could
		// be published under.
		cq.plurals = []string{cq.typ + "s", cq.typ + "es"}
		if q.Plural != "" {
			cq.plurals = append(cq.plurals, strings.ToLower(q.Namespace+q.Plural))
		}
	}
	if q.Title != "" {
		cq.title = strings.ToLower(q.Title)
	}
	return cq
}

// matchesType applies the type rule: the singular form matches any link, a
// plural form only matches links lifted out of a collection (their inherited
// type is the enclosing plural relation).
func (cq compiledQuery) matchesType(linkType string, fromCollection bool) bool {
	lt := strings.ToLower(linkType)
	if lt == cq.typ {
		return true
	}
	if !fromCollection {
		return false
	}
	for _, plural := range cq.plurals {
		if lt == plural {
			return true
		}
	}
	return false
}

// matchLinks returns the hrefs of records satisfying every present criterion
// of the query. It never needs the target resource downloaded.
func (cq compiledQuery) matchLinks(records []types.LinkRecord) []string {
	var matched []string
	for _, rec := range records {
		if cq.typ != "" && !cq.matchesType(rec.Type, rec.FromCollection) {
			continue
		}
		if cq.title != "" && strings.ToLower(rec.Title) != cq.title {
			continue
		}
		matched = append(matched, rec.Href)
	}
	return matched
}

// matchCurrent decides whether the node the crawler is parked on satisfies
// the query, including attribute criteria that require the downloaded
// document. It returns the current URI or nothing.
func (cq compiledQuery) matchCurrent(pos types.Position, doc map[string]any) []string {
	if cq.typ != "" {
		lt := strings.ToLower(pos.Type)
		if lt != cq.typ && !contains(cq.plurals, lt) {
			return nil
		}
	}
	if cq.title != "" && strings.ToLower(pos.Title) != cq.title {
		return nil
	}
	for key, want := range cq.extra {
		got, ok := doc[key]
		if !ok || !scalarEqual(got, want) {
			return nil
		}
	}
	return []string{pos.URI}
}

// scalarEqual compares a decoded JSON scalar with an expected value without
// tripping over json's float64 decoding of numbers.
func scalarEqual(got, want any) bool {
	if got == want {
		return true
	}
	return fmt.Sprint(got) == fmt.Sprint(want)
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
