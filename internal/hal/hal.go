// Package hal handles HAL+JSON hypermedia documents: CURIE shorthand
// expansion and flattening of a document's link section into a uniform list
// of candidate crawl links.
package hal

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/dramsay9/chain-crawler/pkg/types"
)

// LinksKey is the reserved member holding a resource's outbound relations.
const LinksKey = "_links"

// DefaultFilterKeywords lists relation-name fragments that never lead to a
// crawlable resource: forms, self references, curies declarations, and
// websocket upgrade links.
var DefaultFilterKeywords = []string{"edit", "create", "self", "curies", "websocket"}

var curieTemplate = regexp.MustCompile(`\{.*\}`)

// Links extracts the link section of a decoded document. A missing or
// malformed section yields nil, never an error.
func Links(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	links, _ := doc[LinksKey].(map[string]any)
	return links
}

// ExpandCuries rewrites shorthand relation names (ns:rel) in the document's
// link section to fully-qualified relation URIs, using the curies templates
// declared in the same document, then removes the consumed curies entry.
// Documents without a usable curies section are left untouched.
func ExpandCuries(doc map[string]any, logger *slog.Logger) {
	links := Links(doc)
	if links == nil {
		return
	}
	curies, ok := links["curies"].([]any)
	if !ok {
		logger.Debug("no curies section to apply")
		return
	}

	for _, raw := range curies {
		curie, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := curie["name"].(string)
		template, _ := curie["href"].(string)
		if name == "" || template == "" {
			continue
		}
		prefix := name + ":"
		for key, value := range links {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			rel := strings.SplitN(key, prefix, 2)[1]
			expanded := curieTemplate.ReplaceAllLiteralString(template, rel)
			links[expanded] = value
			delete(links, key)
			logger.Debug("curie applied", "from", key, "to", expanded)
		}
	}
	delete(links, "curies")
}

// FlattenLinks turns a link section into one LinkRecord per crawlable edge.
// Array-valued relations (HAL item collections) expand to one record per
// element, inheriting currentType since collection members carry no relation
// name of their own. Other relations become a single record typed by their
// relation name, unless the name contains one of the filter keywords. Null
// relations are dropped with a warning.
func FlattenLinks(links map[string]any, currentType string, filterKeywords []string, logger *slog.Logger) []types.LinkRecord {
	records := make([]types.LinkRecord, 0, len(links))

	for key, value := range links {
		if items, ok := value.([]any); ok {
			for _, raw := range items {
				item, ok := raw.(map[string]any)
				if !ok {
					logger.Warn("malformed collection element", "relation", key)
					continue
				}
				records = append(records, types.LinkRecord{
					Href:           stringField(item, "href"),
					Type:           currentType,
					Title:          stringField(item, "title"),
					FromCollection: true,
				})
			}
			continue
		}

		if containsAny(strings.ToLower(key), filterKeywords) {
			continue
		}
		if value == nil {
			logger.Warn("null link in resource", "relation", key)
			continue
		}
		link, ok := value.(map[string]any)
		if !ok {
			logger.Warn("malformed link in resource", "relation", key)
			continue
		}
		records = append(records, types.LinkRecord{
			Href:  stringField(link, "href"),
			Type:  key,
			Title: stringField(link, "title"),
		})
	}
	return records
}

// ExcludeVisited removes records whose href appears in the backtracking
// history, so the crawler does not immediately re-descend the edge it just
// came from.
func ExcludeVisited(records []types.LinkRecord, historyHrefs []string) []types.LinkRecord {
	if len(historyHrefs) == 0 {
		return records
	}
	visited := make(map[string]struct{}, len(historyHrefs))
	for _, href := range historyHrefs {
		visited[href] = struct{}{}
	}
	kept := records[:0]
	for _, rec := range records {
		if _, ok := visited[rec.Href]; ok {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// CacheChecker is the membership probe used to annotate records; it is
// satisfied by the crawler's fingerprint cache.
type CacheChecker interface {
	Check(uri string) bool
}

// AnnotateCached sets each record's Cached flag from the visited cache.
func AnnotateCached(records []types.LinkRecord, cache CacheChecker) {
	for i := range records {
		records[i].Cached = cache.Check(records[i].Href)
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
