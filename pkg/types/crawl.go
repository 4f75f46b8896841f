package types

// LinkRecord is one candidate outbound edge extracted from a resource's link
// section, after CURIE expansion and flattening.
type LinkRecord struct {
	Href string
	// Type is the relation name the link was found under. Links lifted out
	// of a collection inherit the type of the enclosing resource instead,
	// which is usually a plural.
	Type           string
	Title          string
	FromCollection bool
	Cached         bool
}

// Position is the crawler's current location in the graph. It is also the
// element stored on the backtracking history.
type Position struct {
	URI   string
	Type  string
	Title string
}

// EntryPointType marks the synthetic type/title of the crawl entry point,
// which has no parent relation to inherit a type from.
const EntryPointType = "entry_point"

// EntryPosition returns the starting position for a crawl rooted at uri.
func EntryPosition(uri string) Position {
	return Position{URI: uri, Type: EntryPointType, Title: EntryPointType}
}

// Query describes the resources a crawl is looking for. Zero-valued fields
// are not matched on; present criteria are ANDed. String comparisons are
// case-insensitive.
type Query struct {
	// Namespace is prepended to Type and Plural before matching, so callers
	// can query "sensor" against fully-qualified relation URIs.
	Namespace string
	// Type is the singular resource type. Collection links match its
	// pluralized forms (+s, +es, plus Plural if given).
	Type string
	// Plural supplements automatic pluralization for irregular nouns
	// (person -> people).
	Plural string
	Title  string
	// Extra matches attributes of the resource body itself. Checking it
	// requires the downloaded document, so it can only ever match the node
	// the crawler is currently parked on.
	Extra map[string]any
}

// State enumerates the traversal engine's per-step outcomes.
type State int

const (
	// StateAtNode is the initial state: about to fetch the current position.
	StateAtNode State = iota
	// StateAdvanced means the engine picked an uncached link and moved there.
	StateAdvanced
	// StateBacktracked means the engine popped its history and moved back.
	StateBacktracked
	// StateResetToEntry means the engine jumped back to the entry point,
	// either because its history ran dry or because it cleared the cache
	// at the entry point for a fresh start.
	StateResetToEntry
	// StateTerminatedExhausted is terminal: the entry point offered no
	// crawlable links at all.
	StateTerminatedExhausted
	// StateTerminatedFound is terminal: a find-first crawl delivered a match.
	StateTerminatedFound
	// StateTerminatedEntryUnreachable is terminal: the entry point itself
	// could not be fetched.
	StateTerminatedEntryUnreachable
)

// Terminal reports whether the state ends the crawl loop.
func (s State) Terminal() bool {
	switch s {
	case StateTerminatedExhausted, StateTerminatedFound, StateTerminatedEntryUnreachable:
		return true
	}
	return false
}

func (s State) String() string {
	switch s {
	case StateAtNode:
		return "at_node"
	case StateAdvanced:
		return "advanced"
	case StateBacktracked:
		return "backtracked"
	case StateResetToEntry:
		return "reset_to_entry"
	case StateTerminatedExhausted:
		return "terminated_exhausted"
	case StateTerminatedFound:
		return "terminated_found"
	case StateTerminatedEntryUnreachable:
		return "terminated_entry_unreachable"
	default:
		return "unknown"
	}
}
