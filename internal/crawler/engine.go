// Package crawler implements a randomized, depth-bounded, self-resetting
// depth-first search over a remote hypermedia graph. The engine learns the
// graph by walking it: it keeps a bounded fingerprint cache of visited URIs,
// a bounded backtracking history, and a time-decayed set of already-emitted
// results, and otherwise holds no map of the graph at all.
package crawler

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/dramsay9/chain-crawler/internal/fetcher"
	"github.com/dramsay9/chain-crawler/internal/hal"
	"github.com/dramsay9/chain-crawler/internal/sink"
	"github.com/dramsay9/chain-crawler/pkg/types"
)

// ErrEntryUnreachable is returned when the entry point itself cannot be
// fetched and there is no history to fall back to.
var ErrEntryUnreachable = errors.New("entry point unreachable")

// ErrEntryExhausted is returned when the entry point responds but offers no
// crawlable links at all. It is a distinct terminal condition from
// ErrEntryUnreachable and neither is retried.
var ErrEntryExhausted = errors.New("no crawlable links at entry point")

// Rand is the engine's source of randomness for branch selection; inject a
// fixed implementation for deterministic tests.
type Rand interface {
	Intn(n int) int
}

// Options configures a crawl session.
type Options struct {
	EntryPoint string
	// CacheMaskBits sizes the visited cache at 2^bits slots.
	CacheMaskBits int
	// HistoryDepth bounds how far the crawler can backtrack.
	HistoryDepth int
	// FoundTTL is how long an emitted URI is suppressed before it may be
	// re-emitted as new.
	FoundTTL time.Duration
	// StepDelay throttles the loop between crawl steps.
	StepDelay time.Duration
	// FilterKeywords extends the default relation-name blocklist.
	FilterKeywords []string

	Fetcher fetcher.Fetcher
	Sink    sink.Sink
	Logger  *slog.Logger
	Rand    Rand
}

// Engine is a single crawl session. It is not safe for concurrent use: one
// engine runs one step loop on one goroutine, mutating its position, cache,
// history, and discovery set with no internal locking. Independent sessions
// share nothing and may run concurrently.
type Engine struct {
	entry   string
	cache   *FingerprintCache
	history *History
	found   *Discovered
	pacer   *Pacer
	fetcher fetcher.Fetcher
	sink    sink.Sink
	logger  *slog.Logger
	rand    Rand
	filters []string

	pos       types.Position
	query     compiledQuery
	firstOnly bool
}

// New builds a crawl session from options.
func New(opts Options) (*Engine, error) {
	if opts.EntryPoint == "" {
		return nil, errors.New("entry point is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := opts.Sink
	if out == nil {
		out = sink.Log{Logger: logger}
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	ttl := opts.FoundTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	filters := append([]string(nil), hal.DefaultFilterKeywords...)
	filters = append(filters, opts.FilterKeywords...)
	logger.Debug("filter keywords", "keywords", filters)

	e := &Engine{
		entry:   opts.EntryPoint,
		cache:   NewFingerprintCache(opts.CacheMaskBits),
		history: NewHistory(opts.HistoryDepth),
		found:   NewDiscovered(ttl),
		pacer:   NewPacer(opts.StepDelay),
		fetcher: opts.Fetcher,
		sink:    out,
		logger:  logger,
		rand:    rng,
		filters: filters,
	}
	logger.Info("crawler initialized", "entry_point", e.entry)
	return e, nil
}

// Crawl walks the graph until a terminal state, delivering every new match
// to the sink. It returns the set of discoveries made during the run even
// when the run ended in failure; the error distinguishes an unreachable
// entry point from an exhausted one.
func (e *Engine) Crawl(ctx context.Context, q types.Query) (*Discovered, error) {
	state, err := e.run(ctx, q, false)
	e.logger.Info("crawl ended", "state", state.String(), "found", e.found.Size())
	return e.found, err
}

// Find crawls until the first match and returns its URI. When the crawl
// terminates without a match, the returned error says why.
func (e *Engine) Find(ctx context.Context, q types.Query) (string, error) {
	state, err := e.run(ctx, q, true)
	if err != nil {
		return "", err
	}
	if state == types.StateTerminatedFound {
		if uris := e.found.List(); len(uris) > 0 {
			return uris[0], nil
		}
	}
	return "", ErrEntryExhausted
}

// Results exposes the discovery set of the session.
func (e *Engine) Results() *Discovered {
	return e.found
}

func (e *Engine) run(ctx context.Context, q types.Query, firstOnly bool) (types.State, error) {
	e.query = compileQuery(q)
	e.firstOnly = firstOnly
	e.pos = types.EntryPosition(e.entry)

	steps := 0
	for {
		if err := ctx.Err(); err != nil {
			return types.StateAtNode, err
		}
		state := e.step(ctx)
		steps++
		e.logger.Debug("crawl step", "n", steps, "state", state.String(),
			"uri", e.pos.URI, "type", e.pos.Type)

		switch state {
		case types.StateTerminatedFound:
			return state, nil
		case types.StateTerminatedEntryUnreachable:
			return state, ErrEntryUnreachable
		case types.StateTerminatedExhausted:
			return state, ErrEntryExhausted
		}

		if err := e.pacer.Wait(ctx); err != nil {
			return state, err
		}
	}
}

// step performs one crawl step: cache the current URI, fetch it, extract and
// match links, emit new discoveries, and move to the next position. The
// returned state is terminal when the loop must stop.
func (e *Engine) step(ctx context.Context) types.State {
	if e.cache.Put(e.pos.URI) {
		e.logger.Info("hash collision: value overwritten in visited cache", "uri", e.pos.URI)
	}

	doc, err := e.fetcher.Fetch(ctx, e.pos.URI)
	if err != nil {
		return e.recoverFromFetchFailure(err)
	}
	e.logger.Info("resource downloaded", "uri", e.pos.URI)

	hal.ExpandCuries(doc, e.logger)
	links := hal.FlattenLinks(hal.Links(doc), e.pos.Type, e.filters, e.logger)
	links = hal.ExcludeVisited(links, e.history.Hrefs())
	hal.AnnotateCached(links, e.cache)

	// Attribute criteria need the downloaded body, so they can only be
	// checked against the node we are standing on; everything else is
	// decidable from the links alone.
	var matches []string
	if len(e.query.extra) > 0 {
		matches = e.query.matchCurrent(e.pos, doc)
	} else {
		matches = e.query.matchLinks(links)
	}

	if e.deliver(ctx, matches) && e.firstOnly {
		return types.StateTerminatedFound
	}

	return e.selectNext(links)
}

// recoverFromFetchFailure implements the transport-failure rule: fatal at
// the entry point, otherwise backtrack, and when history is dry jump back to
// the entry point without touching the cache.
func (e *Engine) recoverFromFetchFailure(err error) types.State {
	e.logger.Warn("resource unreachable, moving back", "uri", e.pos.URI, "error", err)

	if e.pos.URI == e.entry {
		e.logger.Error("entry point unreachable, giving up", "uri", e.entry)
		return types.StateTerminatedEntryUnreachable
	}
	if prev, perr := e.history.Pop(); perr == nil {
		e.pos = prev
		return types.StateBacktracked
	}
	e.logger.Info("search history exhausted, back to entry point")
	e.pos = types.EntryPosition(e.entry)
	return types.StateResetToEntry
}

// deliver pushes every URI that is new to the discovery set out to the sink
// and reports whether anything was emitted this step.
func (e *Engine) deliver(ctx context.Context, uris []string) bool {
	delivered := false
	for _, uri := range uris {
		if !e.found.Add(uri) {
			continue
		}
		delivered = true
		e.logger.Info("new resource found", "uri", uri)
		if err := e.sink.Deliver(ctx, uri); err != nil {
			e.logger.Warn("sink delivery failed", "uri", uri, "error", err)
		}
	}
	return delivered
}

// selectNext picks the next position among the candidate links: a random
// uncached link when one exists, otherwise a cache reset at the entry point
// or a backtrack anywhere else.
func (e *Engine) selectNext(links []types.LinkRecord) types.State {
	uncached := links[:0:0]
	for _, link := range links {
		if !link.Cached {
			uncached = append(uncached, link)
		}
	}
	e.logger.Info("links found", "uncached", len(uncached), "total", len(links))

	if len(uncached) > 0 {
		e.moveTo(uncached[e.rand.Intn(len(uncached))])
		return types.StateAdvanced
	}

	if e.pos.URI == e.entry {
		if len(links) == 0 {
			e.logger.Error("no crawlable links at entry point")
			return types.StateTerminatedExhausted
		}
		// Everything reachable from here was seen already; forget it all
		// and start fresh.
		e.logger.Info("no uncached links at entry point, resetting cache")
		e.cache.Clear()
		e.moveTo(links[e.rand.Intn(len(links))])
		return types.StateResetToEntry
	}

	if prev, err := e.history.Pop(); err == nil {
		e.pos = prev
		return types.StateBacktracked
	}
	e.logger.Info("history exhausted while crawling back, jump to entry point")
	e.pos = types.EntryPosition(e.entry)
	return types.StateResetToEntry
}

func (e *Engine) moveTo(link types.LinkRecord) {
	e.history.Push(e.pos)
	e.pos = types.Position{URI: link.Href, Type: link.Type, Title: link.Title}
	e.logger.Info("crawling to", "uri", e.pos.URI, "type", e.pos.Type, "title", e.pos.Title)
}
