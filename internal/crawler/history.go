package crawler

import (
	"errors"

	"github.com/dramsay9/chain-crawler/pkg/types"
)

// ErrEmptyHistory signals a pop on exhausted backtracking history. The
// engine treats it as "jump back to the entry point", not as a failure.
var ErrEmptyHistory = errors.New("crawl history is empty")

// History is a fixed-capacity LIFO of recently visited positions. Pushing
// past capacity evicts the oldest retained position, so the structure always
// holds the depth most-recent steps and never grows.
type History struct {
	buf   []types.Position
	start int
	count int
}

// NewHistory creates a history that can backtrack at most depth steps.
func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = 1
	}
	return &History{buf: make([]types.Position, depth)}
}

// Push appends pos as the newest entry, discarding the oldest when full.
func (h *History) Push(pos types.Position) {
	if h.count == len(h.buf) {
		h.buf[h.start] = pos
		h.start = (h.start + 1) % len(h.buf)
		return
	}
	h.buf[(h.start+h.count)%len(h.buf)] = pos
	h.count++
}

// Pop removes and returns the most recently pushed position.
func (h *History) Pop() (types.Position, error) {
	if h.count == 0 {
		return types.Position{}, ErrEmptyHistory
	}
	h.count--
	idx := (h.start + h.count) % len(h.buf)
	pos := h.buf[idx]
	h.buf[idx] = types.Position{}
	return pos, nil
}

// Len returns the number of retained positions.
func (h *History) Len() int {
	return h.count
}

// Hrefs snapshots the URIs currently on the history, newest first. It is
// the exclusion list for link extraction.
func (h *History) Hrefs() []string {
	hrefs := make([]string, 0, h.count)
	for i := h.count - 1; i >= 0; i-- {
		hrefs = append(hrefs, h.buf[(h.start+i)%len(h.buf)].URI)
	}
	return hrefs
}
