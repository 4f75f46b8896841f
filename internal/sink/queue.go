package sink

import "context"

// Queue is an in-process sink backed by a buffered channel, for callers that
// run the crawl on a background goroutine and consume discoveries on their
// own.
type Queue struct {
	ch chan string
}

// NewQueue creates a queue sink with the given buffer size.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{ch: make(chan string, size)}
}

// Deliver enqueues uri, blocking until there is room or ctx is cancelled.
func (q *Queue) Deliver(ctx context.Context, uri string) error {
	select {
	case q.ch <- uri:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// URIs exposes the consumer side of the queue.
func (q *Queue) URIs() <-chan string {
	return q.ch
}

// Close releases the consumer side. Only the producer may call it, after the
// crawl has ended.
func (q *Queue) Close() {
	close(q.ch)
}
