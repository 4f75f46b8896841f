// Package sink provides the delivery endpoints for discovered resource URIs.
// The engine only ever sees the Sink interface; which transport sits behind
// it is wiring.
package sink

import (
	"context"
	"log/slog"
)

// Sink accepts one discovered URI at a time. Delivery failures are reported
// to the caller for logging but never abort a crawl.
type Sink interface {
	Deliver(ctx context.Context, uri string) error
}

// Log writes each discovery to the logger. It is the default when no
// consumer is wired in.
type Log struct {
	Logger *slog.Logger
}

// Deliver logs the discovered URI.
func (l Log) Deliver(_ context.Context, uri string) error {
	l.Logger.Info("delivered resource", "uri", uri)
	return nil
}
