package sink

import (
	"context"
	"fmt"

	"github.com/go-zeromq/zmq4"
)

// ZMQ pushes discovered URIs over a bound ZeroMQ PUSH socket, one message
// per URI, for out-of-process consumers pulling from the endpoint.
type ZMQ struct {
	socket zmq4.Socket
}

// NewZMQ binds a PUSH socket to the given endpoint (eg. tcp://127.0.0.1:5557).
func NewZMQ(ctx context.Context, endpoint string) (*ZMQ, error) {
	socket := zmq4.NewPush(ctx)
	if err := socket.Listen(endpoint); err != nil {
		socket.Close()
		return nil, fmt.Errorf("bind zmq push socket %q: %w", endpoint, err)
	}
	return &ZMQ{socket: socket}, nil
}

// Deliver sends uri as a single-frame message.
func (z *ZMQ) Deliver(_ context.Context, uri string) error {
	if err := z.socket.Send(zmq4.NewMsgString(uri)); err != nil {
		return fmt.Errorf("zmq send: %w", err)
	}
	return nil
}

// Close releases the socket.
func (z *ZMQ) Close() error {
	return z.socket.Close()
}
