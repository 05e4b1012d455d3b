package queue

import "context"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Noop drops every message. Bootstrap installs it when QUEUE is none.
type Noop struct{}

// Send discards msg.
func (Noop) Send(ctx context.Context, msg Message) error {
	return ctx.Err()
}

var _ Client = Noop{}
