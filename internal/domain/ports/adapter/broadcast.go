package adapter

import "context"

// Broadcaster publishes realtime events on a named channel. Fan-out uses it
// best-effort: a failed publish is logged, never fatal.
type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
