package redis

import (
	"context"

	"wathaci-connect/internal/domain/ports/adapter"
)

var _ adapter.Broadcaster = (*Publisher)(nil)

// Publisher broadcasts payment events on per-user pub/sub channels so
// connected clients can react without polling. Delivery is fire-and-forget.
type Publisher struct {
	cli *Client
}

func NewPublisher(c *Client) *Publisher {
	return &Publisher{cli: c}
}

func (p *Publisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.cli.cli.Publish(ctx, channel, payload).Err()
}
