package events

import "context"

// NoopPublisher discards every delta. The sheriff uses it when
// CONVOY_NATS_URL is unset so the pass pipeline never branches on
// whether eventing is configured.
type NoopPublisher struct{}

var _ Publisher = (*NoopPublisher)(nil)

func (*NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

func (*NoopPublisher) Close() error { return nil }
