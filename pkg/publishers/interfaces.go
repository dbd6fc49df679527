package publishers

import "context"

// Publisher sends events to a downstream sink (SQS, SNS, Pub/Sub, HTTP).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// sender is the transport half of a queue publisher.
type sender interface {
	Send(ctx context.Context, evt Event) error
}

// queuePublisher pairs a sender with its config identity.
type queuePublisher struct {
	id     string
	typ    string
	sender sender
	closer func() error
}

func (q *queuePublisher) ID() string   { return q.id }
func (q *queuePublisher) Type() string { return q.typ }

func (q *queuePublisher) Publish(ctx context.Context, evt Event) error {
	return q.sender.Send(ctx, evt)
}

// Close releases the underlying client, if any.
func (q *queuePublisher) Close() error {
	if q.closer == nil {
		return nil
	}
	return q.closer()
}
