package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// GCPQueueConfig holds Google Cloud Pub/Sub settings. When PUBSUB_EMULATOR_HOST
// is set the client talks to the emulator instead.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// gcpPubSubSender publishes events to a Pub/Sub topic.
type gcpPubSubSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	log    Logger
}

func newGCPPubSubSender(ctx context.Context, cfg *GCPQueueConfig, log Logger) (*gcpPubSubSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("missing pubsub configuration")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &gcpPubSubSender{
		client: client,
		topic:  client.Topic(cfg.Topic),
		log:    ensureLogger(log),
	}, nil
}

func newPubSubPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	s, err := newGCPPubSubSender(ctx, cfg.PubSub, log)
	if err != nil {
		return nil, err
	}
	return &queuePublisher{id: cfg.ID, typ: TypePubSub, sender: s, closer: s.Close}, nil
}

// Send publishes the event and waits for the server acknowledgement.
func (g *gcpPubSubSender) Send(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	res := g.topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: evt.routing().flatAttributes(),
	})
	serverID, err := res.Get(ctx)
	if err != nil {
		g.log.ErrorObj("pubsub publisher send failed", "publisher_pubsub_error", map[string]any{
			"topic":     g.topic.ID(),
			"record_id": evt.RecordID,
			"change":    evt.Change,
			"error":     err.Error(),
		})
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	g.log.DebugObj("pubsub publisher delivered event", "publisher_pubsub_delivery", map[string]any{
		"topic":      g.topic.ID(),
		"record_id":  evt.RecordID,
		"message_id": serverID,
	})
	return nil
}

// Close flushes pending messages and closes the client.
func (g *gcpPubSubSender) Close() error {
	g.topic.Stop()
	return g.client.Close()
}
