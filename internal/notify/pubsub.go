package notify

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"
)

// topicPublisher is the narrow publish surface used by PubSubChannel.
type topicPublisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// PubSubChannel publishes messages to a Google Cloud Pub/Sub topic.
type PubSubChannel struct {
	topic     string
	publisher topicPublisher
}

// ParseTopicName splits "projects/<project>/topics/<topic>" into its parts.
func ParseTopicName(name string) (project, topic string, err error) {
	parts := strings.Split(name, "/")
	if len(parts) != 4 || parts[0] != "projects" || parts[2] != "topics" || parts[1] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("invalid Pub/Sub topic %q: want projects/<project>/topics/<topic>", name)
	}
	return parts[1], parts[3], nil
}

// NewPubSubChannel connects to the topic named by target using application
// default credentials.
func NewPubSubChannel(ctx context.Context, target string) (*PubSubChannel, error) {
	project, topicID, err := ParseTopicName(target)
	if err != nil {
		return nil, err
	}
	client, err := pubsub.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("create Pub/Sub client for %s: %w", project, err)
	}
	return &PubSubChannel{
		topic:     target,
		publisher: &gcpTopic{client: client, topic: client.Topic(topicID)},
	}, nil
}

func (p *PubSubChannel) Name() string { return "pubsub" }

// Send publishes msg.Text with the subject as a message attribute.
func (p *PubSubChannel) Send(ctx context.Context, msg Message) error {
	attrs := map[string]string{"subject": msg.Subject}
	if _, err := p.publisher.Publish(ctx, []byte(msg.Text), attrs); err != nil {
		return fmt.Errorf("Pub/Sub publish %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending publishes and releases the client.
func (p *PubSubChannel) Close() error {
	return p.publisher.Close()
}

// gcpTopic adapts *pubsub.Topic to topicPublisher.
type gcpTopic struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

func (g *gcpTopic) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	res := g.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	return res.Get(ctx)
}

func (g *gcpTopic) Close() error {
	g.topic.Stop()
	return g.client.Close()
}
