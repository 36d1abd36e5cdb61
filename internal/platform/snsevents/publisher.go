package snsevents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/phrazzld/taskman-api/internal/events"
)

// Client is the narrow SNS client surface this publisher depends on.
// It is implemented by *sns.Client and by test fakes.
type Client interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher broadcasts task change events to an SNS topic. The message body
// is the JSON-encoded event; the SNS subject carries the human-readable
// event name.
type Publisher struct {
	client   Client
	topicARN string
}

// NewPublisher creates an SNS-backed event publisher for the given topic.
func NewPublisher(client Client, topicARN string) *Publisher {
	if client == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("client cannot be nil")
	}
	if topicARN == "" {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("topicARN cannot be empty")
	}
	return &Publisher{client: client, topicARN: topicARN}
}

// Ensure Publisher implements events.Publisher interface
var _ events.Publisher = (*Publisher)(nil)

// Publish implements events.Publisher.Publish
// It sends the JSON-encoded event to the configured topic. The coordinator
// treats failures as log-only; this method just reports them.
func (p *Publisher) Publish(ctx context.Context, event events.TaskEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(event.Subject()),
		Message:  aws.String(string(message)),
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event for task %s: %w", event.Event, event.TaskID, err)
	}

	return nil
}
