package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/garyjia/mediation-desk/internal/domain/event"
	"go.uber.org/zap"
)

// Publisher is a dispatcher sink that forwards push events to every server
// instance through redis pub/sub
type Publisher struct {
	client *Client
	logger *zap.Logger
}

// NewPublisher creates a Publisher
func NewPublisher(client *Client, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Handle publishes evt on the client's channel
func (p *Publisher) Handle(ctx context.Context, evt *event.Event) error {
	payload, err := Encode(evt)
	if err != nil {
		return err
	}

	receivers, err := p.client.Publish(ctx, p.client.Channel(), payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish push event: %w", err)
	}

	p.logger.Debug("Push event published",
		zap.String("event_id", evt.ID),
		zap.Int64("recipient_id", evt.RecipientID),
		zap.Int64("receivers", receivers))
	return nil
}

// Encode serializes an event for the wire
func Encode(evt *event.Event) ([]byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to encode push event: %w", err)
	}
	return payload, nil
}

// Decode parses a wire message and rejects events that cannot be routed
func Decode(payload []byte) (*event.Event, error) {
	var evt event.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("failed to decode push event: %w", err)
	}
	if !evt.Type.IsValid() {
		return nil, fmt.Errorf("unknown push event type %q", evt.Type)
	}
	if evt.RecipientID <= 0 {
		return nil, fmt.Errorf("push event %s has no recipient", evt.ID)
	}
	if evt.Payload == nil {
		evt.Payload = map[string]interface{}{}
	}
	return &evt, nil
}
