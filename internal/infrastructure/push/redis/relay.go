package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/mediation-desk/internal/domain/event"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DeliverFunc hands a relayed event to a local sink, usually the websocket hub
type DeliverFunc func(ctx context.Context, evt *event.Event) error

// Relay subscribes to the push channel and delivers every event to the
// connections held by this instance
type Relay struct {
	client  *Client
	deliver DeliverFunc
	logger  *zap.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

// NewRelay creates a Relay
func NewRelay(client *Client, deliver DeliverFunc, logger *zap.Logger) *Relay {
	return &Relay{client: client, deliver: deliver, logger: logger}
}

// Name implements worker.Worker
func (r *Relay) Name() string {
	return "redis-push-relay"
}

// Start subscribes and launches the receive loop
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pubsub != nil {
		return fmt.Errorf("relay already started")
	}

	pubsub := r.client.Subscribe(ctx, r.client.Channel())
	// Receive blocks until the subscription is confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", r.client.Channel(), err)
	}

	r.pubsub = pubsub
	r.done = make(chan struct{})
	go r.loop(ctx, pubsub.Channel(), r.done)

	r.logger.Info("Push relay subscribed", zap.String("channel", r.client.Channel()))
	return nil
}

// Stop closes the subscription and waits for the loop to exit
func (r *Relay) Stop() error {
	r.mu.Lock()
	pubsub, done := r.pubsub, r.done
	r.pubsub, r.done = nil, nil
	r.mu.Unlock()

	if pubsub == nil {
		return nil
	}
	err := pubsub.Close()
	<-done
	if err != nil {
		return fmt.Errorf("failed to close subscription: %w", err)
	}
	return nil
}

func (r *Relay) loop(ctx context.Context, messages <-chan *redis.Message, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			r.handle(ctx, []byte(msg.Payload))
		}
	}
}

func (r *Relay) handle(ctx context.Context, payload []byte) {
	evt, err := Decode(payload)
	if err != nil {
		r.logger.Warn("Dropping malformed push message", zap.Error(err))
		return
	}
	if err := r.deliver(ctx, evt); err != nil {
		r.logger.Warn("Relayed push delivery failed",
			zap.String("event_id", evt.ID),
			zap.Int64("recipient_id", evt.RecipientID),
			zap.Error(err))
	}
}
