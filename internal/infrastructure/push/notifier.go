package push

import (
	"context"

	"github.com/garyjia/mediation-desk/internal/application/dispatcher"
	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/event"
)

// DeliveryObserver counts sink outcomes
type DeliveryObserver interface {
	ObserveDelivery(sink string, err error)
}

// Notifier hands committed push events to the dispatcher, which fans them
// out to the subscribed sinks in the background
type Notifier struct {
	dispatcher dispatcher.Dispatcher
}

var _ port.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier over d
func NewNotifier(d dispatcher.Dispatcher) *Notifier {
	return &Notifier{dispatcher: d}
}

// Publish schedules delivery and returns without waiting for the sinks
func (n *Notifier) Publish(ctx context.Context, evt *event.Event) error {
	return n.dispatcher.DispatchAsync(ctx, evt)
}

// Instrument wraps a sink so every delivery is counted under name
func Instrument(name string, handler dispatcher.Handler, obs DeliveryObserver) dispatcher.Handler {
	if obs == nil {
		return handler
	}
	return func(ctx context.Context, evt *event.Event) error {
		err := handler(ctx, evt)
		obs.ObserveDelivery(name, err)
		return err
	}
}
