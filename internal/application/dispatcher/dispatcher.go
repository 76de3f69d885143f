package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyjia/mediation-desk/internal/domain/event"
)

// ErrClosed is returned once Close has been called
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher fans push events out to the sinks subscribed to their type
type Dispatcher interface {
	// SubscribeNamed registers a sink; the name shows up in logs
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// DispatchAsync hands the event to every sink on its own goroutine.
	// Sinks run detached from ctx cancellation, bounded by the handler timeout.
	// A failing sink does not affect the others.
	DispatchAsync(ctx context.Context, evt *event.Event) error

	// Stats returns delivery counters
	Stats() Stats

	// Close stops accepting events and waits for in-flight sinks
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	logger   Logger
	timeout  time.Duration

	// lifecycle orders wg.Add in DispatchAsync before wg.Wait in Close
	lifecycle sync.Mutex
	wg        sync.WaitGroup
	closed    bool
	delivered atomic.Int64
	failed    atomic.Int64
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// WithHandlerTimeout bounds each asynchronous sink call. Zero disables the bound.
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(d *eventDispatcher) {
		d.timeout = timeout
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
		timeout:  10 * time.Second,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})

	d.logInfo("Push sink registered", "event_type", eventType, "sink", name)
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) error {
	d.lifecycle.Lock()
	if d.closed {
		d.lifecycle.Unlock()
		d.logError("Push event dropped, dispatcher is closed",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"recipient_id", evt.RecipientID)
		return ErrClosed
	}
	handlers := d.snapshot(evt.Type)
	d.wg.Add(len(handlers))
	d.lifecycle.Unlock()

	detached := context.WithoutCancel(ctx)
	for _, info := range handlers {
		go func(h HandlerInfo) {
			defer d.wg.Done()

			hctx := detached
			if d.timeout > 0 {
				var cancel context.CancelFunc
				hctx, cancel = context.WithTimeout(detached, d.timeout)
				defer cancel()
			}
			_ = d.deliver(hctx, evt, h)
		}(info)
	}
	return nil
}

func (d *eventDispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
	}
}

func (d *eventDispatcher) Close() error {
	d.lifecycle.Lock()
	if d.closed {
		d.lifecycle.Unlock()
		return ErrClosed
	}
	d.closed = true
	d.lifecycle.Unlock()

	d.logInfo("Closing dispatcher, waiting for in-flight sinks")
	d.wg.Wait()
	d.logInfo("Dispatcher closed", "delivered", d.delivered.Load(), "failed", d.failed.Load())

	return nil
}

func (d *eventDispatcher) snapshot(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]HandlerInfo(nil), d.handlers[eventType]...)
}

// deliver runs one sink with panic recovery and bookkeeping
func (d *eventDispatcher) deliver(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
		if err != nil {
			d.failed.Add(1)
			d.logError("Push sink failed",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"recipient_id", evt.RecipientID,
				"sink", info.Name,
				"error", err)
			return
		}
		d.delivered.Add(1)
	}()

	return info.Handler(ctx, evt)
}

func (d *eventDispatcher) logInfo(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, kv...)
	}
}

func (d *eventDispatcher) logError(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, kv...)
	}
}
