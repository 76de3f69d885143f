package push

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/garyjia/mediation-desk/internal/application/dispatcher"
	"github.com/garyjia/mediation-desk/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	mu      sync.Mutex
	results map[string][]bool
}

func (c *countingObserver) ObserveDelivery(sink string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[string][]bool{}
	}
	c.results[sink] = append(c.results[sink], err == nil)
}

func TestNotifier_PublishReachesSinks(t *testing.T) {
	d := dispatcher.NewDispatcher()
	obs := &countingObserver{}

	received := make(chan *event.Event, 2)
	d.SubscribeNamed(event.TypeNotificationCreated, "websocket", Instrument("websocket",
		func(_ context.Context, evt *event.Event) error {
			received <- evt
			return nil
		}, obs))
	d.SubscribeNamed(event.TypeNotificationCreated, "lark", Instrument("lark",
		func(context.Context, *event.Event) error {
			return errors.New("lark down")
		}, obs))

	n := NewNotifier(d)
	evt := event.NewEvent(event.TypeNotificationCreated, 3, 7, map[string]interface{}{"title": "Case accepted"})
	require.NoError(t, n.Publish(context.Background(), evt))

	select {
	case got := <-received:
		assert.Equal(t, evt.ID, got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("sink never received the event")
	}

	require.NoError(t, d.Close())
	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []bool{true}, obs.results["websocket"])
	assert.Equal(t, []bool{false}, obs.results["lark"])
}

func TestNotifier_PublishAfterClose(t *testing.T) {
	d := dispatcher.NewDispatcher()
	require.NoError(t, d.Close())

	err := NewNotifier(d).Publish(context.Background(), event.NewEvent(event.TypeNotificationCreated, 1, 1, nil))
	assert.ErrorIs(t, err, dispatcher.ErrClosed)
}

func TestInstrument_NilObserver(t *testing.T) {
	called := false
	h := Instrument("x", func(context.Context, *event.Event) error {
		called = true
		return nil
	}, nil)
	require.NoError(t, h(context.Background(), nil))
	assert.True(t, called)
}
