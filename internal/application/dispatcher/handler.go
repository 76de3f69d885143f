package dispatcher

import (
	"context"

	"github.com/garyjia/mediation-desk/internal/domain/event"
)

// Handler delivers one push event to a sink (websocket hub, redis, lark)
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered sink
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// Stats counts sink deliveries since the dispatcher was created
type Stats struct {
	Delivered int64
	Failed    int64
}
