package eventbus

import (
	"context"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/sse"
)

type hubPublisher struct {
	hub *sse.Hub
}

// NewHubPublisher forwards events to the live SSE stream of their tenant.
func NewHubPublisher(hub *sse.Hub) Publisher {
	return &hubPublisher{hub: hub}
}

func (h *hubPublisher) Publish(_ context.Context, event Event) error {
	h.hub.Publish(sse.Message{
		Topic: event.TenantID,
		Event: event.Type,
		Data:  event,
	})
	return nil
}
