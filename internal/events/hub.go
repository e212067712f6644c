// internal/events/hub.go
package events

import (
	"context"
	"errors"

	"cattle-certification-api-server/internal/socket"
)

// HubPublisher gửi sự kiện tới người nhận đang kết nối WebSocket.
type HubPublisher struct {
	Hub *socket.Hub
}

func (p HubPublisher) Publish(_ context.Context, e Event) error {
	var errs []error
	for _, userID := range e.Recipients {
		if err := p.Hub.SendJSON(userID, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
