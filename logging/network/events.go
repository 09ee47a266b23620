package network

import (
	"context"

	"github.com/Yewatermelon/FPSGame/logging"
)

const (
	// EventRequestRejected is emitted when a client request fails validation.
	EventRequestRejected logging.EventType = "network.request_rejected"
)

type RequestRejectedPayload struct {
	Request string `json:"request"`
	Reason  string `json:"reason"`
}

func RequestRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, request, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRequestRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  RequestRejectedPayload{Request: request, Reason: reason},
	})
}
