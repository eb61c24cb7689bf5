// README: Booking lifecycle notifications published to the message broker.
package booking

import (
	"context"
	"time"
)

const (
	EventCreated   = "booking.created"
	EventConfirmed = "booking.confirmed"
	EventCompleted = "booking.completed"
	EventCancelled = "booking.cancelled"
	EventExpired   = "booking.expired"
)

// Message is the JSON body published for every lifecycle change. The
// routing key equals Type.
type Message struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"bookingId"`
	Status     Status    `json:"status"`
	TourDate   Date      `json:"tourDate"`
	OccurredAt time.Time `json:"occurredAt"`
	Booking    *Booking  `json:"booking,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

func eventFor(to Status) string {
	switch to {
	case StatusPending:
		return EventCreated
	case StatusConfirmed:
		return EventConfirmed
	case StatusCompleted:
		return EventCompleted
	case StatusCancelled:
		return EventCancelled
	case StatusExpired:
		return EventExpired
	}
	return "booking." + string(to)
}
