// README: Booking aggregate, status definitions and availability views.
package booking

import (
	"time"

	"safari/internal/modules/pricing"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Active bookings hold capacity.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// AllowedTransitions is the booking lifecycle as code.
var AllowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusExpired},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Booking keeps the selection, breakdown and config version together so a
// later pricing change never rewrites what the customer agreed to.
type Booking struct {
	ID              string            `json:"id"`
	Status          Status            `json:"status"`
	StatusVersion   int               `json:"statusVersion"`
	TourDate        Date              `json:"tourDate"`
	Customer        Customer          `json:"customer"`
	Notes           string            `json:"notes,omitempty"`
	Selection       pricing.Selection `json:"selection"`
	Seats           int               `json:"seats"`
	Price           pricing.Breakdown `json:"price"`
	PricingConfigID int64             `json:"pricingConfigId"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	ConfirmedAt     *time.Time        `json:"confirmedAt,omitempty"`
	CompletedAt     *time.Time        `json:"completedAt,omitempty"`
	CancelledAt     *time.Time        `json:"cancelledAt,omitempty"`
	CancelReason    *string           `json:"cancelReason,omitempty"`
}

// Event is one recorded status change.
type Event struct {
	ID         int64     `json:"id"`
	BookingID  string    `json:"bookingId"`
	FromStatus Status    `json:"fromStatus"`
	ToStatus   Status    `json:"toStatus"`
	Actor      string    `json:"actor"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Filter narrows List. Zero values mean "no constraint".
type Filter struct {
	Status Status
	From   Date
	To     Date
	Limit  int
	Offset int
}

// Availability summarizes one date, slot and jeep tier.
type Availability struct {
	TourDate          Date             `json:"tourDate"`
	TimeSlot          pricing.TimeSlot `json:"timeSlot"`
	JeepType          pricing.JeepType `json:"jeepType"`
	PrivateBookings   int              `json:"privateBookings"`
	SharedSeatsBooked int              `json:"sharedSeatsBooked"`
	SharedSeatsLeft   int              `json:"sharedSeatsLeft"`
}

// SeatsLeft is the free shared capacity given the seats already held.
func SeatsLeft(booked int) int {
	left := pricing.JeepCapacity - booked
	if left < 0 {
		return 0
	}
	return left
}
