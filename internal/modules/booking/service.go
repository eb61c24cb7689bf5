// README: Booking service prices selections, enforces the status flow and publishes lifecycle events.
package booking

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"safari/internal/modules/pricing"
)

const (
	maxNotesLength   = 1000
	maxCalendarSpan  = 366 * 24 * time.Hour
	minPhoneDigits   = 6
	defaultExpiryRun = time.Minute
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, f Filter) ([]*Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to Status, version int, reason *string) (bool, error)
	Delete(ctx context.Context, id string) error
	ExpirePending(ctx context.Context, before Date) ([]*Booking, error)
	Calendar(ctx context.Context, from, to Date) ([]Availability, error)
	AppendEvent(ctx context.Context, e *Event) error
	Events(ctx context.Context, bookingID string) ([]Event, error)
}

type Pricer interface {
	Price(ctx context.Context, sel pricing.Selection) (pricing.Quote, error)
}

type Service struct {
	repo   Repository
	pricer Pricer
	pub    Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, pricer Pricer, pub Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, pricer: pricer, pub: pub, log: log, now: time.Now}
}

type CreateCommand struct {
	TourDate  string                 `json:"tourDate"`
	Customer  Customer               `json:"customer"`
	Notes     string                 `json:"notes"`
	Selection pricing.SelectionInput `json:"selection"`
}

type CancelCommand struct {
	ID     string
	Actor  string
	Reason string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	day, err := s.validateTourDate(cmd.TourDate)
	if err != nil {
		return nil, err
	}
	cust, err := normalizeCustomer(cmd.Customer)
	if err != nil {
		return nil, err
	}
	notes := strings.TrimSpace(cmd.Notes)
	if len(notes) > maxNotesLength {
		return nil, invalid("notes", fmt.Sprintf("must be at most %d characters", maxNotesLength))
	}

	sel, err := cmd.Selection.Normalize()
	if err != nil {
		return nil, err
	}
	seats, err := sel.Seats()
	if err != nil {
		return nil, err
	}
	quote, err := s.pricer.Price(ctx, sel)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b := &Booking{
		ID:              ulid.Make().String(),
		Status:          StatusPending,
		StatusVersion:   0,
		TourDate:        day,
		Customer:        cust,
		Notes:           notes,
		Selection:       quote.Selection,
		Seats:           seats,
		Price:           quote.Price,
		PricingConfigID: quote.ConfigID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	bookingsCreated.WithLabelValues(string(sel.ReservationType)).Inc()
	s.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("reservation_type", string(sel.ReservationType)),
		zap.Int("seats", seats),
		zap.String("total", b.Price.TotalPrice.String()),
		zap.Int64("pricing_config_id", b.PricingConfigID),
	)
	s.record(ctx, b, StatusNone, "customer", "")
	return b, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Booking, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("status", fmt.Sprintf("unknown value %q", f.Status))
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From.Time) {
		return nil, invalid("to", "must not be before from")
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Confirm(ctx context.Context, id string) (*Booking, error) {
	return s.transition(ctx, id, StatusConfirmed, "operator", "")
}

func (s *Service) Complete(ctx context.Context, id string) (*Booking, error) {
	return s.transition(ctx, id, StatusCompleted, "operator", "")
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Booking, error) {
	actor := cmd.Actor
	if actor == "" {
		actor = "operator"
	}
	return s.transition(ctx, cmd.ID, StatusCancelled, actor, strings.TrimSpace(cmd.Reason))
}

// Delete removes a booking that no longer holds capacity. Active bookings
// must be cancelled first.
func (s *Service) Delete(ctx context.Context, id string) error {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if b.Status.Active() {
		return ErrInvalidState
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("booking deleted", zap.String("booking_id", id), zap.String("status", string(b.Status)))
	return nil
}

func (s *Service) Events(ctx context.Context, id string) ([]Event, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Events(ctx, id)
}

// Calendar reports per-day occupancy for every slot and tier that has at
// least one active booking in [from, to].
func (s *Service) Calendar(ctx context.Context, from, to Date) ([]Availability, error) {
	if from.IsZero() || to.IsZero() {
		return nil, invalid("from", "from and to are required")
	}
	if to.Before(from.Time) {
		return nil, invalid("to", "must not be before from")
	}
	if to.Sub(from.Time) > maxCalendarSpan {
		return nil, invalid("to", "range must not exceed one year")
	}
	return s.repo.Calendar(ctx, from, to)
}

// Invoice renders a PDF for the booking and returns it with a file name.
func (s *Service) Invoice(ctx context.Context, id string) ([]byte, string, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return BuildInvoice(b, s.now())
}

// ExpireOverdue moves pending bookings whose tour date has passed to expired.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpirePending(ctx, NewDate(s.now()))
	if err != nil {
		return 0, err
	}
	for _, b := range expired {
		bookingTransitions.WithLabelValues(string(StatusExpired)).Inc()
		s.record(ctx, b, StatusPending, "system", "tour date passed")
	}
	if len(expired) > 0 {
		s.log.Info("expired overdue bookings", zap.Int("count", len(expired)))
	}
	return len(expired), nil
}

func (s *Service) RunExpiryMonitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = defaultExpiryRun
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ExpireOverdue(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("expiry run failed", zap.Error(err))
			}
		}
	}
}

func (s *Service) transition(ctx context.Context, id string, to Status, actor, reason string) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, to) {
		return nil, ErrInvalidState
	}
	var r *string
	if reason != "" {
		r = &reason
	}
	ok, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, to, b.StatusVersion, r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	bookingTransitions.WithLabelValues(string(to)).Inc()

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, updated, b.Status, actor, reason)
	return updated, nil
}

// record appends the status event and publishes it. Both are best effort:
// the status change is already committed.
func (s *Service) record(ctx context.Context, b *Booking, from Status, actor, reason string) {
	now := s.now().UTC()
	if err := s.repo.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: from,
		ToStatus:   b.Status,
		Actor:      actor,
		Reason:     reason,
		CreatedAt:  now,
	}); err != nil {
		s.log.Warn("append booking event failed", zap.String("booking_id", b.ID), zap.Error(err))
	}
	if s.pub == nil {
		return
	}
	key := eventFor(b.Status)
	msg := Message{
		Type:       key,
		BookingID:  b.ID,
		Status:     b.Status,
		TourDate:   b.TourDate,
		OccurredAt: now,
		Booking:    b,
	}
	if err := s.pub.Publish(ctx, key, msg); err != nil {
		s.log.Warn("publish booking event failed",
			zap.String("booking_id", b.ID), zap.String("event", key), zap.Error(err))
	}
}

func (s *Service) validateTourDate(raw string) (Date, error) {
	if strings.TrimSpace(raw) == "" {
		return Date{}, invalid("tourDate", "is required")
	}
	day, err := ParseDate(raw)
	if err != nil {
		return Date{}, invalid("tourDate", err.Error())
	}
	if day.Before(NewDate(s.now()).Time) {
		return Date{}, invalid("tourDate", "must not be in the past")
	}
	return day, nil
}

func normalizeCustomer(c Customer) (Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)

	if c.Name == "" {
		return Customer{}, invalid("customer.name", "is required")
	}
	if c.Email == "" && c.Phone == "" {
		return Customer{}, invalid("customer", "email or phone is required")
	}
	if c.Email != "" {
		addr, err := mail.ParseAddress(c.Email)
		if err != nil || addr.Address != c.Email {
			return Customer{}, invalid("customer.email", "is not a valid address")
		}
	}
	if c.Phone != "" && !validPhone(c.Phone) {
		return Customer{}, invalid("customer.phone", "is not a valid phone number")
	}
	return c, nil
}

func validPhone(p string) bool {
	digits := 0
	for i, r := range p {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= minPhoneDigits
}
