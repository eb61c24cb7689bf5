package booking

import (
	"context"
	"sort"
	"sync"

	"safari/internal/modules/pricing"
)

// memRepo is an in-memory Repository with the same capacity rule as Store.
type memRepo struct {
	mu       sync.Mutex
	bookings map[string]*Booking
	events   []Event
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: map[string]*Booking{}}
}

func clone(b *Booking) *Booking {
	c := *b
	return &c
}

func (m *memRepo) Create(ctx context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.Selection.ReservationType == pricing.ReservationShared {
		held := 0
		for _, o := range m.bookings {
			if o.Status.Active() && o.Selection.ReservationType == pricing.ReservationShared &&
				o.TourDate.Equal(b.TourDate.Time) && o.Selection.TimeSlot == b.Selection.TimeSlot &&
				o.Selection.JeepType == b.Selection.JeepType {
				held += o.Seats
			}
		}
		if held+b.Seats > pricing.JeepCapacity {
			return ErrSeatsUnavailable
		}
	}
	m.bookings[b.ID] = clone(b)
	return nil
}

func (m *memRepo) Get(ctx context.Context, id string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(b), nil
}

func (m *memRepo) List(ctx context.Context, f Filter) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Booking{}
	for _, b := range m.bookings {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && b.TourDate.Before(f.From.Time) {
			continue
		}
		if !f.To.IsZero() && b.TourDate.After(f.To.Time) {
			continue
		}
		out = append(out, clone(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) UpdateStatus(ctx context.Context, id string, from, to Status, version int, reason *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from || b.StatusVersion != version {
		return false, nil
	}
	b.Status = to
	b.StatusVersion++
	if reason != nil {
		b.CancelReason = reason
	}
	return true, nil
}

func (m *memRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(m.bookings, id)
	return nil
}

func (m *memRepo) ExpirePending(ctx context.Context, before Date) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.bookings {
		if b.Status == StatusPending && b.TourDate.Before(before.Time) {
			b.Status = StatusExpired
			b.StatusVersion++
			out = append(out, clone(b))
		}
	}
	return out, nil
}

func (m *memRepo) Calendar(ctx context.Context, from, to Date) ([]Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type key struct {
		day  string
		slot pricing.TimeSlot
		jeep pricing.JeepType
	}
	agg := map[key]*Availability{}
	for _, b := range m.bookings {
		if !b.Status.Active() || b.TourDate.Before(from.Time) || b.TourDate.After(to.Time) {
			continue
		}
		k := key{b.TourDate.String(), b.Selection.TimeSlot, b.Selection.JeepType}
		a, ok := agg[k]
		if !ok {
			a = &Availability{TourDate: b.TourDate, TimeSlot: k.slot, JeepType: k.jeep}
			agg[k] = a
		}
		if b.Selection.ReservationType == pricing.ReservationPrivate {
			a.PrivateBookings++
		} else {
			a.SharedSeatsBooked += b.Seats
		}
	}
	out := []Availability{}
	for _, a := range agg {
		a.SharedSeatsLeft = SeatsLeft(a.SharedSeatsBooked)
		out = append(out, *a)
	}
	return out, nil
}

func (m *memRepo) AppendEvent(ctx context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *e
	c.ID = int64(len(m.events) + 1)
	m.events = append(m.events, c)
	return nil
}

func (m *memRepo) Events(ctx context.Context, bookingID string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Event{}
	for _, e := range m.events {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

// recordingPublisher keeps every routing key it was asked to publish.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

// enginePricer prices with a fixed config and the default engine.
type enginePricer struct {
	cfg pricing.Config
	id  int64
}

func (p enginePricer) Price(ctx context.Context, sel pricing.Selection) (pricing.Quote, error) {
	b, err := pricing.Compute(p.cfg, sel)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Quote{ConfigID: p.id, Selection: sel, Price: b}, nil
}
