// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"safari/internal/modules/pricing"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

const bookingColumns = `
	id, status, status_version, tour_date,
	customer_name, customer_email, customer_phone, notes,
	selection, seats, price, pricing_config_id,
	created_at, updated_at, confirmed_at, completed_at, cancelled_at, cancel_reason`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Create inserts b. Shared bookings are capacity-checked in the same
// transaction under an advisory lock keyed by date, slot and tier.
func (s *Store) Create(ctx context.Context, b *Booking) error {
	sel, err := json.Marshal(b.Selection)
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	price, err := json.Marshal(b.Price)
	if err != nil {
		return fmt.Errorf("encode price: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if b.Selection.ReservationType == pricing.ReservationShared {
		if err := reserveSharedSeats(ctx, tx, b); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (
			id, status, status_version, tour_date,
			customer_name, customer_email, customer_phone, notes,
			reservation_type, jeep_type, time_slot, seats,
			selection, price, total_price, pricing_config_id,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $17
		)`,
		b.ID, string(b.Status), b.StatusVersion, b.TourDate.Time,
		b.Customer.Name, b.Customer.Email, b.Customer.Phone, b.Notes,
		string(b.Selection.ReservationType), string(b.Selection.JeepType), string(b.Selection.TimeSlot), b.Seats,
		sel, price, b.Price.TotalPrice.Decimal, b.PricingConfigID,
		b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return tx.Commit(ctx)
}

func reserveSharedSeats(ctx context.Context, tx pgx.Tx, b *Booking) error {
	key := fmt.Sprintf("shared:%s:%s:%s", b.TourDate, b.Selection.TimeSlot, b.Selection.JeepType)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("lock shared capacity: %w", err)
	}
	var held int
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(seats), 0)
		FROM bookings
		WHERE tour_date = $1 AND time_slot = $2 AND jeep_type = $3
		  AND reservation_type = 'shared'
		  AND status IN ('pending', 'confirmed')`,
		b.TourDate.Time, string(b.Selection.TimeSlot), string(b.Selection.JeepType),
	).Scan(&held)
	if err != nil {
		return fmt.Errorf("count shared seats: %w", err)
	}
	if held+b.Seats > pricing.JeepCapacity {
		return ErrSeatsUnavailable
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *Store) List(ctx context.Context, f Filter) ([]*Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE TRUE`
	var args []any
	if f.Status != "" {
		args = append(args, string(f.Status))
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From.Time)
		q += fmt.Sprintf(" AND tour_date >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To.Time)
		q += fmt.Sprintf(" AND tour_date <= $%d", len(args))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(" ORDER BY tour_date, created_at, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateStatus moves a booking from one status to another only if nobody
// changed it since version was read.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to Status, version int, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
			status_version = status_version + 1,
			updated_at = NOW(),
			confirmed_at = CASE WHEN $1 = 'confirmed' THEN NOW() ELSE confirmed_at END,
			completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
			cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END,
			cancel_reason = COALESCE($2, cancel_reason)
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		reason,
		id,
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpirePending marks pending bookings dated before the given day as expired
// and returns them in their new state.
func (s *Store) ExpirePending(ctx context.Context, before Date) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		UPDATE bookings
		SET status = 'expired',
			status_version = status_version + 1,
			updated_at = NOW()
		WHERE status = 'pending' AND tour_date < $1
		RETURNING `+bookingColumns, before.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) Calendar(ctx context.Context, from, to Date) ([]Availability, error) {
	rows, err := s.db.Query(ctx, `
		SELECT tour_date, time_slot, jeep_type,
			COUNT(*) FILTER (WHERE reservation_type = 'private'),
			COALESCE(SUM(seats) FILTER (WHERE reservation_type = 'shared'), 0)
		FROM bookings
		WHERE status IN ('pending', 'confirmed')
		  AND tour_date BETWEEN $1 AND $2
		GROUP BY tour_date, time_slot, jeep_type
		ORDER BY tour_date, time_slot, jeep_type`, from.Time, to.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Availability{}
	for rows.Next() {
		var a Availability
		var day time.Time
		if err := rows.Scan(&day, &a.TimeSlot, &a.JeepType, &a.PrivateBookings, &a.SharedSeatsBooked); err != nil {
			return nil, err
		}
		a.TourDate = NewDate(day)
		a.SharedSeatsLeft = SeatsLeft(a.SharedSeatsBooked)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_events (
			booking_id, from_status, to_status, actor, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.BookingID,
		string(e.FromStatus),
		string(e.ToStatus),
		e.Actor,
		e.Reason,
		e.CreatedAt,
	)
	return err
}

func (s *Store) Events(ctx context.Context, bookingID string) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, booking_id, from_status, to_status, actor, reason, created_at
		FROM booking_events
		WHERE booking_id = $1
		ORDER BY created_at, id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.BookingID, &e.FromStatus, &e.ToStatus, &e.Actor, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var day time.Time
	var sel, price []byte
	err := row.Scan(
		&b.ID, &b.Status, &b.StatusVersion, &day,
		&b.Customer.Name, &b.Customer.Email, &b.Customer.Phone, &b.Notes,
		&sel, &b.Seats, &price, &b.PricingConfigID,
		&b.CreatedAt, &b.UpdatedAt, &b.ConfirmedAt, &b.CompletedAt, &b.CancelledAt, &b.CancelReason,
	)
	if err != nil {
		return nil, err
	}
	b.TourDate = NewDate(day)
	if err := json.Unmarshal(sel, &b.Selection); err != nil {
		return nil, fmt.Errorf("decode selection of %s: %w", b.ID, err)
	}
	if err := json.Unmarshal(price, &b.Price); err != nil {
		return nil, fmt.Errorf("decode price of %s: %w", b.ID, err)
	}
	return &b, nil
}
