// README: Postgres-backed store tests (set SAFARI_TEST_DB_DSN; run with -race).
package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"safari/internal/infra"
	"safari/internal/modules/pricing"
)

func setupStoreService(t *testing.T) (*Service, *Store) {
	t.Helper()
	dsn := os.Getenv("SAFARI_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("SAFARI_TEST_DB_DSN not set")
	}
	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	if err := infra.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg, err := pricing.LoadConfigFile("../../../configs/pricing.seed.json")
	if err != nil {
		t.Fatalf("load seed config: %v", err)
	}
	snap, err := pricing.NewStore(db).Save(ctx, cfg)
	if err != nil {
		t.Fatalf("save pricing config: %v", err)
	}

	store := NewStore(db)
	return NewService(store, enginePricer{cfg: cfg, id: snap.ID}, &recordingPublisher{}, nil), store
}

// farDate keeps runs against a shared database from colliding on capacity.
func farDate() string {
	return time.Now().UTC().AddDate(3, 0, rand.Intn(5000)).Format("2006-01-02")
}

func TestStore_ConcurrentSharedSeats(t *testing.T) {
	svc, _ := setupStoreService(t)
	ctx := context.Background()
	date := farDate()

	const attempts = 6
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, sharedCmd(date, "2"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrSeatsUnavailable) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 3 {
		t.Fatalf("expected 3 bookings of 2 seats to fit a 7-seat jeep, got %d", success)
	}

	d := mustDate(t, date)
	avail, err := svc.Calendar(ctx, d, d)
	if err != nil {
		t.Fatal(err)
	}
	if len(avail) != 1 || avail[0].SharedSeatsBooked != 6 || avail[0].SharedSeatsLeft != 1 {
		t.Fatalf("calendar = %+v", avail)
	}
}

func TestStore_ConcurrentConfirmVsCancel(t *testing.T) {
	svc, _ := setupStoreService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, privateCmd(farDate(), 2))
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.Confirm(ctx, b.ID)
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := svc.Cancel(ctx, CancelCommand{ID: b.ID, Actor: "customer", Reason: "changed plans"})
		errs <- err
	}()
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrInvalidState) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success < 1 {
		t.Fatal("expected at least one transition to win")
	}

	got, err := svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if success == 2 && got.Status != StatusCancelled {
		t.Fatalf("confirm then cancel should end cancelled, got %s", got.Status)
	}
	if got.StatusVersion != success {
		t.Errorf("status_version = %d, want %d", got.StatusVersion, success)
	}
}

func TestStore_RoundTripAndDelete(t *testing.T) {
	svc, store := setupStoreService(t)
	ctx := context.Background()

	cmd := sharedCmd(farDate(), "4")
	cmd.Notes = "window seats"
	b, err := svc.Create(ctx, cmd)
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Price.TotalPrice.String() != "29.71" || got.Notes != "window seats" || got.Seats != 4 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := svc.Delete(ctx, b.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("deleting a pending booking: err = %v", err)
	}
	if _, err := svc.Cancel(ctx, CancelCommand{ID: b.ID, Reason: "weather"}); err != nil {
		t.Fatal(err)
	}
	events, err := svc.Events(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[1].ToStatus != StatusCancelled {
		t.Fatalf("events = %+v", events)
	}
	if err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: err = %v", err)
	}
	if err := store.Delete(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: err = %v", err)
	}
}

func TestStore_ListFilters(t *testing.T) {
	svc, store := setupStoreService(t)
	ctx := context.Background()
	date := farDate()

	for i := 1; i <= 3; i++ {
		if _, err := svc.Create(ctx, privateCmd(date, i)); err != nil {
			t.Fatal(fmt.Errorf("create %d: %w", i, err))
		}
	}
	d := mustDate(t, date)
	list, err := store.List(ctx, Filter{Status: StatusPending, From: d, To: d, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("limit not applied: got %d", len(list))
	}
	for _, b := range list {
		if !b.TourDate.Equal(d.Time) {
			t.Errorf("booking %s outside range: %s", b.ID, b.TourDate)
		}
	}
}
