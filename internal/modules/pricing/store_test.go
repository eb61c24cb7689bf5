package pricing

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"safari/internal/infra"
)

// countingStore counts Current calls that reach the underlying store.
type countingStore struct {
	ConfigStore
	current atomic.Int32
}

func (c *countingStore) Current(ctx context.Context) (Snapshot, error) {
	c.current.Add(1)
	return c.ConfigStore.Current(ctx)
}

func seedConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := LoadConfigFile("../../../configs/pricing.seed.json")
	if err != nil {
		t.Fatalf("load seed config: %v", err)
	}
	return cfg
}

func TestCachedStore_DegradesWithoutRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingStore{ConfigStore: &memStore{}}
	cache := NewCachedStore(inner, rdb, time.Minute, nil)
	ctx := context.Background()

	if _, err := cache.Current(ctx); !errors.Is(err, ErrConfigurationUnavailable) {
		t.Fatalf("empty store: err = %v", err)
	}
	saved, err := cache.Save(ctx, seedConfig(t))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := cache.Current(ctx)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got.ID != saved.ID {
		t.Errorf("Current().ID = %d, want %d", got.ID, saved.ID)
	}
}

func TestCachedStore_Redis(t *testing.T) {
	addr := os.Getenv("SAFARI_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SAFARI_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := infra.NewRedis(ctx, addr)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	_ = rdb.Del(ctx, currentConfigKey).Err()

	inner := &countingStore{ConfigStore: &memStore{}}
	cache := NewCachedStore(inner, rdb, time.Minute, nil)
	cfg := seedConfig(t)
	if _, err := cache.Save(ctx, cfg); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := cache.Current(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if n := inner.current.Load(); n != 1 {
		t.Errorf("store hit %d times, want 1", n)
	}

	cfg.Jeep[JeepBasic][SlotMorning] = d(6)
	saved, err := cache.Save(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	got, err := cache.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != saved.ID {
		t.Errorf("stale snapshot %d after Save, want %d", got.ID, saved.ID)
	}
}

func TestStore_Postgres(t *testing.T) {
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

	store := NewStore(db)
	first, err := store.Save(ctx, seedConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Save(ctx, seedConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	cur, err := store.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// Other packages may save versions into the same database concurrently.
	if cur.ID < second.ID {
		t.Errorf("Current().ID = %d, want at least %d", cur.ID, second.ID)
	}
	old, err := store.Get(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := old.Config.Validate(); err != nil {
		t.Errorf("stored config no longer validates: %v", err)
	}
	if _, err := store.Get(ctx, -1); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Get(-1) err = %v", err)
	}

	hist, err := store.History(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) < 2 {
		t.Fatalf("History() returned %d versions", len(hist))
	}
	for i := 1; i < len(hist); i++ {
		if hist[i].CreatedAt.After(hist[i-1].CreatedAt) {
			t.Errorf("History() not newest first: %d before %d", hist[i-1].ID, hist[i].ID)
		}
	}
}
