// README: Pricing config store backed by PostgreSQL (append-only versions).
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConfigStore supplies pricing config snapshots.
type ConfigStore interface {
	Current(ctx context.Context) (Snapshot, error)
	Get(ctx context.Context, id int64) (Snapshot, error)
	Save(ctx context.Context, cfg Config) (Snapshot, error)
	History(ctx context.Context, limit int) ([]Snapshot, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Current returns the most recently created snapshot.
func (s *Store) Current(ctx context.Context) (Snapshot, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, config, created_at
		FROM pricing_configs
		ORDER BY created_at DESC, id DESC
		LIMIT 1`)
	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrConfigurationUnavailable
	}
	return snap, err
}

func (s *Store) Get(ctx context.Context, id int64) (Snapshot, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, config, created_at
		FROM pricing_configs
		WHERE id = $1`, id)
	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrConfigNotFound
	}
	return snap, err
}

func (s *Store) Save(ctx context.Context, cfg Config) (Snapshot, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode pricing config: %w", err)
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO pricing_configs (config, created_at)
		VALUES ($1, NOW())
		RETURNING id, config, created_at`, raw)
	snap, err := scanSnapshot(row)
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert pricing config: %w", err)
	}
	return snap, nil
}

func (s *Store) History(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, config, created_at
		FROM pricing_configs
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func scanSnapshot(row pgx.Row) (Snapshot, error) {
	var snap Snapshot
	var raw []byte
	if err := row.Scan(&snap.ID, &raw, &snap.CreatedAt); err != nil {
		return Snapshot{}, err
	}
	if err := json.Unmarshal(raw, &snap.Config); err != nil {
		return Snapshot{}, fmt.Errorf("decode pricing config %d: %w", snap.ID, err)
	}
	return snap, nil
}
