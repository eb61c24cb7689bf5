// README: Pricing service prices selections against the current config snapshot.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type Service struct {
	store  ConfigStore
	engine *Engine
	log    *zap.Logger
}

func NewService(store ConfigStore, engine *Engine, log *zap.Logger) *Service {
	if engine == nil {
		engine = NewEngine(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, engine: engine, log: log}
}

// Quote normalizes a raw client payload and prices it.
func (s *Service) Quote(ctx context.Context, in SelectionInput) (Quote, error) {
	sel, err := in.Normalize()
	if err != nil {
		observeQuote(ReservationType(in.ReservationType), err)
		return Quote{}, err
	}
	return s.Price(ctx, sel)
}

// Price fetches one snapshot and computes against it, so the returned
// ConfigID identifies exactly the rates that were applied.
func (s *Service) Price(ctx context.Context, sel Selection) (Quote, error) {
	snap, err := s.store.Current(ctx)
	if err != nil {
		observeQuote(sel.ReservationType, err)
		return Quote{}, err
	}
	price, err := s.engine.Compute(snap.Config, sel)
	observeQuote(sel.ReservationType, err)
	if err != nil {
		if errors.Is(err, ErrMissingConfiguration) || errors.Is(err, ErrInvalidConfiguration) {
			s.log.Error("stored pricing config is incomplete",
				zap.Int64("config_id", snap.ID), zap.Error(err))
		}
		return Quote{}, err
	}
	return Quote{ConfigID: snap.ID, Selection: sel, Price: price}, nil
}

func (s *Service) CurrentConfig(ctx context.Context) (Snapshot, error) {
	return s.store.Current(ctx)
}

func (s *Service) Config(ctx context.Context, id int64) (Snapshot, error) {
	return s.store.Get(ctx, id)
}

// UpdateConfig stores cfg as the new current version. Incomplete configs are
// rejected before anything is written.
func (s *Service) UpdateConfig(ctx context.Context, cfg Config) (Snapshot, error) {
	if err := cfg.Validate(); err != nil {
		return Snapshot{}, err
	}
	snap, err := s.store.Save(ctx, cfg)
	if err != nil {
		return Snapshot{}, err
	}
	configUpdatesTotal.Inc()
	s.log.Info("pricing config updated", zap.Int64("config_id", snap.ID))
	return snap, nil
}

func (s *Service) History(ctx context.Context, limit int) ([]Snapshot, error) {
	return s.store.History(ctx, limit)
}

// Seed saves cfg only when no config exists yet. It reports whether a new
// version was written.
func (s *Service) Seed(ctx context.Context, cfg Config) (bool, error) {
	_, err := s.store.Current(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrConfigurationUnavailable) {
		return false, fmt.Errorf("check current pricing config: %w", err)
	}
	if _, err := s.UpdateConfig(ctx, cfg); err != nil {
		return false, fmt.Errorf("seed pricing config: %w", err)
	}
	return true, nil
}
