package appconfig

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

type Service struct {
	store    rowstore.CachedStore
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewService(store rowstore.CachedStore, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{store: store, recorder: recorder, logger: logger}
}

// Get returns the global config, falling back to schema defaults while the
// row does not exist yet. The row is only materialized by the first Patch.
func (s *Service) Get(ctx context.Context) (Config, error) {
	record, err := s.store.FindByID(ctx, rowstore.TableConfig, "id", GlobalID)
	if err != nil {
		if errors.Is(err, rowstore.ErrRowNotFound) {
			return Defaults(), nil
		}
		s.logger.Error("failed to read global config", "error", err)
		return Config{}, err
	}
	return FromRecord(record), nil
}

func (s *Service) Patch(ctx context.Context, actor internal.Actor, dto PatchDTO) (Config, error) {
	if err := dto.Validate(); err != nil {
		return Config{}, err
	}

	before, err := s.Get(ctx)
	if err != nil {
		return Config{}, err
	}
	after := dto.Apply(before)

	if err := s.upsert(ctx, after); err != nil {
		s.logger.Error("failed to persist global config", "error", err)
		return Config{}, err
	}

	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityConfig,
		EntityID:   GlobalID,
		Action:     audit.ActionUpdate,
		Before:     before,
		After:      after,
		Actor:      actor,
	}); err != nil {
		return Config{}, err
	}

	s.logger.Info("global config updated", "actor", actor.Email)
	return after, nil
}

// StampLastReminderRun records when the reminder engine last completed; the
// engine calls this outside the audit trail.
func (s *Service) StampLastReminderRun(ctx context.Context, ranAt time.Time) error {
	current, err := s.Get(ctx)
	if err != nil {
		return err
	}
	current.LastReminderRunAt = ranAt.UTC().Format(time.RFC3339)
	return s.upsert(ctx, current)
}

func (s *Service) upsert(ctx context.Context, cfg Config) error {
	err := s.store.UpdateRowByID(ctx, rowstore.TableConfig, "id", GlobalID, cfg.ToRecord())
	if errors.Is(err, rowstore.ErrRowNotFound) {
		return s.store.AppendRow(ctx, rowstore.TableConfig, cfg.ToRecord())
	}
	return err
}
