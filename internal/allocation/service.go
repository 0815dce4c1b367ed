package allocation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/card"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

var validate = validator.New()

type AllocateDTO struct {
	PersonID   string `json:"person_id" validate:"required"`
	DataInicio string `json:"data_inicio" validate:"required"`
	Motivo     string `json:"motivo,omitempty"`
}

type DeallocateDTO struct {
	DataFim string `json:"data_fim" validate:"required"`
	Motivo  string `json:"motivo,omitempty"`
}

// Result carries both rows touched by an allocate or deallocate call.
type Result struct {
	Allocation Allocation `json:"allocation"`
	Card       card.Card  `json:"card"`
}

type allocatedPayload struct {
	Allocation Allocation `json:"allocation"`
}

type Service struct {
	store    rowstore.CachedStore
	cards    *card.Service
	events   *card.EventLog
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewService(
	store rowstore.CachedStore,
	cards *card.Service,
	events *card.EventLog,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{store: store, cards: cards, events: events, recorder: recorder, logger: logger}
}

// ActiveByCard returns the card's ATIVA allocation, reading fresh rows so the
// single-active check does not race the cache TTL.
func (s *Service) ActiveByCard(ctx context.Context, cardID string) (Allocation, bool, error) {
	rows, err := s.store.GetRows(ctx, rowstore.TableAllocations)
	if err != nil {
		return Allocation{}, false, err
	}
	for _, row := range rows {
		a := FromRecord(row)
		if a.CardID == cardID && a.Status == StatusAtiva {
			return a, true, nil
		}
	}
	return Allocation{}, false, nil
}

func (s *Service) ListByCard(ctx context.Context, cardID string) ([]Allocation, error) {
	rows, err := s.store.GetRowsCached(ctx, rowstore.TableAllocations)
	if err != nil {
		return nil, err
	}
	allocations := make([]Allocation, 0)
	for _, row := range rows {
		a := FromRecord(row)
		if a.CardID == cardID {
			allocations = append(allocations, a)
		}
	}
	return allocations, nil
}

func (s *Service) Allocate(ctx context.Context, actor internal.Actor, cardID string, dto AllocateDTO) (Result, error) {
	if err := validate.Struct(dto); err != nil {
		return Result{}, internal.NewValidationError("Dados invalidos", internal.ErrCodeValidationFailed).WithCause(err)
	}

	existing, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return Result{}, err
	}

	if _, active, err := s.ActiveByCard(ctx, cardID); err != nil {
		return Result{}, err
	} else if active {
		return Result{}, internal.ErrActiveAllocation
	}

	now := time.Now().UTC().Format(time.RFC3339)
	allocation := Allocation{
		ID:         uuid.NewString(),
		CardID:     cardID,
		PersonID:   strings.TrimSpace(dto.PersonID),
		DataInicio: dto.DataInicio,
		Status:     StatusAtiva,
		Motivo:     strings.TrimSpace(dto.Motivo),
		CreatedAt:  now,
		CreatedBy:  actor.Email,
	}

	if err := s.store.AppendRow(ctx, rowstore.TableAllocations, allocation.ToRecord()); err != nil {
		s.logger.Error("failed to append allocation", "card_id", cardID, "error", err)
		return Result{}, err
	}

	updatedCard, err := s.cards.UpdateStatus(ctx, actor, existing, card.StatusAlocado)
	if err != nil {
		return Result{}, err
	}

	if err := s.events.Append(ctx, cardID, card.EventAllocated, allocatedPayload{Allocation: allocation}, actor.Email); err != nil {
		return Result{}, err
	}
	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityAllocation,
		EntityID:   allocation.ID,
		Action:     audit.ActionCreate,
		After:      allocation,
		Actor:      actor,
	}); err != nil {
		return Result{}, err
	}
	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityCard,
		EntityID:   cardID,
		Action:     audit.ActionUpdate,
		Before:     existing,
		After:      updatedCard,
		Actor:      actor,
	}); err != nil {
		return Result{}, err
	}

	s.logger.Info("card allocated",
		"card_id", cardID, "person_id", allocation.PersonID, "actor", actor.Email)
	return Result{Allocation: allocation, Card: updatedCard}, nil
}

func (s *Service) Deallocate(ctx context.Context, actor internal.Actor, cardID string, dto DeallocateDTO) (Result, error) {
	if err := validate.Struct(dto); err != nil {
		return Result{}, internal.NewValidationError("Dados invalidos", internal.ErrCodeValidationFailed).WithCause(err)
	}

	existing, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return Result{}, err
	}

	allocation, active, err := s.ActiveByCard(ctx, cardID)
	if err != nil {
		return Result{}, err
	}
	if !active {
		return Result{}, internal.ErrAllocationNotActive
	}

	updated := allocation
	updated.DataFim = dto.DataFim
	updated.Motivo = strings.TrimSpace(dto.Motivo)
	updated.Status = StatusEncerrada

	if err := s.store.UpdateRowByID(ctx, rowstore.TableAllocations, "allocation_id", allocation.ID, updated.ToRecord()); err != nil {
		s.logger.Error("failed to close allocation", "allocation_id", allocation.ID, "error", err)
		return Result{}, err
	}

	updatedCard, err := s.cards.UpdateStatus(ctx, actor, existing, card.StatusEstoque)
	if err != nil {
		return Result{}, err
	}

	if err := s.events.Append(ctx, cardID, card.EventDeallocated, allocatedPayload{Allocation: updated}, actor.Email); err != nil {
		return Result{}, err
	}
	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityAllocation,
		EntityID:   allocation.ID,
		Action:     audit.ActionUpdate,
		Before:     allocation,
		After:      updated,
		Actor:      actor,
	}); err != nil {
		return Result{}, err
	}
	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityCard,
		EntityID:   cardID,
		Action:     audit.ActionUpdate,
		Before:     existing,
		After:      updatedCard,
		Actor:      actor,
	}); err != nil {
		return Result{}, err
	}

	s.logger.Info("card deallocated", "card_id", cardID, "actor", actor.Email)
	return Result{Allocation: updated, Card: updatedCard}, nil
}
