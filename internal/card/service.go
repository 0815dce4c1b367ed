package card

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/docstore"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

type Service struct {
	store    rowstore.CachedStore
	docs     docstore.Store
	events   *EventLog
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewService(
	store rowstore.CachedStore,
	docs docstore.Store,
	events *EventLog,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{store: store, docs: docs, events: events, recorder: recorder, logger: logger}
}

// updatePayload is the CARD_UPDATED event payload.
type updatePayload struct {
	Before Card `json:"before"`
	After  Card `json:"after"`
}

type createPayload struct {
	Card Card `json:"card"`
}

type attachmentPayload struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

func (s *Service) List(ctx context.Context, filters ListFilters) (Page, error) {
	rows, err := s.store.GetRowsCached(ctx, rowstore.TableCards)
	if err != nil {
		s.logger.Error("failed to list cards", "error", err)
		return Page{}, err
	}

	cards := make([]Card, 0, len(rows))
	for _, row := range rows {
		c := FromRecord(row)
		if filters.Search != "" &&
			!strings.Contains(strings.ToLower(c.NumeroCartao), strings.ToLower(filters.Search)) {
			continue
		}
		if filters.Marca != "" && c.Marca != filters.Marca {
			continue
		}
		if filters.Unidade != "" && c.Unidade != filters.Unidade {
			continue
		}
		if filters.Status != "" && string(c.Status) != filters.Status {
			continue
		}
		cards = append(cards, c)
	}

	return paginate(cards, filters.Limit, filters.Offset), nil
}

func (s *Service) Get(ctx context.Context, id string) (Card, error) {
	record, err := s.store.FindByID(ctx, rowstore.TableCards, "card_id", id)
	if err != nil {
		if errors.Is(err, rowstore.ErrRowNotFound) {
			return Card{}, internal.ErrCardNotFound
		}
		return Card{}, err
	}
	return FromRecord(record), nil
}

// Timeline returns the card's event stream, newest first.
func (s *Service) Timeline(ctx context.Context, id string) ([]Event, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.events.ListByCard(ctx, id)
}

func (s *Service) Create(ctx context.Context, actor internal.Actor, dto InputDTO) (Card, error) {
	if err := dto.Validate(); err != nil {
		return Card{}, err
	}

	rows, err := s.store.GetRows(ctx, rowstore.TableCards)
	if err != nil {
		return Card{}, err
	}
	if err := ensureUniqueNumero(rows, dto.NumeroCartao, ""); err != nil {
		return Card{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	c := Card{
		ID:            uuid.NewString(),
		NumeroCartao:  dto.NumeroCartao,
		Marca:         dto.Marca,
		Unidade:       dto.Unidade,
		Status:        dto.Status,
		FotoCartaoURL: dto.FotoCartaoURL,
		Observacoes:   dto.Observacoes,
		CreatedAt:     now,
		CreatedBy:     actor.Email,
		UpdatedAt:     now,
		UpdatedBy:     actor.Email,
	}
	if c.Status == "" {
		c.Status = StatusEstoque
	}

	if err := s.store.AppendRow(ctx, rowstore.TableCards, c.ToRecord()); err != nil {
		s.logger.Error("failed to append card", "error", err)
		return Card{}, err
	}
	if err := s.events.Append(ctx, c.ID, EventCardCreated, createPayload{Card: c}, actor.Email); err != nil {
		return Card{}, err
	}
	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityCard,
		EntityID:   c.ID,
		Action:     audit.ActionCreate,
		After:      c,
		Actor:      actor,
	}); err != nil {
		return Card{}, err
	}

	s.logger.Info("card created", "card_id", c.ID, "numero", c.NumeroCartao, "actor", actor.Email)
	return c, nil
}

func (s *Service) Update(ctx context.Context, actor internal.Actor, id string, dto InputDTO) (Card, error) {
	if err := dto.Validate(); err != nil {
		return Card{}, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return Card{}, err
	}

	if dto.NumeroCartao != "" && dto.NumeroCartao != existing.NumeroCartao {
		rows, err := s.store.GetRows(ctx, rowstore.TableCards)
		if err != nil {
			return Card{}, err
		}
		if err := ensureUniqueNumero(rows, dto.NumeroCartao, id); err != nil {
			return Card{}, err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	updated := existing
	updated.NumeroCartao = dto.NumeroCartao
	updated.Marca = dto.Marca
	updated.Unidade = dto.Unidade
	updated.FotoCartaoURL = dto.FotoCartaoURL
	updated.Observacoes = dto.Observacoes
	updated.UpdatedAt = now
	updated.UpdatedBy = actor.Email
	if dto.Status != "" {
		updated.Status = dto.Status
	}

	if err := s.update(ctx, updated); err != nil {
		return Card{}, err
	}
	if err := s.events.Append(ctx, id, EventCardUpdated, updatePayload{Before: existing, After: updated}, actor.Email); err != nil {
		return Card{}, err
	}
	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityCard,
		EntityID:   id,
		Action:     audit.ActionUpdate,
		Before:     existing,
		After:      updated,
		Actor:      actor,
	}); err != nil {
		return Card{}, err
	}

	return updated, nil
}

// AttachPhoto uploads the card photo, stamps its URL on the card and records
// the attachment, event and audit rows.
func (s *Service) AttachPhoto(ctx context.Context, actor internal.Actor, id string, input docstore.UploadInput) (Card, error) {
	if len(input.Bytes) == 0 || input.Filename == "" {
		return Card{}, internal.NewValidationError("Arquivo e obrigatorio", internal.ErrCodeInvalidFile)
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return Card{}, err
	}

	file, err := s.docs.Upload(ctx, input)
	if err != nil {
		s.logger.Error("failed to upload card photo", "card_id", id, "error", err)
		return Card{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	updated := existing
	updated.FotoCartaoURL = file.URL
	updated.UpdatedAt = now
	updated.UpdatedBy = actor.Email

	if err := s.update(ctx, updated); err != nil {
		return Card{}, err
	}

	attachment := Attachment{
		ID:        uuid.NewString(),
		CardID:    id,
		Type:      AttachmentCardPhoto,
		URL:       file.URL,
		CreatedAt: now,
		CreatedBy: actor.Email,
	}
	if err := s.store.AppendRow(ctx, rowstore.TableAttachments, attachment.ToRecord()); err != nil {
		return Card{}, err
	}
	if err := s.events.Append(ctx, id, EventAttachmentAdded, attachmentPayload{Type: AttachmentCardPhoto, URL: file.URL}, actor.Email); err != nil {
		return Card{}, err
	}
	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityCard,
		EntityID:   id,
		Action:     audit.ActionUpdate,
		Before:     existing,
		After:      updated,
		Actor:      actor,
	}); err != nil {
		return Card{}, err
	}

	return updated, nil
}

// UpdateStatus flips the card status without touching the rest of the row.
// Used by the allocation service.
func (s *Service) UpdateStatus(ctx context.Context, actor internal.Actor, existing Card, status Status) (Card, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	updated := existing
	updated.Status = status
	updated.UpdatedAt = now
	updated.UpdatedBy = actor.Email

	if err := s.update(ctx, updated); err != nil {
		return Card{}, err
	}
	return updated, nil
}

func (s *Service) update(ctx context.Context, c Card) error {
	err := s.store.UpdateRowByID(ctx, rowstore.TableCards, "card_id", c.ID, c.ToRecord())
	if err != nil {
		if errors.Is(err, rowstore.ErrRowNotFound) {
			return internal.ErrCardNotFound
		}
		s.logger.Error("failed to update card", "card_id", c.ID, "error", err)
	}
	return err
}

func ensureUniqueNumero(rows []rowstore.Record, numero, ignoreID string) error {
	for _, row := range rows {
		c := FromRecord(row)
		if c.NumeroCartao == numero && (ignoreID == "" || c.ID != ignoreID) {
			return internal.ErrDuplicateCardNumber
		}
	}
	return nil
}

func paginate(cards []Card, limit, offset int) Page {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	total := len(cards)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return Page{Rows: cards[offset:end], Total: total}
}
