package load

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/card"
	"github.com/frahmantamala/benefits-portal/internal/docstore"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

type CreateDTO struct {
	DataCarga   string
	ValorCarga  float64
	Observacoes string
	Receipt     docstore.UploadInput
}

func (d CreateDTO) Validate() error {
	if d.DataCarga == "" {
		return internal.NewValidationError("Data da carga invalida.", internal.ErrCodeInvalidDate)
	}
	if _, err := time.Parse("2006-01-02", datePrefix(d.DataCarga)); err != nil {
		return internal.NewValidationError("Data da carga invalida.", internal.ErrCodeInvalidDate)
	}
	if d.ValorCarga <= 0 {
		return internal.NewValidationError("Valor da carga invalido.", internal.ErrCodeInvalidAmount)
	}
	if len(d.Receipt.Bytes) == 0 || d.Receipt.Filename == "" {
		return internal.NewValidationError("Envie o comprovante.", internal.ErrCodeInvalidFile)
	}
	return nil
}

// Row is a load joined with its card for the list view.
type Row struct {
	Load
	Card *card.Card `json:"card,omitempty"`
}

type ListFilters struct {
	From         string
	To           string
	NumeroCartao string
	Marca        string
	Unidade      string
	Limit        int
	Offset       int
}

type Page struct {
	Rows  []Row `json:"rows"`
	Total int   `json:"total"`
}

type loadPayload struct {
	Load Load `json:"load"`
}

type Service struct {
	store    rowstore.CachedStore
	docs     docstore.Store
	cards    *card.Service
	events   *card.EventLog
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewService(
	store rowstore.CachedStore,
	docs docstore.Store,
	cards *card.Service,
	events *card.EventLog,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{store: store, docs: docs, cards: cards, events: events, recorder: recorder, logger: logger}
}

func (s *Service) Create(ctx context.Context, actor internal.Actor, cardID string, dto CreateDTO) (Load, error) {
	if err := dto.Validate(); err != nil {
		return Load{}, err
	}

	owner, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return Load{}, err
	}

	file, err := s.docs.Upload(ctx, dto.Receipt)
	if err != nil {
		s.logger.Error("failed to upload load receipt", "card_id", cardID, "error", err)
		return Load{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	l := Load{
		ID:             uuid.NewString(),
		CardID:         owner.ID,
		DataCarga:      dto.DataCarga,
		ValorCarga:     strconv.FormatFloat(dto.ValorCarga, 'f', -1, 64),
		ComprovanteURL: file.URL,
		Observacoes:    strings.TrimSpace(dto.Observacoes),
		CreatedAt:      now,
		CreatedBy:      actor.Email,
	}

	if err := s.store.AppendRow(ctx, rowstore.TableLoads, l.ToRecord()); err != nil {
		s.logger.Error("failed to append load", "card_id", cardID, "error", err)
		return Load{}, err
	}

	attachment := card.Attachment{
		ID:        uuid.NewString(),
		CardID:    owner.ID,
		Type:      card.AttachmentLoadReceipt,
		URL:       file.URL,
		CreatedAt: now,
		CreatedBy: actor.Email,
	}
	if err := s.store.AppendRow(ctx, rowstore.TableAttachments, attachment.ToRecord()); err != nil {
		return Load{}, err
	}

	if err := s.events.Append(ctx, owner.ID, card.EventLoadCreated, loadPayload{Load: l}, actor.Email); err != nil {
		return Load{}, err
	}
	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityLoad,
		EntityID:   l.ID,
		Action:     audit.ActionCreate,
		After:      l,
		Actor:      actor,
	}); err != nil {
		return Load{}, err
	}

	s.logger.Info("load created", "load_id", l.ID, "card_id", owner.ID, "actor", actor.Email)
	return l, nil
}

func (s *Service) List(ctx context.Context, filters ListFilters) (Page, error) {
	loadRows, err := s.store.GetRowsCached(ctx, rowstore.TableLoads)
	if err != nil {
		s.logger.Error("failed to list loads", "error", err)
		return Page{}, err
	}
	cardRows, err := s.store.GetRowsCached(ctx, rowstore.TableCards)
	if err != nil {
		return Page{}, err
	}

	cardsByID := make(map[string]card.Card, len(cardRows))
	for _, row := range cardRows {
		c := card.FromRecord(row)
		cardsByID[c.ID] = c
	}

	result := make([]Row, 0, len(loadRows))
	for _, row := range loadRows {
		l := FromRecord(row)
		entry := Row{Load: l}
		if owner, ok := cardsByID[l.CardID]; ok {
			entry.Card = &owner
		}

		if filters.From != "" && l.DataCarga < filters.From {
			continue
		}
		if filters.To != "" && l.DataCarga > filters.To {
			continue
		}
		if filters.NumeroCartao != "" {
			if entry.Card == nil ||
				!strings.Contains(strings.ToLower(entry.Card.NumeroCartao), strings.ToLower(filters.NumeroCartao)) {
				continue
			}
		}
		if filters.Marca != "" && (entry.Card == nil || entry.Card.Marca != filters.Marca) {
			continue
		}
		if filters.Unidade != "" && (entry.Card == nil || entry.Card.Unidade != filters.Unidade) {
			continue
		}
		result = append(result, entry)
	}

	return paginate(result, filters.Limit, filters.Offset), nil
}

func (s *Service) ListByCard(ctx context.Context, cardID string) ([]Load, error) {
	rows, err := s.store.GetRowsCached(ctx, rowstore.TableLoads)
	if err != nil {
		return nil, err
	}
	loads := make([]Load, 0)
	for _, row := range rows {
		l := FromRecord(row)
		if l.CardID == cardID {
			loads = append(loads, l)
		}
	}
	return loads, nil
}

// CardBalance folds all load amounts for one card.
func (s *Service) CardBalance(ctx context.Context, cardID string) (float64, error) {
	loads, err := s.ListByCard(ctx, cardID)
	if err != nil {
		return 0, err
	}
	return ComputeBalances(loads)[cardID], nil
}

func datePrefix(value string) string {
	if len(value) > 10 {
		return value[:10]
	}
	return value
}

func paginate(rows []Row, limit, offset int) Page {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	total := len(rows)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return Page{Rows: rows[offset:end], Total: total}
}
