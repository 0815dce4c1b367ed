package person

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

var validate = validator.New()

type InputDTO struct {
	Nome           string `json:"nome" validate:"required"`
	ChapaMatricula string `json:"chapa_matricula" validate:"required"`
	Marca          string `json:"marca" validate:"required"`
	Unidade        string `json:"unidade" validate:"required"`
	Status         Status `json:"status,omitempty" validate:"omitempty,oneof=ATIVO INATIVO"`
}

func (d *InputDTO) Validate() error {
	d.Nome = strings.TrimSpace(d.Nome)
	d.ChapaMatricula = strings.TrimSpace(d.ChapaMatricula)
	d.Marca = strings.TrimSpace(d.Marca)
	d.Unidade = strings.TrimSpace(d.Unidade)

	if err := validate.Struct(d); err != nil {
		return internal.NewValidationError("Dados invalidos", internal.ErrCodeValidationFailed).WithCause(err)
	}
	return nil
}

type ListFilters struct {
	Search  string
	Marca   string
	Unidade string
	Status  string
	Limit   int
	Offset  int
}

type Page struct {
	Rows  []Person `json:"rows"`
	Total int      `json:"total"`
}

type Service struct {
	store    rowstore.CachedStore
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewService(store rowstore.CachedStore, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{store: store, recorder: recorder, logger: logger}
}

func (s *Service) List(ctx context.Context, filters ListFilters) (Page, error) {
	rows, err := s.store.GetRowsCached(ctx, rowstore.TablePeople)
	if err != nil {
		s.logger.Error("failed to list people", "error", err)
		return Page{}, err
	}

	people := make([]Person, 0, len(rows))
	for _, row := range rows {
		p := FromRecord(row)
		if filters.Search != "" && !matchesSearch(p, filters.Search) {
			continue
		}
		if filters.Marca != "" && p.Marca != filters.Marca {
			continue
		}
		if filters.Unidade != "" && p.Unidade != filters.Unidade {
			continue
		}
		if filters.Status != "" && string(p.Status) != filters.Status {
			continue
		}
		people = append(people, p)
	}

	return paginate(people, filters.Limit, filters.Offset), nil
}

func (s *Service) Get(ctx context.Context, id string) (Person, error) {
	record, err := s.store.FindByID(ctx, rowstore.TablePeople, "person_id", id)
	if err != nil {
		if errors.Is(err, rowstore.ErrRowNotFound) {
			return Person{}, internal.ErrPersonNotFound
		}
		return Person{}, err
	}
	return FromRecord(record), nil
}

func (s *Service) Create(ctx context.Context, actor internal.Actor, dto InputDTO) (Person, error) {
	if err := dto.Validate(); err != nil {
		return Person{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	p := Person{
		ID:             uuid.NewString(),
		Nome:           dto.Nome,
		ChapaMatricula: dto.ChapaMatricula,
		Marca:          dto.Marca,
		Unidade:        dto.Unidade,
		Status:         dto.Status,
		CreatedAt:      now,
		CreatedBy:      actor.Email,
		UpdatedAt:      now,
		UpdatedBy:      actor.Email,
	}
	if p.Status == "" {
		p.Status = StatusAtivo
	}

	if err := s.store.AppendRow(ctx, rowstore.TablePeople, p.ToRecord()); err != nil {
		s.logger.Error("failed to append person", "error", err)
		return Person{}, err
	}
	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityPerson,
		EntityID:   p.ID,
		Action:     audit.ActionCreate,
		After:      p,
		Actor:      actor,
	}); err != nil {
		return Person{}, err
	}

	s.logger.Info("person created", "person_id", p.ID, "actor", actor.Email)
	return p, nil
}

func (s *Service) Update(ctx context.Context, actor internal.Actor, id string, dto InputDTO) (Person, error) {
	if err := dto.Validate(); err != nil {
		return Person{}, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return Person{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	updated := existing
	updated.Nome = dto.Nome
	updated.ChapaMatricula = dto.ChapaMatricula
	updated.Marca = dto.Marca
	updated.Unidade = dto.Unidade
	updated.UpdatedAt = now
	updated.UpdatedBy = actor.Email
	if dto.Status != "" {
		updated.Status = dto.Status
	}

	if err := s.store.UpdateRowByID(ctx, rowstore.TablePeople, "person_id", id, updated.ToRecord()); err != nil {
		if errors.Is(err, rowstore.ErrRowNotFound) {
			return Person{}, internal.ErrPersonNotFound
		}
		s.logger.Error("failed to update person", "person_id", id, "error", err)
		return Person{}, err
	}
	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityPerson,
		EntityID:   id,
		Action:     audit.ActionUpdate,
		Before:     existing,
		After:      updated,
		Actor:      actor,
	}); err != nil {
		return Person{}, err
	}

	return updated, nil
}

func matchesSearch(p Person, search string) bool {
	term := strings.ToLower(search)
	return strings.Contains(strings.ToLower(p.Nome), term) ||
		strings.Contains(strings.ToLower(p.ChapaMatricula), term)
}

func paginate(people []Person, limit, offset int) Page {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	total := len(people)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return Page{Rows: people[offset:end], Total: total}
}
