package payment

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
	store              rowstore.CachedStore
	docs               docstore.Store
	recorder           *audit.Recorder
	logger             *slog.Logger
	location           *time.Location
	enforceTransitions bool
}

func NewService(
	store rowstore.CachedStore,
	docs docstore.Store,
	recorder *audit.Recorder,
	logger *slog.Logger,
	location *time.Location,
	enforceTransitions bool,
) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		store:              store,
		docs:               docs,
		recorder:           recorder,
		logger:             logger,
		location:           location,
		enforceTransitions: enforceTransitions,
	}
}

func (s *Service) now() time.Time {
	return time.Now().In(s.location)
}

// withDerivedStatus applies the status engine at read time. The persisted row
// is never rewritten by derivation.
func (s *Service) withDerivedStatus(p Payment) Payment {
	p.Status = ComputeAutoStatus(p.DueDate, p.Status, s.now())
	return p
}

func (s *Service) Create(ctx context.Context, actor internal.Actor, dto CreateDTO) (Payment, error) {
	if err := dto.Validate(); err != nil {
		return Payment{}, err
	}

	now := s.now().UTC().Format(time.RFC3339)
	p := Payment{
		ID:             uuid.NewString(),
		Category:       dto.Category,
		Brand:          dto.Brand,
		Provider:       dto.Provider,
		ProviderCustom: dto.ProviderCustom,
		Subtype:        dto.Subtype,
		Competence:     dto.Competence,
		TicketNumber:   dto.TicketNumber,
		TicketSentDate: dto.TicketSentDate,
		DueDate:        dto.DueDate,
		Amount:         dto.Amount,
		Status:         dto.Status,
		OwnerName:      dto.OwnerName,
		OwnerEmail:     dto.OwnerEmail,
		Notes:          dto.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.Status == "" {
		p.Status = StatusRascunho
	}
	if p.Status == StatusPago {
		p.PaidAt = now
		p.PaidBy = actor.Email
	}

	if err := s.store.AppendRow(ctx, rowstore.TablePayments, p.ToRecord()); err != nil {
		s.logger.Error("failed to append payment", "error", err)
		return Payment{}, err
	}

	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityPayment,
		EntityID:   p.ID,
		Action:     audit.ActionCreate,
		After:      p,
		Actor:      actor,
	}); err != nil {
		return Payment{}, err
	}

	s.logger.Info("payment created", "payment_id", p.ID, "category", p.Category, "actor", actor.Email)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (Payment, error) {
	record, err := s.store.FindByID(ctx, rowstore.TablePayments, "id", id)
	if err != nil {
		if errors.Is(err, rowstore.ErrRowNotFound) {
			return Payment{}, internal.ErrPaymentNotFound
		}
		return Payment{}, err
	}
	return s.withDerivedStatus(FromRecord(record)), nil
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Payment, error) {
	rows, err := s.store.GetRowsCached(ctx, rowstore.TablePayments)
	if err != nil {
		s.logger.Error("failed to list payments", "error", err)
		return nil, err
	}

	payments := make([]Payment, 0, len(rows))
	for _, row := range rows {
		p := s.withDerivedStatus(FromRecord(row))
		if filters.Status != "" && string(p.Status) != filters.Status {
			continue
		}
		if filters.Category != "" && p.Category != filters.Category {
			continue
		}
		if filters.Provider != "" && p.Provider != filters.Provider {
			continue
		}
		if filters.Competence != "" && p.Competence != filters.Competence {
			continue
		}
		if filters.Owner != "" && !matchesOwner(p, filters.Owner) {
			continue
		}
		if filters.Query != "" && !matchesQuery(p, filters.Query) {
			continue
		}
		payments = append(payments, p)
	}
	return payments, nil
}

func (s *Service) Patch(ctx context.Context, actor internal.Actor, id string, dto PatchDTO) (Payment, error) {
	if err := dto.Validate(); err != nil {
		return Payment{}, err
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return Payment{}, err
	}

	if dto.Status != nil && s.enforceTransitions && *dto.Status != existing.Status {
		if err := AssertTransition(existing.Status, *dto.Status); err != nil {
			return Payment{}, err
		}
	}

	now := s.now().UTC().Format(time.RFC3339)
	updated := dto.Apply(existing)
	updated.UpdatedAt = now
	if dto.Status != nil && *dto.Status == StatusPago {
		updated.PaidAt = now
		updated.PaidBy = actor.Email
	}
	if updated.Provider == ProviderOutro && updated.ProviderCustom == "" {
		return Payment{}, internal.NewValidationError(
			"provider_custom e obrigatorio quando provider=Outro",
			internal.ErrCodeValidationFailed,
		)
	}

	if err := s.update(ctx, updated); err != nil {
		return Payment{}, err
	}

	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityPayment,
		EntityID:   updated.ID,
		Action:     audit.ActionUpdate,
		Before:     existing,
		After:      updated,
		Actor:      actor,
	}); err != nil {
		return Payment{}, err
	}

	return updated, nil
}

func (s *Service) MarkPaid(ctx context.Context, actor internal.Actor, id string) (Payment, error) {
	existing, err := s.find(ctx, id)
	if err != nil {
		return Payment{}, err
	}

	if s.enforceTransitions && existing.Status != StatusPago {
		if err := AssertTransition(existing.Status, StatusPago); err != nil {
			return Payment{}, err
		}
	}

	now := s.now().UTC().Format(time.RFC3339)
	updated := existing
	updated.Status = StatusPago
	updated.PaidAt = now
	updated.PaidBy = actor.Email
	updated.UpdatedAt = now

	if err := s.update(ctx, updated); err != nil {
		return Payment{}, err
	}

	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityPayment,
		EntityID:   updated.ID,
		Action:     audit.ActionMarkPaid,
		Before:     existing,
		After:      updated,
		Actor:      actor,
	}); err != nil {
		return Payment{}, err
	}

	s.logger.Info("payment marked paid", "payment_id", updated.ID, "actor", actor.Email)
	return updated, nil
}

// UploadBoleto stores the document under category/competence/paymentID and
// stamps the file reference on the payment. The file id is blanked in the
// audit snapshots.
func (s *Service) UploadBoleto(ctx context.Context, actor internal.Actor, id string, input docstore.UploadInput) (Payment, error) {
	if len(input.Bytes) == 0 || input.Filename == "" {
		return Payment{}, internal.NewValidationError("Arquivo e obrigatorio", internal.ErrCodeInvalidFile)
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return Payment{}, err
	}

	folder := []string{
		orDefault(existing.Category, "sem-categoria"),
		orDefault(existing.Competence, "sem-competencia"),
		existing.ID,
	}
	file, err := s.docs.UploadAt(ctx, folder, input)
	if err != nil {
		s.logger.Error("failed to upload boleto", "payment_id", id, "error", err)
		return Payment{}, err
	}

	now := s.now().UTC().Format(time.RFC3339)
	updated := existing
	updated.DriveFileID = file.ID
	updated.DriveLink = file.URL
	updated.DriveFilename = input.Filename
	updated.UpdatedAt = now

	if err := s.update(ctx, updated); err != nil {
		return Payment{}, err
	}

	beforeSnapshot := existing
	beforeSnapshot.DriveFileID = ""
	afterSnapshot := updated
	afterSnapshot.DriveFileID = ""

	if err := s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityPayment,
		EntityID:   updated.ID,
		Action:     audit.ActionUpload,
		Before:     beforeSnapshot,
		After:      afterSnapshot,
		Actor:      actor,
	}); err != nil {
		return Payment{}, err
	}

	s.logger.Info("boleto uploaded", "payment_id", updated.ID, "filename", input.Filename)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor internal.Actor, id string) error {
	existing, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteRowByID(ctx, rowstore.TablePayments, "id", id); err != nil {
		if errors.Is(err, rowstore.ErrRowNotFound) {
			return internal.ErrPaymentNotFound
		}
		s.logger.Error("failed to delete payment", "payment_id", id, "error", err)
		return err
	}

	return s.recorder.Record(ctx, audit.Change{
		EntityType: audit.EntityPayment,
		EntityID:   existing.ID,
		Action:     audit.ActionDelete,
		Before:     existing,
		Actor:      actor,
	})
}

func (s *Service) find(ctx context.Context, id string) (Payment, error) {
	record, err := s.store.FindByID(ctx, rowstore.TablePayments, "id", id)
	if err != nil {
		if errors.Is(err, rowstore.ErrRowNotFound) {
			return Payment{}, internal.ErrPaymentNotFound
		}
		return Payment{}, err
	}
	return FromRecord(record), nil
}

func (s *Service) update(ctx context.Context, p Payment) error {
	err := s.store.UpdateRowByID(ctx, rowstore.TablePayments, "id", p.ID, p.ToRecord())
	if err != nil {
		if errors.Is(err, rowstore.ErrRowNotFound) {
			return internal.ErrPaymentNotFound
		}
		s.logger.Error("failed to update payment", "payment_id", p.ID, "error", err)
	}
	return err
}

func matchesOwner(p Payment, owner string) bool {
	owner = strings.ToLower(owner)
	return strings.Contains(strings.ToLower(p.OwnerName), owner) ||
		strings.Contains(strings.ToLower(p.OwnerEmail), owner)
}

func matchesQuery(p Payment, query string) bool {
	haystack := strings.ToLower(strings.Join([]string{
		p.TicketNumber,
		p.OwnerName,
		p.OwnerEmail,
		p.Provider,
		p.ProviderCustom,
		p.Notes,
	}, " "))
	return strings.Contains(haystack, strings.ToLower(query))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
