package payment

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/frahmantamala/benefits-portal/internal"
)

var (
	validate       = validator.New()
	competenceRule = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])$`)
)

type CreateDTO struct {
	Category       string  `json:"category" validate:"required,oneof=PlanoSaude VT VA ExameOcupacional"`
	Brand          string  `json:"brand" validate:"required"`
	Provider       string  `json:"provider" validate:"required,oneof=Unimed SulAmerica Amil Outro"`
	ProviderCustom string  `json:"provider_custom,omitempty"`
	Subtype        string  `json:"subtype" validate:"required,oneof=Saude Odonto NA"`
	Competence     string  `json:"competence,omitempty"`
	TicketNumber   string  `json:"ticket_number" validate:"required"`
	TicketSentDate string  `json:"ticket_sent_date" validate:"required"`
	DueDate        string  `json:"due_date" validate:"required"`
	Amount         float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Status         Status  `json:"status,omitempty" validate:"omitempty,oneof=RASCUNHO EM_ACOMPANHAMENTO AGUARDANDO_PAGAMENTO PAGO ATRASADO"`
	OwnerName      string  `json:"owner_name" validate:"required"`
	OwnerEmail     string  `json:"owner_email" validate:"required,email"`
	Notes          string  `json:"notes,omitempty"`
}

func (d *CreateDTO) Validate() error {
	d.trim()
	if err := validate.Struct(d); err != nil {
		return validationError(err)
	}
	if d.Provider == ProviderOutro && d.ProviderCustom == "" {
		return internal.NewValidationError(
			"provider_custom e obrigatorio quando provider=Outro",
			internal.ErrCodeValidationFailed,
		)
	}
	if d.Competence != "" && !competenceRule.MatchString(d.Competence) {
		return internal.NewValidationError("Competencia deve ser AAAA-MM", internal.ErrCodeInvalidDate)
	}
	return nil
}

func (d *CreateDTO) trim() {
	d.Brand = strings.TrimSpace(d.Brand)
	d.ProviderCustom = strings.TrimSpace(d.ProviderCustom)
	d.Competence = strings.TrimSpace(d.Competence)
	d.TicketNumber = strings.TrimSpace(d.TicketNumber)
	d.OwnerName = strings.TrimSpace(d.OwnerName)
	d.OwnerEmail = strings.TrimSpace(d.OwnerEmail)
	d.Notes = strings.TrimSpace(d.Notes)
}

// PatchDTO is a partial update; timestamps and paid fields are service-owned
// and cannot be patched directly.
type PatchDTO struct {
	Category       *string  `json:"category,omitempty" validate:"omitempty,oneof=PlanoSaude VT VA ExameOcupacional"`
	Brand          *string  `json:"brand,omitempty"`
	Provider       *string  `json:"provider,omitempty" validate:"omitempty,oneof=Unimed SulAmerica Amil Outro"`
	ProviderCustom *string  `json:"provider_custom,omitempty"`
	Subtype        *string  `json:"subtype,omitempty" validate:"omitempty,oneof=Saude Odonto NA"`
	Competence     *string  `json:"competence,omitempty"`
	TicketNumber   *string  `json:"ticket_number,omitempty"`
	TicketSentDate *string  `json:"ticket_sent_date,omitempty"`
	DueDate        *string  `json:"due_date,omitempty"`
	Amount         *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Status         *Status  `json:"status,omitempty" validate:"omitempty,oneof=RASCUNHO EM_ACOMPANHAMENTO AGUARDANDO_PAGAMENTO PAGO ATRASADO"`
	OwnerName      *string  `json:"owner_name,omitempty"`
	OwnerEmail     *string  `json:"owner_email,omitempty" validate:"omitempty,email"`
	Notes          *string  `json:"notes,omitempty"`
}

func (d PatchDTO) Validate() error {
	if err := validate.Struct(d); err != nil {
		return validationError(err)
	}
	if d.Competence != nil && *d.Competence != "" && !competenceRule.MatchString(*d.Competence) {
		return internal.NewValidationError("Competencia deve ser AAAA-MM", internal.ErrCodeInvalidDate)
	}
	return nil
}

// Apply overlays the patch onto a payment copy.
func (d PatchDTO) Apply(p Payment) Payment {
	if d.Category != nil {
		p.Category = *d.Category
	}
	if d.Brand != nil {
		p.Brand = strings.TrimSpace(*d.Brand)
	}
	if d.Provider != nil {
		p.Provider = *d.Provider
	}
	if d.ProviderCustom != nil {
		p.ProviderCustom = strings.TrimSpace(*d.ProviderCustom)
	}
	if d.Subtype != nil {
		p.Subtype = *d.Subtype
	}
	if d.Competence != nil {
		p.Competence = strings.TrimSpace(*d.Competence)
	}
	if d.TicketNumber != nil {
		p.TicketNumber = strings.TrimSpace(*d.TicketNumber)
	}
	if d.TicketSentDate != nil {
		p.TicketSentDate = *d.TicketSentDate
	}
	if d.DueDate != nil {
		p.DueDate = *d.DueDate
	}
	if d.Amount != nil {
		p.Amount = *d.Amount
	}
	if d.Status != nil {
		p.Status = *d.Status
	}
	if d.OwnerName != nil {
		p.OwnerName = strings.TrimSpace(*d.OwnerName)
	}
	if d.OwnerEmail != nil {
		p.OwnerEmail = strings.TrimSpace(*d.OwnerEmail)
	}
	if d.Notes != nil {
		p.Notes = strings.TrimSpace(*d.Notes)
	}
	return p
}

type ListFilters struct {
	Status     string
	Category   string
	Provider   string
	Competence string
	Owner      string
	Query      string
}

func validationError(err error) *internal.AppError {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		details := make([]internal.ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, internal.ValidationError{
				Field:   fe.Field(),
				Message: fe.Tag(),
			})
		}
		return internal.NewValidationFieldErrors(details)
	}
	return internal.NewValidationError("Dados invalidos", internal.ErrCodeValidationFailed).WithCause(err)
}
