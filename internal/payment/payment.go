// Package payment implements the benefits payment lifecycle: the status
// engine, CRUD over the payments table, mark-paid and boleto upload.
package payment

import (
	"fmt"
	"strconv"
	"time"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

type Status string

const (
	StatusRascunho            Status = "RASCUNHO"
	StatusEmAcompanhamento    Status = "EM_ACOMPANHAMENTO"
	StatusAguardandoPagamento Status = "AGUARDANDO_PAGAMENTO"
	StatusPago                Status = "PAGO"
	StatusAtrasado            Status = "ATRASADO"
)

const (
	CategoryPlanoSaude       = "PlanoSaude"
	CategoryVT               = "VT"
	CategoryVA               = "VA"
	CategoryExameOcupacional = "ExameOcupacional"

	ProviderUnimed     = "Unimed"
	ProviderSulAmerica = "SulAmerica"
	ProviderAmil       = "Amil"
	ProviderOutro      = "Outro"
)

type Payment struct {
	ID             string  `json:"id"`
	Category       string  `json:"category"`
	Brand          string  `json:"brand"`
	Provider       string  `json:"provider"`
	ProviderCustom string  `json:"provider_custom,omitempty"`
	Subtype        string  `json:"subtype"`
	Competence     string  `json:"competence,omitempty"`
	TicketNumber   string  `json:"ticket_number"`
	TicketSentDate string  `json:"ticket_sent_date"`
	DueDate        string  `json:"due_date"`
	Amount         float64 `json:"amount,omitempty"`
	Status         Status  `json:"status"`
	OwnerName      string  `json:"owner_name"`
	OwnerEmail     string  `json:"owner_email"`
	DriveFileID    string  `json:"drive_file_id,omitempty"`
	DriveLink      string  `json:"drive_link,omitempty"`
	DriveFilename  string  `json:"drive_filename,omitempty"`
	CreatedAt      string  `json:"created_at,omitempty"`
	UpdatedAt      string  `json:"updated_at,omitempty"`
	PaidAt         string  `json:"paid_at,omitempty"`
	PaidBy         string  `json:"paid_by,omitempty"`
	Notes          string  `json:"notes,omitempty"`
}

var Columns = []string{
	"id",
	"category",
	"brand",
	"provider",
	"provider_custom",
	"subtype",
	"competence",
	"ticket_number",
	"ticket_sent_date",
	"due_date",
	"amount",
	"status",
	"owner_name",
	"owner_email",
	"drive_file_id",
	"drive_link",
	"drive_filename",
	"created_at",
	"updated_at",
	"paid_at",
	"paid_by",
	"notes",
}

func (p Payment) ToRecord() rowstore.Record {
	amount := ""
	if p.Amount != 0 {
		amount = strconv.FormatFloat(p.Amount, 'f', -1, 64)
	}
	return rowstore.Record{
		"id":               p.ID,
		"category":         p.Category,
		"brand":            p.Brand,
		"provider":         p.Provider,
		"provider_custom":  p.ProviderCustom,
		"subtype":          p.Subtype,
		"competence":       p.Competence,
		"ticket_number":    p.TicketNumber,
		"ticket_sent_date": p.TicketSentDate,
		"due_date":         p.DueDate,
		"amount":           amount,
		"status":           string(p.Status),
		"owner_name":       p.OwnerName,
		"owner_email":      p.OwnerEmail,
		"drive_file_id":    p.DriveFileID,
		"drive_link":       p.DriveLink,
		"drive_filename":   p.DriveFilename,
		"created_at":       p.CreatedAt,
		"updated_at":       p.UpdatedAt,
		"paid_at":          p.PaidAt,
		"paid_by":          p.PaidBy,
		"notes":            p.Notes,
	}
}

func FromRecord(record rowstore.Record) Payment {
	amount, _ := strconv.ParseFloat(record.Get("amount"), 64)
	return Payment{
		ID:             record.Get("id"),
		Category:       record.Get("category"),
		Brand:          record.Get("brand"),
		Provider:       record.Get("provider"),
		ProviderCustom: record.Get("provider_custom"),
		Subtype:        record.Get("subtype"),
		Competence:     record.Get("competence"),
		TicketNumber:   record.Get("ticket_number"),
		TicketSentDate: record.Get("ticket_sent_date"),
		DueDate:        record.Get("due_date"),
		Amount:         amount,
		Status:         Status(record.Get("status")),
		OwnerName:      record.Get("owner_name"),
		OwnerEmail:     record.Get("owner_email"),
		DriveFileID:    record.Get("drive_file_id"),
		DriveLink:      record.Get("drive_link"),
		DriveFilename:  record.Get("drive_filename"),
		CreatedAt:      record.Get("created_at"),
		UpdatedAt:      record.Get("updated_at"),
		PaidAt:         record.Get("paid_at"),
		PaidBy:         record.Get("paid_by"),
		Notes:          record.Get("notes"),
	}
}

// ParseDueDate reads the calendar-date prefix of a due date value, in loc.
// Accepts both plain dates and RFC3339 timestamps.
func ParseDueDate(value string, loc *time.Location) (time.Time, error) {
	if len(value) > 10 {
		value = value[:10]
	}
	return time.ParseInLocation("2006-01-02", value, loc)
}

// ComputeAutoStatus derives the effective status at read time. PAGO is
// terminal. A due date strictly before the start of now's calendar day makes
// the payment ATRASADO; otherwise the persisted status stands. The comparison
// happens in now's location.
func ComputeAutoStatus(dueDate string, status Status, now time.Time) Status {
	if dueDate == "" || status == "" {
		if status == "" {
			return StatusRascunho
		}
		return status
	}
	if status == StatusPago {
		return status
	}
	due, err := ParseDueDate(dueDate, now.Location())
	if err != nil {
		return status
	}
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if due.Before(startOfToday) {
		return StatusAtrasado
	}
	return status
}

var transitionMap = map[Status][]Status{
	StatusRascunho:            {StatusEmAcompanhamento, StatusAtrasado},
	StatusEmAcompanhamento:    {StatusAguardandoPagamento, StatusRascunho, StatusAtrasado},
	StatusAguardandoPagamento: {StatusPago, StatusEmAcompanhamento, StatusAtrasado},
	StatusPago:                {},
	StatusAtrasado:            {StatusPago, StatusAguardandoPagamento},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitionMap[from] {
		if next == to {
			return true
		}
	}
	return false
}

func AssertTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return internal.NewDomainError(
			fmt.Sprintf("Transicao invalida: %s -> %s", from, to),
			internal.ErrCodeInvalidTransition,
		)
	}
	return nil
}
