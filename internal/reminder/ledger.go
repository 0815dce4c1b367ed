// Package reminder implements the daily reminder pass over unpaid payments
// and the append-only ledger that records every attempt.
package reminder

import (
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

type Type string

const (
	TypeD3      Type = "D-3"
	TypeD1      Type = "D-1"
	TypeD0      Type = "D0"
	TypeOverdue Type = "OVERDUE"
)

const (
	ResultSent   = "SENT"
	ResultFailed = "FAILED"

	OutcomeSent               = "SENT"
	OutcomeFailed             = "FAILED"
	OutcomeSkippedNoOwner     = "SKIPPED_NO_OWNER"
	OutcomeSkippedAlreadySent = "SKIPPED_ALREADY_SENT"
)

// Entry is one ledger row: a single send attempt for one payment.
type Entry struct {
	ID          string `json:"id"`
	PaymentID   string `json:"payment_id"`
	DueDate     string `json:"due_date"`
	StatusAtRun string `json:"status_at_run"`
	Type        Type   `json:"reminder_type"`
	SentTo      string `json:"sent_to"`
	SentAt      string `json:"sent_at"`
	RunID       string `json:"run_id"`
	Result      string `json:"result"`
	Error       string `json:"error,omitempty"`
}

var LedgerColumns = []string{
	"id",
	"payment_id",
	"due_date",
	"status_at_run",
	"reminder_type",
	"sent_to",
	"sent_at",
	"run_id",
	"result",
	"error",
}

func (e Entry) ToRecord() rowstore.Record {
	return rowstore.Record{
		"id":            e.ID,
		"payment_id":    e.PaymentID,
		"due_date":      e.DueDate,
		"status_at_run": e.StatusAtRun,
		"reminder_type": string(e.Type),
		"sent_to":       e.SentTo,
		"sent_at":       e.SentAt,
		"run_id":        e.RunID,
		"result":        e.Result,
		"error":         e.Error,
	}
}

func FromRecord(record rowstore.Record) Entry {
	return Entry{
		ID:          record.Get("id"),
		PaymentID:   record.Get("payment_id"),
		DueDate:     record.Get("due_date"),
		StatusAtRun: record.Get("status_at_run"),
		Type:        Type(record.Get("reminder_type")),
		SentTo:      record.Get("sent_to"),
		SentAt:      record.Get("sent_at"),
		RunID:       record.Get("run_id"),
		Result:      record.Get("result"),
		Error:       record.Get("error"),
	}
}
