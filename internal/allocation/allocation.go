// Package allocation manages allocation spans between cards and people. A
// card carries at most one ATIVA allocation; allocating flips the card to
// ALOCADO, closing flips it back to ESTOQUE.
package allocation

import (
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

type Status string

const (
	StatusAtiva     Status = "ATIVA"
	StatusEncerrada Status = "ENCERRADA"
)

type Allocation struct {
	ID         string `json:"allocation_id"`
	CardID     string `json:"card_id"`
	PersonID   string `json:"person_id"`
	DataInicio string `json:"data_inicio"`
	DataFim    string `json:"data_fim,omitempty"`
	Status     Status `json:"status"`
	Motivo     string `json:"motivo,omitempty"`
	CreatedAt  string `json:"created_at"`
	CreatedBy  string `json:"created_by"`
}

var Columns = []string{
	"allocation_id",
	"card_id",
	"person_id",
	"data_inicio",
	"data_fim",
	"status",
	"motivo",
	"created_at",
	"created_by",
}

func (a Allocation) ToRecord() rowstore.Record {
	return rowstore.Record{
		"allocation_id": a.ID,
		"card_id":       a.CardID,
		"person_id":     a.PersonID,
		"data_inicio":   a.DataInicio,
		"data_fim":      a.DataFim,
		"status":        string(a.Status),
		"motivo":        a.Motivo,
		"created_at":    a.CreatedAt,
		"created_by":    a.CreatedBy,
	}
}

func FromRecord(record rowstore.Record) Allocation {
	return Allocation{
		ID:         record.Get("allocation_id"),
		CardID:     record.Get("card_id"),
		PersonID:   record.Get("person_id"),
		DataInicio: record.Get("data_inicio"),
		DataFim:    record.Get("data_fim"),
		Status:     Status(record.Get("status")),
		Motivo:     record.Get("motivo"),
		CreatedAt:  record.Get("created_at"),
		CreatedBy:  record.Get("created_by"),
	}
}
