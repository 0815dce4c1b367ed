// Package person manages the people eligible for card allocation.
package person

import (
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

type Status string

const (
	StatusAtivo   Status = "ATIVO"
	StatusInativo Status = "INATIVO"
)

type Person struct {
	ID             string `json:"person_id"`
	Nome           string `json:"nome"`
	ChapaMatricula string `json:"chapa_matricula"`
	Marca          string `json:"marca"`
	Unidade        string `json:"unidade"`
	Status         Status `json:"status"`
	CreatedAt      string `json:"created_at"`
	CreatedBy      string `json:"created_by"`
	UpdatedAt      string `json:"updated_at"`
	UpdatedBy      string `json:"updated_by"`
}

var Columns = []string{
	"person_id",
	"nome",
	"chapa_matricula",
	"marca",
	"unidade",
	"status",
	"created_at",
	"created_by",
	"updated_at",
	"updated_by",
}

func (p Person) ToRecord() rowstore.Record {
	return rowstore.Record{
		"person_id":       p.ID,
		"nome":            p.Nome,
		"chapa_matricula": p.ChapaMatricula,
		"marca":           p.Marca,
		"unidade":         p.Unidade,
		"status":          string(p.Status),
		"created_at":      p.CreatedAt,
		"created_by":      p.CreatedBy,
		"updated_at":      p.UpdatedAt,
		"updated_by":      p.UpdatedBy,
	}
}

func FromRecord(record rowstore.Record) Person {
	return Person{
		ID:             record.Get("person_id"),
		Nome:           record.Get("nome"),
		ChapaMatricula: record.Get("chapa_matricula"),
		Marca:          record.Get("marca"),
		Unidade:        record.Get("unidade"),
		Status:         Status(record.Get("status")),
		CreatedAt:      record.Get("created_at"),
		CreatedBy:      record.Get("created_by"),
		UpdatedAt:      record.Get("updated_at"),
		UpdatedBy:      record.Get("updated_by"),
	}
}
