// Package card manages the physical card inventory: CRUD with card-number
// uniqueness, the per-card event stream, and photo attachments.
package card

import (
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

type Status string

const (
	StatusEstoque   Status = "ESTOQUE"
	StatusAlocado   Status = "ALOCADO"
	StatusBloqueado Status = "BLOQUEADO"
	StatusInativo   Status = "INATIVO"
)

type Card struct {
	ID            string `json:"card_id"`
	NumeroCartao  string `json:"numero_cartao"`
	Marca         string `json:"marca"`
	Unidade       string `json:"unidade"`
	Status        Status `json:"status"`
	FotoCartaoURL string `json:"foto_cartao_url,omitempty"`
	Observacoes   string `json:"observacoes,omitempty"`
	CreatedAt     string `json:"created_at"`
	CreatedBy     string `json:"created_by"`
	UpdatedAt     string `json:"updated_at"`
	UpdatedBy     string `json:"updated_by"`
}

var Columns = []string{
	"card_id",
	"numero_cartao",
	"marca",
	"unidade",
	"status",
	"foto_cartao_url",
	"observacoes",
	"created_at",
	"created_by",
	"updated_at",
	"updated_by",
}

func (c Card) ToRecord() rowstore.Record {
	return rowstore.Record{
		"card_id":         c.ID,
		"numero_cartao":   c.NumeroCartao,
		"marca":           c.Marca,
		"unidade":         c.Unidade,
		"status":          string(c.Status),
		"foto_cartao_url": c.FotoCartaoURL,
		"observacoes":     c.Observacoes,
		"created_at":      c.CreatedAt,
		"created_by":      c.CreatedBy,
		"updated_at":      c.UpdatedAt,
		"updated_by":      c.UpdatedBy,
	}
}

func FromRecord(record rowstore.Record) Card {
	return Card{
		ID:            record.Get("card_id"),
		NumeroCartao:  record.Get("numero_cartao"),
		Marca:         record.Get("marca"),
		Unidade:       record.Get("unidade"),
		Status:        Status(record.Get("status")),
		FotoCartaoURL: record.Get("foto_cartao_url"),
		Observacoes:   record.Get("observacoes"),
		CreatedAt:     record.Get("created_at"),
		CreatedBy:     record.Get("created_by"),
		UpdatedAt:     record.Get("updated_at"),
		UpdatedBy:     record.Get("updated_by"),
	}
}
