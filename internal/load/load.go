// Package load records balance-affecting card loads and computes card
// balances as a pure fold over load amounts.
package load

import (
	"strconv"
	"strings"

	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

type Load struct {
	ID             string `json:"load_id"`
	CardID         string `json:"card_id"`
	DataCarga      string `json:"data_carga"`
	ValorCarga     string `json:"valor_carga"`
	ComprovanteURL string `json:"comprovante_url"`
	Observacoes    string `json:"observacoes,omitempty"`
	CreatedAt      string `json:"created_at"`
	CreatedBy      string `json:"created_by"`
}

var Columns = []string{
	"load_id",
	"card_id",
	"data_carga",
	"valor_carga",
	"comprovante_url",
	"observacoes",
	"created_at",
	"created_by",
}

func (l Load) ToRecord() rowstore.Record {
	return rowstore.Record{
		"load_id":         l.ID,
		"card_id":         l.CardID,
		"data_carga":      l.DataCarga,
		"valor_carga":     l.ValorCarga,
		"comprovante_url": l.ComprovanteURL,
		"observacoes":     l.Observacoes,
		"created_at":      l.CreatedAt,
		"created_by":      l.CreatedBy,
	}
}

func FromRecord(record rowstore.Record) Load {
	return Load{
		ID:             record.Get("load_id"),
		CardID:         record.Get("card_id"),
		DataCarga:      record.Get("data_carga"),
		ValorCarga:     record.Get("valor_carga"),
		ComprovanteURL: record.Get("comprovante_url"),
		Observacoes:    record.Get("observacoes"),
		CreatedAt:      record.Get("created_at"),
		CreatedBy:      record.Get("created_by"),
	}
}

// ParseAmount reads a load amount, accepting both dot and comma decimal
// separators. Unparseable values count as zero.
func ParseAmount(value string) float64 {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	parsed, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// ComputeBalances folds load amounts per card id.
func ComputeBalances(loads []Load) map[string]float64 {
	balances := make(map[string]float64)
	for _, l := range loads {
		balances[l.CardID] += ParseAmount(l.ValorCarga)
	}
	return balances
}
