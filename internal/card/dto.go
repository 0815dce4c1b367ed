package card

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/frahmantamala/benefits-portal/internal"
)

var validate = validator.New()

type InputDTO struct {
	NumeroCartao  string `json:"numero_cartao" validate:"required"`
	Marca         string `json:"marca" validate:"required"`
	Unidade       string `json:"unidade" validate:"required"`
	Status        Status `json:"status,omitempty" validate:"omitempty,oneof=ESTOQUE ALOCADO BLOQUEADO INATIVO"`
	FotoCartaoURL string `json:"foto_cartao_url,omitempty"`
	Observacoes   string `json:"observacoes,omitempty"`
}

func (d *InputDTO) Validate() error {
	d.NumeroCartao = strings.TrimSpace(d.NumeroCartao)
	d.Marca = strings.TrimSpace(d.Marca)
	d.Unidade = strings.TrimSpace(d.Unidade)
	d.FotoCartaoURL = strings.TrimSpace(d.FotoCartaoURL)
	d.Observacoes = strings.TrimSpace(d.Observacoes)

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
	Rows  []Card `json:"rows"`
	Total int    `json:"total"`
}
