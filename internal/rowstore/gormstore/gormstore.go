// Package gormstore persists rows relationally behind the generic row-store
// interface, so the spreadsheet backend can be swapped for postgres or sqlite
// without touching the services.
package gormstore

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

// Row is one logical sheet row: the owning table name plus the record as a
// JSON document keyed by column name.
type Row struct {
	ID        int64  `gorm:"primaryKey"`
	SheetName string `gorm:"column:sheet_name;not null;index:idx_sheet_rows_sheet"`
	Data      string `gorm:"column:data;not null"`
}

func (Row) TableName() string {
	return "sheet_rows"
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetRows(ctx context.Context, table string) ([]rowstore.Record, error) {
	var rows []Row
	err := s.db.WithContext(ctx).
		Where("sheet_name = ?", table).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, readError(table, err)
	}

	records := make([]rowstore.Record, 0, len(rows))
	for _, row := range rows {
		record, err := decode(row)
		if err != nil {
			return nil, readError(table, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Store) AppendRow(ctx context.Context, table string, record rowstore.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return writeError(table, err)
	}
	row := Row{SheetName: table, Data: string(data)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return writeError(table, err)
	}
	return nil
}

func (s *Store) UpdateRowByID(ctx context.Context, table, keyColumn, id string, patch rowstore.Record) error {
	row, record, err := s.find(ctx, table, keyColumn, id)
	if err != nil {
		return err
	}

	updated := record.Clone()
	for k, v := range patch {
		updated[k] = v
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return writeError(table, err)
	}

	err = s.db.WithContext(ctx).
		Model(&Row{}).
		Where("id = ?", row.ID).
		Update("data", string(data)).Error
	if err != nil {
		return writeError(table, err)
	}
	return nil
}

func (s *Store) DeleteRowByID(ctx context.Context, table, keyColumn, id string) error {
	row, _, err := s.find(ctx, table, keyColumn, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&Row{}, row.ID).Error; err != nil {
		return writeError(table, err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, table, keyColumn, id string) (rowstore.Record, error) {
	_, record, err := s.find(ctx, table, keyColumn, id)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// find scans the table's rows for a matching key column value. Linear, same
// as the spreadsheet backend.
func (s *Store) find(ctx context.Context, table, keyColumn, id string) (Row, rowstore.Record, error) {
	var rows []Row
	err := s.db.WithContext(ctx).
		Where("sheet_name = ?", table).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return Row{}, nil, readError(table, err)
	}

	for _, row := range rows {
		record, err := decode(row)
		if err != nil {
			return Row{}, nil, readError(table, err)
		}
		if record.Get(keyColumn) == id {
			return row, record, nil
		}
	}
	return Row{}, nil, rowstore.ErrRowNotFound
}

func decode(row Row) (rowstore.Record, error) {
	var record rowstore.Record
	if err := json.Unmarshal([]byte(row.Data), &record); err != nil {
		return nil, err
	}
	return record, nil
}

func readError(table string, err error) error {
	return internal.NewUpstreamError(
		fmt.Sprintf("Erro ao ler dados da tabela %q.", table), internal.ErrCodeRowStore, err)
}

func writeError(table string, err error) error {
	return internal.NewUpstreamError(
		fmt.Sprintf("Erro ao gravar dados na tabela %q.", table), internal.ErrCodeRowStore, err)
}
