// Package sheets implements the row store on a Google Sheets spreadsheet,
// one tab per table, first row as header.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

type Store struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

func New(ctx context.Context, cfg internal.SheetsConfig) (*Store, error) {
	conf := &jwt.Config{
		Email:      cfg.ServiceAccountEmail,
		PrivateKey: []byte(cfg.PrivateKey),
		Scopes:     []string{sheetsapi.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	svc, err := sheetsapi.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, internal.NewUpstreamError("Erro ao autenticar no Google Sheets.", internal.ErrCodeRowStore, err)
	}

	return &Store{svc: svc, spreadsheetID: cfg.SpreadsheetID}, nil
}

func (s *Store) GetRows(ctx context.Context, table string) ([]rowstore.Record, error) {
	values, err := s.readAll(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return []rowstore.Record{}, nil
	}

	headers, err := parseHeaders(table, values)
	if err != nil {
		return nil, err
	}

	records := make([]rowstore.Record, 0, len(values)-1)
	for _, row := range values[1:] {
		records = append(records, mapRow(headers, row))
	}
	return records, nil
}

func (s *Store) AppendRow(ctx context.Context, table string, record rowstore.Record) error {
	headerResp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, table+"!1:1").Context(ctx).Do()
	if err != nil {
		return readError(table, err)
	}

	headers, err := parseHeaders(table, headerResp.Values)
	if err != nil {
		return err
	}

	row := make([]interface{}, len(headers))
	for i, header := range headers {
		row[i] = record[header]
	}

	_, err = s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, table, &sheetsapi.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return internal.NewUpstreamError(
			fmt.Sprintf("Erro ao inserir dados na aba %q.", table), internal.ErrCodeRowStore, err)
	}
	return nil
}

func (s *Store) UpdateRowByID(ctx context.Context, table, keyColumn, id string, patch rowstore.Record) error {
	values, err := s.readAll(ctx, table)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return rowstore.ErrRowNotFound
	}

	headers, err := parseHeaders(table, values)
	if err != nil {
		return err
	}

	idIndex := -1
	for i, header := range headers {
		if header == keyColumn {
			idIndex = i
			break
		}
	}
	if idIndex == -1 {
		return internal.NewUpstreamError(
			fmt.Sprintf("Coluna %q naoo encontrada na aba %q.", keyColumn, table), internal.ErrCodeRowStore, nil)
	}

	target := strings.TrimSpace(id)
	rowIndex := -1
	for i, row := range values[1:] {
		if idIndex < len(row) && strings.TrimSpace(fmt.Sprint(row[idIndex])) == target {
			rowIndex = i
			break
		}
	}
	if rowIndex == -1 {
		return rowstore.ErrRowNotFound
	}

	updated := mapRow(headers, values[rowIndex+1])
	for k, v := range patch {
		updated[k] = v
	}

	row := make([]interface{}, len(headers))
	for i, header := range headers {
		row[i] = updated[header]
	}

	// Header occupies row 1, so data row i lives at sheet row i+2.
	rng := fmt.Sprintf("%s!A%d:%s%d", table, rowIndex+2, columnLetter(len(headers)-1), rowIndex+2)
	_, err = s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, rng, &sheetsapi.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return internal.NewUpstreamError(
			fmt.Sprintf("Erro ao atualizar dados na aba %q.", table), internal.ErrCodeRowStore, err)
	}
	return nil
}

func (s *Store) DeleteRowByID(ctx context.Context, table, keyColumn, id string) error {
	values, err := s.readAll(ctx, table)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return rowstore.ErrRowNotFound
	}

	headers, err := parseHeaders(table, values)
	if err != nil {
		return err
	}

	idIndex := -1
	for i, header := range headers {
		if header == keyColumn {
			idIndex = i
			break
		}
	}
	if idIndex == -1 {
		return internal.NewUpstreamError(
			fmt.Sprintf("Coluna %q naoo encontrada na aba %q.", keyColumn, table), internal.ErrCodeRowStore, nil)
	}

	target := strings.TrimSpace(id)
	rowIndex := -1
	for i, row := range values[1:] {
		if idIndex < len(row) && strings.TrimSpace(fmt.Sprint(row[idIndex])) == target {
			rowIndex = i
			break
		}
	}
	if rowIndex == -1 {
		return rowstore.ErrRowNotFound
	}

	sheetID, err := s.sheetID(ctx, table)
	if err != nil {
		return err
	}

	// Row indexes in the dimension range are zero based; the header is row 0.
	request := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIndex + 1),
					EndIndex:   int64(rowIndex + 2),
				},
			},
		}},
	}
	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, request).Context(ctx).Do()
	if err != nil {
		return internal.NewUpstreamError(
			fmt.Sprintf("Erro ao remover dados da aba %q.", table), internal.ErrCodeRowStore, err)
	}
	return nil
}

// EnsureTables creates missing tabs and writes header rows for empty ones.
// Existing headers are left untouched.
func (s *Store) EnsureTables(ctx context.Context, tables map[string][]string) error {
	spreadsheet, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return internal.NewUpstreamError("Erro ao ler a planilha.", internal.ErrCodeRowStore, err)
	}

	existing := make(map[string]bool, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			existing[sheet.Properties.Title] = true
		}
	}

	var requests []*sheetsapi.Request
	for table := range tables {
		if existing[table] {
			continue
		}
		requests = append(requests, &sheetsapi.Request{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: table},
			},
		})
	}
	if len(requests) > 0 {
		_, err = s.svc.Spreadsheets.
			BatchUpdate(s.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{Requests: requests}).
			Context(ctx).
			Do()
		if err != nil {
			return internal.NewUpstreamError("Erro ao criar abas na planilha.", internal.ErrCodeRowStore, err)
		}
	}

	for table, headers := range tables {
		resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, table+"!1:1").Context(ctx).Do()
		if err != nil {
			return readError(table, err)
		}
		if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
			continue
		}

		row := make([]interface{}, len(headers))
		for i, header := range headers {
			row[i] = header
		}
		rng := fmt.Sprintf("%s!A1:%s1", table, columnLetter(len(headers)-1))
		_, err = s.svc.Spreadsheets.Values.
			Update(s.spreadsheetID, rng, &sheetsapi.ValueRange{Values: [][]interface{}{row}}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return internal.NewUpstreamError(
				fmt.Sprintf("Erro ao escrever o cabeaCalho da aba %q.", table), internal.ErrCodeRowStore, err)
		}
	}
	return nil
}

func (s *Store) sheetID(ctx context.Context, table string) (int64, error) {
	spreadsheet, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, readError(table, err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == table {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, internal.NewUpstreamError(
		fmt.Sprintf("Aba %q naoo encontrada na planilha.", table), internal.ErrCodeRowStore, nil)
}

func (s *Store) FindByID(ctx context.Context, table, keyColumn, id string) (rowstore.Record, error) {
	rows, err := s.GetRows(ctx, table)
	if err != nil {
		return nil, err
	}
	target := strings.TrimSpace(id)
	for _, row := range rows {
		if row.Get(keyColumn) == target {
			return row, nil
		}
	}
	return nil, rowstore.ErrRowNotFound
}

func (s *Store) readAll(ctx context.Context, table string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, table).Context(ctx).Do()
	if err != nil {
		return nil, readError(table, err)
	}
	return resp.Values, nil
}

func readError(table string, err error) error {
	return internal.NewUpstreamError(
		fmt.Sprintf("Erro ao ler dados da aba %q.", table), internal.ErrCodeRowStore, err)
}

func parseHeaders(table string, values [][]interface{}) ([]string, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, internal.NewUpstreamError(
			fmt.Sprintf("A aba %q estaa sem cabeaCalho. Adicione a primeira linha com os nomes das colunas.", table),
			internal.ErrCodeRowStore, nil)
	}
	headers := make([]string, len(values[0]))
	for i, cell := range values[0] {
		headers[i] = strings.TrimSpace(fmt.Sprint(cell))
	}
	return headers, nil
}

func mapRow(headers []string, row []interface{}) rowstore.Record {
	record := make(rowstore.Record, len(headers))
	for i, header := range headers {
		if i < len(row) {
			record[header] = fmt.Sprint(row[i])
		} else {
			record[header] = ""
		}
	}
	return record
}

func columnLetter(index int) string {
	result := ""
	current := index + 1
	for current > 0 {
		remainder := (current - 1) % 26
		result = string(rune('A'+remainder)) + result
		current = (current - 1) / 26
	}
	return result
}
