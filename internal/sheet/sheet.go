// Package sheet moves records between a remote collection and .xlsx workbooks.
package sheet

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"hrconsole/internal/listform"
	"hrconsole/internal/schema"
	hrsdk "hrconsole/sdk/go"
)

// Header returns the export columns: id, every form field, then display-only list columns.
func Header(s *schema.Schema) []string {
	cols := append([]string{"id"}, s.Keys()...)
	for _, c := range s.Columns {
		if _, ok := s.Field(c); !ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// Export writes items as a single-sheet workbook named after the resource.
func Export(w io.Writer, s *schema.Schema, items []hrsdk.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := s.Resource
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	header := Header(s)
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	for n, rec := range items {
		row := make([]any, len(header))
		for i, key := range header {
			v := rec.String(key)
			if fld, ok := s.Field(key); ok && fld.Kind == schema.KindDate {
				v, _, _ = strings.Cut(v, "T")
			}
			row[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

// ReadRows returns the cells of the first worksheet.
func ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}
	return rows, nil
}

// RowError reports a row that could not be saved. Row is the 1-based sheet row.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

// Result summarizes an import.
type Result struct {
	Created int
	Updated int
	Errors  []RowError
}

// Import submits every data row through ctrl. Rows with an id update that record, the rest
// create. Blank cells take the field default. A failed row is recorded and the import goes on.
func Import(ctx context.Context, ctrl *listform.Controller, r io.Reader) (Result, error) {
	var res Result
	rows, err := ReadRows(r)
	if err != nil {
		return res, err
	}
	s := ctrl.Schema()
	index := map[string]int{}
	for i, h := range rows[0] {
		index[normalizeHeader(h)] = i
	}
	known := 0
	for _, k := range s.Keys() {
		if _, ok := index[k]; ok {
			known++
		}
	}
	if known == 0 {
		return res, fmt.Errorf("header has none of the %s fields (%s)", s.Name, strings.Join(s.Keys(), ", "))
	}

	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := i + 2
		updated, err := importRow(ctx, ctrl, s, index, row)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: line, Err: err})
			ctrl.CancelEdit()
			continue
		}
		if updated {
			res.Updated++
		} else {
			res.Created++
		}
	}
	return res, nil
}

func importRow(ctx context.Context, ctrl *listform.Controller, s *schema.Schema, index map[string]int, row []string) (bool, error) {
	values := map[string]string{}
	for _, f := range s.Fields {
		idx, ok := index[f.Key]
		if !ok {
			continue
		}
		v := cellValue(row, idx)
		if f.Kind == schema.KindDate {
			v = normalizeDate(v)
		}
		values[f.Key] = v
	}

	editing := false
	if idx, ok := index["id"]; ok {
		if raw := cellValue(row, idx); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return false, fmt.Errorf("invalid id %q", raw)
			}
			rec := hrsdk.Record{"id": id}
			for k, v := range values {
				if v != "" {
					rec[k] = v
				}
			}
			if err := ctrl.StartEdit(rec); err != nil {
				return false, err
			}
			editing = true
		}
	}
	if !editing {
		ctrl.CancelEdit()
		for _, f := range s.Fields {
			v, ok := values[f.Key]
			if !ok || v == "" {
				continue
			}
			if err := ctrl.ChangeField(f.Key, v); err != nil {
				return false, err
			}
		}
	}
	if missing := s.MissingRequired(ctrl.Draft()); len(missing) > 0 {
		return false, fmt.Errorf("required: %s", strings.Join(missing, ", "))
	}
	if err := ctrl.Submit(ctx); err != nil {
		return false, err
	}
	return editing, nil
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// normalizeDate accepts ISO dates, timestamps and Excel serial numbers.
func normalizeDate(v string) string {
	if v == "" {
		return v
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 && serial < 2958466 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format(schema.DateLayout)
		}
	}
	d, _, _ := strings.Cut(v, "T")
	return d
}
