// Package export writes consolidated F.931 tables as XLSX workbooks and reads
// them back.
package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/f931-consolidator/internal/consolidate"
	"github.com/a3tai/f931-consolidator/internal/form931"
)

const (
	// SheetName is the single sheet of every exported workbook
	SheetName = "Planilla_931"

	// HeaderLabel is the content of A1, above the field names
	HeaderLabel = "Campo"

	currencyNumFmt = 4 // #,##0.00
)

// WriteXLSX renders a table as a workbook: A1 holds "Campo", row 1 the period
// keys, column A the field names. Currency cells are stored as exact numeric
// literals, counts as integers and identity fields as strings.
func WriteXLSX(t *consolidate.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	currencyStyle, err := f.NewStyle(&excelize.Style{NumFmt: currencyNumFmt})
	if err != nil {
		return nil, fmt.Errorf("currency style: %w", err)
	}

	if err := f.SetCellStr(SheetName, "A1", HeaderLabel); err != nil {
		return nil, err
	}
	for j, period := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(j+2, 1)
		if err := f.SetCellStr(SheetName, cell, period); err != nil {
			return nil, err
		}
	}

	for i, field := range t.Rows {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellStr(SheetName, cell, field); err != nil {
			return nil, err
		}
		for j, v := range t.Cells[i] {
			cell, _ := excelize.CoordinatesToCellName(j+2, row)
			if err := writeValue(f, cell, v, currencyStyle); err != nil {
				return nil, fmt.Errorf("cell %s (%s, %s): %w", cell, field, t.Columns[j], err)
			}
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 44)
	if len(t.Columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(t.Columns) + 1)
		_ = f.SetColWidth(SheetName, "B", last, 16)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   t.Company,
		Subject: "F.931",
		Creator: "f931-consolidator",
	}); err != nil {
		return nil, fmt.Errorf("doc props: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeValue(f *excelize.File, cell string, v form931.Value, currencyStyle int) error {
	switch v.Kind {
	case form931.KindCurrency:
		if err := f.SetCellDefault(SheetName, cell, v.Amount.String()); err != nil {
			return err
		}
		return f.SetCellStyle(SheetName, cell, cell, currencyStyle)
	case form931.KindCount:
		return f.SetCellValue(SheetName, cell, v.Count)
	default:
		return f.SetCellStr(SheetName, cell, v.Text)
	}
}

// ReadXLSX reads a workbook produced by WriteXLSX back into a table, using the
// rule set to type each row. Rows for undeclared fields are read as identity text.
func ReadXLSX(data []byte, rules form931.RuleSet) (*consolidate.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", SheetName, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 || rows[0][0] != HeaderLabel {
		return nil, fmt.Errorf("sheet %s has no %q header", SheetName, HeaderLabel)
	}

	t := &consolidate.Table{Columns: append([]string{}, rows[0][1:]...)}
	if props, err := f.GetDocProps(); err == nil {
		t.Company = props.Title
	}

	for _, row := range rows[1:] {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		spec, ok := rules.Field(row[0])
		if !ok {
			spec = form931.FieldSpec{Name: row[0], Kind: form931.KindIdentity}
		}

		values := make([]form931.Value, len(t.Columns))
		for j := range t.Columns {
			raw := ""
			if j+1 < len(row) {
				raw = row[j+1]
			}
			v, err := parseValue(spec, raw)
			if err != nil {
				return nil, fmt.Errorf("field %s, period %s: %w", spec.Name, t.Columns[j], err)
			}
			values[j] = v
		}
		t.Rows = append(t.Rows, spec.Name)
		t.Cells = append(t.Cells, values)
	}
	return t, nil
}

func parseValue(spec form931.FieldSpec, raw string) (form931.Value, error) {
	if raw == "" {
		return spec.Default(), nil
	}
	v := form931.Value{Kind: spec.Kind, Found: true}
	switch spec.Kind {
	case form931.KindCurrency:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return v, fmt.Errorf("invalid amount %q: %w", raw, err)
		}
		v.Amount = d
	case form931.KindCount:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return v, fmt.Errorf("invalid count %q: %w", raw, err)
		}
		v.Count = n
		v.Amount = decimal.NewFromInt(n)
	default:
		v.Text = raw
	}
	return v, nil
}
