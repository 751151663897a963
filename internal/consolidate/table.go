package consolidate

import (
	"slices"

	"github.com/a3tai/f931-consolidator/internal/form931"
)

// Table is the field by period pivot of one Group. Every cell is populated.
type Table struct {
	Company string            `json:"company"`
	Rows    []string          `json:"rows"`    // field names, declaration order
	Columns []string          `json:"columns"` // period keys
	Cells   [][]form931.Value `json:"cells"`   // Cells[row][column]
}

// BuildTable pivots a group into a table whose rows are every declared field
// except the period field and whose columns are the group's periods
func BuildTable(g *Group, rules form931.RuleSet) *Table {
	t := &Table{
		Company: g.Label,
		Columns: SortPeriods(g.Periods),
	}

	var specs []form931.FieldSpec
	for _, spec := range rules.Fields {
		if spec.Name == rules.PeriodField {
			continue
		}
		specs = append(specs, spec)
		t.Rows = append(t.Rows, spec.Name)
	}

	t.Cells = make([][]form931.Value, len(specs))
	for i, spec := range specs {
		row := make([]form931.Value, len(t.Columns))
		for j, period := range t.Columns {
			v, ok := g.Records[period].Fields[spec.Name]
			if !ok {
				v = spec.Default()
			}
			row[j] = v
		}
		t.Cells[i] = row
	}
	return t
}

// Row returns the values of one field across all periods
func (t *Table) Row(field string) []form931.Value {
	i := slices.Index(t.Rows, field)
	if i < 0 {
		return nil
	}
	return t.Cells[i]
}

// Cell returns the value of one field in one period
func (t *Table) Cell(field, period string) (form931.Value, bool) {
	i := slices.Index(t.Rows, field)
	j := slices.Index(t.Columns, period)
	if i < 0 || j < 0 {
		return form931.Value{}, false
	}
	return t.Cells[i][j], true
}

// SortPeriods orders MM/YYYY keys chronologically and places every other key
// after them in their original order
func SortPeriods(periods []string) []string {
	sorted := slices.Clone(periods)
	slices.SortStableFunc(sorted, func(a, b string) int {
		ta, okA := form931.ParsePeriod(a)
		tb, okB := form931.ParsePeriod(b)
		switch {
		case okA && okB:
			return ta.Compare(tb)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
	return sorted
}
