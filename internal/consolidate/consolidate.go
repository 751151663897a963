// Package consolidate groups extracted F.931 records by company and period
// and pivots one company's records into a field by period table.
package consolidate

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/a3tai/f931-consolidator/internal/form931"
)

// NormalizeCompany is the comparison form of a company key: trimmed,
// internal whitespace collapsed and case-folded
func NormalizeCompany(key string) string {
	return cases.Fold().String(strings.Join(strings.Fields(key), " "))
}

// Group holds one company's records, unique by period key
type Group struct {
	Company string                    `json:"company"` // normalized key
	Label   string                    `json:"label"`   // first-seen spelling
	Periods []string                  `json:"periods"` // first-seen order
	Records map[string]form931.Record `json:"records"`
}

func newGroup(key, label string) *Group {
	return &Group{
		Company: key,
		Label:   label,
		Records: make(map[string]form931.Record),
	}
}

// Record returns the record kept for a period
func (g *Group) Record(period string) (form931.Record, bool) {
	rec, ok := g.Records[period]
	return rec, ok
}

// Len returns the number of periods in the group
func (g *Group) Len() int {
	return len(g.Periods)
}

// Skip is a record dropped because its company already had that period
type Skip struct {
	Record     form931.Record  `json:"record"`
	KeptOrigin string          `json:"kept_origin"`
	Warning    form931.Warning `json:"warning"`
}

// Result is the outcome of consolidating one batch
type Result struct {
	Groups   map[string]*Group `json:"groups"`
	Order    []string          `json:"order"` // normalized keys, first-seen
	Skipped  []Skip            `json:"skipped,omitempty"`
	Excluded []form931.Record  `json:"excluded,omitempty"` // no usable period
}

// Companies returns the groups in first-seen order
func (r *Result) Companies() []*Group {
	groups := make([]*Group, 0, len(r.Order))
	for _, key := range r.Order {
		groups = append(groups, r.Groups[key])
	}
	return groups
}

// Find looks a group up by any spelling of its company key
func (r *Result) Find(company string) (*Group, bool) {
	g, ok := r.Groups[NormalizeCompany(company)]
	return g, ok
}

// Warnings returns the duplicate-period warnings raised while grouping
func (r *Result) Warnings() []form931.Warning {
	warnings := make([]form931.Warning, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		warnings = append(warnings, s.Warning)
	}
	return warnings
}

// Consolidate partitions records by normalized company key and keeps, for each
// company and period, the record with the lowest Seq. Later duplicates are
// reported in Skipped. Records without a usable period join no group. The
// result does not depend on the order of the input slice.
func Consolidate(records []form931.Record) *Result {
	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, func(a, b form931.Record) int {
		return cmp.Compare(a.Seq, b.Seq)
	})

	result := &Result{Groups: make(map[string]*Group)}
	for _, rec := range ordered {
		if !rec.HasPeriod() {
			result.Excluded = append(result.Excluded, rec)
			continue
		}

		key := NormalizeCompany(rec.CompanyKey)
		g, ok := result.Groups[key]
		if !ok {
			g = newGroup(key, strings.Join(strings.Fields(rec.CompanyKey), " "))
			result.Groups[key] = g
			result.Order = append(result.Order, key)
		}

		if kept, dup := g.Records[rec.PeriodKey]; dup {
			result.Skipped = append(result.Skipped, Skip{
				Record:     rec,
				KeptOrigin: kept.Origin,
				Warning: form931.NewWarning(form931.WarningDuplicatePeriod, rec.Origin, "",
					"period %s of %s already provided by %s", rec.PeriodKey, g.Label, kept.Origin),
			})
			continue
		}

		g.Records[rec.PeriodKey] = rec
		g.Periods = append(g.Periods, rec.PeriodKey)
	}
	return result
}
