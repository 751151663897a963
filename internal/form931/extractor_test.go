package form931

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return string(data)
}

func assertAmount(t *testing.T, rec Record, field, want string) {
	t.Helper()
	v := rec.Get(field)
	assert.True(t, v.Found, "%s should be found", field)
	assert.True(t, decimal.RequireFromString(want).Equal(v.Amount), "%s = %s, want %s", field, v.Amount, want)
}

func warningTypes(rec Record) map[WarningType]int {
	counts := make(map[WarningType]int)
	for _, w := range rec.Warnings {
		counts[w.Type]++
	}
	return counts
}

func TestExtract_StandardLayout(t *testing.T) {
	extractor := NewExtractor(DefaultRuleSet())
	rec := extractor.Extract(RawText{Name: "f931_marzo.pdf", Text: loadFixture(t, "f931_standard.txt")})

	assert.Equal(t, "f931_marzo.pdf", rec.Origin)
	assert.Equal(t, "30-71234567-8", rec.CompanyKey)
	assert.Equal(t, "03/2024", rec.PeriodKey)
	assert.Equal(t, "EMPRESA EJEMPLO S.A.", rec.Get(FieldCompanyName).Text)
	assert.Equal(t, int64(12), rec.Get(FieldEmployees).Count)

	assertAmount(t, rec, FieldRem1, "1234567.89")
	assertAmount(t, rec, FieldRem4, "1100000")
	assertAmount(t, rec, FieldRem8, "1150000.50")
	assertAmount(t, rec, FieldRem9, "1234567.89")
	assertAmount(t, rec, FieldRem10, "980000")
	assertAmount(t, rec, FieldDetraido, "70000")
	assertAmount(t, rec, FieldDec394, "-1500.25")
	assertAmount(t, rec, FieldContribSS, "250123.45")
	assertAmount(t, rec, FieldContribSIPA, "200000")
	assertAmount(t, rec, FieldContribNoSIPA, "50123.45")
	assertAmount(t, rec, FieldAportesSS, "210000.10")
	assertAmount(t, rec, FieldContribOS, "73000")
	assertAmount(t, rec, FieldAportesOS, "36000")
	assertAmount(t, rec, FieldLRT, "45678.90")
	assertAmount(t, rec, FieldSeguroVida, "649.20")

	assert.Empty(t, rec.Missing(DefaultRuleSet()))
	assert.Empty(t, rec.Warnings)

	for _, f := range DefaultRuleSet().Fields {
		if f.Kind == KindCurrency {
			assert.True(t, strings.HasPrefix(rec.Get(f.Name).Strategy, "anchored:"),
				"%s should come from the anchored strategy, got %s", f.Name, rec.Get(f.Name).Strategy)
		}
	}
}

func TestExtract_VariantLayoutUsesFallbacks(t *testing.T) {
	extractor := NewExtractor(DefaultRuleSet())
	rec := extractor.Extract(RawText{Name: "sur.pdf", Text: loadFixture(t, "f931_variant.txt")})

	assert.Equal(t, "30-71234567-9", rec.CompanyKey)
	assert.Equal(t, "04/2024", rec.PeriodKey)
	assert.Equal(t, "COMERCIAL DEL SUR SRL", rec.Get(FieldCompanyName).Text)
	assert.Equal(t, int64(7), rec.Get(FieldEmployees).Count)

	assertAmount(t, rec, FieldRem1, "812400")
	assertAmount(t, rec, FieldRem4, "790000")
	assertAmount(t, rec, FieldRem8, "800000")
	assertAmount(t, rec, FieldRem9, "812400")
	assertAmount(t, rec, FieldRem10, "700000")
	assertAmount(t, rec, FieldDetraido, "35000")
	assertAmount(t, rec, FieldDec394, "-980")
	assertAmount(t, rec, FieldContribSS, "146232")
	assertAmount(t, rec, FieldContribSIPA, "120000")
	assertAmount(t, rec, FieldContribNoSIPA, "26232")
	assertAmount(t, rec, FieldAportesSS, "89364")
	assertAmount(t, rec, FieldContribOS, "48744")
	assertAmount(t, rec, FieldAportesOS, "24372")
	assertAmount(t, rec, FieldLRT, "21000")
	assertAmount(t, rec, FieldSeguroVida, "432.10")

	assert.True(t, strings.HasPrefix(rec.Get(FieldRem1).Strategy, "keyword:"))
	assert.True(t, strings.HasPrefix(rec.Get(FieldRem9).Strategy, "linemax:"))
	assert.True(t, strings.HasPrefix(rec.Get(FieldContribOS).Strategy, "linemax:"))
	assert.Empty(t, rec.Missing(DefaultRuleSet()))
}

func TestExtract_EmptyTextYieldsDefaults(t *testing.T) {
	rules := DefaultRuleSet()
	extractor := NewExtractor(rules)

	var rec Record
	require.NotPanics(t, func() {
		rec = extractor.Extract(RawText{Name: "scan.pdf", Text: "   \n\n"})
	})

	assert.Len(t, rec.Fields, len(rules.Fields))
	for _, f := range rules.Fields {
		v, ok := rec.Fields[f.Name]
		require.True(t, ok, "field %s must always be present", f.Name)
		assert.False(t, v.Found)
		assert.True(t, f.Default().Equal(v), "field %s should hold its default", f.Name)
	}

	assert.Equal(t, UnknownIdentity, rec.CompanyKey)
	assert.Equal(t, UnknownPeriod, rec.PeriodKey)
	assert.False(t, rec.HasPeriod())

	counts := warningTypes(rec)
	assert.Equal(t, 1, counts[WarningUnreadableDocument])
	assert.Equal(t, 1, counts[WarningUnknownPeriod])
	assert.Equal(t, len(rules.Fields), counts[WarningMissingField])
}

func TestExtract_PeriodFromFilename(t *testing.T) {
	text := strings.Replace(loadFixture(t, "f931_standard.txt"), "Mes - Año: 03/2024\n", "", 1)
	rec := NewExtractor(DefaultRuleSet()).Extract(RawText{Name: "DDJJ 931 2024-05.pdf", Text: text})

	assert.Equal(t, "05/2024", rec.PeriodKey)
	assert.Equal(t, "filename", rec.Get(FieldPeriod).Strategy)
}

func TestExtract_PositionalPeriod(t *testing.T) {
	raw := RawText{Name: "ilegible.pdf", Text: "", Seq: 2}

	withoutPositional := NewExtractor(DefaultRuleSet()).Extract(raw)
	assert.Equal(t, UnknownPeriod, withoutPositional.PeriodKey)

	withPositional := NewExtractor(DefaultRuleSet(), WithPositionalPeriods()).Extract(raw)
	assert.Equal(t, "DOC-003", withPositional.PeriodKey)
	assert.Equal(t, "positional", withPositional.Get(FieldPeriod).Strategy)

	// The shared rule set must not grow a positional step
	spec, ok := DefaultRuleSet().Field(FieldPeriod)
	require.True(t, ok)
	for _, s := range spec.Strategies {
		assert.NotEqual(t, "positional", s.Name())
	}
}

func TestExtract_AmbiguousNumberWarns(t *testing.T) {
	text := "F.931\nSuma de Rem. 1: 1234.50\n"
	rec := NewExtractor(DefaultRuleSet()).Extract(RawText{Name: "x.pdf", Text: text})

	assertAmount(t, rec, FieldRem1, "1234.50")
	var ambiguous []Warning
	for _, w := range rec.Warnings {
		if w.Type == WarningAmbiguousNumber {
			ambiguous = append(ambiguous, w)
		}
	}
	require.Len(t, ambiguous, 1)
	assert.Equal(t, FieldRem1, ambiguous[0].Field)
}

func TestExtract_NotForm931(t *testing.T) {
	rec := NewExtractor(DefaultRuleSet()).Extract(RawText{Name: "factura.pdf", Text: "Factura B\nTotal 1.000,00"})
	assert.Equal(t, 1, warningTypes(rec)[WarningNotForm931])
}

func TestExtract_SignedFieldIsNegative(t *testing.T) {
	text := "F.931\nPago a Cuenta Dec. 394: -2.000,00\n"
	rec := NewExtractor(DefaultRuleSet()).Extract(RawText{Name: "x.pdf", Text: text})
	assertAmount(t, rec, FieldDec394, "-2000")
}

func TestExtract_UnsignedFieldIsNonNegative(t *testing.T) {
	text := "F.931\n312-L.R.T -5.000,00\n"
	rec := NewExtractor(DefaultRuleSet()).Extract(RawText{Name: "x.pdf", Text: text})
	assertAmount(t, rec, FieldLRT, "5000")
}

func TestExtract_CustomRuleSet(t *testing.T) {
	rules := RuleSet{
		Fields: []FieldSpec{
			{Name: "A", Kind: KindCurrency, Strategies: []Strategy{Anchored(`Campo A`, 4)}},
			{Name: "B", Kind: KindCount, Strategies: []Strategy{Anchored(`Campo B`, 4)}},
		},
	}
	require.NoError(t, rules.Validate())

	rec := NewExtractor(rules).Extract(RawText{Name: "a.pdf", Text: "Campo A: 10,5\nCampo B: 3"})
	assertAmount(t, rec, "A", "10.5")
	assert.Equal(t, int64(3), rec.Get("B").Count)
	assert.Equal(t, UnknownPeriod, rec.PeriodKey)
	assert.Equal(t, UnknownIdentity, rec.CompanyKey)
}

func TestRuleSet_Validate(t *testing.T) {
	require.NoError(t, DefaultRuleSet().Validate())

	dup := RuleSet{Fields: []FieldSpec{{Name: "A"}, {Name: "A"}}}
	assert.Error(t, dup.Validate())

	badPeriod := RuleSet{Fields: []FieldSpec{{Name: "A"}}, PeriodField: "B"}
	assert.Error(t, badPeriod.Validate())

	badCompany := RuleSet{Fields: []FieldSpec{{Name: "A"}}, CompanyFields: []string{"C"}}
	assert.Error(t, badCompany.Validate())

	empty := RuleSet{Fields: []FieldSpec{{Name: ""}}}
	assert.Error(t, empty.Validate())
}

func TestDefaultRuleSet_DeclarationOrder(t *testing.T) {
	names := DefaultRuleSet().Names()
	require.Len(t, names, 19)
	assert.Equal(t, FieldCompanyName, names[0])
	assert.Equal(t, FieldCUIT, names[1])
	assert.Equal(t, FieldPeriod, names[2])
	assert.Equal(t, FieldSeguroVida, names[len(names)-1])
}

func TestExtract_CountWithGroupingSeparator(t *testing.T) {
	rec := NewExtractor(DefaultRuleSet()).Extract(RawText{Name: "x.pdf", Text: "F.931\nEmpleados en nómina: 1.234\n"})

	employees := rec.Get(FieldEmployees)
	assert.True(t, employees.Found)
	assert.Equal(t, int64(1234), employees.Count)
	assert.True(t, decimal.NewFromInt(1234).Equal(employees.Amount))

	var ambiguous []Warning
	for _, w := range rec.Warnings {
		if w.Type == WarningAmbiguousNumber {
			ambiguous = append(ambiguous, w)
		}
	}
	require.Len(t, ambiguous, 1)
	assert.Equal(t, FieldEmployees, ambiguous[0].Field)
}

func TestExtract_LabelWithoutAmountKeepsDefault(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		missing   string
		neighbour string
		want      string
	}{
		{
			name:      "form code on the next line",
			text:      "F.931\n301-Aportes de Seguridad Social\n302-Aportes de Obra Social 36.000,00\n",
			missing:   FieldAportesSS,
			neighbour: FieldAportesOS,
			want:      "36000",
		},
		{
			name:      "next remuneration line",
			text:      "F.931\nRemuneración 1\nRemuneración 4 790.000,00\n",
			missing:   FieldRem1,
			neighbour: FieldRem4,
			want:      "790000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewExtractor(DefaultRuleSet()).Extract(RawText{Name: "x.pdf", Text: tt.text})

			v := rec.Get(tt.missing)
			assert.False(t, v.Found, "%s came from %s", tt.missing, v.Strategy)
			assert.True(t, v.Amount.IsZero())
			assert.Contains(t, rec.Missing(DefaultRuleSet()), tt.missing)

			assertAmount(t, rec, tt.neighbour, tt.want)
		})
	}
}

func TestRecord_MissingFollowsDeclarationOrder(t *testing.T) {
	rules := DefaultRuleSet()
	rec := NewExtractor(rules).Extract(RawText{Name: "scan.pdf", Text: ""})
	assert.Equal(t, rules.Names(), rec.Missing(rules))

	rec = NewExtractor(rules).Extract(RawText{Name: "x.pdf", Text: "F.931\nCUIT: 30-71234567-8\n"})
	missing := rec.Missing(rules)
	assert.NotContains(t, missing, FieldCUIT)
	assert.Equal(t, FieldCompanyName, missing[0])
	assert.Equal(t, FieldPeriod, missing[1])
}
