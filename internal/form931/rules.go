package form931

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Field names, in the order they are declared and exported
const (
	FieldCompanyName    = "Apellido y Nombre o Razón Social"
	FieldCUIT           = "CUIT"
	FieldPeriod         = "Mes - Año"
	FieldEmployees      = "Empleados en nómina"
	FieldRem1           = "Suma de Rem. 1"
	FieldRem4           = "Suma de Rem. 4"
	FieldRem8           = "Suma de Rem. 8"
	FieldRem9           = "Suma de Rem. 9"
	FieldRem10          = "Suma de Rem. 10"
	FieldDetraido       = "Ley 27430 - Monto Total Detraído"
	FieldDec394         = "Pago a Cuenta Dec. 394"
	FieldContribSS      = "351 - Contribuciones de Seguridad Social"
	FieldContribSIPA    = "351 - Contribuciones de S.S. SIPA"
	FieldContribNoSIPA  = "351 - Contribuciones de S.S. No SIPA"
	FieldAportesSS      = "301 - Aportes de Seguridad Social"
	FieldContribOS      = "352 - Contribuciones de Obra Social"
	FieldAportesOS      = "302 - Aportes de Obra Social"
	FieldLRT            = "312 - LRT"
	FieldSeguroVida     = "028 - Seguro Colectivo de Vida Obligatorio"
	defaultAnchorWindow = 8
	defaultKeywordSpan  = 60
)

// FieldSpec declares one extractable field and its ordered fallback chain
type FieldSpec struct {
	Name       string
	Kind       Kind
	Signed     bool // recorded as a negative adjustment
	Strategies []Strategy
	Clean      func(string) string // identity post-processing, optional
}

// Default returns the value a field takes when its whole chain fails
func (f FieldSpec) Default() Value {
	switch f.Kind {
	case KindCount:
		return Value{Kind: KindCount, Amount: decimal.Zero}
	case KindCurrency:
		return Value{Kind: KindCurrency, Amount: decimal.Zero}
	default:
		return Value{Kind: KindIdentity, Text: UnknownIdentity, Amount: decimal.Zero}
	}
}

// RuleSet is the declarative table of fields shared read-only by every document
type RuleSet struct {
	Fields        []FieldSpec
	PeriodField   string   // field whose value is the period key
	CompanyFields []string // candidates for the company key, first found wins
}

// Field looks up a declared field by name
func (rs RuleSet) Field(name string) (FieldSpec, bool) {
	for _, f := range rs.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Names returns every declared field name in declaration order
func (rs RuleSet) Names() []string {
	names := make([]string, 0, len(rs.Fields))
	for _, f := range rs.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Validate checks that the rule set is internally consistent
func (rs RuleSet) Validate() error {
	seen := make(map[string]bool, len(rs.Fields))
	for _, f := range rs.Fields {
		if f.Name == "" {
			return fmt.Errorf("field name cannot be empty")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field: %s", f.Name)
		}
		seen[f.Name] = true
	}
	if rs.PeriodField != "" && !seen[rs.PeriodField] {
		return fmt.Errorf("period field %q is not declared", rs.PeriodField)
	}
	for _, name := range rs.CompanyFields {
		if !seen[name] {
			return fmt.Errorf("company field %q is not declared", name)
		}
	}
	return nil
}

var defaultRules = sync.OnceValue(buildDefaultRuleSet)

// DefaultRuleSet returns the F.931 field catalog. The returned value is shared;
// callers must not modify it.
func DefaultRuleSet() RuleSet {
	return defaultRules()
}

func buildDefaultRuleSet() RuleSet {
	return RuleSet{
		PeriodField:   FieldPeriod,
		CompanyFields: []string{FieldCUIT, FieldCompanyName},
		Fields: []FieldSpec{
			{
				Name: FieldCompanyName,
				Kind: KindIdentity,
				Strategies: []Strategy{
					Pattern(`(?i)Raz[oó]n\s+Social\s*:?[ \t]*\n[ \t]*([^\n]+)`),
					Pattern(`(?i)Raz[oó]n\s+Social\s*:[ \t]*([^\n\d][^\n]*)`),
					Pattern(`(?i)Denominaci[oó]n\s*:[ \t]*([^\n]+)`),
				},
				Clean: collapseSpace,
			},
			{
				Name: FieldCUIT,
				Kind: KindIdentity,
				Strategies: []Strategy{
					Pattern(`(?i)C\.?U\.?I\.?T\.?\s*:?\s*(\d{2}-?\d{8}-?\d)`),
					Pattern(`\b(\d{2}-\d{8}-\d)\b`),
				},
				Clean: CanonicalCUIT,
			},
			{
				Name: FieldPeriod,
				Kind: KindIdentity,
				Strategies: []Strategy{
					Pattern(`(?i)Mes\s*-\s*A[ñn]o\s*:?\s*(\d{1,2}\s*/\s*\d{4})`),
					Pattern(`(?i)Per[ií]odo\s*:?\s*(\d{1,2}\s*/\s*\d{4})`),
					Pattern(`(?:^|[^\d/])((?:0[1-9]|1[0-2])/(?:19|20)\d{2})\b`),
					FilenamePeriod(),
				},
				Clean: CanonicalPeriod,
			},
			{
				Name: FieldEmployees,
				Kind: KindCount,
				Strategies: []Strategy{
					Anchored(`Empleados\s+en\s+n[oó]mina\s*t?\s*:`, 4),
					Keyword(`n[oó]mina`, 20),
				},
			},
			remuneration(FieldRem1, "1"),
			remuneration(FieldRem4, "4"),
			remuneration(FieldRem8, "8"),
			remuneration(FieldRem9, "9"),
			remuneration(FieldRem10, "10"),
			{
				Name: FieldDetraido,
				Kind: KindCurrency,
				Strategies: []Strategy{
					Anchored(`Monto\s+Total\s+Detra[ií]do\s*:`, defaultAnchorWindow),
					Anchored(`Detra[ií]do\s*:`, defaultAnchorWindow),
					AmountKeyword(`Ley\s*27\.?430`, defaultKeywordSpan*2),
					LineMax(`detra[ií]d`),
				},
			},
			{
				Name:   FieldDec394,
				Kind:   KindCurrency,
				Signed: true,
				Strategies: []Strategy{
					Anchored(`Dec\.\s*394\s*:`, defaultAnchorWindow),
					AmountKeyword(`Decreto\s*394`, defaultKeywordSpan),
					LineMax(`Dec(?:reto|\.)?\s*394`),
				},
			},
			{
				Name: FieldContribSS,
				Kind: KindCurrency,
				Strategies: []Strategy{
					Anchored(`351\s*-\s*Contribuciones\s+de\s+Seguridad\s+Social`, defaultAnchorWindow),
					AmountKeyword(`351\s*-?\s*Contrib(?:uciones)?\s+(?:de\s+)?Seg`, defaultKeywordSpan),
					LineMax(`Contribuciones\s+de\s+Seguridad\s+Social`),
				},
			},
			{
				Name: FieldContribSIPA,
				Kind: KindCurrency,
				Strategies: []Strategy{
					Anchored(`S\.\s*S\.\s*SIPA`, defaultAnchorWindow),
					AmountKeyword(`Contrib(?:uciones|\.)?\s+(?:de\s+)?S\.?\s*S\.?\s+SIPA`, defaultKeywordSpan),
					LineMax(`\bSIPA\b`, Excluding(`No\s+SIPA`)),
				},
			},
			{
				Name: FieldContribNoSIPA,
				Kind: KindCurrency,
				Strategies: []Strategy{
					Anchored(`S\.\s*S\.\s*No\s+SIPA`, defaultAnchorWindow),
					AmountKeyword(`No\s+SIPA`, defaultKeywordSpan),
					LineMax(`No\s+SIPA`),
				},
			},
			{
				Name: FieldAportesSS,
				Kind: KindCurrency,
				Strategies: []Strategy{
					Anchored(`301\s*-\s*Aportes\s+de\s+Seguridad\s+Social`, defaultAnchorWindow),
					AmountKeyword(`301\s*-?\s*Aportes`, defaultKeywordSpan),
					LineMax(`Aportes\s+de\s+Seguridad\s+Social`),
				},
			},
			{
				Name: FieldContribOS,
				Kind: KindCurrency,
				Strategies: []Strategy{
					Anchored(`352\s*-\s*Contribuciones\s+de\s+Obra\s+Social`, defaultAnchorWindow),
					AmountKeyword(`352\s*-?\s*Contrib`, defaultKeywordSpan),
					LineMax(`Contribuciones\s+de\s+Obra\s+Social`),
				},
			},
			{
				Name: FieldAportesOS,
				Kind: KindCurrency,
				Strategies: []Strategy{
					Anchored(`302\s*-\s*Aportes\s+de\s+Obra\s+Social`, defaultAnchorWindow),
					AmountKeyword(`302\s*-?\s*Aportes`, defaultKeywordSpan),
					LineMax(`Aportes\s+de\s+Obra\s+Social`),
				},
			},
			{
				Name: FieldLRT,
				Kind: KindCurrency,
				Strategies: []Strategy{
					Anchored(`312\s*-\s*L\.?\s*R\.?\s*T\.?`, defaultAnchorWindow),
					AmountKeyword(`Riesgos?\s+del?\s+Trabajo`, defaultKeywordSpan),
					LineMax(`\bL\.?R\.?T\b`),
				},
			},
			{
				Name: FieldSeguroVida,
				Kind: KindCurrency,
				Strategies: []Strategy{
					Anchored(`028\s*-\s*Seguro\s+Colectivo\s+de\s+Vida(?:\s+Obligatorio)?`, defaultAnchorWindow),
					AmountKeyword(`Seguro\s+(?:Colectivo\s+)?de\s+Vida`, defaultKeywordSpan),
					LineMax(`S\.?C\.?V\.?O\b`),
				},
			},
		},
	}
}

// remuneration builds the chain shared by the "Suma de Rem. N" fields
func remuneration(name, n string) FieldSpec {
	return FieldSpec{
		Name: name,
		Kind: KindCurrency,
		Strategies: []Strategy{
			Anchored(`Rem\.\s*`+n+`\b`, defaultAnchorWindow),
			AmountKeyword(`Remuneraci[oó]n\s+`+n+`\b`, defaultKeywordSpan/2),
			LineMax(`\bRem\.?\s*` + n + `\b`),
		},
	}
}
