package form931

import (
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// landmarks are phrases printed on every F.931 regardless of issuer or year
var landmarks = regexp.MustCompile(`(?i)931|SICOSS|Seguridad\s+Social|Obra\s+Social|Rem\.\s*\d|Remuneraci[oó]n`)

// LooksLikeForm931 reports whether text carries at least one F.931 landmark
func LooksLikeForm931(text string) bool {
	return landmarks.MatchString(text)
}

// Extractor applies a RuleSet to document text. It holds no mutable state and
// is safe for concurrent use.
type Extractor struct {
	rules      RuleSet
	positional bool
}

// Option configures an Extractor
type Option func(*Extractor)

// WithPositionalPeriods appends PositionalPeriod to the period field's chain,
// so documents without a readable period get a DOC-NNN column instead of
// being excluded from consolidation.
func WithPositionalPeriods() Option {
	return func(e *Extractor) {
		e.positional = true
	}
}

// NewExtractor creates an extractor for the given rule set
func NewExtractor(rules RuleSet, opts ...Option) *Extractor {
	e := &Extractor{rules: rules}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the rule set the extractor applies
func (e *Extractor) Rules() RuleSet {
	return e.rules
}

// Extract produces one Record per document. It never fails: fields whose chain
// finds nothing take their declared default and a MissingField warning.
func (e *Extractor) Extract(raw RawText) Record {
	doc := NewDocument(raw)
	rec := Record{
		Origin:     raw.Name,
		Seq:        raw.Seq,
		CompanyKey: UnknownIdentity,
		PeriodKey:  UnknownPeriod,
		Fields:     make(map[string]Value, len(e.rules.Fields)),
	}

	switch {
	case strings.TrimSpace(raw.Text) == "":
		rec.Warnings = append(rec.Warnings, NewWarning(WarningUnreadableDocument, raw.Name, "",
			"document has no extractable text"))
	case !LooksLikeForm931(raw.Text):
		rec.Warnings = append(rec.Warnings, NewWarning(WarningNotForm931, raw.Name, "",
			"text does not look like an F.931 declaration"))
	}

	for _, spec := range e.rules.Fields {
		strategies := spec.Strategies
		if e.positional && spec.Name == e.rules.PeriodField {
			strategies = append(slices.Clip(strategies), PositionalPeriod())
		}
		rec.Fields[spec.Name] = e.extractField(doc, spec, strategies, &rec)
	}

	if e.rules.PeriodField != "" {
		if v := rec.Fields[e.rules.PeriodField]; v.Found {
			rec.PeriodKey = v.Text
		}
	}
	if rec.PeriodKey == UnknownPeriod {
		rec.Warnings = append(rec.Warnings, NewWarning(WarningUnknownPeriod, raw.Name, e.rules.PeriodField,
			"period could not be determined from text or file name"))
	}

	for _, name := range e.rules.CompanyFields {
		if v := rec.Fields[name]; v.Found {
			rec.CompanyKey = v.Text
			break
		}
	}

	return rec
}

// extractField walks one fallback chain and commits to the first usable capture
func (e *Extractor) extractField(doc *Document, spec FieldSpec, strategies []Strategy, rec *Record) Value {
	for _, s := range strategies {
		capture, ok := s.Find(doc)
		if !ok || strings.TrimSpace(capture) == "" {
			continue
		}

		value := Value{Kind: spec.Kind, Found: true, Strategy: s.Name()}
		switch spec.Kind {
		case KindIdentity:
			text := collapseSpace(capture)
			if spec.Clean != nil {
				text = spec.Clean(text)
			}
			if text == "" {
				continue
			}
			value.Text = text

		case KindCount:
			n, ambiguous := ParseCount(capture)
			if ambiguous {
				rec.Warnings = append(rec.Warnings, NewWarning(WarningAmbiguousNumber, doc.Name, spec.Name,
					"%q read as %d", capture, n))
			}
			value.Count = n
			value.Amount = decimal.NewFromInt(n)

		case KindCurrency:
			d, format := ParseNumber(capture)
			if format.Ambiguous() {
				rec.Warnings = append(rec.Warnings, NewWarning(WarningAmbiguousNumber, doc.Name, spec.Name,
					"%q read as %s", capture, d.String()))
			}
			d = d.Abs()
			if spec.Signed {
				d = d.Neg()
			}
			value.Amount = d
		}
		return value
	}

	rec.Warnings = append(rec.Warnings, NewWarning(WarningMissingField, doc.Name, spec.Name,
		"no strategy matched, using default"))
	return spec.Default()
}
