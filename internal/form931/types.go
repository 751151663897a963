package form931

import (
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	// UnknownIdentity is the default for identity fields and company keys
	UnknownIdentity = "DESCONOCIDO"

	// UnknownPeriod is the period key of a document whose period could not be determined
	UnknownPeriod = "SIN PERIODO"
)

// RawText is the linearized, page-ordered text of one uploaded document
type RawText struct {
	Name string `json:"name"` // original file name, only used as a period hint
	Text string `json:"text"`
	Seq  int    `json:"seq"` // submission order within the batch
}

// Kind classifies the value a field holds
type Kind int

const (
	KindIdentity Kind = iota
	KindCount
	KindCurrency
)

// String returns a string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindCount:
		return "count"
	case KindCurrency:
		return "currency"
	default:
		return "identity"
	}
}

// Value is the typed result for one field of one document
type Value struct {
	Kind     Kind            `json:"kind"`
	Text     string          `json:"text,omitempty"`
	Count    int64           `json:"count,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Found    bool            `json:"found"`
	Strategy string          `json:"strategy,omitempty"` // which strategy produced the value
}

// String renders the value the way it is shown to users
func (v Value) String() string {
	switch v.Kind {
	case KindCount:
		return strconv.FormatInt(v.Count, 10)
	case KindCurrency:
		return v.Amount.StringFixed(2)
	default:
		return v.Text
	}
}

// Equal compares the payload of two values, ignoring provenance
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindCount:
		return v.Count == o.Count
	case KindCurrency:
		return v.Amount.Equal(o.Amount)
	default:
		return v.Text == o.Text
	}
}

// Record is the structured result of extracting all declared fields from one document
type Record struct {
	Origin     string           `json:"origin"`
	Seq        int              `json:"seq"`
	CompanyKey string           `json:"company_key"`
	PeriodKey  string           `json:"period_key"`
	Fields     map[string]Value `json:"fields"`
	Warnings   []Warning        `json:"warnings,omitempty"`
}

// Get returns the value of a field, or the zero Value when the field is not declared
func (r Record) Get(name string) Value {
	return r.Fields[name]
}

// Missing lists the fields of rules that fell back to their default, in
// declaration order
func (r Record) Missing(rules RuleSet) []string {
	var missing []string
	for _, f := range rules.Fields {
		if !r.Fields[f.Name].Found {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// HasPeriod reports whether the record carries a usable period key
func (r Record) HasPeriod() bool {
	return r.PeriodKey != "" && r.PeriodKey != UnknownPeriod
}
