package form931

import "fmt"

// WarningType categorizes the non-fatal outcomes of extraction and consolidation
type WarningType int

const (
	WarningMissingField WarningType = iota
	WarningAmbiguousNumber
	WarningDuplicatePeriod
	WarningUnknownPeriod
	WarningUnreadableDocument
	WarningNotForm931
)

// Severity indicates how much attention a warning deserves
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

// String returns a string representation of the WarningType
func (wt WarningType) String() string {
	switch wt {
	case WarningMissingField:
		return "MISSING_FIELD"
	case WarningAmbiguousNumber:
		return "AMBIGUOUS_NUMBER"
	case WarningDuplicatePeriod:
		return "DUPLICATE_PERIOD"
	case WarningUnknownPeriod:
		return "UNKNOWN_PERIOD"
	case WarningUnreadableDocument:
		return "UNREADABLE_DOCUMENT"
	case WarningNotForm931:
		return "NOT_FORM_931"
	default:
		return "UNKNOWN"
	}
}

// Severity returns the severity level for a given warning type
func (wt WarningType) Severity() Severity {
	switch wt {
	case WarningMissingField, WarningAmbiguousNumber:
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// String returns a string representation of the Severity
func (s Severity) String() string {
	if s == SeverityInfo {
		return "info"
	}
	return "warning"
}

// Warning is a per-document outcome worth surfacing. It never aborts a batch.
type Warning struct {
	Type    WarningType `json:"type"`
	Origin  string      `json:"origin"`
	Field   string      `json:"field,omitempty"`
	Message string      `json:"message"`
}

// NewWarning creates a warning with a formatted message
func NewWarning(wt WarningType, origin, field, format string, args ...any) Warning {
	return Warning{
		Type:    wt,
		Origin:  origin,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (w Warning) Error() string {
	if w.Field != "" {
		return fmt.Sprintf("[%s] %s: %s: %s", w.Type, w.Origin, w.Field, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Type, w.Origin, w.Message)
}
