package form931

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// numberToken matches a signed run of digits with optional separators
const numberToken = `-?\d[\d.,]*\d|-?\d`

// amountToken is a number ending in a two-digit decimal part (1.234,56 or
// 1,234.56). A bare integer next to a label is usually a form code.
const amountToken = `-?\d[\d.,]*[.,]\d{2}\b`

// currencyToken matches amounts printed with a comma decimal part (1.234,56)
var currencyToken = regexp.MustCompile(`\d[\d.]*,\d{2}`)

// Document is RawText prepared for repeated strategy lookups
type Document struct {
	RawText
	lines []string
}

// NewDocument splits the text into lines once so strategies can share them
func NewDocument(raw RawText) *Document {
	text := strings.ReplaceAll(raw.Text, "\r\n", "\n")
	raw.Text = text
	return &Document{
		RawText: raw,
		lines:   strings.Split(text, "\n"),
	}
}

// Lines returns the document's lines in order
func (d *Document) Lines() []string {
	return d.lines
}

// Strategy is one step of a field's fallback chain
type Strategy interface {
	// Name identifies the strategy in values and logs
	Name() string
	// Find returns the captured text, or false when the strategy does not apply
	Find(doc *Document) (string, bool)
}

// anchored is a fixed label followed, on the same line, by a numeric token
type anchored struct {
	name string
	re   *regexp.Regexp
}

// Anchored matches a printed label (case-insensitive regexp) followed within
// window non-digit characters on the same line by a numeric token.
func Anchored(label string, window int) Strategy {
	return &anchored{
		name: "anchored:" + label,
		re:   regexp.MustCompile(`(?i)` + label + `[^\d\n]{0,` + strconv.Itoa(window) + `}?(` + numberToken + `)`),
	}
}

func (a *anchored) Name() string { return a.name }

func (a *anchored) Find(doc *Document) (string, bool) {
	m := a.re.FindStringSubmatch(doc.Text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// keyword is a looser synonym followed by the nearest numeric token
type keyword struct {
	name string
	re   *regexp.Regexp
}

// Keyword matches a synonym, abbreviation or partial code followed by the
// nearest numeric token within window non-digit characters. The gap may span
// line breaks.
func Keyword(word string, window int) Strategy {
	return &keyword{
		name: "keyword:" + word,
		re:   regexp.MustCompile(`(?i)` + word + `[^\d]{0,` + strconv.Itoa(window) + `}?(` + numberToken + `)`),
	}
}

// AmountKeyword is Keyword restricted to currency-shaped tokens. Since the
// gap cannot cross digits, a label printed without an amount does not match
// the code or number that starts the next line.
func AmountKeyword(word string, window int) Strategy {
	return &keyword{
		name: "keyword:" + word,
		re:   regexp.MustCompile(`(?i)` + word + `[^\d]{0,` + strconv.Itoa(window) + `}?(` + amountToken + `)`),
	}
}

func (k *keyword) Name() string { return k.name }

func (k *keyword) Find(doc *Document) (string, bool) {
	m := k.re.FindStringSubmatch(doc.Text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// lineMax takes the largest amount on lines mentioning a keyword
type lineMax struct {
	name    string
	keyword *regexp.Regexp
	exclude *regexp.Regexp
	floor   decimal.Decimal
}

// LineMaxOption configures a LineMax strategy
type LineMaxOption func(*lineMax)

// Excluding skips lines that also match the given regexp
func Excluding(pattern string) LineMaxOption {
	return func(l *lineMax) {
		l.exclude = regexp.MustCompile(`(?i)` + pattern)
	}
}

// Floor sets the value at or below which tokens are discarded (default 1.00)
func Floor(f decimal.Decimal) LineMaxOption {
	return func(l *lineMax) {
		l.floor = f
	}
}

// LineMax scans line by line for lines matching keyword and returns the
// largest currency-shaped token found on them. Tokens at or below the floor
// and percentages are discarded; they are usually rates printed on the same line.
func LineMax(keywordPattern string, opts ...LineMaxOption) Strategy {
	l := &lineMax{
		name:    "linemax:" + keywordPattern,
		keyword: regexp.MustCompile(`(?i)` + keywordPattern),
		floor:   decimal.NewFromInt(1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lineMax) Name() string { return l.name }

func (l *lineMax) Find(doc *Document) (string, bool) {
	var (
		best    decimal.Decimal
		bestRaw string
		found   bool
	)

	for _, line := range doc.lines {
		if !l.keyword.MatchString(line) {
			continue
		}
		if l.exclude != nil && l.exclude.MatchString(line) {
			continue
		}

		for _, loc := range currencyToken.FindAllStringIndex(line, -1) {
			if isPercentage(line[loc[1]:]) {
				continue
			}
			raw := line[loc[0]:loc[1]]
			value := Normalize(raw)
			if value.LessThanOrEqual(l.floor) {
				continue
			}
			if !found || value.GreaterThan(best) {
				best, bestRaw, found = value, raw, true
			}
		}
	}

	return bestRaw, found
}

// isPercentage reports whether the text following a token starts with '%'
func isPercentage(rest string) bool {
	return strings.HasPrefix(strings.TrimLeft(rest, " \t"), "%")
}

// pattern captures identity text with a regexp
type pattern struct {
	name string
	re   *regexp.Regexp
}

// Pattern captures the first submatch of re (the whole match when re has no
// groups). The pattern is used verbatim, so callers add flags themselves.
func Pattern(re string) Strategy {
	return &pattern{
		name: "pattern:" + re,
		re:   regexp.MustCompile(re),
	}
}

func (p *pattern) Name() string { return p.name }

func (p *pattern) Find(doc *Document) (string, bool) {
	m := p.re.FindStringSubmatch(doc.Text)
	if m == nil {
		return "", false
	}
	capture := m[0]
	if len(m) > 1 {
		capture = m[1]
	}
	capture = strings.TrimSpace(capture)
	return capture, capture != ""
}

// filenamePeriod reads the period from the document's file name
type filenamePeriod struct{}

// FilenamePeriod is the last text-independent fallback for the period field
func FilenamePeriod() Strategy {
	return filenamePeriod{}
}

func (filenamePeriod) Name() string { return "filename" }

func (filenamePeriod) Find(doc *Document) (string, bool) {
	return PeriodFromFilename(doc.Name)
}

// positionalPeriod derives a placeholder from the document's batch position
type positionalPeriod struct{}

// PositionalPeriod yields DOC-001, DOC-002... so that a document without any
// readable period still gets its own column
func PositionalPeriod() Strategy {
	return positionalPeriod{}
}

func (positionalPeriod) Name() string { return "positional" }

func (positionalPeriod) Find(doc *Document) (string, bool) {
	return fmt.Sprintf("DOC-%03d", doc.Seq+1), true
}
