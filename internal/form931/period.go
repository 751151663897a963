package form931

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// PeriodLayout is the layout of canonical period keys (MM/YYYY)
const PeriodLayout = "01/2006"

var (
	periodParts = regexp.MustCompile(`^\s*(\d{1,2})\s*[/\-.]\s*(\d{4})\s*$`)

	// File name tokens, month first (03-2024, 032024) or year first (2024_03, 202403)
	fileMonthYear = regexp.MustCompile(`(?:^|\D)(0[1-9]|1[0-2])[-_. ]?((?:19|20)\d{2})(?:\D|$)`)
	fileYearMonth = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})[-_. ]?(0[1-9]|1[0-2])(?:\D|$)`)
	fileMonthName = regexp.MustCompile(`(?i)([a-záéíóú]{3,10})[-_. ]*((?:19|20)\d{2})`)

	cuitDigits = regexp.MustCompile(`^(\d{2})(\d{8})(\d)$`)
)

var monthNames = map[string]int{
	"enero": 1, "ene": 1,
	"febrero": 2, "feb": 2,
	"marzo": 3, "mar": 3,
	"abril": 4, "abr": 4,
	"mayo": 5, "may": 5,
	"junio": 6, "jun": 6,
	"julio": 7, "jul": 7,
	"agosto": 8, "ago": 8,
	"septiembre": 9, "setiembre": 9, "sep": 9, "set": 9,
	"octubre": 10, "oct": 10,
	"noviembre": 11, "nov": 11,
	"diciembre": 12, "dic": 12,
}

// ParsePeriod parses a canonical MM/YYYY period key
func ParsePeriod(key string) (time.Time, bool) {
	t, err := time.Parse(PeriodLayout, key)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CanonicalPeriod rewrites "3/2024", "03-2024" or "03 / 2024" as "03/2024".
// Input that is not a month/year pair is returned trimmed.
func CanonicalPeriod(s string) string {
	m := periodParts.FindStringSubmatch(s)
	if m == nil {
		return strings.TrimSpace(s)
	}
	month, _ := strconv.Atoi(m[1])
	if month < 1 || month > 12 {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("%02d/%s", month, m[2])
}

// PeriodFromFilename looks for a month/year token in a document's file name
func PeriodFromFilename(name string) (string, bool) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		return "", false
	}

	if m := fileMonthYear.FindStringSubmatch(base); m != nil {
		return m[1] + "/" + m[2], true
	}
	if m := fileYearMonth.FindStringSubmatch(base); m != nil {
		return m[2] + "/" + m[1], true
	}
	for _, m := range fileMonthName.FindAllStringSubmatch(base, -1) {
		if month, ok := monthNames[strings.ToLower(m[1])]; ok {
			return fmt.Sprintf("%02d/%s", month, m[2]), true
		}
	}
	return "", false
}

// CanonicalCUIT formats an 11-digit CUIT as NN-NNNNNNNN-N. Anything else is
// returned with whitespace collapsed.
func CanonicalCUIT(s string) string {
	digits := digitsOnly(s)
	if m := cuitDigits.FindStringSubmatch(digits); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	return collapseSpace(s)
}

// collapseSpace trims and collapses internal whitespace runs to one space
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
