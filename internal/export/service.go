package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/a3tai/f931-consolidator/internal/consolidate"
)

// FilePrefix starts the name of every exported workbook
const FilePrefix = "Planilla_Anual_931_"

// Service writes consolidated tables to disk and logs each export
type Service struct {
	logger *slog.Logger
}

// NewService returns a Service that logs to logger, or to slog.Default when nil
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// WriteFile renders the table and stores it in dir under FileName(t.Company).
// It returns the path written.
func (s *Service) WriteFile(t *consolidate.Table, dir string) (string, error) {
	start := time.Now()

	data, err := WriteXLSX(t)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, FileName(t.Company))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	s.logger.Info("export.xlsx.ok",
		"company", t.Company,
		"rows", len(t.Rows),
		"periods", len(t.Columns),
		"path", path,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return path, nil
}

// FileName returns the workbook name for a company, with every character that
// is not a letter, digit, '-' or '.' replaced by '_'
func FileName(company string) string {
	company = strings.TrimSpace(company)
	if company == "" {
		company = "SIN_EMPRESA"
	}
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' {
			return r
		}
		return '_'
	}, company)
	return FilePrefix + safe + ".xlsx"
}
