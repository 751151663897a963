package pdf

import (
	"fmt"

	"github.com/a3tai/f931-consolidator/internal/pdf/security"
)

// Service is the input boundary of the engine: it confines paths to the
// configured directory, discovers PDFs and linearizes their text
type Service struct {
	maxFileSize   int64
	reader        *Reader
	validator     *Validator
	search        *Search
	pathValidator *security.PathValidator
}

// NewService creates a new PDF service rooted at configuredDirectory
func NewService(maxFileSize int64, configuredDirectory string) (*Service, error) {
	pathValidator, err := security.NewPathValidator(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	return &Service{
		maxFileSize:   maxFileSize,
		reader:        NewReader(maxFileSize),
		validator:     NewValidator(maxFileSize),
		search:        NewSearch(maxFileSize),
		pathValidator: pathValidator,
	}, nil
}

// ListDocuments returns the PDFs in directory in submission order. An empty
// directory means the configured one.
func (s *Service) ListDocuments(directory string) ([]FileInfo, error) {
	if directory == "" {
		directory = s.pathValidator.Root()
	}
	if err := s.pathValidator.ValidateDirectory(directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.search.FindPDFs(directory)
}

// ReadDocument linearizes the text of one PDF
func (s *Service) ReadDocument(path string) (*TextResult, error) {
	if err := s.pathValidator.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.reader.ReadText(path)
}

// ValidateDocument checks that a file is a structurally sound PDF
func (s *Service) ValidateDocument(path string) (*ValidationResult, error) {
	if err := s.pathValidator.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.ValidateFile(path)
}

// ResolvePath turns a caller-supplied path into an absolute path inside the
// configured directory
func (s *Service) ResolvePath(path string) (string, error) {
	return s.pathValidator.NormalizePath(path)
}

// Root returns the configured directory
func (s *Service) Root() string {
	return s.pathValidator.Root()
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}
