package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Reader linearizes the text of PDF files
type Reader struct {
	maxFileSize int64
	maxTextSize int
}

// NewReader creates a new PDF reader with the specified constraints
func NewReader(maxFileSize int64) *Reader {
	return &Reader{
		maxFileSize: maxFileSize,
		maxTextSize: 10 * 1024 * 1024, // 10MB text limit
	}
}

// ReadText extracts the plain text of every page in order. Pages without text
// are omitted and the remaining pages are joined with a newline. A PDF that
// opens but has no text yields an empty Text, not an error.
func (r *Reader) ReadText(path string) (*TextResult, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if err := checkFileInfo(path, fileInfo, r.maxFileSize); err != nil {
		return nil, err
	}

	f, pdfReader, err := openPDF(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages, truncated := r.extractPages(pdfReader)

	return &TextResult{
		Path:      path,
		Name:      filepath.Base(path),
		Size:      fileInfo.Size(),
		Pages:     pdfReader.NumPage(),
		TextPages: len(pages),
		Text:      strings.Join(pages, "\n"),
		Truncated: truncated,
	}, nil
}

// extractPages returns the non-blank page texts in page order
func (r *Reader) extractPages(pdfReader *pdf.Reader) ([]string, bool) {
	var pages []string
	total := 0

	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		content, err := pageText(pdfReader, pageNum)
		if err != nil {
			// Continue with other pages even if one fails
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		if total+len(content) > r.maxTextSize {
			if remaining := r.maxTextSize - total; remaining > 0 {
				pages = append(pages, content[:remaining])
			}
			return pages, true
		}

		pages = append(pages, content)
		total += len(content)
	}

	return pages, false
}

// openPDF opens a PDF, turning a parser panic on malformed input into an error
func openPDF(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			f, r, err = nil, nil, fmt.Errorf("malformed PDF: %v", p)
		}
	}()
	return pdf.Open(path)
}

// pageText returns the plain text of one page; a null page has no text
func pageText(r *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("page %d: %v", pageNum, p)
		}
	}()

	page := r.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// checkFileInfo applies the checks that need no parsing
func checkFileInfo(path string, info os.FileInfo, maxFileSize int64) error {
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if !isPDFFile(path) {
		return fmt.Errorf("file is not a PDF: %s", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), maxFileSize)
	}
	return nil
}

// isPDFFile checks if a file has a PDF extension
func isPDFFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
