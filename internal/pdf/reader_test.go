package pdf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a3tai/f931-consolidator/internal/pdf/pdftest"
)

func TestNewReader(t *testing.T) {
	got := NewReader(1024)
	if got.maxFileSize != 1024 {
		t.Errorf("NewReader() maxFileSize = %v, want %v", got.maxFileSize, 1024)
	}
	if got.maxTextSize != 10*1024*1024 {
		t.Errorf("NewReader() maxTextSize = %v, want %v", got.maxTextSize, 10*1024*1024)
	}
}

func TestReader_ReadText_Rejects(t *testing.T) {
	tempDir := t.TempDir()

	testTxtPath := filepath.Join(tempDir, "test.txt")
	testDirPath := filepath.Join(tempDir, "testdir.pdf")
	largePDFPath := filepath.Join(tempDir, "large.pdf")
	emptyPDFPath := filepath.Join(tempDir, "empty.pdf")
	brokenPDFPath := filepath.Join(tempDir, "broken.pdf")

	if err := os.WriteFile(testTxtPath, []byte("This is not a PDF"), 0o644); err != nil {
		t.Fatalf("Failed to create test txt file: %v", err)
	}
	if err := os.Mkdir(testDirPath, 0o755); err != nil {
		t.Fatalf("Failed to create test directory: %v", err)
	}
	if err := os.WriteFile(largePDFPath, make([]byte, 1024*1024+1), 0o644); err != nil {
		t.Fatalf("Failed to create large test file: %v", err)
	}
	if err := os.WriteFile(emptyPDFPath, nil, 0o644); err != nil {
		t.Fatalf("Failed to create empty test file: %v", err)
	}
	if err := os.WriteFile(brokenPDFPath, []byte("fake pdf content"), 0o644); err != nil {
		t.Fatalf("Failed to create broken test file: %v", err)
	}

	reader := NewReader(1024 * 1024)

	tests := []struct {
		name   string
		path   string
		errMsg string
	}{
		{name: "empty path", path: "", errMsg: "path cannot be empty"},
		{name: "non-existent file", path: "/non/existent/file.pdf", errMsg: "file does not exist"},
		{name: "directory instead of file", path: testDirPath, errMsg: "path is a directory"},
		{name: "non-PDF file", path: testTxtPath, errMsg: "file is not a PDF"},
		{name: "file too large", path: largePDFPath, errMsg: "file too large"},
		{name: "empty file", path: emptyPDFPath, errMsg: "file is empty"},
		{name: "unparseable PDF", path: brokenPDFPath, errMsg: "failed to open PDF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := reader.ReadText(tt.path)
			if err == nil {
				t.Fatalf("ReadText() expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ReadText() error = %v, want error containing %v", err, tt.errMsg)
			}
			if result != nil {
				t.Errorf("ReadText() expected nil result on error, got %v", result)
			}
		})
	}
}

func TestReader_ReadText_PageOrderAndBlankPages(t *testing.T) {
	dir := t.TempDir()
	path := pdftest.Write(t, dir, "f931.pdf",
		"F.931 Suma de Rem. 1: 1.234,56",
		"",
		"CUIT: 30-71234567-8",
	)

	result, err := NewReader(1024 * 1024).ReadText(path)
	if err != nil {
		t.Fatalf("ReadText() unexpected error = %v", err)
	}

	if result.Pages != 3 {
		t.Errorf("Pages = %d, want 3", result.Pages)
	}
	if result.TextPages != 2 {
		t.Errorf("TextPages = %d, want 2", result.TextPages)
	}
	if result.Name != "f931.pdf" {
		t.Errorf("Name = %q, want f931.pdf", result.Name)
	}

	first := strings.Index(result.Text, "1.234,56")
	second := strings.Index(result.Text, "30-71234567-8")
	if first < 0 || second < 0 {
		t.Fatalf("Text is missing page content: %q", result.Text)
	}
	if first > second {
		t.Errorf("pages out of order: %q", result.Text)
	}
}

func TestReader_ReadText_NoText(t *testing.T) {
	path := pdftest.Write(t, t.TempDir(), "scan.pdf", "")

	result, err := NewReader(1024 * 1024).ReadText(path)
	if err != nil {
		t.Fatalf("ReadText() unexpected error = %v", err)
	}
	if strings.TrimSpace(result.Text) != "" {
		t.Errorf("Text = %q, want empty", result.Text)
	}
	if result.TextPages != 0 {
		t.Errorf("TextPages = %d, want 0", result.TextPages)
	}
}
