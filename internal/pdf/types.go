package pdf

// FileInfo describes a PDF found in a directory
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// TextResult is the linearized text of one PDF
type TextResult struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Pages     int    `json:"pages"`      // pages in the document
	TextPages int    `json:"text_pages"` // pages that contributed text
	Text      string `json:"text"`
	Truncated bool   `json:"truncated,omitempty"`
}

// ValidationResult reports whether a file is a readable PDF
type ValidationResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}
