package descriptions

import "slices"

// Tool names exposed by the MCP server
const (
	ToolListDocuments        = "f931_list_documents"
	ToolValidateFile         = "f931_validate_file"
	ToolExtractFile          = "f931_extract_file"
	ToolConsolidateDirectory = "f931_consolidate_directory"
	ToolExportXLSX           = "f931_export_xlsx"
)

const (
	ListDocumentsDescription = `List the F.931 PDF declarations available for consolidation.

**When to use:** Before consolidating, to see which monthly declarations are in a directory.

**Examples:**
• "Which F.931 files are in /declaraciones/2024?"
• "List the PDFs I uploaded for ACME"

**Best practices:** Files are listed in name order, which is also the submission order used to break duplicate periods.`

	ValidateFileDescription = `Check that a file is a readable PDF before extracting it.

**When to use:** When a declaration is missing from the consolidated table or extraction reports an unreadable document.

**Examples:**
• "Is f931_marzo.pdf a valid PDF?"

**Best practices:** A valid PDF can still have no text layer. Scanned declarations need OCR before extraction.`

	ExtractFileDescription = `Extract the F.931 fields of a single declaration.

**When to use:** To inspect one monthly declaration: company, CUIT, period, employees and every remuneration and contribution amount.

**Why it's useful:** Each field reports the strategy that found it, so a surprising amount can be traced to the line it came from.

**Examples:**
• "What is the Rem. 9 total in f931_marzo.pdf?"
• "Which fields could not be read from scan-04.pdf?"

**Best practices:** Fields that were not found hold zero and appear under warnings. Check warnings before trusting a total.`

	ConsolidateDirectoryDescription = `Consolidate every F.931 declaration in a directory into one table per company.

**When to use:** To build the annual view: one row per field, one column per period, for each company found.

**Examples:**
• "Consolidate /declaraciones/2024 and show me the Rem. 1 row"
• "Which periods are missing for 30-71234567-8?"

**Common workflows:**
1. f931_list_documents → f931_consolidate_directory → review warnings → f931_export_xlsx

**Best practices:** Duplicate periods keep the first file in name order. Documents without a period are excluded unless positional periods are enabled.`

	ExportXLSXDescription = `Write the consolidated table of one company to an Excel workbook.

**When to use:** After consolidating, to hand the annual table to an accountant or import it elsewhere.

**Examples:**
• "Export the 2024 table for 30-71234567-8"

**Best practices:** Amounts are written as numbers with two decimals. The workbook is named Planilla_Anual_931_<company>.xlsx.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolListDocuments:        ListDocumentsDescription,
	ToolValidateFile:         ValidateFileDescription,
	ToolExtractFile:          ExtractFileDescription,
	ToolConsolidateDirectory: ConsolidateDirectoryDescription,
	ToolExportXLSX:           ExportXLSXDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns every tool name, sorted
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
