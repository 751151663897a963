package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/f931-consolidator/internal/batch"
	"github.com/a3tai/f931-consolidator/internal/config"
	"github.com/a3tai/f931-consolidator/internal/consolidate"
	"github.com/a3tai/f931-consolidator/internal/descriptions"
	"github.com/a3tai/f931-consolidator/internal/export"
	"github.com/a3tai/f931-consolidator/internal/form931"
	"github.com/a3tai/f931-consolidator/internal/pdf"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	processor  *batch.Processor
	exporter   *export.Service
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, processor *batch.Processor,
	exporter *export.Service, logger *slog.Logger,
) (*Server, error) {
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		processor:  processor,
		exporter:   exporter,
		logger:     logger,
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	listTool := mcp.NewTool(
		descriptions.ToolListDocuments,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolListDocuments)),
		mcp.WithString("directory",
			mcp.Description("Directory to list (uses the configured directory if empty)"),
		),
	)
	s.mcpServer.AddTool(listTool, s.handleListDocuments)

	validateTool := mcp.NewTool(
		descriptions.ToolValidateFile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolValidateFile)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidateFile)

	extractTool := mcp.NewTool(
		descriptions.ToolExtractFile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolExtractFile)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the F.931 PDF, absolute or relative to the configured directory"),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleExtractFile)

	consolidateTool := mcp.NewTool(
		descriptions.ToolConsolidateDirectory,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolConsolidateDirectory)),
		mcp.WithString("directory",
			mcp.Description("Directory of F.931 PDFs (uses the configured directory if empty)"),
		),
		mcp.WithString("company",
			mcp.Description("Only show this company (CUIT or name)"),
		),
	)
	s.mcpServer.AddTool(consolidateTool, s.handleConsolidateDirectory)

	exportTool := mcp.NewTool(
		descriptions.ToolExportXLSX,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolExportXLSX)),
		mcp.WithString("directory",
			mcp.Description("Directory of F.931 PDFs (uses the configured directory if empty)"),
		),
		mcp.WithString("company",
			mcp.Description("Company to export (CUIT or name); every company if empty"),
		),
		mcp.WithString("output",
			mcp.Description("Directory for the workbooks, inside the configured directory (uses the configured output if empty)"),
		),
	)
	s.mcpServer.AddTool(exportTool, s.handleExportXLSX)
}

// stringArg returns an optional string argument
func stringArg(request mcp.CallToolRequest, name string) string {
	if v, ok := request.GetArguments()[name].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// directoryArg resolves the optional "directory" argument inside the
// configured directory
func (s *Server) directoryArg(request mcp.CallToolRequest) (string, error) {
	dir := stringArg(request, "directory")
	if dir == "" {
		return s.pdfService.Root(), nil
	}
	return s.pdfService.ResolvePath(dir)
}

// Handler functions
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := s.directoryArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	files, err := s.pdfService.ListDocuments(dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No PDF files found in directory: %s", dir)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d PDF file(s) in directory: %s\n\nFiles:\n", len(files), dir)
	for i, file := range files {
		fmt.Fprintf(&b, "%d. %s (%d bytes, modified %s)\n", i+1, file.Name, file.Size, file.ModifiedTime)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.pdfService.ResolvePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ValidateDocument(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !result.Valid {
		return mcp.NewToolResultText(fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("PDF file %s is valid and readable (%d pages)", result.Path, result.Pages)), nil
}

func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.pdfService.ResolvePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.processor.ExtractDocument(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Debug("mcp.extract.ok", "path", path, "period", rec.PeriodKey, "warnings", len(rec.Warnings))

	return mcp.NewToolResultText(s.formatRecord(rec)), nil
}

func (s *Server) handleConsolidateDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	dir, err := s.directoryArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.processor.ProcessDirectory(ctx, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tables, err := selectTables(result, stringArg(request, "company"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Consolidated %d document(s) from %s\n", len(result.Records), dir)
	fmt.Fprintf(&b, "Companies: %d, excluded: %d, duplicates skipped: %d\n",
		len(result.Consolidation.Order), len(result.Consolidation.Excluded), len(result.Consolidation.Skipped))
	for _, t := range tables {
		b.WriteString("\n")
		b.WriteString(s.formatTable(t))
	}
	b.WriteString(s.formatWarnings(result.Warnings))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleExportXLSX(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := s.directoryArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	output := s.config.OutputDir
	if out := stringArg(request, "output"); out != "" {
		if output, err = s.pdfService.ResolvePath(out); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if output == "" {
		output = dir
	}

	result, err := s.processor.ProcessDirectory(ctx, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tables, err := selectTables(result, stringArg(request, "company"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(tables) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no declarations with a period found in %s", dir)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Exported %d workbook(s):\n", len(tables))
	for _, t := range tables {
		path, err := s.exporter.WriteFile(t, output)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fmt.Fprintf(&b, "• %s: %s (%d periods)\n", t.Company, path, len(t.Columns))
	}
	b.WriteString(s.formatWarnings(result.Warnings))
	return mcp.NewToolResultText(b.String()), nil
}

// selectTables returns every company's table, or only the named company's
func selectTables(result *batch.Result, company string) ([]*consolidate.Table, error) {
	if company == "" {
		return result.Tables(), nil
	}
	t, ok := result.Table(company)
	if !ok {
		return nil, fmt.Errorf("company not found: %s", company)
	}
	return []*consolidate.Table{t}, nil
}

// Formatting methods
func (s *Server) formatRecord(rec form931.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "F.931 declaration: %s\n", rec.Origin)
	fmt.Fprintf(&b, "Company: %s\n", rec.CompanyKey)
	fmt.Fprintf(&b, "Period: %s\n\nFields:\n", rec.PeriodKey)

	for _, name := range s.processor.Extractor().Rules().Names() {
		v := rec.Get(name)
		if v.Found {
			fmt.Fprintf(&b, "• %s: %s [%s]\n", name, v, v.Strategy)
		} else {
			fmt.Fprintf(&b, "• %s: %s [not found]\n", name, v)
		}
	}

	b.WriteString(s.formatWarnings(rec.Warnings))
	return b.String()
}

func (s *Server) formatTable(t *consolidate.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s (%d periods)\n", t.Company, len(t.Columns))
	fmt.Fprintf(&b, "%s | %s\n", export.HeaderLabel, strings.Join(t.Columns, " | "))
	for i, row := range t.Rows {
		cells := make([]string, len(t.Cells[i]))
		for j, v := range t.Cells[i] {
			cells[j] = v.String()
		}
		fmt.Fprintf(&b, "%s | %s\n", row, strings.Join(cells, " | "))
	}
	return b.String()
}

func (s *Server) formatWarnings(warnings []form931.Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\nWarnings (%d):\n", len(warnings))
	for _, w := range warnings {
		fmt.Fprintf(&b, "• %s\n", w.Error())
	}
	return b.String()
}

// Run serves MCP over standard I/O until ctx is cancelled or stdin closes
func (s *Server) Run(ctx context.Context) error {
	s.logger.Debug("mcp.stdio.start", "directory", s.config.Directory, "output", s.config.OutputDir)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
