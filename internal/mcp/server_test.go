package mcp

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/f931-consolidator/internal/batch"
	"github.com/a3tai/f931-consolidator/internal/config"
	"github.com/a3tai/f931-consolidator/internal/export"
	"github.com/a3tai/f931-consolidator/internal/form931"
	"github.com/a3tai/f931-consolidator/internal/pdf"
	"github.com/a3tai/f931-consolidator/internal/pdf/pdftest"
)

const declaration = `F.931 - Declaracion Jurada SICOSS
Razon Social: ACME SA
CUIT: 30-71234567-8
Mes - Ano: %s
Empleados en nomina: 4
Suma de Rem. 1: 1.000,50
Suma de Rem. 9: 900,00
312-L.R.T 45,00`

func declarationFor(period string) string {
	return strings.Replace(declaration, "%s", period, 1)
}

// textSource wraps the real PDF service but serves canned text by file name,
// so handlers are tested independently of PDF text decoding
type textSource struct {
	*pdf.Service
	texts map[string]string
}

func (s *textSource) ReadDocument(path string) (*pdf.TextResult, error) {
	res, err := s.Service.ReadDocument(path)
	if err != nil {
		return nil, err
	}
	if text, ok := s.texts[res.Name]; ok {
		res.Text = text
	}
	return res, nil
}

type testEnv struct {
	dir    string
	out    string
	server *Server
}

func newTestEnv(t *testing.T, texts map[string]string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	for name := range texts {
		pdftest.Write(t, dir, name, "placeholder")
	}

	cfg := &config.Config{
		Mode:        config.ModeStdio,
		Directory:   dir,
		OutputDir:   filepath.Join(dir, "out"),
		Workers:     2,
		MaxFileSize: 1024 * 1024,
		Version:     "1.0.0",
		ServerName:  "test-server",
		LogLevel:    "info",
	}
	logger := slog.New(slog.DiscardHandler)

	pdfService, err := pdf.NewService(cfg.MaxFileSize, cfg.Directory)
	require.NoError(t, err)

	processor := batch.NewProcessor(
		form931.NewExtractor(form931.DefaultRuleSet()),
		batch.WithSource(&textSource{Service: pdfService, texts: texts}),
		batch.WithWorkers(cfg.Workers),
		batch.WithLogger(logger),
	)

	server, err := NewServer(cfg, pdfService, processor, export.NewService(logger), logger)
	require.NoError(t, err)
	return &testEnv{dir: dir, out: cfg.OutputDir, server: server}
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestNewServer(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Directory: dir, ServerName: "test-server", Version: "1.0.0", MaxFileSize: 1024}
	pdfService, err := pdf.NewService(cfg.MaxFileSize, dir)
	require.NoError(t, err)
	processor := batch.NewProcessor(form931.NewExtractor(form931.DefaultRuleSet()))

	tests := []struct {
		name       string
		pdfService *pdf.Service
		processor  *batch.Processor
		wantErr    string
	}{
		{name: "valid", pdfService: pdfService, processor: processor},
		{name: "nil pdf service", processor: processor, wantErr: "pdfService cannot be nil"},
		{name: "nil processor", pdfService: pdfService, wantErr: "processor cannot be nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(cfg, tt.pdfService, tt.processor, nil, nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Same(t, cfg, server.config)
			assert.NotNil(t, server.mcpServer)
			assert.NotNil(t, server.exporter)
			assert.NotNil(t, server.logger)
		})
	}
}

func TestServer_HandleListDocuments(t *testing.T) {
	env := newTestEnv(t, map[string]string{"b.pdf": "", "a.pdf": ""})

	result, err := env.server.handleListDocuments(context.Background(), callRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Found 2 PDF file(s)")
	assert.Less(t, strings.Index(text, "a.pdf"), strings.Index(text, "b.pdf"))
}

func TestServer_HandleListDocuments_OutsideDirectory(t *testing.T) {
	env := newTestEnv(t, nil)

	result, err := env.server.handleListDocuments(context.Background(),
		callRequest(map[string]interface{}{"directory": t.TempDir()}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractTextFromResult(result), "outside configured directory")
}

func TestServer_HandleValidateFile(t *testing.T) {
	env := newTestEnv(t, map[string]string{"good.pdf": ""})
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, "bad.pdf"), []byte("not a pdf"), 0o644))

	result, err := env.server.handleValidateFile(context.Background(),
		callRequest(map[string]interface{}{"path": "good.pdf"}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "is valid and readable")

	result, err = env.server.handleValidateFile(context.Background(),
		callRequest(map[string]interface{}{"path": "bad.pdf"}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "PDF validation failed")

	result, err = env.server.handleValidateFile(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleExtractFile(t *testing.T) {
	env := newTestEnv(t, map[string]string{"marzo.pdf": declarationFor("03/2024")})

	result, err := env.server.handleExtractFile(context.Background(),
		callRequest(map[string]interface{}{"path": "marzo.pdf"}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Company: 30-71234567-8")
	assert.Contains(t, text, "Period: 03/2024")
	assert.Contains(t, text, form931.FieldRem1+": 1000.50 [anchored:")
	assert.Contains(t, text, form931.FieldEmployees+": 4")
	assert.Contains(t, text, form931.FieldSeguroVida+": 0.00 [not found]")
	assert.Contains(t, text, "MISSING_FIELD")
}

func TestServer_HandleExtractFile_RejectsEscape(t *testing.T) {
	env := newTestEnv(t, nil)

	result, err := env.server.handleExtractFile(context.Background(),
		callRequest(map[string]interface{}{"path": "../../etc/passwd"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleConsolidateDirectory(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"1_abril.pdf": declarationFor("04/2024"),
		"2_marzo.pdf": declarationFor("03/2024"),
		"3_repe.pdf":  declarationFor("03/2024"),
		"4_vacio.pdf": "",
	})

	result, err := env.server.handleConsolidateDirectory(context.Background(), callRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Consolidated 4 document(s)")
	assert.Contains(t, text, "Companies: 1, excluded: 1, duplicates skipped: 1")
	assert.Contains(t, text, "Company: 30-71234567-8 (2 periods)")
	assert.Contains(t, text, export.HeaderLabel+" | 03/2024 | 04/2024")
	assert.Contains(t, text, form931.FieldRem1+" | 1000.50 | 1000.50")
	assert.Contains(t, text, "DUPLICATE_PERIOD")
	assert.Contains(t, text, "UNREADABLE_DOCUMENT")
}

func TestServer_HandleConsolidateDirectory_UnknownCompany(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.pdf": declarationFor("03/2024")})

	result, err := env.server.handleConsolidateDirectory(context.Background(),
		callRequest(map[string]interface{}{"company": "20-00000000-1"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractTextFromResult(result), "company not found")
}

func TestServer_HandleExportXLSX(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"a.pdf": declarationFor("03/2024"),
		"b.pdf": declarationFor("04/2024"),
	})

	result, err := env.server.handleExportXLSX(context.Background(),
		callRequest(map[string]interface{}{"company": "30-71234567-8"}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	path := filepath.Join(env.out, export.FileName("30-71234567-8"))
	assert.Contains(t, extractTextFromResult(result), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	table, err := export.ReadXLSX(data, form931.DefaultRuleSet())
	require.NoError(t, err)
	assert.Equal(t, []string{"03/2024", "04/2024"}, table.Columns)
}

func TestServer_HandleExportXLSX_CustomOutput(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.pdf": declarationFor("03/2024")})

	result, err := env.server.handleExportXLSX(context.Background(),
		callRequest(map[string]interface{}{"output": "planillas"}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))
	assert.FileExists(t, filepath.Join(env.dir, "planillas", export.FileName("30-71234567-8")))

	result, err = env.server.handleExportXLSX(context.Background(),
		callRequest(map[string]interface{}{"output": t.TempDir()}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleExportXLSX_NothingToExport(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.pdf": ""})

	result, err := env.server.handleExportXLSX(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractTextFromResult(result), "no declarations with a period")
}

func TestServer_Run_CancelledContext(t *testing.T) {
	env := newTestEnv(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, env.server.Run(ctx))
}

// extractTextFromResult extracts text content from MCP result
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
