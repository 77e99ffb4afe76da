package model

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"docqa/types"
)

// Parser extracts plain text from uploaded documents. Supported formats are
// PDF, Markdown and plain text; anything unrecognized is read as UTF-8 text.
type Parser struct {
	cropTop    float64
	cropBottom float64
}

func NewParser(cfg types.Config) *Parser {
	return &Parser{
		cropTop:    cfg.PDFCropTop,
		cropBottom: cfg.PDFCropBottom,
	}
}

func (p *Parser) ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return p.extractPDF(path)
	case ".md", ".markdown":
		return extractMarkdown(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read document: %w", err)
		}
		return string(data), nil
	}
}

func (p *Parser) extractPDF(path string) (string, error) {
	conf := api.LoadConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		return "", fmt.Errorf("validate pdf: %w", err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return "", fmt.Errorf("pdf page count: %w", err)
	}
	slog.Debug("extracting pdf", "path", path, "pages", pages)

	if p.cropTop > 0 || p.cropBottom > 0 {
		if err := cropHeaderFooter(path, p.cropTop, p.cropBottom, conf); err != nil {
			return "", err
		}
	}

	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	body, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

// cropHeaderFooter trims running headers and footers in place so they don't
// pollute the chunks. Margins are in points (1 pt = 1/72 inch).
func cropHeaderFooter(path string, top, bottom float64, conf *pdfmodel.Configuration) error {
	box, err := pdfmodel.ParseBox(fmt.Sprintf("%.2f 0 %.2f 0", top, bottom), pdftypes.POINTS)
	if err != nil {
		return fmt.Errorf("parse crop box: %w", err)
	}
	if err := api.CropFile(path, path, []string{"1-"}, box, conf); err != nil {
		return fmt.Errorf("crop pdf: %w", err)
	}
	return nil
}

// extractMarkdown renders a markdown file down to plain text, keeping block
// boundaries as blank lines so paragraph-aware splitting still works.
func extractMarkdown(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read markdown: %w", err)
	}
	return MarkdownToText(src), nil
}

// MarkdownToText flattens markdown to plain text via the goldmark AST.
func MarkdownToText(src []byte) string {
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(src))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.(type) {
			case *ast.Paragraph, *ast.Heading, *ast.ListItem,
				*ast.Blockquote, *ast.FencedCodeBlock, *ast.CodeBlock:
				sb.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString("\n")
			}
		case *ast.FencedCodeBlock:
			writeLines(&sb, t, src)
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			writeLines(&sb, t, src)
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			sb.Write(t.URL(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func writeLines(sb *strings.Builder, n ast.Node, src []byte) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
}
