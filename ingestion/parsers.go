package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// DocumentPayload is raw file content plus its source path.
type DocumentPayload struct {
	Path string
	Data []byte
}

// Section is a contiguous span of document text under one heading.
type Section struct {
	Title string
	Level int
	Text  string
}

// ParsedDocument is the format-independent parse result.
type ParsedDocument struct {
	Title    string
	Sections []Section
}

// DocumentParser turns a payload into sections ready for chunking.
type DocumentParser interface {
	Parse(ctx context.Context, payload DocumentPayload) (*ParsedDocument, error)
}

// ParserFor selects a parser for the detected format.
func ParserFor(format DocumentFormat) (DocumentParser, error) {
	switch format {
	case FormatMarkdown:
		return markdownParser{}, nil
	case FormatPDF:
		return pdfParser{}, nil
	case FormatText:
		return textParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}

type markdownParser struct{}

// Parse walks the goldmark AST and groups block text under the nearest
// heading.
func (markdownParser) Parse(_ context.Context, payload DocumentPayload) (*ParsedDocument, error) {
	src := payload.Data
	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(src))

	fallbackTitle := strings.TrimSuffix(filepath.Base(payload.Path), filepath.Ext(payload.Path))

	parsed := &ParsedDocument{Title: fallbackTitle}
	current := Section{}
	var buf bytes.Buffer

	flush := func() {
		text := strings.TrimSpace(buf.String())
		if text != "" || current.Title != "" {
			current.Text = text
			parsed.Sections = append(parsed.Sections, current)
		}
		buf.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok {
			flush()
			title := string(heading.Text(src))
			if heading.Level == 1 && parsed.Title == fallbackTitle {
				parsed.Title = title
			}
			current = Section{Title: title, Level: heading.Level}
			continue
		}
		if text := blockText(n, src); text != "" {
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			buf.WriteString(text)
		}
	}
	flush()

	return parsed, nil
}

// blockText extracts the text content of a block node, recursing into
// children. Leaf blocks without inline children (code blocks) fall back to
// their raw lines.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.FirstChild() == nil {
		if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if c.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(blockText(c, src))
	}
	return strings.TrimSpace(buf.String())
}

type pdfParser struct{}

func (pdfParser) Parse(_ context.Context, payload DocumentPayload) (*ParsedDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(payload.Data), int64(len(payload.Data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, plain); err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}

	content := normalizePlainText(buf.String())
	title := firstNonEmptyLine(content)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(payload.Path), filepath.Ext(payload.Path))
	}

	return &ParsedDocument{
		Title:    title,
		Sections: []Section{{Title: title, Level: 1, Text: content}},
	}, nil
}

type textParser struct{}

func (textParser) Parse(_ context.Context, payload DocumentPayload) (*ParsedDocument, error) {
	content := normalizePlainText(string(payload.Data))
	title := firstNonEmptyLine(content)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(payload.Path), filepath.Ext(payload.Path))
	}

	return &ParsedDocument{
		Title:    title,
		Sections: []Section{{Title: title, Level: 1, Text: content}},
	}, nil
}

func normalizePlainText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func firstNonEmptyLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
