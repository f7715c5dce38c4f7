package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const wordMediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var (
	// ErrUnsupportedMediaType indicates neither the declared media type nor
	// the filename suffix matched a supported document format.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrEmptyDocument indicates extraction succeeded mechanically but
	// yielded no usable text (e.g. a scanned, image-only document).
	ErrEmptyDocument = errors.New("document contains no extractable text")
)

// ExtractionError wraps a parser library failure.
type ExtractionError struct {
	Format string
	Cause  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Format, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// Extractor converts raw document bytes into plain text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract dispatches on the declared media type, falling back to the
// filename suffix, and returns the document's plain text. Whitespace-only
// output is rejected as ErrEmptyDocument.
func (e *Extractor) Extract(data []byte, mediaType, filename string) (string, error) {
	name := strings.ToLower(filename)

	var text string
	switch {
	case mediaType == "application/pdf" || mediaType == "application/x-pdf" || strings.HasSuffix(name, ".pdf"):
		extracted, err := extractPDF(data)
		if err != nil {
			return "", &ExtractionError{Format: "pdf", Cause: err}
		}
		text = extracted
	case mediaType == wordMediaType || strings.HasSuffix(name, ".docx"):
		extracted, err := extractDOCX(data)
		if err != nil {
			return "", &ExtractionError{Format: "docx", Cause: err}
		}
		text = extracted
	case strings.HasPrefix(mediaType, "text/") || strings.HasSuffix(name, ".txt"):
		text = string(data)
	default:
		return "", ErrUnsupportedMediaType
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n")
	}
	return textBuilder.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX archive: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return docxXMLText(content), nil
}

var xmlEntityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

// docxXMLText pulls the text runs (w:t elements) out of the document XML,
// one line per paragraph.
func docxXMLText(xmlContent string) string {
	var text strings.Builder
	for _, paragraph := range strings.Split(xmlContent, "</w:p>") {
		rest := paragraph
		wrote := false
		for {
			start := strings.Index(rest, "<w:t")
			if start < 0 {
				break
			}
			rest = rest[start+len("<w:t"):]
			// Skip other elements sharing the prefix, e.g. <w:tab/>
			if len(rest) > 0 && rest[0] != '>' && rest[0] != ' ' && rest[0] != '/' {
				continue
			}
			closeIdx := strings.Index(rest, ">")
			if closeIdx < 0 {
				break
			}
			if strings.HasSuffix(rest[:closeIdx], "/") {
				rest = rest[closeIdx+1:]
				continue
			}
			rest = rest[closeIdx+1:]
			end := strings.Index(rest, "</w:t>")
			if end < 0 {
				break
			}
			text.WriteString(xmlEntityReplacer.Replace(rest[:end]))
			wrote = true
			rest = rest[end+len("</w:t>"):]
		}
		if wrote {
			text.WriteString("\n")
		}
	}
	return text.String()
}
