// Package extract converts files into text, dispatched by extension.
// Paginated formats produce one blob per page; everything else produces a
// single flat blob.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupported marks a file extension no extractor handles.
var ErrUnsupported = errors.New("unsupported file extension")

// Document is the extracted text of one file.
type Document struct {
	Text  string   // flat content; unset for paginated formats
	Pages []string // per-page content; set only for paginated formats
}

// Paginated reports whether the document was extracted page by page.
func (d Document) Paginated() bool {
	return d.Pages != nil
}

// SupportedExtensions lists the extensions this package can extract,
// lower-case with leading dot.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
	".pptx": true,
	".xlsx": true,
	".odt":  true,
	".odp":  true,
	".ods":  true,
}

// File extracts the text content of the file at path.
func File(path string) (Document, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		text, err := Text(path)
		return Document{Text: text}, err
	case ".md", ".markdown":
		text, err := Markdown(path)
		return Document{Text: text}, err
	case ".html", ".htm":
		text, err := HTML(path)
		return Document{Text: text}, err
	case ".pdf":
		pages, err := PDF(path)
		return Document{Pages: pages}, err
	case ".docx":
		text, err := DOCX(path)
		return Document{Text: text}, err
	case ".pptx", ".xlsx", ".odt", ".odp", ".ods":
		text, err := Office(path)
		return Document{Text: text}, err
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}
