package extract

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// ErrPageOutOfRange marks a single-page request beyond the document's pages.
var ErrPageOutOfRange = errors.New("pdf page out of range")

// lineThreshold is the vertical distance (in layout units) below which two
// positioned fragments are treated as the same line.
const lineThreshold = 2.0

// PDF extracts a PDF file page by page, one text blob per page.
func PDF(path string) (pages []string, err error) {
	defer recoverPDF(&err)

	f, r, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	return pdfPages(r), nil
}

// PDFPage extracts a single page (1-based) from already-loaded document
// bytes. Used by the query path, which holds the raw bytes and re-extracts
// only the requested pages.
func PDFPage(data []byte, pageNum int) (text string, err error) {
	defer recoverPDF(&err)

	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	if pageNum < 1 || pageNum > r.NumPage() {
		return "", fmt.Errorf("%w: page %d, document has %d", ErrPageOutOfRange, pageNum, r.NumPage())
	}
	page := r.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}
	return mergeLines(page.Content().Text), nil
}

func pdfPages(r *pdflib.Reader) []string {
	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, mergeLines(page.Content().Text))
	}
	return pages
}

// mergeLines reassembles positioned text fragments into lines. Fragments
// whose vertical position differs by less than lineThreshold join the
// current line separated by a space; a larger delta starts a new line.
func mergeLines(items []pdflib.Text) string {
	if len(items) == 0 {
		return ""
	}

	var (
		lines    []string
		current  strings.Builder
		currentY float64
	)

	for _, item := range items {
		if item.S == "" {
			continue
		}
		if current.Len() == 0 {
			current.WriteString(item.S)
			currentY = item.Y
			continue
		}
		if math.Abs(item.Y-currentY) > lineThreshold {
			lines = append(lines, strings.TrimSpace(current.String()))
			current.Reset()
			current.WriteString(item.S)
			currentY = item.Y
			continue
		}
		current.WriteByte(' ')
		current.WriteString(item.S)
	}
	if current.Len() > 0 {
		lines = append(lines, strings.TrimSpace(current.String()))
	}

	return strings.Join(lines, "\n")
}

// recoverPDF converts ledongthuc/pdf panics on malformed documents into
// errors so one bad file cannot take down a crawl.
func recoverPDF(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed pdf: %v", r)
	}
}
