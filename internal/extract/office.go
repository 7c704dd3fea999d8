package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// Office extracts the flat office and OpenDocument formats (pptx, xlsx, odt,
// odp, ods). These are all zip archives holding XML; paragraphs are joined
// with newlines.
func Office(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pptx":
		return pptxText(&zr.Reader)
	case ".xlsx":
		return xlsxText(&zr.Reader)
	case ".odt", ".odp", ".ods":
		return odfText(&zr.Reader)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// pptxText collects slide text in slide order. In DrawingML a paragraph is
// an <a:p> element and its runs carry text in <a:t>.
func pptxText(zr *zip.Reader) (string, error) {
	var slides []*zip.File
	for _, f := range zr.File {
		dir, name := filepath.Split(f.Name)
		if dir == "ppt/slides/" && strings.HasPrefix(name, "slide") && strings.HasSuffix(name, ".xml") {
			slides = append(slides, f)
		}
	}
	// Numeric order, not lexical: slide10.xml sorts after slide9.xml.
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	var paragraphs []string
	for _, f := range slides {
		ps, err := zipEntryParagraphs(f, "t", "p")
		if err != nil {
			return "", fmt.Errorf("slide %s: %w", f.Name, err)
		}
		paragraphs = append(paragraphs, ps...)
	}
	return strings.Join(paragraphs, "\n"), nil
}

func slideNumber(name string) int {
	base := strings.TrimSuffix(filepath.Base(name), ".xml")
	base = strings.TrimPrefix(base, "slide")
	n := 0
	for _, r := range base {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// xlsxText extracts the shared-string table, one string per line. Cell text
// in a workbook lives in <si> items under sharedStrings.xml.
func xlsxText(zr *zip.Reader) (string, error) {
	for _, f := range zr.File {
		if f.Name != "xl/sharedStrings.xml" {
			continue
		}
		paragraphs, err := zipEntryParagraphs(f, "t", "si")
		if err != nil {
			return "", err
		}
		return strings.Join(paragraphs, "\n"), nil
	}
	// A workbook with inline or purely numeric cells has no shared strings.
	return "", nil
}

// odfText extracts OpenDocument content.xml; <text:p> and <text:h> are the
// paragraph units and their character data is the text.
func odfText(zr *zip.Reader) (string, error) {
	for _, f := range zr.File {
		if f.Name != "content.xml" {
			continue
		}
		paragraphs, err := zipEntryParagraphs(f, "", "p", "h")
		if err != nil {
			return "", err
		}
		return strings.Join(paragraphs, "\n"), nil
	}
	return "", fmt.Errorf("content.xml missing from archive")
}

func zipEntryParagraphs(f *zip.File, textTag string, paraTags ...string) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return decodeParagraphs(rc, textTag, paraTags...)
}

// decodeParagraphs streams an XML document and gathers the character data of
// each paragraph element. textTag, when non-empty, restricts collection to
// character data inside that element (covers the OOXML formats where text
// sits only in <t> runs); when empty, all character data inside a paragraph
// counts (the ODF layout). Namespaces are ignored; local names are enough to
// tell the elements apart.
func decodeParagraphs(r io.Reader, textTag string, paraTags ...string) ([]string, error) {
	isPara := func(local string) bool {
		for _, t := range paraTags {
			if t == local {
				return true
			}
		}
		return false
	}

	var (
		paragraphs []string
		current    strings.Builder
		paraDepth  int
		textDepth  int
	)

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if isPara(t.Name.Local) {
				paraDepth++
			}
			if textTag != "" && t.Name.Local == textTag && paraDepth > 0 {
				textDepth++
			}
		case xml.EndElement:
			if textTag != "" && t.Name.Local == textTag && textDepth > 0 {
				textDepth--
			}
			if isPara(t.Name.Local) && paraDepth > 0 {
				paraDepth--
				if paraDepth == 0 {
					if text := strings.TrimSpace(current.String()); text != "" {
						paragraphs = append(paragraphs, text)
					}
					current.Reset()
				}
			}
		case xml.CharData:
			if paraDepth == 0 {
				continue
			}
			if textTag == "" || textDepth > 0 {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}
