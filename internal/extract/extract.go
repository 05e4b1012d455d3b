package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"resume-roles/internal/shared/storage/object"
)

// ErrExtraction marks any failure to turn a document into text.
var ErrExtraction = errors.New("text extraction failed")

// Extractor turns a stored document into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, fileName string) (string, error)
}

// Documents extracts PDF text, plus DOCX when the file name says so.
type Documents struct{}

// Extract returns the document text. Every failure, including a parser panic on a
// malformed file, comes back as an error wrapping ErrExtraction; callers decide
// whether that means empty text or a sentinel label.
func (Documents) Extract(ctx context.Context, data []byte, fileName string) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("%w: %s: parser panic: %v", ErrExtraction, fileName, rec)
		}
	}()

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".docx":
		text, err = extractDOCX(data)
	default:
		text, err = extractPDF(data)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtraction, fileName, err)
	}
	return text, nil
}

// FromStore reads a persisted upload and extracts its text.
func FromStore(ctx context.Context, store object.ObjectStore, ex Extractor, storageKey string) (string, error) {
	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrExtraction, storageKey, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrExtraction, storageKey, err)
	}
	return ex.Extract(ctx, raw, storageKey)
}

// pageSource is the slice of *pdf.Reader that joinPages needs.
type pageSource interface {
	NumPage() int
	Page(num int) pdf.Page
}

func extractPDF(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty file")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	return joinPages(reader.NumPage(), func(i int) (string, error) {
		return pageText(reader, i)
	})
}

func pageText(src pageSource, i int) (string, error) {
	page := src.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// joinPages concatenates page texts 1..n with a single space; a page without text
// contributes an empty string, so n pages always produce n-1 separators.
func joinPages(n int, text func(i int) (string, error)) (string, error) {
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		t, err := text(i)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, " "), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()
	return stripDocxMarkup(doc.Editable().GetContent()), nil
}

// stripDocxMarkup keeps the character data of document.xml, breaking lines on
// paragraph and line-break ends. Malformed XML keeps whatever decoded cleanly.
func stripDocxMarkup(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	decoder.Strict = false
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteByte('\n')
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
