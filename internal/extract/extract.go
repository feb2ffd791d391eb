// Package extract pulls plain text out of uploaded files.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	TypeText = "text/plain"
	TypePDF  = "application/pdf"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type (only PDF and TXT allowed)")
	ErrInvalidText     = errors.New("text file is not valid UTF-8")
)

// DetectType returns the content type for an upload, falling back to the
// file extension when the client sent none.
func DetectType(filename, contentType string) (string, error) {
	if contentType == "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".txt":
			contentType = TypeText
		case ".pdf":
			contentType = TypePDF
		}
	}
	// Drop parameters such as "; charset=utf-8".
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	switch contentType {
	case TypeText, TypePDF:
		return contentType, nil
	default:
		return "", ErrUnsupportedType
	}
}

// Text returns the plain text of content.
func Text(contentType string, content []byte) (string, error) {
	switch contentType {
	case TypePDF:
		return pdfText(content)
	case TypeText:
		if !utf8.Valid(content) {
			return "", ErrInvalidText
		}
		return string(content), nil
	default:
		return "", ErrUnsupportedType
	}
}

func pdfText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var b strings.Builder
	for n := 1; n <= r.NumPage(); n++ {
		page := r.Page(n)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Unreadable pages are skipped rather than failing the upload.
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}
