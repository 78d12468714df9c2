// Package extract converts uploaded file bytes into normalized plain text.
// Structure (pages, paragraphs, headings) is flattened to whitespace; only
// the visible text survives.
package extract

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrEmptyExtraction      = errors.New("no text found in document")
	ErrCorruptFile          = errors.New("file is corrupt or malformed")
)

// Extract converts raw bytes to normalized text based on the declared
// extension (".pdf", ".docx", ".txt", lowercased with leading dot). The
// extension gate runs before any parsing is attempted.
func Extract(data []byte, ext string) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(ext) {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".txt":
		// Text files must already be UTF-8. Decoding anything else would
		// substitute replacement characters and the stored chunks would no
		// longer reconstitute the file's text.
		if !utf8.Valid(data) {
			return "", ErrCorruptFile
		}
		text = string(data)
	default:
		return "", ErrUnsupportedExtension
	}
	if err != nil {
		return "", err
	}

	text = normalize(text)
	if text == "" {
		return "", ErrEmptyExtraction
	}
	return text, nil
}

// normalize unifies line endings, strips trailing space per line, and
// collapses runs of blank lines.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	var b strings.Builder
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blank++
			continue
		}
		if b.Len() > 0 {
			if blank > 0 {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		blank = 0
		b.WriteString(line)
	}
	return strings.TrimSpace(b.String())
}
