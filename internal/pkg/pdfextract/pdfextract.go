package pdfextract

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText extracts plain text from PDF bytes, page by page.
// Pages without content are skipped; a document yielding no text at
// all is reported as an error so ingestion can fail that file cleanly.
func ExtractText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty pdf input")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}

	var out strings.Builder
	total := reader.NumPage()
	for pageNum := 1; pageNum <= total; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			slog.Warn("skipping null pdf page", slog.Int("page", pageNum))
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract text from page %d failed: %w", pageNum, err)
		}
		out.WriteString(text)
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("no text content in pdf (%d pages)", total)
	}
	return out.String(), nil
}
