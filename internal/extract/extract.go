// Package extract turns files into plain text for indexing.
//
// Dispatch is by file extension: .txt and .md are read verbatim, .xml and
// .xhtml yield the concatenated character data of a streaming parse, and
// .pdf yields the concatenated per-page text. Anything else is a format
// error the indexer counts and skips.
package extract

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	derrors "github.com/Aman-CERP/docdex/internal/errors"
)

// Text returns the extracted plain-text content of the file at path.
func Text(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", derrors.FormatError(derrors.ErrCodeNoExtension, path, nil)
	}

	switch ext {
	case ".txt", ".md":
		return textFile(path)
	case ".xml", ".xhtml":
		return xmlFile(path)
	case ".pdf":
		return pdfFile(path)
	default:
		return "", derrors.FormatError(derrors.ErrCodeUnsupportedType, path,
			fmt.Errorf("unsupported extension %q", ext))
	}
}

// Supported reports whether a file with this path's extension can be
// extracted at all. Used by the watcher to ignore irrelevant events.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".xml", ".xhtml", ".pdf":
		return true
	default:
		return false
	}
}

// textFile reads the raw file bytes as text.
func textFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", derrors.IOError(path, err)
	}
	return string(data), nil
}

// xmlFile concatenates every character-data run of a streaming parse,
// each run followed by a single space so terms from adjacent elements
// never fuse together.
func xmlFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", derrors.IOError(path, err)
	}
	defer func() { _ = f.Close() }()

	var content strings.Builder
	decoder := xml.NewDecoder(f)
	// XHTML references entities the decoder does not know; let them through.
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return content.String(), nil
		}
		if err != nil {
			return "", derrors.FormatError(derrors.ErrCodeMalformedContent, path, err)
		}
		if chars, ok := token.(xml.CharData); ok {
			content.Write(chars)
			content.WriteByte(' ')
		}
	}
}

// pdfFile concatenates the per-page extracted text, each page followed by
// a single space.
func pdfFile(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", derrors.FormatError(derrors.ErrCodeMalformedContent, path, err)
	}
	defer func() { _ = f.Close() }()

	var content strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", derrors.FormatError(derrors.ErrCodeMalformedContent, path, err)
		}
		content.WriteString(text)
		content.WriteByte(' ')
	}
	return content.String(), nil
}
