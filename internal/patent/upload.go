package patent

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// InspectDocument checks an uploaded disclosure and returns its descriptor.
// PDFs must parse and contain at least one page; other files are accepted
// as opaque blobs. The content never reaches the prompt.
func InspectDocument(fileName string, data []byte) (doc UploadedDocument, err error) {
	doc = UploadedDocument{FileName: filepath.Base(strings.TrimSpace(fileName)), Size: int64(len(data))}
	if len(data) == 0 {
		return doc, &ValidationError{Problems: []string{"uploaded document is empty"}}
	}
	if !isPDF(fileName, data) {
		return doc, nil
	}
	// The pdf reader panics on some truncated inputs.
	defer func() {
		if r := recover(); r != nil {
			err = &ValidationError{Problems: []string{fmt.Sprintf("unreadable PDF: %v", r)}}
		}
	}()
	reader, rerr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if rerr != nil {
		return doc, &ValidationError{Problems: []string{"unreadable PDF: " + rerr.Error()}}
	}
	doc.Pages = reader.NumPage()
	if doc.Pages == 0 {
		return doc, &ValidationError{Problems: []string{"PDF has no pages"}}
	}
	return doc, nil
}

func isPDF(fileName string, data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-")) || strings.EqualFold(filepath.Ext(fileName), ".pdf")
}
