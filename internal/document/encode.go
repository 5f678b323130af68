package document

import (
	"bytes"
	"encoding/json"

	"github.com/pricofy/doc-translation-worker/internal/domain"
)

// ContentType is the content type of encoded documents.
const ContentType = "application/json"

// Encode serializes a translated document with 2-space indentation.
// Non-ASCII and HTML characters are written as-is.
func Encode(doc *domain.ResponseDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
