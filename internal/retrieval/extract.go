// ABOUTME: Text extraction boundary for uploaded documents
// ABOUTME: Default extractor handles plain UTF-8 text; richer formats plug in behind the interface
package retrieval

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Extractor turns raw document bytes into indexable text.
type Extractor interface {
	Extract(data []byte, filename string) (string, error)
}

// PlainTextExtractor accepts UTF-8 text documents.
type PlainTextExtractor struct{}

// Extract validates and returns the document text. Empty and binary
// inputs fail gracefully; the caller converts the error into structured
// data for the conversation.
func (PlainTextExtractor) Extract(data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("document is empty")
	}
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return "", fmt.Errorf("cannot extract text from %q: not a UTF-8 text document", filename)
	}
	return string(data), nil
}
