// Package document turns fetched source documents into translation items and
// encodes translated documents for storage.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/pricofy/doc-translation-worker/internal/domain"
)

// Field names accepted on source items.
const (
	FieldText           = "Text"
	FieldSourceLanguage = "SourceLanguageCode"
	FieldTargetLanguage = "TargetLanguageCode"
)

var (
	// ErrInvalidUTF8 is returned when the document is not UTF-8 text.
	ErrInvalidUTF8 = errors.New("document is not valid UTF-8")
	// ErrUnsupportedShape is returned for JSON that is neither an array nor an object.
	ErrUnsupportedShape = errors.New("document must be a JSON array of items or a single JSON object")
)

// Normalized is the result of normalizing a source document.
type Normalized struct {
	Items []domain.TranslationItem
	// Dropped holds the positions of source items skipped for missing text.
	Dropped []int
	// Total is the number of source items before dropping.
	Total int
}

// Normalize parses data into an ordered list of translation items.
//
// An array yields one item per element. A single object is a one-item
// document whose text is its Text field, or the object itself when Text is
// absent. Items with missing or empty text are dropped, not failed.
func Normalize(data []byte) (*Normalized, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}

	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch firstByte(raw) {
	case '[':
		return normalizeArray(raw)
	case '{':
		return normalizeObject(raw)
	default:
		return nil, ErrUnsupportedShape
	}
}

func normalizeArray(raw json.RawMessage) (*Normalized, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}

	out := &Normalized{
		Items: make([]domain.TranslationItem, 0, len(elems)),
		Total: len(elems),
	}

	for i, elem := range elems {
		if firstByte(elem) != '{' {
			return nil, fmt.Errorf("item %d: expected an object", i)
		}

		fields, err := decodeFields(elem)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		text, _, err := stringField(fields, FieldText)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		item, err := buildItem(text, fields)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if item == nil {
			out.Dropped = append(out.Dropped, i)
			continue
		}
		out.Items = append(out.Items, *item)
	}

	return out, nil
}

func normalizeObject(raw json.RawMessage) (*Normalized, error) {
	fields, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}

	text, present, err := stringField(fields, FieldText)
	if err != nil {
		return nil, err
	}
	if !present {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, fmt.Errorf("invalid JSON object: %w", err)
		}
		text = buf.String()
	}

	out := &Normalized{Total: 1, Items: []domain.TranslationItem{}}
	item, err := buildItem(text, fields)
	if err != nil {
		return nil, err
	}
	if item == nil {
		out.Dropped = []int{0}
		return out, nil
	}
	out.Items = append(out.Items, *item)
	return out, nil
}

// buildItem applies language defaults. It returns nil for empty text.
func buildItem(text string, fields map[string]json.RawMessage) (*domain.TranslationItem, error) {
	if text == "" {
		return nil, nil
	}

	source, _, err := stringField(fields, FieldSourceLanguage)
	if err != nil {
		return nil, err
	}
	target, _, err := stringField(fields, FieldTargetLanguage)
	if err != nil {
		return nil, err
	}

	if source == "" {
		source = domain.DefaultSourceLanguage
	}
	if target == "" {
		target = domain.DefaultTargetLanguage
	}

	return &domain.TranslationItem{
		Text:           text,
		SourceLanguage: source,
		TargetLanguage: target,
	}, nil
}

func decodeFields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	return fields, nil
}

// stringField reads a string field. A missing or null field reports
// present=false; any non-string value is an error.
func stringField(fields map[string]json.RawMessage, name string) (value string, present bool, err error) {
	raw, ok := fields[name]
	if !ok || firstByte(raw) == 'n' {
		return "", false, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", true, fmt.Errorf("field %s must be a string", name)
	}
	return value, true, nil
}

func firstByte(raw []byte) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
