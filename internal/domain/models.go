// Package domain contains the core domain types for the translation worker.
package domain

// DefaultSourceLanguage is used when an item carries no SourceLanguageCode.
// The translation provider detects the language itself.
const DefaultSourceLanguage = "auto"

// DefaultTargetLanguage is used when an item carries no TargetLanguageCode.
const DefaultTargetLanguage = "en"

// Trigger identifies the source object announced by a storage notification.
type Trigger struct {
	Bucket string
	Key    string

	// RecordCount is the number of records in the envelope. Only the
	// first one is processed.
	RecordCount int
}

// TranslationItem is one unit of text to translate.
type TranslationItem struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
}

// TranslationResult is the outcome of translating one item.
type TranslationResult struct {
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

// ResponseDocument is the translated document written to the output bucket.
type ResponseDocument struct {
	OriginalFile string              `json:"original_file"`
	Translations []TranslationResult `json:"translations"`
}

// NewResponseDocument creates an empty document for the given source key.
// Translations is non-nil so an empty batch encodes as [].
func NewResponseDocument(originalFile string, capacity int) *ResponseDocument {
	return &ResponseDocument{
		OriginalFile: originalFile,
		Translations: make([]TranslationResult, 0, capacity),
	}
}

// Add appends a result, preserving processing order.
func (d *ResponseDocument) Add(r TranslationResult) {
	d.Translations = append(d.Translations, r)
}

// Response is returned to the invoking trigger.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}
