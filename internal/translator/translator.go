// Package translator provides the translation backends used by the worker.
package translator

import "context"

// Translator translates a single text.
// sourceLanguage may be "auto" to let the backend detect it.
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error)
}

// Func adapts a function to the Translator interface.
type Func func(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error)

// Translate calls f.
func (f Func) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	return f(ctx, text, sourceLanguage, targetLanguage)
}
