package translator

import (
	wlg "github.com/abadojack/whatlanggo"
)

// DetectLanguage returns the ISO-639-1 code of text. ok is false when the
// detection is unreliable or the language has no two-letter code.
func DetectLanguage(text string) (code string, ok bool) {
	if len(text) == 0 {
		return "", false
	}
	info := wlg.Detect(text)
	if !info.IsReliable() {
		return "", false
	}
	iso6391 := info.Lang.Iso6391()
	if iso6391 == "" {
		return "", false
	}
	return iso6391, true
}
