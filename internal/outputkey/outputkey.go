// Package outputkey derives the destination object key for a translated document.
package outputkey

import "strings"

// Suffix replaces ".json" in derived keys.
const Suffix = "-translated.json"

// Derive returns the output key for sourceKey.
//
// The containment test is case-insensitive but the substitution is not, and
// every occurrence of ".json" is replaced, not only the extension:
//
//	input/hello.json   -> input/hello-translated.json
//	input/hello        -> input/hello-translated.json
//	a.json.b.json      -> a-translated.json.b-translated.json
//	a.JSON             -> a.JSON
func Derive(sourceKey string) string {
	if strings.Contains(strings.ToLower(sourceKey), ".json") {
		return strings.ReplaceAll(sourceKey, ".json", Suffix)
	}
	return sourceKey + Suffix
}
