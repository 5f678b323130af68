// Package chunker groups texts into contiguous spans by estimated token count.
package chunker

// DefaultMaxTokens is the default maximum tokens per span.
// Keeps a concurrent wave of provider calls within typical per-second quotas.
const DefaultMaxTokens = 3000

// Span is a half-open range [Start, End) of text positions.
type Span struct {
	Start int
	End   int
}

// Len returns the number of texts in the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// EstimateTokens estimates the token count for a text.
// Uses a simple heuristic: ~4 bytes per token.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len(text) / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

// SpansByTokens splits texts into contiguous spans that don't exceed maxTokens.
// Each text is kept whole; a text larger than maxTokens gets its own span.
// Concatenating the spans in order covers every position exactly once.
func SpansByTokens(texts []string, maxTokens int) []Span {
	if len(texts) == 0 {
		return nil
	}

	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	var spans []Span
	start := 0
	currentTokens := 0

	for i, text := range texts {
		textTokens := EstimateTokens(text)

		if textTokens > maxTokens {
			if i > start {
				spans = append(spans, Span{Start: start, End: i})
			}
			spans = append(spans, Span{Start: i, End: i + 1})
			start = i + 1
			currentTokens = 0
			continue
		}

		if currentTokens+textTokens > maxTokens && i > start {
			spans = append(spans, Span{Start: start, End: i})
			start = i
			currentTokens = 0
		}

		currentTokens += textTokens
	}

	if start < len(texts) {
		spans = append(spans, Span{Start: start, End: len(texts)})
	}

	return spans
}
