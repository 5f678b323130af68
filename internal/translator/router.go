package translator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/rs/zerolog"

	"github.com/pricofy/doc-translation-worker/internal/domain"
)

// Language groups
var (
	// Romance languages supported by the romance-en / en-romance models.
	// All these languages can translate to/from English via the romance Lambdas.
	romanceLanguages = map[string]bool{
		// Spanish variants
		"es": true, "es_AR": true, "es_CL": true, "es_CO": true, "es_CR": true,
		"es_DO": true, "es_EC": true, "es_ES": true, "es_GT": true, "es_HN": true,
		"es_MX": true, "es_NI": true, "es_PA": true, "es_PE": true, "es_PR": true,
		"es_SV": true, "es_UY": true, "es_VE": true,
		// French variants
		"fr": true, "fr_BE": true, "fr_CA": true, "fr_FR": true,
		"wa":  true, // Walloon
		"frp": true, // Franco-Provençal
		"oc":  true, // Occitan
		// Italian variants
		"it":  true,
		"co":  true, // Corsican
		"nap": true, // Neapolitan
		"scn": true, // Sicilian
		"vec": true, // Venetian
		// Portuguese variants
		"pt": true, "pt_BR": true, "pt_PT": true,
		"gl":  true, // Galician
		"mwl": true, // Mirandese
		// Catalan and related
		"ca":  true, // Catalan
		"an":  true, // Aragonese
		"lad": true, // Ladino
		// Romanian
		"ro": true,
		// Other Romance
		"la":  true, // Latin
		"rm":  true, // Romansh
		"lld": true, // Ladin
		"fur": true, // Friulian
		"lij": true, // Ligurian
		"lmo": true, // Lombard
		"sc":  true, // Sardinian
	}

	// All supported languages (romance + german + english)
	supportedLanguages = map[string]bool{}
)

func init() {
	for lang := range romanceLanguages {
		supportedLanguages[lang] = true
	}
	supportedLanguages["de"] = true
	supportedLanguages["en"] = true
}

// LambdaInvoker is the subset of the Lambda client used by Router.
type LambdaInvoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

var _ LambdaInvoker = (*lambda.Client)(nil)

// DetectFunc resolves the language of a text. ok is false when the
// language cannot be determined reliably.
type DetectFunc func(text string) (code string, ok bool)

// Router translates by invoking dedicated translator Lambda functions,
// pivoting through English when no direct model exists for a pair.
type Router struct {
	lambdaClient LambdaInvoker
	prefix       string
	detect       DetectFunc
}

// TranslatorRequest is the request format for translator Lambdas (chunked mode).
type TranslatorRequest struct {
	Chunks     [][]string `json:"chunks"`
	TargetLang string     `json:"target_lang,omitempty"` // Required for en-romance
}

// TranslatorResponse is the response format from translator Lambdas (chunked mode).
type TranslatorResponse struct {
	Translations [][]string `json:"translations"`
	Error        string     `json:"error,omitempty"`
}

type routeStep struct {
	lambdaName string
	targetLang string
}

// NewRouter creates a Router. Function names are "<prefix>-<model>",
// e.g. "pricofy-translator-romance-en".
func NewRouter(client LambdaInvoker, prefix string) *Router {
	return &Router{
		lambdaClient: client,
		prefix:       prefix,
		detect:       DetectLanguage,
	}
}

// IsValidPair checks if a language pair can be translated.
func (r *Router) IsValidPair(source, target string) bool {
	return supportedLanguages[source] && supportedLanguages[target] && source != target
}

// GetSupportedLanguages returns a list of all supported language codes.
func GetSupportedLanguages() []string {
	langs := make([]string, 0, len(supportedLanguages))
	for lang := range supportedLanguages {
		langs = append(langs, lang)
	}
	return langs
}

func (r *Router) function(model string) string {
	return r.prefix + "-" + model
}

// getRoute determines which Lambda(s) to call for a translation, in order.
// targetLang is only set for the en-romance model.
func (r *Router) getRoute(source, target string) []routeStep {
	romanceEN := routeStep{lambdaName: r.function("romance-en")}
	deEN := routeStep{lambdaName: r.function("de-en")}
	enDE := routeStep{lambdaName: r.function("en-de")}
	enRomance := routeStep{lambdaName: r.function("en-romance"), targetLang: target}

	switch {
	// Direct to English
	case target == "en" && romanceLanguages[source]:
		return []routeStep{romanceEN}
	case target == "en" && source == "de":
		return []routeStep{deEN}

	// From English
	case source == "en" && romanceLanguages[target]:
		return []routeStep{enRomance}
	case source == "en" && target == "de":
		return []routeStep{enDE}

	// Pivot through EN
	case romanceLanguages[source] && romanceLanguages[target]:
		return []routeStep{romanceEN, enRomance}
	case romanceLanguages[source] && target == "de":
		return []routeStep{romanceEN, enDE}
	case source == "de" && romanceLanguages[target]:
		return []routeStep{deEN, enRomance}
	}

	return nil
}

// Translate translates one text. An "auto" source is resolved by language
// detection first; text already in the target language is returned as-is.
func (r *Router) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	if sourceLanguage == domain.DefaultSourceLanguage {
		code, ok := r.detect(text)
		if !ok {
			return "", fmt.Errorf("could not detect source language")
		}
		zerolog.Ctx(ctx).Debug().Str("detected", code).Msg("Resolved auto source language")
		sourceLanguage = code
	}

	if sourceLanguage == targetLanguage {
		return text, nil
	}
	if !r.IsValidPair(sourceLanguage, targetLanguage) {
		return "", fmt.Errorf("no translator for %s→%s", sourceLanguage, targetLanguage)
	}

	chunks, err := r.TranslateChunks(ctx, sourceLanguage, targetLanguage, [][]string{{text}})
	if err != nil {
		return "", err
	}
	if len(chunks) != 1 || len(chunks[0]) != 1 {
		return "", fmt.Errorf("translator returned unexpected shape for one text")
	}
	return chunks[0][0], nil
}

// TranslateChunks translates all chunks using the appropriate Lambda(s).
// For pairs that don't involve English, chains two Lambda calls.
func (r *Router) TranslateChunks(ctx context.Context, source, target string, chunks [][]string) ([][]string, error) {
	if len(chunks) == 0 {
		return [][]string{}, nil
	}

	route := r.getRoute(source, target)
	if route == nil {
		return nil, fmt.Errorf("unsupported language pair: %s-%s", source, target)
	}

	currentChunks := chunks
	for i, step := range route {
		result, err := r.invokeLambda(ctx, step.lambdaName, step.targetLang, currentChunks)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s) failed: %w", i+1, step.lambdaName, err)
		}
		currentChunks = result
	}

	return currentChunks, nil
}

// invokeLambda calls a translator Lambda with the given chunks.
func (r *Router) invokeLambda(ctx context.Context, functionName, targetLang string, chunks [][]string) ([][]string, error) {
	req := TranslatorRequest{
		Chunks:     chunks,
		TargetLang: targetLang,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	result, err := r.lambdaClient.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(functionName),
		Payload:      payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", functionName, err)
	}

	if result.FunctionError != nil {
		return nil, fmt.Errorf("lambda error: %s", *result.FunctionError)
	}

	var resp TranslatorResponse
	if err := json.Unmarshal(result.Payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Error != "" {
		return nil, fmt.Errorf("translator error: %s", resp.Error)
	}

	return resp.Translations, nil
}
