package translator

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/translate"
)

// TranslateAPI is the subset of the Amazon Translate client used here.
type TranslateAPI interface {
	TranslateText(ctx context.Context, params *translate.TranslateTextInput, optFns ...func(*translate.Options)) (*translate.TranslateTextOutput, error)
}

var _ TranslateAPI = (*translate.Client)(nil)

// Amazon translates with Amazon Translate. "auto" is passed through and
// resolved by the service.
type Amazon struct {
	client TranslateAPI
}

// NewAmazon creates an Amazon Translate backend.
func NewAmazon(client TranslateAPI) *Amazon {
	return &Amazon{client: client}
}

// Translate calls TranslateText once.
func (a *Amazon) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	out, err := a.client.TranslateText(ctx, &translate.TranslateTextInput{
		Text:               aws.String(text),
		SourceLanguageCode: aws.String(sourceLanguage),
		TargetLanguageCode: aws.String(targetLanguage),
	})
	if err != nil {
		return "", fmt.Errorf("TranslateText: %w", err)
	}
	if out.TranslatedText == nil {
		return "", errors.New("TranslateText returned no text")
	}
	return *out.TranslatedText, nil
}
