package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/pricofy/doc-translation-worker/internal/chunker"
	"github.com/pricofy/doc-translation-worker/internal/config"
	"github.com/pricofy/doc-translation-worker/internal/domain"
)

// ChatCompleter is the subset of the OpenAI client used here.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const openAISystemPrompt = "You are a professional translator. Translate the user's text exactly, " +
	"preserving formatting and meaning. Respond with only the translation, nothing else."

// OpenAI translates with a chat completion model.
type OpenAI struct {
	client ChatCompleter
	model  string
}

// NewOpenAI creates an OpenAI backend from configuration.
func NewOpenAI(cfg config.OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewOpenAIWithClient(openai.NewClientWithConfig(clientCfg), cfg.Model)
}

// NewOpenAIWithClient creates an OpenAI backend around an existing client.
func NewOpenAIWithClient(client ChatCompleter, model string) *OpenAI {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{client: client, model: model}
}

// Translate asks the model for a translation of text.
func (o *OpenAI) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAISystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text, sourceLanguage, targetLanguage)},
		},
		// Translations rarely exceed twice the source length.
		MaxTokens:   2*chunker.EstimateTokens(text) + 64,
		Temperature: 0,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no translation returned")
	}

	translation := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translation == "" {
		return "", errors.New("empty translation returned")
	}
	return translation, nil
}

func buildPrompt(text, sourceLanguage, targetLanguage string) string {
	if sourceLanguage == "" || sourceLanguage == domain.DefaultSourceLanguage {
		return fmt.Sprintf("Detect the language of the following text and translate it to the language with code %q:\n\n%s",
			targetLanguage, text)
	}
	return fmt.Sprintf("Translate the following text from the language with code %q to the language with code %q:\n\n%s",
		sourceLanguage, targetLanguage, text)
}
