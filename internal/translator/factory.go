package translator

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/translate"

	"github.com/pricofy/doc-translation-worker/internal/config"
)

// FromConfig builds the configured translation backend.
func FromConfig(cfg *config.Config, awsCfg aws.Config) (Translator, error) {
	var t Translator

	switch cfg.Translation.Provider {
	case config.ProviderAWS:
		t = NewAmazon(translate.NewFromConfig(awsCfg))
	case config.ProviderOpenAI:
		t = NewOpenAI(cfg.OpenAI)
	case config.ProviderLambda:
		t = NewRouter(lambda.NewFromConfig(awsCfg), cfg.Translation.FunctionPrefix)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", cfg.Translation.Provider)
	}

	if cfg.Translation.Breaker {
		t = NewBreaker(cfg.Translation.Provider, t, DefaultBreakerFailures, DefaultBreakerCooldown)
	}
	return t, nil
}
