// Package lambdaboot provides the worker's cold-start bootstrap.
//
// init() in cmd/lambda is a short composition of these helpers: load
// configuration, build AWS clients, wire the translation handler and emit
// one startup log line.
package lambdaboot

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/pricofy/doc-translation-worker/internal/config"
	"github.com/pricofy/doc-translation-worker/internal/handler"
	"github.com/pricofy/doc-translation-worker/internal/logging"
	"github.com/pricofy/doc-translation-worker/internal/storage"
	"github.com/pricofy/doc-translation-worker/internal/translator"
)

// AWSClients holds the SDK clients shared by the worker.
type AWSClients struct {
	Config aws.Config
	S3     *s3.Client
	Lambda *lambda.Client
}

// InitAWS loads the default AWS config. SDK retries are disabled so every
// fetch, translation and write is attempted exactly once.
func InitAWS(ctx context.Context) (AWSClients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRetryMaxAttempts(1))
	if err != nil {
		return AWSClients{}, fmt.Errorf("load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")

	return AWSClients{
		Config: cfg,
		S3:     s3.NewFromConfig(cfg),
		Lambda: lambda.NewFromConfig(cfg),
	}, nil
}

// NewHandler wires the S3 store and the configured translator into a Handler.
func NewHandler(cfg *config.Config, clients AWSClients, opts ...handler.Option) (*handler.Handler, error) {
	tr, err := translator.FromConfig(cfg, clients.Config)
	if err != nil {
		return nil, err
	}
	store := storage.NewS3Store(clients.S3)
	return handler.New(cfg, store, store, tr, opts...), nil
}

// StartupLog builds the startup summary for cfg.
func StartupLog(name string, cfg *config.Config, initStart time.Time) *logging.StartupLogger {
	sl := logging.NewStartupLogger(name).
		InitDuration(time.Since(initStart)).
		S3Bucket("output", cfg.OutputBucket).
		Feature("breaker", cfg.Translation.Breaker).
		Config("provider", cfg.Translation.Provider).
		Config("failurePolicy", string(cfg.Translation.FailurePolicy)).
		Config("concurrency", fmt.Sprint(cfg.Translation.Concurrency)).
		Config("metricsNamespace", cfg.MetricsNamespace)

	switch cfg.Translation.Provider {
	case config.ProviderLambda:
		sl.LambdaFunc("translatorPrefix", cfg.Translation.FunctionPrefix)
	case config.ProviderOpenAI:
		sl.Config("openaiModel", cfg.OpenAI.Model)
	}
	return sl
}
