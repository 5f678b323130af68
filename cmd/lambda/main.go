// Package main is the Lambda entry point for the document translation worker.
//
// Triggered by S3 ObjectCreated notifications on the input bucket. Each
// invocation translates one JSON document and writes the result to
// OUTPUT_BUCKET.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/pricofy/doc-translation-worker/internal/config"
	"github.com/pricofy/doc-translation-worker/internal/handler"
	"github.com/pricofy/doc-translation-worker/internal/lambdaboot"
	"github.com/pricofy/doc-translation-worker/internal/logging"
)

var coldStart = true

var (
	h      *handler.Handler
	warmer *Warmer
)

func setup() {
	initStart := time.Now()

	cfg, err := config.Load()
	if err != nil {
		logging.Init("info", "json")
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	clients, err := lambdaboot.InitAWS(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize AWS clients")
	}

	h, err = lambdaboot.NewHandler(cfg, clients)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build handler")
	}
	warmer = NewWarmer(clients.Lambda, os.Getenv("AWS_LAMBDA_FUNCTION_NAME"))

	lambdaboot.StartupLog("doc-translation-worker", cfg, initStart).Log()
}

func main() {
	setup()
	lambda.Start(handleRequest)
}

func handleRequest(ctx context.Context, event json.RawMessage) (interface{}, error) {
	// Warmup detection comes before any other processing.
	if warmup, ok := IsWarmupEvent(event); ok {
		return warmer.Handle(ctx, warmup), nil
	}

	if coldStart {
		coldStart = false
		log.Info().Msg("Cold start, first invocation")
	}
	return h.Handle(ctx, event), nil
}
