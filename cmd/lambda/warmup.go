package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// WarmupSource identifies warmup events from the scheduler.
	WarmupSource = "warmup"

	// WarmupDelay keeps this instance busy so self-invocations land on new ones.
	WarmupDelay = 75 * time.Millisecond
)

// WarmupEvent is the scheduled payload that keeps instances warm.
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// WarmupResponse is the body returned by warmup invocations.
type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// Invoker is the Lambda API subset used for self-invocation.
type Invoker interface {
	Invoke(ctx context.Context, params *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

// Warmer answers warmup events and fans out to keep more instances warm.
type Warmer struct {
	client       Invoker
	functionName string
	delay        time.Duration
}

// NewWarmer creates a Warmer that self-invokes functionName.
func NewWarmer(client Invoker, functionName string) *Warmer {
	return &Warmer{client: client, functionName: functionName, delay: WarmupDelay}
}

// IsWarmupEvent reports whether event is a warmup payload. Storage
// notifications never carry a top-level "source" field.
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var warmup WarmupEvent
	if err := json.Unmarshal(event, &warmup); err != nil {
		return nil, false
	}
	if warmup.Source != WarmupSource {
		return nil, false
	}
	if warmup.Concurrency < 0 {
		warmup.Concurrency = 0
	}
	return &warmup, true
}

// Handle answers a warmup event, self-invoking Concurrency more instances.
func (w *Warmer) Handle(ctx context.Context, warmup *WarmupEvent) map[string]interface{} {
	instancesWarmed := 1

	if warmup.Concurrency > 0 && w.functionName != "" {
		if err := w.selfInvoke(ctx, warmup.Concurrency); err != nil {
			log.Warn().Err(err).Int("concurrency", warmup.Concurrency).Msg("Warmup self-invocation failed")
		} else {
			instancesWarmed += warmup.Concurrency
		}
	}

	time.Sleep(w.delay)

	return map[string]interface{}{
		"statusCode": 200,
		"body": WarmupResponse{
			Status:          "warm",
			InstancesWarmed: instancesWarmed,
		},
	}
}

// selfInvoke invokes this function count times asynchronously.
func (w *Warmer) selfInvoke(ctx context.Context, count int) error {
	// Children get concurrency 0 so they do not fan out again.
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		return err
	}

	var g errgroup.Group
	for i := 0; i < count; i++ {
		g.Go(func() error {
			_, err := w.client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(w.functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			return err
		})
	}
	return g.Wait()
}
