package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/sirupsen/logrus"
)

const (
	warmupSource = "warmup"

	// maxFanOut caps the copies one scheduled event may start
	maxFanOut = 10

	// warmupHold keeps this instance busy while the copies start, so Lambda
	// places them on fresh instances
	warmupHold = 75 * time.Millisecond
)

// warmupEvent is sent by the schedule rule, e.g. {"source":"warmup","concurrency":3}
type warmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// warmupResponse reports how many instances are known to be warm
type warmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// parseWarmup recognizes a warmup event; translation requests never carry
// a source field
func parseWarmup(event json.RawMessage) (warmupEvent, bool) {
	var ev warmupEvent
	if err := json.Unmarshal(event, &ev); err != nil || ev.Source != warmupSource {
		return warmupEvent{}, false
	}
	ev.Concurrency = min(max(ev.Concurrency, 0), maxFanOut)
	return ev, true
}

// invoker is the part of the Lambda API client the warmer uses
type invoker interface {
	Invoke(ctx context.Context, params *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

// warmer keeps translation instances warm by invoking its own function
type warmer struct {
	functionName string
	hold         time.Duration
	logger       *logrus.Logger

	once      sync.Once
	client    invoker
	clientErr error
	newClient func(ctx context.Context) (invoker, error)
}

func newWarmer(logger *logrus.Logger) *warmer {
	return &warmer{
		functionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		hold:         warmupHold,
		logger:       logger,
		newClient: func(ctx context.Context) (invoker, error) {
			cfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, err
			}
			return lambdasdk.NewFromConfig(cfg), nil
		},
	}
}

// warm answers ev after starting ev.Concurrency asynchronous copies of
// this function. The copies get concurrency 0 and do not fan out again.
func (w *warmer) warm(ctx context.Context, ev warmupEvent) (*warmupResponse, error) {
	warmed := 1
	if ev.Concurrency > 0 {
		started, err := w.fanOut(ctx, ev.Concurrency)
		if err != nil {
			w.logger.WithError(err).WithFields(logrus.Fields{
				"requested": ev.Concurrency,
				"started":   started,
			}).Warn("Warmup invocations failed")
		}
		warmed += started
	}

	time.Sleep(w.hold)

	w.logger.WithField("instances", warmed).Debug("Warmup done")
	return &warmupResponse{Status: "warm", InstancesWarmed: warmed}, nil
}

func (w *warmer) fanOut(ctx context.Context, n int) (int, error) {
	w.once.Do(func() {
		if w.client == nil {
			w.client, w.clientErr = w.newClient(ctx)
		}
	})
	if w.clientErr != nil {
		return 0, w.clientErr
	}

	payload, err := json.Marshal(warmupEvent{Source: warmupSource})
	if err != nil {
		return 0, err
	}

	var (
		wg      sync.WaitGroup
		started atomic.Int32
		errs    = make([]error, n)
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = w.client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(w.functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			if errs[i] == nil {
				started.Add(1)
			}
		}()
	}
	wg.Wait()

	return int(started.Load()), errors.Join(errs...)
}
