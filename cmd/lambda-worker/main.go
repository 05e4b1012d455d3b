package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"resume-roles/internal/analysis"
	"resume-roles/internal/bootstrap"
	"resume-roles/internal/shared/config"
	"resume-roles/internal/shared/telemetry"
	"resume-roles/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	cfg.QueueType = "none"
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return archiveRecords(ctx, app.AnalysisService, event.Records), nil
}

// archiveRecords reports only retryable failures back to SQS.
func archiveRecords(ctx context.Context, archiver workerproc.Archiver, records []events.SQSMessage) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range records {
		key, err := workerproc.HandleMessage(ctx, archiver, record.Body)
		if err == nil {
			telemetry.Info("worker.archive.completed", map[string]any{"sqs_message_id": record.MessageId, "storage_key": key})
			continue
		}
		fields := map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()}
		var process workerproc.ErrProcess
		if !errors.As(err, &process) || errors.Is(err, analysis.ErrBatchSuperseded) {
			telemetry.Warn("worker.archive.dropped", fields)
			continue
		}
		telemetry.Error("worker.archive.failed", fields)
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
