package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"resume-roles/internal/analysis"
	"resume-roles/internal/shared/telemetry"
)

type stubArchiver map[string]error

func (s stubArchiver) ArchiveBatch(ctx context.Context, batchID string) (string, error) {
	if err := s[batchID]; err != nil {
		return "", err
	}
	return "exports/" + batchID + ".csv", nil
}

func TestArchiveRecordsReportsOnlyRetryableFailures(t *testing.T) {
	defer telemetry.SetOutput(io.Discard)()

	archiver := stubArchiver{
		"old":    fmt.Errorf("%w: old", analysis.ErrBatchSuperseded),
		"broken": errors.New("bucket unavailable"),
	}
	records := []events.SQSMessage{
		{MessageId: "m1", Body: `{"batchId":"ok"}`},
		{MessageId: "m2", Body: `{"batchId":"old"}`},
		{MessageId: "m3", Body: `{"batchId":"broken"}`},
		{MessageId: "m4", Body: `not json`},
		{MessageId: "m5", Body: ""},
	}

	resp := archiveRecords(context.Background(), archiver, records)

	if len(resp.BatchItemFailures) != 1 {
		t.Fatalf("expected 1 failure, got %+v", resp.BatchItemFailures)
	}
	if resp.BatchItemFailures[0].ItemIdentifier != "m3" {
		t.Fatalf("unexpected failure id %q", resp.BatchItemFailures[0].ItemIdentifier)
	}
}
