package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-roles/internal/classify"
	"resume-roles/internal/extract"
	"resume-roles/internal/queue"
	"resume-roles/internal/results"
	"resume-roles/internal/shared/metrics"
	"resume-roles/internal/shared/storage/object"
	"resume-roles/internal/shared/telemetry"
	"resume-roles/internal/shared/util"
)

const archivePrefix = "exports/"

// Service runs single and batch analyses and exports the result table.
//
// Batches are serialized: only one AnalyzeBatch call mutates the result table
// at a time, so the table always holds exactly one batch.
type Service struct {
	Store      object.ObjectStore
	Extractor  extract.Extractor
	Classifier classify.Classifier
	Results    results.Repo
	Notifier   queue.Client
	Now        func() time.Time

	batchMu sync.Mutex
}

// AnalyzeSingle classifies one resume against a job description. The result
// table is not touched.
func (s *Service) AnalyzeSingle(ctx context.Context, req SingleRequest) ([]results.Record, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, missing("name")
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return nil, missing("job_description")
	}
	if req.Resume == nil {
		return nil, missing("resume")
	}
	start := time.Now()
	defer func() { metrics.ObserveAnalysisDuration(time.Since(start)) }()

	fileName, err := util.SanitizeFileName(req.Resume.FileName)
	if err != nil {
		return nil, err
	}
	key, err := s.persist(ctx, fileName, *req.Resume)
	if err != nil {
		return nil, err
	}

	text, err := extract.FromStore(ctx, s.Store, s.Extractor, key)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		metrics.IncExtractionFailed()
		telemetry.Warn("analysis.extract.failed", map[string]any{
			"file":  fileName,
			"mode":  "single",
			"error": err.Error(),
		})
		text = ""
	}

	prediction, err := s.predict(ctx, req.JobDescription+" "+text)
	if err != nil {
		return nil, err
	}

	metrics.IncSingleAnalysis()
	metrics.AddFilesProcessed(1)
	return []results.Record{{
		Filename:   fmt.Sprintf("%s (%s)", req.Name, fileName),
		Prediction: prediction,
	}}, nil
}

// AnalyzeBatch classifies every resume against the skills text, replacing the
// result table with the new batch. Records are appended as they are produced,
// so a failure part way through leaves the earlier records in the table.
func (s *Service) AnalyzeBatch(ctx context.Context, req BatchRequest) (BatchResult, error) {
	if strings.TrimSpace(req.Skills) == "" {
		return BatchResult{}, missing("skills")
	}
	if len(req.Resumes) == 0 {
		return BatchResult{}, &FieldError{Field: "resumes", Err: ErrNoFiles}
	}

	names := make([]string, len(req.Resumes))
	for i, up := range req.Resumes {
		name, err := util.SanitizeFileName(up.FileName)
		if err != nil {
			return BatchResult{}, fmt.Errorf("resumes[%d]: %w", i, err)
		}
		names[i] = name
	}

	start := time.Now()
	defer func() { metrics.ObserveAnalysisDuration(time.Since(start)) }()

	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	batch := results.Batch{
		ID:        uuid.NewString(),
		RequestID: req.RequestID,
		Skills:    req.Skills,
		CreatedAt: s.now(),
	}
	if err := s.Results.Reset(ctx, batch); err != nil {
		return BatchResult{}, fmt.Errorf("%w: reset: %v", ErrResults, err)
	}

	out := BatchResult{Batch: batch, Records: make([]results.Record, 0, len(req.Resumes))}
	unreadable := 0
	for i, up := range req.Resumes {
		rec, err := s.analyzeBatchFile(ctx, req.Skills, names[i], up)
		if err != nil {
			return out, err
		}
		if err := s.Results.Append(ctx, batch.ID, i, rec); err != nil {
			return out, fmt.Errorf("%w: append: %v", ErrResults, err)
		}
		if rec.Prediction == results.SentinelUnreadable {
			unreadable++
		}
		out.Records = append(out.Records, rec)
	}

	metrics.IncBatchAnalysis()
	metrics.AddFilesProcessed(len(out.Records))
	s.notify(ctx, batch, len(out.Records), unreadable)
	return out, nil
}

func (s *Service) analyzeBatchFile(ctx context.Context, skills, fileName string, up Upload) (results.Record, error) {
	key, err := s.persist(ctx, fileName, up)
	if err != nil {
		return results.Record{}, err
	}

	text, err := extract.FromStore(ctx, s.Store, s.Extractor, key)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return results.Record{}, ctxErr
		}
		metrics.IncExtractionFailed()
		telemetry.Warn("analysis.extract.failed", map[string]any{
			"file":  fileName,
			"mode":  "batch",
			"error": err.Error(),
		})
		text = ""
	}

	if strings.TrimSpace(text) == "" {
		metrics.IncUnreadable()
		return results.Record{Filename: fileName, Prediction: results.SentinelUnreadable}, nil
	}

	prediction, err := s.predict(ctx, skills+" "+text)
	if err != nil {
		return results.Record{}, err
	}
	return results.Record{Filename: fileName, Prediction: prediction}, nil
}

// ExportCSV renders the result table, stores it under results.csv and returns it.
func (s *Service) ExportCSV(ctx context.Context) (Export, error) {
	table, err := s.Results.Latest(ctx)
	if err != nil {
		return Export{}, fmt.Errorf("%w: latest: %v", ErrResults, err)
	}
	body, err := results.EncodeCSV(table.Records)
	if err != nil {
		return Export{}, err
	}
	if _, err := s.Store.SaveWithKey(ctx, results.ExportFileName, "text/csv", bytes.NewReader(body)); err != nil {
		return Export{}, fmt.Errorf("%w: save export: %v", ErrStorage, err)
	}
	metrics.IncExport()
	return Export{StorageKey: results.ExportFileName, FileName: results.ExportFileName, Body: body}, nil
}

// ArchiveBatch stores a copy of the result table under exports/{batchID}.csv,
// provided batchID is still the latest batch.
func (s *Service) ArchiveBatch(ctx context.Context, batchID string) (string, error) {
	table, err := s.Results.Latest(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: latest: %v", ErrResults, err)
	}
	if table.Batch.ID != batchID {
		return "", fmt.Errorf("%w: %s (latest %q)", ErrBatchSuperseded, batchID, table.Batch.ID)
	}
	body, err := results.EncodeCSV(table.Records)
	if err != nil {
		return "", err
	}
	key := archivePrefix + batchID + ".csv"
	if _, err := s.Store.SaveWithKey(ctx, key, "text/csv", bytes.NewReader(body)); err != nil {
		return "", fmt.Errorf("%w: save archive: %v", ErrStorage, err)
	}
	return key, nil
}

// Latest returns the current result table.
func (s *Service) Latest(ctx context.Context) (results.Table, error) {
	return s.Results.Latest(ctx)
}

func (s *Service) persist(ctx context.Context, fileName string, up Upload) (string, error) {
	key, _, _, err := s.Store.Save(ctx, fileName, up.Body)
	if err != nil {
		if errors.Is(err, util.ErrInvalidFileName) {
			return "", err
		}
		return "", fmt.Errorf("%w: save %s: %v", ErrStorage, fileName, err)
	}
	return key, nil
}

func (s *Service) predict(ctx context.Context, text string) (string, error) {
	prediction, err := s.Classifier.Predict(ctx, text)
	if err != nil {
		metrics.IncClassificationFailed()
		return "", fmt.Errorf("%w: %v", ErrClassification, err)
	}
	return prediction, nil
}

func (s *Service) notify(ctx context.Context, batch results.Batch, count, unreadable int) {
	notifier := s.Notifier
	if notifier == nil {
		notifier = queue.Noop{}
	}
	msg := queue.Message{
		BatchID:     batch.ID,
		RequestID:   batch.RequestID,
		RecordCount: count,
		Unreadable:  unreadable,
		CompletedAt: s.now().Format(time.RFC3339),
		Version:     queue.MessageVersion,
	}
	if err := notifier.Send(ctx, msg); err != nil {
		telemetry.Warn("analysis.notify.failed", map[string]any{
			"batch_id":   batch.ID,
			"request_id": batch.RequestID,
			"error":      err.Error(),
		})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
