package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	singleAnalysesTotal       atomic.Uint64
	batchAnalysesTotal        atomic.Uint64
	filesProcessedTotal       atomic.Uint64
	extractionFailedTotal     atomic.Uint64
	unreadablePredictions     atomic.Uint64
	classificationFailedTotal atomic.Uint64
	exportsTotal              atomic.Uint64
	archiveJobsReceived       atomic.Uint64
	archiveJobsCompleted      atomic.Uint64
	archiveJobsFailed         atomic.Uint64
	archiveJobsDropped        atomic.Uint64

	analysisDuration = newHistogram([]float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000})
)

// IncSingleAnalysis counts a completed single-resume analysis.
func IncSingleAnalysis() { singleAnalysesTotal.Add(1) }

// IncBatchAnalysis counts a completed batch analysis.
func IncBatchAnalysis() { batchAnalysesTotal.Add(1) }

// AddFilesProcessed counts uploaded files that went through extraction.
func AddFilesProcessed(n int) {
	if n > 0 {
		filesProcessedTotal.Add(uint64(n))
	}
}

// IncExtractionFailed counts extraction errors.
func IncExtractionFailed() { extractionFailedTotal.Add(1) }

// IncUnreadable counts batch files that got the sentinel label.
func IncUnreadable() { unreadablePredictions.Add(1) }

// IncClassificationFailed counts classifier errors.
func IncClassificationFailed() { classificationFailedTotal.Add(1) }

// IncExport counts CSV exports.
func IncExport() { exportsTotal.Add(1) }

// IncArchiveJobsReceived counts batch-completed messages picked up by the worker.
func IncArchiveJobsReceived() { archiveJobsReceived.Add(1) }

// IncArchiveJobsCompleted counts batches archived to the object store.
func IncArchiveJobsCompleted() { archiveJobsCompleted.Add(1) }

// IncArchiveJobsFailed counts archive attempts left on the queue for retry.
func IncArchiveJobsFailed() { archiveJobsFailed.Add(1) }

// IncArchiveJobsDropped counts messages deleted without archiving.
func IncArchiveJobsDropped() { archiveJobsDropped.Add(1) }

// ObserveAnalysisDuration records how long an analysis request took.
func ObserveAnalysisDuration(d time.Duration) {
	ms := float64(d.Microseconds()) / 1000.0
	if ms < 0 {
		ms = 0
	}
	analysisDuration.Observe(ms)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "single_analyses_total", "Single resume analyses completed", singleAnalysesTotal.Load())
	writeCounter(&buf, "batch_analyses_total", "Batch analyses completed", batchAnalysesTotal.Load())
	writeCounter(&buf, "files_processed_total", "Uploaded files run through extraction", filesProcessedTotal.Load())
	writeCounter(&buf, "extraction_failed_total", "Files whose text extraction failed", extractionFailedTotal.Load())
	writeCounter(&buf, "unreadable_predictions_total", "Batch files labeled as unreadable", unreadablePredictions.Load())
	writeCounter(&buf, "classification_failed_total", "Classifier errors", classificationFailedTotal.Load())
	writeCounter(&buf, "csv_exports_total", "CSV exports served", exportsTotal.Load())
	writeCounter(&buf, "archive_jobs_received_total", "Batch-completed messages received by the worker", archiveJobsReceived.Load())
	writeCounter(&buf, "archive_jobs_completed_total", "Batches archived to the object store", archiveJobsCompleted.Load())
	writeCounter(&buf, "archive_jobs_failed_total", "Archive attempts that will be retried", archiveJobsFailed.Load())
	writeCounter(&buf, "archive_jobs_dropped_total", "Messages dropped as unrecoverable or superseded", archiveJobsDropped.Load())
	writeHistogram(&buf, "analysis_duration_ms", "Analysis request duration in milliseconds", analysisDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe adds value to the first bucket whose bound it fits; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
