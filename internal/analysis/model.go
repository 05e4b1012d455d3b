package analysis

import (
	"io"

	"resume-roles/internal/results"
)

// Upload is one file from a multipart form.
type Upload struct {
	FileName string
	Body     io.Reader
}

// SingleRequest carries the inputs of a single-resume analysis.
type SingleRequest struct {
	Name           string
	JobDescription string
	Resume         *Upload
}

// BatchRequest carries the inputs of a batch analysis.
type BatchRequest struct {
	Skills    string
	Resumes   []Upload
	RequestID string
}

// BatchResult is the outcome of a batch: the new batch and its records in input order.
type BatchResult struct {
	Batch   results.Batch
	Records []results.Record
}

// Export is a rendered CSV of the result table and the key it was stored under.
type Export struct {
	StorageKey string
	FileName   string
	Body       []byte
}
