package results

import (
	"errors"
	"time"
)

// SentinelUnreadable is the prediction recorded for a batch file without usable text.
const SentinelUnreadable = "Could not extract text"

// ErrStaleBatch is returned when appending to a batch that is no longer the latest.
var ErrStaleBatch = errors.New("batch is no longer current")

// Record is one analyzed resume.
type Record struct {
	Filename   string `json:"filename"`
	Prediction string `json:"prediction"`
}

// Batch identifies one batch analysis run.
type Batch struct {
	ID        string    `json:"batchId"`
	RequestID string    `json:"requestId,omitempty"`
	Skills    string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Table is the result table: the records of the most recent batch, in input order.
type Table struct {
	Batch   Batch
	Records []Record
}
