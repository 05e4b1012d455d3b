package results

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	batch   Batch
	records []Record
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Reset replaces the table with an empty one for batch.
func (r *MemoryRepo) Reset(ctx context.Context, batch Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batch = batch
	r.records = nil
	return nil
}

// Append adds rec to the current batch. Position is implied by call order.
func (r *MemoryRepo) Append(ctx context.Context, batchID string, _ int, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if batchID != r.batch.ID {
		return ErrStaleBatch
	}
	r.records = append(r.records, rec)
	return nil
}

// Latest returns a copy of the current table.
func (r *MemoryRepo) Latest(ctx context.Context) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := make([]Record, len(r.records))
	copy(records, r.records)
	return Table{Batch: r.batch, Records: records}, nil
}

var _ Repo = (*MemoryRepo)(nil)
