package results

import "context"

// Repo holds the result table. Reset starts a new batch and discards the
// previous one; only the latest batch is ever visible through Latest.
type Repo interface {
	Reset(ctx context.Context, batch Batch) error
	Append(ctx context.Context, batchID string, position int, rec Record) error
	Latest(ctx context.Context) (Table, error)
}
