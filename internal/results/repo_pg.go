package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres, so every API process sees the same table.
type PGRepo struct {
	DB *sql.DB
}

// Reset deletes every stored batch and inserts the new one in a single transaction.
func (r *PGRepo) Reset(ctx context.Context, batch Batch) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM result_batches`); err != nil {
		return fmt.Errorf("clear batches: %w", err)
	}

	var requestID sql.NullString
	if batch.RequestID != "" {
		requestID = sql.NullString{String: batch.RequestID, Valid: true}
	}
	const insert = `
INSERT INTO result_batches (id, request_id, skills, created_at)
VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, insert, batch.ID, requestID, batch.Skills, batch.CreatedAt); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return tx.Commit()
}

// Append inserts rec at position within batchID.
func (r *PGRepo) Append(ctx context.Context, batchID string, position int, rec Record) error {
	const query = `
INSERT INTO result_records (batch_id, position, filename, prediction)
SELECT $1, $2, $3, $4
WHERE EXISTS (SELECT 1 FROM result_batches WHERE id = $1)`
	res, err := r.DB.ExecContext(ctx, query, batchID, position, rec.Filename, rec.Prediction)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if n == 0 {
		return ErrStaleBatch
	}
	return nil
}

// Latest returns the newest batch and its records ordered by position. Both
// reads share one snapshot, so a concurrent Reset cannot leave a batch without
// its records.
func (r *PGRepo) Latest(ctx context.Context) (Table, error) {
	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return Table{}, fmt.Errorf("begin latest: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const batchQuery = `
SELECT id, request_id, skills, created_at
FROM result_batches
ORDER BY created_at DESC
LIMIT 1`
	var batch Batch
	var requestID sql.NullString
	err = tx.QueryRowContext(ctx, batchQuery).Scan(&batch.ID, &requestID, &batch.Skills, &batch.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Table{Records: []Record{}}, nil
		}
		return Table{}, fmt.Errorf("select batch: %w", err)
	}
	if requestID.Valid {
		batch.RequestID = requestID.String
	}

	const recordQuery = `
SELECT filename, prediction
FROM result_records
WHERE batch_id = $1
ORDER BY position`
	rows, err := tx.QueryContext(ctx, recordQuery, batch.ID)
	if err != nil {
		return Table{}, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Filename, &rec.Prediction); err != nil {
			return Table{}, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("iterate records: %w", err)
	}
	if err := rows.Close(); err != nil {
		return Table{}, fmt.Errorf("close records: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Table{}, fmt.Errorf("commit latest: %w", err)
	}
	return Table{Batch: batch, Records: records}, nil
}

var _ Repo = (*PGRepo)(nil)
