package results

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestMemoryRepoEmptyTable(t *testing.T) {
	repo := NewMemoryRepo()
	table, err := repo.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(table.Records) != 0 || table.Batch.ID != "" {
		t.Fatalf("expected empty table, got %+v", table)
	}
}

func TestMemoryRepoResetReplacesPreviousBatch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	if err := repo.Reset(ctx, Batch{ID: "first"}); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	_ = repo.Append(ctx, "first", 0, Record{Filename: "old.pdf", Prediction: "Engineer"})

	if err := repo.Reset(ctx, Batch{ID: "second"}); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	for i, rec := range []Record{{"a.pdf", "Engineer"}, {"b.pdf", "Manager"}} {
		if err := repo.Append(ctx, "second", i, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	table, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	want := []Record{{"a.pdf", "Engineer"}, {"b.pdf", "Manager"}}
	if table.Batch.ID != "second" || !reflect.DeepEqual(table.Records, want) {
		t.Fatalf("unexpected table %+v", table)
	}
}

func TestMemoryRepoRejectsStaleBatch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	_ = repo.Reset(ctx, Batch{ID: "first"})
	_ = repo.Reset(ctx, Batch{ID: "second"})

	err := repo.Append(ctx, "first", 0, Record{Filename: "late.pdf", Prediction: "x"})
	if !errors.Is(err, ErrStaleBatch) {
		t.Fatalf("expected ErrStaleBatch, got %v", err)
	}
}

func TestMemoryRepoLatestReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	_ = repo.Reset(ctx, Batch{ID: "b"})
	_ = repo.Append(ctx, "b", 0, Record{Filename: "a.pdf", Prediction: "Engineer"})

	table, _ := repo.Latest(ctx)
	table.Records[0].Prediction = "mutated"

	again, _ := repo.Latest(ctx)
	if again.Records[0].Prediction != "Engineer" {
		t.Fatalf("table mutated through returned slice")
	}
}
