package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"duit/internal/core"
)

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		{
			ID:       "b2",
			Type:     core.Income,
			Amount:   core.Money{Cents: 100000000},
			Category: "Salary",
			Date:     "2024-03-05",
			Time:     "09:00",
		},
		{
			ID:       "a1",
			Type:     core.Expense,
			Amount:   core.Money{Cents: 5000000},
			Category: "Food & Drink",
			Note:     "breakfast",
			Date:     "2024-03-01",
			Time:     "08:00",
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.json")
	snap := NewSnapshot(path)
	ctx := context.Background()

	want := sampleTransactions()
	if err := snap.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := snap.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d differs: %+v vs %+v", i, got[i], want[i])
		}
	}
}

func TestSnapshotMissingFileIsEmpty(t *testing.T) {
	snap := NewSnapshot(filepath.Join(t.TempDir(), "nope.json"))
	got, err := snap.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(got))
	}
}

func TestSnapshotCorruptFileResetsToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.json")
	if err := os.WriteFile(path, []byte(`{"not":"an array"`), 0644); err != nil {
		t.Fatal(err)
	}

	snap := NewSnapshot(path)
	got, err := snap.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("corrupt snapshot should load as empty, got %d entries", len(got))
	}
}

func TestSnapshotCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "transactions.json")
	snap := NewSnapshot(path)
	if err := snap.Save(context.Background(), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file not created: %v", err)
	}
}

func TestSnapshotSaveReplacesWholeArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.json")
	snap := NewSnapshot(path)
	ctx := context.Background()

	if err := snap.Save(ctx, sampleTransactions()); err != nil {
		t.Fatal(err)
	}
	if err := snap.Save(ctx, sampleTransactions()[:1]); err != nil {
		t.Fatal(err)
	}

	got, err := snap.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("second save should replace the array, got %d entries", len(got))
	}
}
