package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/utilitarian/spot-archive/internal/model"
)

func TestFSStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewFSStore(root)
	ctx := context.Background()

	points := []model.PricePoint{pp(15, 0, "10.0"), pp(15, 1, "11.0")}

	if err := store.Write(ctx, "SE3", GranularityDay, "2024-01-15", points); err != nil {
		t.Fatalf("Write: %v", err)
	}

	wantPath := filepath.Join(root, "SE3", "2024", "01", "15", "index.json")
	if _, err := os.Stat(wantPath); err != nil {
		t.Fatalf("expected partition file at %s: %v", wantPath, err)
	}

	got, err := store.Read(ctx, "SE3", GranularityDay, "2024-01-15")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	sameSet(t, got, points)
}

func TestFSStorePaths(t *testing.T) {
	root := t.TempDir()
	store := NewFSStore(root)
	ctx := context.Background()
	points := []model.PricePoint{pp(15, 0, "10.0")}

	tests := []struct {
		granularity Granularity
		key         string
		path        string
	}{
		{GranularityMonth, "2024-01", filepath.Join("SE1", "2024", "01", "index.json")},
		{GranularityYear, "2024", filepath.Join("SE1", "2024", "index.json")},
		{GranularityLatest, LatestKey, filepath.Join("SE1", "latest", "index.json")},
	}

	for _, tt := range tests {
		if err := store.Write(ctx, "SE1", tt.granularity, tt.key, points); err != nil {
			t.Fatalf("Write %s: %v", tt.granularity, err)
		}
		if _, err := os.Stat(filepath.Join(root, tt.path)); err != nil {
			t.Errorf("%s: expected file at %s: %v", tt.granularity, tt.path, err)
		}
	}
}

func TestFSStoreMissingPartitionIsEmpty(t *testing.T) {
	store := NewFSStore(t.TempDir())

	points, err := store.Read(context.Background(), "SE2", GranularityDay, "2019-05-01")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("points = %v, want empty", points)
	}
}

func TestFSStoreBadKey(t *testing.T) {
	store := NewFSStore(t.TempDir())

	err := store.Write(context.Background(), "SE2", GranularityDay, "20240115", nil)
	if err == nil {
		t.Fatal("expected error for malformed day key")
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Errorf("error = %T, want *PersistenceError", err)
	}
}

func TestFSStoreWriteLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	store := NewFSStore(root)
	ctx := context.Background()

	if err := store.Write(ctx, "SE4", GranularityYear, "2024", []model.PricePoint{pp(1, 0, "10.0")}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "SE4", "2024"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "index.json" {
			t.Errorf("unexpected file %s left in partition directory", e.Name())
		}
	}
}

func TestFSStoreStatsRoundTrip(t *testing.T) {
	store := NewFSStore(t.TempDir())
	ctx := context.Background()

	stats := []model.DayStatistics{
		{Day: "2024-01-15", HighestPrice: "20.0", LowestPrice: "5.0", AveragePrice: "12.50"},
	}

	if err := store.WriteStats(ctx, "SE3", "2024", stats); err != nil {
		t.Fatalf("WriteStats: %v", err)
	}

	got, err := store.ReadStats(ctx, "SE3", "2024")
	if err != nil {
		t.Fatalf("ReadStats: %v", err)
	}
	if len(got) != 1 || got[0] != stats[0] {
		t.Errorf("stats = %v, want %v", got, stats)
	}

	missing, err := store.ReadStats(ctx, "SE3", "1999")
	if err != nil {
		t.Fatalf("ReadStats missing year: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("missing year stats = %v, want empty", missing)
	}
}
