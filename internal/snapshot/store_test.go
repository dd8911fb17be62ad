package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NegroHm/uda-apuntes/internal/ranking"
)

func testSnapshot(careers int) *ranking.Snapshot {
	now := time.Now().Truncate(time.Second)
	stats := make([]ranking.CareerStat, careers)
	for i := range stats {
		stats[i] = ranking.CareerStat{
			ID:         "car-" + string(rune('a'+i)),
			Name:       "Medicina",
			Icon:       "⚕️",
			Rank:       i + 1,
			TotalFiles: 10 * (i + 1),
			TotalScore: 30 * (i + 1),
		}
	}
	return &ranking.Snapshot{
		LastUpdate:   now,
		TotalCareers: careers,
		TopCareers:   stats,
		AllCareers:   stats,
		Metadata: ranking.Metadata{
			GeneratedAt: now,
			Version:     ranking.SnapshotVersion,
		},
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx); !errors.Is(err, ranking.ErrNoSnapshot) {
		t.Fatalf("empty store: got %v, want ErrNoSnapshot", err)
	}

	want := testSnapshot(2)
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TotalCareers != 2 {
		t.Errorf("TotalCareers = %d, want 2", got.TotalCareers)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := store.Get(ctx); !errors.Is(err, ranking.ErrNoSnapshot) {
		t.Fatalf("cleared store: got %v, want ErrNoSnapshot", err)
	}
}

func TestFileStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ranking-data.json")
	store := NewFileStore(path)

	if _, err := store.Get(ctx); !errors.Is(err, ranking.ErrNoSnapshot) {
		t.Fatalf("missing file: got %v, want ErrNoSnapshot", err)
	}

	want := testSnapshot(3)
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TotalCareers != 3 || len(got.AllCareers) != 3 {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if !got.LastUpdate.Equal(want.LastUpdate) {
		t.Errorf("LastUpdate = %v, want %v", got.LastUpdate, want.LastUpdate)
	}
	if got.AllCareers[0].Icon != "⚕️" {
		t.Errorf("icon did not survive the roundtrip: %q", got.AllCareers[0].Icon)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "ranking-data.json"))

	if err := store.Put(ctx, testSnapshot(1)); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	if err := store.Put(ctx, testSnapshot(5)); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TotalCareers != 5 {
		t.Errorf("TotalCareers = %d, want 5 after overwrite", got.TotalCareers)
	}
}

func TestFileStoreCorruptionTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ranking-data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path)
	if _, err := store.Get(ctx); !errors.Is(err, ranking.ErrNoSnapshot) {
		t.Fatalf("corrupt file: got %v, want ErrNoSnapshot", err)
	}
}

func TestFileStoreClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ranking-data.json")
	store := NewFileStore(path)

	// Clearing a store that never wrote anything is fine.
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear on empty store failed: %v", err)
	}

	if err := store.Put(ctx, testSnapshot(1)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("snapshot file still exists after Clear")
	}
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "apuntes.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := store.Get(ctx); !errors.Is(err, ranking.ErrNoSnapshot) {
		t.Fatalf("empty store: got %v, want ErrNoSnapshot", err)
	}

	if err := store.Put(ctx, testSnapshot(2)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, testSnapshot(4)); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TotalCareers != 4 {
		t.Errorf("TotalCareers = %d, want 4", got.TotalCareers)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := store.Get(ctx); !errors.Is(err, ranking.ErrNoSnapshot) {
		t.Fatalf("cleared store: got %v, want ErrNoSnapshot", err)
	}
}
