package indexer

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"jukebox/internal/index"
	"jukebox/internal/mediatypes"
	"jukebox/internal/metadata"
	"jukebox/internal/scanner"
)

// countingSource tracks how many files were actually probed, so tests
// can assert the incremental path skips unchanged files.
type countingSource struct {
	calls atomic.Int64
}

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) Read(ctx context.Context, path string) (metadata.Fields, error) {
	c.calls.Add(1)
	return metadata.Fields{Title: filepath.Base(path), Artist: "Test Artist"}, nil
}

type fixture struct {
	root    string
	indexer *Indexer
	source  *countingSource
	opts    scanner.Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	src := &countingSource{}
	extractor := metadata.NewWithSources(mediatypes.DefaultClassifier(), src)
	store := index.NewStore(filepath.Join(t.TempDir(), "index.jsonl"))
	return &fixture{
		root:    root,
		indexer: New(scanner.New(extractor), store),
		source:  src,
		opts: scanner.Options{
			Roots:  []string{root},
			Exts:   mediatypes.DefaultClassifier().ActiveSet(false, nil),
			Serial: true,
		},
	}
}

func (f *fixture) addFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRebuildWritesStore(t *testing.T) {
	f := newFixture(t)
	f.addFile(t, "a.mp3", "aaa")
	f.addFile(t, "b.flac", "bbb")

	tracks, err := f.indexer.Rebuild(context.Background(), f.opts)
	if err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("Rebuild() returned %d tracks, want 2", len(tracks))
	}

	stored, err := f.indexer.Store().Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !reflect.DeepEqual(tracks, stored) {
		t.Error("stored records differ from returned records")
	}
}

func TestRebuildIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addFile(t, "a.mp3", "aaa")
	f.addFile(t, "sub/b.ogg", "bbb")

	if _, err := f.indexer.Rebuild(context.Background(), f.opts); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(f.indexer.Store().Path())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.indexer.Rebuild(context.Background(), f.opts); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(f.indexer.Store().Path())
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Error("two rebuilds of an unchanged tree should produce identical stores")
	}
}

func TestUpdateReusesUnchanged(t *testing.T) {
	f := newFixture(t)
	f.addFile(t, "a.mp3", "aaa")
	f.addFile(t, "b.mp3", "bbb")

	if _, err := f.indexer.Rebuild(context.Background(), f.opts); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(f.indexer.Store().Path())
	if err != nil {
		t.Fatal(err)
	}
	f.source.calls.Store(0)

	_, stats, err := f.indexer.Update(context.Background(), f.opts)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	if got := f.source.calls.Load(); got != 0 {
		t.Errorf("Update() on a current index probed %d files, want 0", got)
	}
	want := Stats{Unchanged: 2}
	if stats != want {
		t.Errorf("Update() stats = %+v, want %+v", stats, want)
	}

	after, err := os.ReadFile(f.indexer.Store().Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("Update() on a current index should leave the store equal")
	}
}

func TestUpdateDetectsNewModifiedRemoved(t *testing.T) {
	f := newFixture(t)
	f.addFile(t, "keep.mp3", "kkk")
	changed := f.addFile(t, "changed.mp3", "old")
	removed := f.addFile(t, "removed.mp3", "rrr")

	if _, err := f.indexer.Rebuild(context.Background(), f.opts); err != nil {
		t.Fatal(err)
	}

	// Grow the file and push its mtime forward so both freshness
	// signals change.
	if err := os.WriteFile(changed, []byte("newer content"), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(changed, future, future); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(removed); err != nil {
		t.Fatal(err)
	}
	f.addFile(t, "new.mp3", "nnn")
	f.source.calls.Store(0)

	tracks, stats, err := f.indexer.Update(context.Background(), f.opts)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	want := Stats{New: 1, Modified: 1, Unchanged: 1, Removed: 1}
	if stats != want {
		t.Errorf("Update() stats = %+v, want %+v", stats, want)
	}
	if got := f.source.calls.Load(); got != 2 {
		t.Errorf("Update() probed %d files, want 2 (new + modified)", got)
	}
	for _, tr := range tracks {
		if tr.Path == removed {
			t.Error("removed file still present after Update()")
		}
	}
}

func TestUpdateSizeOnlyChangeTriggersReprobe(t *testing.T) {
	f := newFixture(t)
	path := f.addFile(t, "a.mp3", "aaa")

	if _, err := f.indexer.Rebuild(context.Background(), f.opts); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("longer content"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Restore the old mtime: only the size differs now.
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		t.Fatal(err)
	}
	f.source.calls.Store(0)

	_, stats, err := f.indexer.Update(context.Background(), f.opts)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Modified != 1 {
		t.Errorf("size-only change: stats = %+v, want 1 modified", stats)
	}
	if got := f.source.calls.Load(); got != 1 {
		t.Errorf("size-only change probed %d files, want 1", got)
	}
}

func TestUpdateEmptyTreeWritesEmptyStore(t *testing.T) {
	f := newFixture(t)
	path := f.addFile(t, "a.mp3", "aaa")

	if _, err := f.indexer.Rebuild(context.Background(), f.opts); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	tracks, stats, err := f.indexer.Update(context.Background(), f.opts)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if len(tracks) != 0 || stats.Removed != 1 {
		t.Errorf("Update() = %d tracks, stats %+v; want empty with 1 removed", len(tracks), stats)
	}

	stored, err := f.indexer.Store().Load()
	if err != nil {
		t.Fatalf("Load() after empty update error: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("store still holds %d stale records", len(stored))
	}
}

func TestUpdateWithoutPriorIndexRebuilds(t *testing.T) {
	f := newFixture(t)
	f.addFile(t, "a.mp3", "aaa")

	tracks, stats, err := f.indexer.Update(context.Background(), f.opts)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if len(tracks) != 1 || stats.New != 1 {
		t.Errorf("Update() without prior index = %d tracks, stats %+v", len(tracks), stats)
	}
}

func TestEnsureHealthyPassesThroughValidStore(t *testing.T) {
	f := newFixture(t)
	f.addFile(t, "a.mp3", "aaa")
	if _, err := f.indexer.Rebuild(context.Background(), f.opts); err != nil {
		t.Fatal(err)
	}
	f.source.calls.Store(0)

	tracks, err := f.indexer.EnsureHealthy(context.Background(), f.opts)
	if err != nil {
		t.Fatalf("EnsureHealthy() error: %v", err)
	}
	if len(tracks) != 1 {
		t.Errorf("EnsureHealthy() = %d tracks, want 1", len(tracks))
	}
	if got := f.source.calls.Load(); got != 0 {
		t.Errorf("healthy store should not be re-probed, got %d probes", got)
	}
}

func TestEnsureHealthyRepairsCorruption(t *testing.T) {
	f := newFixture(t)
	f.addFile(t, "a.mp3", "aaa")
	f.addFile(t, "b.mp3", "bbb")
	if _, err := f.indexer.Rebuild(context.Background(), f.opts); err != nil {
		t.Fatal(err)
	}

	fh, err := os.OpenFile(f.indexer.Store().Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fh.WriteString("{corrupt\n"); err != nil {
		t.Fatal(err)
	}
	fh.Close()

	tracks, err := f.indexer.EnsureHealthy(context.Background(), f.opts)
	if err != nil {
		t.Fatalf("EnsureHealthy() error: %v", err)
	}
	if len(tracks) != 2 {
		t.Errorf("EnsureHealthy() = %d tracks, want the 2 valid records", len(tracks))
	}
	if !f.indexer.Store().Validate() {
		t.Error("store should validate after healing")
	}
}

func TestEnsureHealthyRepairsOverlongJunk(t *testing.T) {
	f := newFixture(t)
	f.addFile(t, "a.mp3", "aaa")
	f.addFile(t, "b.mp3", "bbb")
	if _, err := f.indexer.Rebuild(context.Background(), f.opts); err != nil {
		t.Fatal(err)
	}

	// A crashed writer can leave a huge partial line with no newline.
	fh, err := os.OpenFile(f.indexer.Store().Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fh.WriteString(strings.Repeat("x", 1<<20+1)); err != nil {
		t.Fatal(err)
	}
	fh.Close()

	tracks, err := f.indexer.EnsureHealthy(context.Background(), f.opts)
	if err != nil {
		t.Fatalf("EnsureHealthy() error: %v", err)
	}
	if len(tracks) != 2 {
		t.Errorf("EnsureHealthy() = %d tracks, want the 2 valid records", len(tracks))
	}
	if !f.indexer.Store().Validate() {
		t.Error("store should validate after healing")
	}
}

func TestEnsureHealthyRebuildsUnsalvageable(t *testing.T) {
	f := newFixture(t)
	f.addFile(t, "a.mp3", "aaa")
	if err := os.WriteFile(f.indexer.Store().Path(), []byte("junk\njunk\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tracks, err := f.indexer.EnsureHealthy(context.Background(), f.opts)
	if err != nil {
		t.Fatalf("EnsureHealthy() error: %v", err)
	}
	if len(tracks) != 1 {
		t.Errorf("EnsureHealthy() after total loss = %d tracks, want 1 from rebuild", len(tracks))
	}
	if !f.indexer.Store().Validate() {
		t.Error("store should validate after rebuild")
	}
}

func TestEnsureHealthyMissingStoreRebuilds(t *testing.T) {
	f := newFixture(t)
	f.addFile(t, "a.mp3", "aaa")

	tracks, err := f.indexer.EnsureHealthy(context.Background(), f.opts)
	if err != nil {
		t.Fatalf("EnsureHealthy() error: %v", err)
	}
	if len(tracks) != 1 {
		t.Errorf("EnsureHealthy() with no store = %d tracks, want 1", len(tracks))
	}
}
