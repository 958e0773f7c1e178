package index

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jukebox/internal/mediatypes"
	"jukebox/internal/track"
)

func sampleTracks() []track.Track {
	return []track.Track{
		{
			Path: "/music/a.mp3", Title: "Alpha", Artist: "Ado", Album: "One",
			Genre: "Rock", ModTime: 100, Size: 1000, Kind: mediatypes.KindAudio,
		},
		{
			Path: "/music/b.flac", Title: "Beta", Artist: "Adele", Album: "Two",
			Genre: "Pop", ModTime: 200, Size: 2000, Kind: mediatypes.KindAudio,
		},
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.jsonl"))

	want := sampleTracks()
	if err := s.Write(want); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Load() returned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.jsonl"))

	if _, err := s.Load(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() on missing file = %v, want ErrNotFound", err)
	}
	if !s.Validate() {
		t.Error("Validate() on missing file should pass")
	}
	if s.Exists() {
		t.Error("Exists() on missing file = true")
	}
}

func TestWriteEmptyIsExplicit(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.jsonl"))

	if err := s.Write(sampleTracks()); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(nil); err != nil {
		t.Fatalf("Write(nil) error: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("empty write left %d stale records", len(got))
	}
	if !s.Exists() {
		t.Error("empty write should still leave an index file")
	}
}

func TestValidateCatchesMidFileCorruption(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.jsonl"))
	if err := s.Write(sampleTracks()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.SplitAfter(string(data), "\n")
	corrupted := lines[0] + "{this is not json\n" + strings.Join(lines[1:], "")
	if err := os.WriteFile(s.Path(), []byte(corrupted), 0o644); err != nil {
		t.Fatal(err)
	}

	if s.Validate() {
		t.Error("Validate() should fail with a malformed line in the middle")
	}
	if _, err := s.Load(); err == nil {
		t.Error("Load() should fail with a malformed line in the middle")
	}
}

func TestValidateRejectsIncompleteRecord(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.jsonl"))
	// Parses as JSON but misses required fields.
	line := `{"path":"/music/a.mp3","mtime":1,"size":2,"media_type":"audio"}` + "\n"
	if err := os.WriteFile(s.Path(), []byte(line), 0o644); err != nil {
		t.Fatal(err)
	}

	if s.Validate() {
		t.Error("Validate() should reject a record with missing fields")
	}
}

func TestSalvageKeepsGoodLines(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.jsonl"))
	if err := s.Write(sampleTracks()); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("garbage line\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	survivors, dropped, err := s.Salvage()
	if err != nil {
		t.Fatalf("Salvage() error: %v", err)
	}
	if dropped != 1 {
		t.Errorf("Salvage() dropped = %d, want 1", dropped)
	}
	if len(survivors) != 2 {
		t.Errorf("Salvage() kept %d records, want 2", len(survivors))
	}
}

func TestSalvageDropsOverlongTail(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.jsonl"))
	if err := s.Write(sampleTracks()); err != nil {
		t.Fatal(err)
	}

	// Crash-appended junk: one giant line with no trailing newline.
	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(strings.Repeat("x", maxLineBytes+1)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	survivors, dropped, err := s.Salvage()
	if err != nil {
		t.Fatalf("Salvage() error: %v", err)
	}
	if dropped != 1 {
		t.Errorf("Salvage() dropped = %d, want 1", dropped)
	}
	if len(survivors) != 2 {
		t.Errorf("Salvage() kept %d records, want 2", len(survivors))
	}
}

func TestSalvageDropsOverlongMidFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.jsonl"))
	if err := s.Write(sampleTracks()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.SplitAfter(string(data), "\n")
	damaged := lines[0] + strings.Repeat("y", maxLineBytes+1) + "\n" + strings.Join(lines[1:], "")
	if err := os.WriteFile(s.Path(), []byte(damaged), 0o644); err != nil {
		t.Fatal(err)
	}

	survivors, dropped, err := s.Salvage()
	if err != nil {
		t.Fatalf("Salvage() error: %v", err)
	}
	if dropped != 1 {
		t.Errorf("Salvage() dropped = %d, want 1", dropped)
	}
	if len(survivors) != 2 {
		t.Errorf("Salvage() kept %d records, want 2", len(survivors))
	}
}

func TestSalvageTotalLoss(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.jsonl"))
	if err := os.WriteFile(s.Path(), []byte("junk\nmore junk\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	survivors, dropped, err := s.Salvage()
	if err != nil {
		t.Fatalf("Salvage() error: %v", err)
	}
	if len(survivors) != 0 || dropped != 2 {
		t.Errorf("Salvage() = %d survivors, %d dropped; want 0 and 2", len(survivors), dropped)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "index.jsonl"))
	if err := s.Write(sampleTracks()); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "index.jsonl" {
			t.Errorf("unexpected leftover file %q", e.Name())
		}
	}
}

func TestRemove(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "index.jsonl"))
	if err := s.Remove(); err != nil {
		t.Errorf("Remove() on missing file error: %v", err)
	}
	if err := s.Write(sampleTracks()); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(); err != nil {
		t.Errorf("Remove() error: %v", err)
	}
	if s.Exists() {
		t.Error("index still exists after Remove()")
	}
}
