package index

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"jukebox/internal/logging"
	"jukebox/internal/track"
)

// maxLineBytes bounds one serialized record. Tag fields are short;
// anything past this is damage, not data.
const maxLineBytes = 1 << 20

// ErrNotFound is returned by Load when no index file exists yet.
var ErrNotFound = errors.New("index file does not exist")

// Store reads and writes the JSON Lines index at a fixed path.
type Store struct {
	path string
}

// NewStore returns a Store for the given index file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the index file location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the index file is present on disk.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Mode().IsRegular()
}

// Load reads every record, failing on the first malformed or
// incomplete line. Returns ErrNotFound when the file is absent.
func (s *Store) Load() ([]track.Track, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	var tracks []track.Track
	sc := newLineScanner(f)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var t track.Track
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("index line %d: %w", line, err)
		}
		if !t.Valid() {
			return nil, fmt.Errorf("index line %d: record missing required fields", line)
		}
		tracks = append(tracks, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	return tracks, nil
}

// Validate fully parses the store and reports whether every line is a
// well-formed record. A missing file validates: there is nothing to
// be corrupt.
func (s *Store) Validate() bool {
	_, err := s.Load()
	if err == nil || errors.Is(err, ErrNotFound) {
		return true
	}
	logging.Warn("index failed validation", "path", s.path, "error", err)
	return false
}

// Salvage reads the store keeping only the records that parse and
// carry all required fields, skipping damaged lines. Lines longer
// than maxLineBytes count as damage too: their bytes are discarded up
// to the next newline rather than failing the whole recovery. The
// second return value is the number of lines dropped.
func (s *Store) Salvage() ([]track.Track, int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	var survivors []track.Track
	dropped := 0
	r := bufio.NewReaderSize(f, 64*1024)
	var line []byte
	tooLong := false
	for {
		chunk, rerr := r.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if len(line) > maxLineBytes {
				line = nil
				tooLong = true
			}
		}
		if rerr == bufio.ErrBufferFull {
			continue
		}
		if rerr != nil && rerr != io.EOF {
			return nil, 0, fmt.Errorf("reading index: %w", rerr)
		}

		raw := bytes.TrimSpace(line)
		switch {
		case tooLong:
			dropped++
		case len(raw) > 0:
			var t track.Track
			if err := json.Unmarshal(raw, &t); err != nil || !t.Valid() {
				dropped++
			} else {
				survivors = append(survivors, t)
			}
		}
		line = line[:0]
		tooLong = false

		if rerr == io.EOF {
			break
		}
	}
	if dropped > 0 {
		logging.Warn("dropped malformed index records", "dropped", dropped, "kept", len(survivors))
	}
	return survivors, dropped, nil
}

// Write replaces the store atomically. An empty slice writes an empty
// file rather than leaving stale records behind.
func (s *Store) Write(tracks []track.Track) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.jsonl")
	if err != nil {
		return fmt.Errorf("creating temporary index: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-ops after a successful rename.
		tmp.Close()
		os.Remove(tmpName)
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for i := range tracks {
		if err := enc.Encode(&tracks[i]); err != nil {
			return fmt.Errorf("encoding record %q: %w", tracks[i].Path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary index: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing index: %w", err)
	}

	logging.Debug("index written", "path", s.path, "records", len(tracks))
	return nil
}

// Remove deletes the index file, ignoring a file that is already gone.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing index: %w", err)
	}
	return nil
}

func newLineScanner(f *os.File) *bufio.Scanner {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return sc
}
