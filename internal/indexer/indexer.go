package indexer

import (
	"context"
	"errors"
	"fmt"

	"jukebox/internal/index"
	"jukebox/internal/logging"
	"jukebox/internal/scanner"
	"jukebox/internal/track"
)

// Stats reports what one update did, for observability.
type Stats struct {
	New       int
	Modified  int
	Unchanged int
	Removed   int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d new, %d modified, %d unchanged, %d removed",
		s.New, s.Modified, s.Unchanged, s.Removed)
}

// Indexer coordinates scanning, extraction, and the index store.
type Indexer struct {
	scanner *scanner.Scanner
	store   *index.Store
}

// New returns an Indexer writing to the given store.
func New(s *scanner.Scanner, store *index.Store) *Indexer {
	return &Indexer{scanner: s, store: store}
}

// Store exposes the underlying index store.
func (ix *Indexer) Store() *index.Store {
	return ix.store
}

// Rebuild scans everything from scratch and replaces the store.
func (ix *Indexer) Rebuild(ctx context.Context, opts scanner.Options) ([]track.Track, error) {
	logging.Info("rebuilding index", "roots", len(opts.Roots))

	tracks, err := ix.scanner.Scan(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("scanning library: %w", err)
	}
	if err := ix.store.Write(tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Update refreshes the store incrementally: records whose file is
// unchanged (same mtime and size) are reused verbatim, new and
// modified files are re-probed, and records for vanished files are
// dropped. With no usable prior store it falls back to Rebuild.
func (ix *Indexer) Update(ctx context.Context, opts scanner.Options) ([]track.Track, Stats, error) {
	old, err := ix.store.Load()
	if err != nil {
		if !errors.Is(err, index.ErrNotFound) {
			// A corrupt store should have been healed before Update;
			// treat anything else as "no prior index".
			logging.Warn("prior index unreadable, rebuilding", "error", err)
		}
		tracks, rerr := ix.Rebuild(ctx, opts)
		return tracks, Stats{New: len(tracks)}, rerr
	}

	byPath := make(map[string]track.Track, len(old))
	for _, t := range old {
		byPath[t.Path] = t
	}

	candidates := scanner.Collect(opts.Roots, opts.Exts)
	if len(candidates) == 0 {
		// Explicit empty state rather than stale records.
		logging.Warn("no files found under configured roots, writing empty index")
		if err := ix.store.Write(nil); err != nil {
			return nil, Stats{}, err
		}
		return nil, Stats{Removed: len(old)}, nil
	}

	var stats Stats
	// reuse[i] holds the verbatim record for candidate i, or nil when
	// candidate i needs extraction.
	reuse := make([]*track.Track, len(candidates))
	var toExtract []scanner.Candidate
	for i, c := range candidates {
		prev, ok := byPath[c.Path]
		if ok && prev.ModTime == c.Info.ModTime().Unix() && prev.Size == c.Info.Size() {
			p := prev
			reuse[i] = &p
			stats.Unchanged++
			continue
		}
		if ok {
			stats.Modified++
		} else {
			stats.New++
		}
		toExtract = append(toExtract, c)
	}
	stats.Removed = len(old) - stats.Unchanged - stats.Modified

	extracted, err := ix.scanner.ExtractAll(ctx, toExtract, opts)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("extracting metadata: %w", err)
	}

	tracks := make([]track.Track, 0, len(candidates))
	next := 0
	for i := range candidates {
		if reuse[i] != nil {
			tracks = append(tracks, *reuse[i])
		} else {
			tracks = append(tracks, extracted[next])
			next++
		}
	}

	if err := ix.store.Write(tracks); err != nil {
		return nil, Stats{}, err
	}
	logging.Info("index updated", "stats", stats.String())
	return tracks, stats, nil
}

// EnsureHealthy validates the store before a read-dependent operation
// and repairs it when needed. Salvageable stores keep their surviving
// records and are reconciled against disk; unsalvageable ones trigger
// a full rebuild. A healthy store is returned as-is.
func (ix *Indexer) EnsureHealthy(ctx context.Context, opts scanner.Options) ([]track.Track, error) {
	if ix.store.Validate() {
		tracks, err := ix.store.Load()
		if errors.Is(err, index.ErrNotFound) {
			return ix.Rebuild(ctx, opts)
		}
		return tracks, err
	}

	logging.Warn("index is corrupt, attempting repair", "path", ix.store.Path())

	survivors, dropped, err := ix.store.Salvage()
	if err != nil {
		return nil, fmt.Errorf("salvaging index: %w", err)
	}

	if len(survivors) == 0 {
		logging.Warn("index unsalvageable, rebuilding from scratch")
		if err := ix.store.Remove(); err != nil {
			return nil, err
		}
		return ix.Rebuild(ctx, opts)
	}

	logging.Info("index repaired", "kept", len(survivors), "dropped", dropped)
	if err := ix.store.Write(survivors); err != nil {
		return nil, err
	}
	// Survivors may be stale relative to disk; refresh in one pass.
	tracks, _, err := ix.Update(ctx, opts)
	return tracks, err
}
