package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"jukebox/internal/logging"
	"jukebox/internal/mediatypes"
	"jukebox/internal/metadata"
	"jukebox/internal/track"
	"jukebox/internal/workers"
)

// maxScanWorkers caps the extraction pool; past this the disk is the
// bottleneck, not the CPU.
const maxScanWorkers = 16

// Candidate is one file admitted by the extension filter, with the
// stat info captured during the walk.
type Candidate struct {
	Path string
	Info fs.FileInfo
}

// ProgressFunc receives extraction progress. It is called from a
// single goroutine.
type ProgressFunc func(done, total int, label string)

// Options configures one scan.
type Options struct {
	Roots []string
	Exts  mediatypes.ExtSet
	// Serial disables the worker pool and extracts sequentially.
	Serial bool
	// Workers overrides the pool size; 0 sizes from available CPUs.
	Workers  int
	Progress ProgressFunc
}

// Scanner walks roots and extracts metadata from what it finds.
type Scanner struct {
	extractor *metadata.Extractor
}

// New returns a Scanner over the given extractor.
func New(extractor *metadata.Extractor) *Scanner {
	return &Scanner{extractor: extractor}
}

// Scan collects candidates under the roots and extracts a record for
// each. The result preserves walk order.
func (s *Scanner) Scan(ctx context.Context, opts Options) ([]track.Track, error) {
	session := uuid.NewString()
	logging.Info("scan started", "session", session, "roots", len(opts.Roots), "serial", opts.Serial)

	candidates := Collect(opts.Roots, opts.Exts)
	tracks, err := s.ExtractAll(ctx, candidates, opts)
	if err != nil {
		return nil, err
	}

	logging.Info("scan finished", "session", session, "tracks", len(tracks))
	return tracks, nil
}

// Collect walks every root and returns the files whose extension is
// in the active set, in walk order. An unreadable root is skipped
// with a warning; the scan continues with the remaining roots.
func Collect(roots []string, exts mediatypes.ExtSet) []Candidate {
	var candidates []Candidate
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logging.Warn("cannot access path, skipping", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") && path != root {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			if !exts.Contains(filepath.Ext(path)) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				logging.Warn("cannot stat file, skipping", "path", path, "error", err)
				return nil
			}
			candidates = append(candidates, Candidate{Path: path, Info: info})
			return nil
		})
		if err != nil {
			logging.Warn("root skipped", "root", root, "error", err)
		}
	}
	return candidates
}

// ExtractAll runs the extractor over candidates, serially or on a
// worker pool, and returns records in candidate order.
func (s *Scanner) ExtractAll(ctx context.Context, candidates []Candidate, opts Options) ([]track.Track, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if opts.Serial {
		return s.extractSerial(ctx, candidates, opts.Progress)
	}
	return s.extractParallel(ctx, candidates, opts)
}

func (s *Scanner) extractSerial(ctx context.Context, candidates []Candidate, progress ProgressFunc) ([]track.Track, error) {
	tracks := make([]track.Track, 0, len(candidates))
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tracks = append(tracks, s.extractor.Extract(ctx, c.Path, c.Info))
		if progress != nil {
			progress(i+1, len(candidates), c.Path)
		}
	}
	return tracks, nil
}

type extractJob struct {
	idx       int
	candidate Candidate
}

type extractResult struct {
	idx   int
	track track.Track
}

func (s *Scanner) extractParallel(ctx context.Context, candidates []Candidate, opts Options) ([]track.Track, error) {
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = workers.ForIO(maxScanWorkers)
	}
	if numWorkers > len(candidates) {
		numWorkers = len(candidates)
	}
	logging.Debug("starting extraction pool", "workers", numWorkers, "files", len(candidates))

	jobs := make(chan extractJob, numWorkers)
	results := make(chan extractResult, numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				res := extractResult{
					idx:   job.idx,
					track: s.extractor.Extract(ctx, job.candidate.Path, job.candidate.Info),
				}
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Collector owns the output slice and the progress callback, so
	// workers never touch shared state.
	tracks := make([]track.Track, len(candidates))
	var collectorWg sync.WaitGroup
	done := 0
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for res := range results {
			tracks[res.idx] = res.track
			done++
			if opts.Progress != nil {
				opts.Progress(done, len(candidates), tracks[res.idx].Path)
			}
		}
	}()

	var enqueueErr error
enqueue:
	for i, c := range candidates {
		select {
		case jobs <- extractJob{idx: i, candidate: c}:
		case <-ctx.Done():
			enqueueErr = ctx.Err()
			break enqueue
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	collectorWg.Wait()

	if enqueueErr != nil {
		return nil, enqueueErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tracks, nil
}
