package metadata

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"jukebox/internal/logging"
	"jukebox/internal/mediatypes"
	"jukebox/internal/track"
)

// Extractor turns a file path into a complete track record.
type Extractor struct {
	classifier mediatypes.Classifier
	sources    []Source
}

// New returns an Extractor with the standard source chain: ffprobe
// first, then the in-process tag reader as a narrow fallback. A
// non-positive probeTimeout uses DefaultProbeTimeout.
func New(classifier mediatypes.Classifier, probeTimeout time.Duration) *Extractor {
	return &Extractor{
		classifier: classifier,
		sources: []Source{
			&FFProbeSource{Timeout: probeTimeout},
			&TagFileSource{},
		},
	}
}

// NewWithSources returns an Extractor over an explicit source chain.
func NewWithSources(classifier mediatypes.Classifier, sources ...Source) *Extractor {
	return &Extractor{classifier: classifier, sources: sources}
}

// Extract builds the record for one file. It never returns an error:
// a file whose tags cannot be read still yields a valid record with
// filename-derived defaults.
func (e *Extractor) Extract(ctx context.Context, path string, info fs.FileInfo) track.Track {
	t := track.Track{
		Path: path,
		Kind: e.classifier.KindForPath(path),
	}
	if info != nil {
		t.ModTime = info.ModTime().Unix()
		t.Size = info.Size()
	}

	if t.Kind == mediatypes.KindPlaylist {
		t.Title = stem(path)
		t.Artist = track.PlaylistArtist
		t.Genre = track.PlaylistArtist
		t.Album = track.PlaylistAlbum
		return t
	}

	fields := e.readFields(ctx, path)
	t.Title = fields.Title
	t.Artist = fields.Artist
	t.Album = fields.Album
	t.Genre = fields.Genre

	if t.Title == "" {
		t.Title = stem(path)
	}
	if t.Artist == "" {
		t.Artist = track.UnknownValue
	}
	if t.Album == "" {
		t.Album = track.UnknownValue
	}
	if t.Genre == "" {
		t.Genre = track.UnknownValue
	}
	return t
}

// readFields walks the source chain. The first source is the primary
// prober; later sources are consulted only when it left both title
// and artist empty, and fill fields first-non-empty-wins.
func (e *Extractor) readFields(ctx context.Context, path string) Fields {
	var acc Fields
	for i, src := range e.sources {
		if i > 0 && (acc.Title != "" || acc.Artist != "") {
			break
		}
		got, err := src.Read(ctx, path)
		if err != nil {
			logging.Debug("tag read failed", "source", src.Name(), "path", path, "error", err)
			continue
		}
		if acc.Title == "" {
			acc.Title = got.Title
		}
		if acc.Artist == "" {
			acc.Artist = got.Artist
		}
		if acc.Album == "" {
			acc.Album = got.Album
		}
		if acc.Genre == "" {
			acc.Genre = got.Genre
		}
	}
	return acc
}

// stem returns the filename without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
