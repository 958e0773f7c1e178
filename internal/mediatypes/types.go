package mediatypes

import (
	"path/filepath"
	"sort"
	"strings"
)

// MediaKind represents the playback classification of an indexed file.
type MediaKind string

const (
	// KindAudio represents an audio file.
	KindAudio MediaKind = "audio"
	// KindVideo represents a video file.
	KindVideo MediaKind = "video"
	// KindPlaylist represents a playlist file.
	KindPlaylist MediaKind = "playlist"
	// KindUnknown represents an unrecognized file type.
	KindUnknown MediaKind = "unknown"
)

// DefaultAudioExtensions lists the audio formats indexed out of the box.
var DefaultAudioExtensions = []string{
	"mp3", "flac", "wav", "m4a", "aac", "ogg", "opus", "wma", "alac", "aiff", "amr",
}

// DefaultVideoExtensions lists the video formats indexed when video is enabled.
var DefaultVideoExtensions = []string{
	"mp4", "mkv", "webm", "avi", "mov", "flv", "wmv", "mpeg", "mpg", "3gp", "ts", "vob", "m4v",
}

// DefaultPlaylistExtensions lists the playlist formats indexed out of the box.
var DefaultPlaylistExtensions = []string{"m3u", "m3u8", "pls"}

// ExtSet is a normalized set of file extensions (lowercase, no dot).
type ExtSet map[string]struct{}

// NewExtSet builds an ExtSet from extension strings in any mix of
// cases and with or without leading dots. Empty entries are dropped.
func NewExtSet(exts ...string) ExtSet {
	s := make(ExtSet, len(exts))
	for _, e := range exts {
		if n := NormalizeExt(e); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// NormalizeExt lowercases an extension and strips whitespace and a
// leading dot. Returns "" for blank input.
func NormalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// ParseExtList splits a user-supplied "mp3,flac ogg" style list into
// normalized extensions.
func ParseExtList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if n := NormalizeExt(f); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Contains reports whether ext (in any form) is in the set.
func (s ExtSet) Contains(ext string) bool {
	_, ok := s[NormalizeExt(ext)]
	return ok
}

// List returns the set's extensions in sorted order.
func (s ExtSet) List() []string {
	out := make([]string, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Union returns a new set containing every extension from s and other.
func (s ExtSet) Union(other ExtSet) ExtSet {
	out := make(ExtSet, len(s)+len(other))
	for e := range s {
		out[e] = struct{}{}
	}
	for e := range other {
		out[e] = struct{}{}
	}
	return out
}

// Classifier maps extensions to media kinds using configured sets.
type Classifier struct {
	Audio    ExtSet
	Video    ExtSet
	Playlist ExtSet
}

// DefaultClassifier returns a Classifier over the default extension sets.
func DefaultClassifier() Classifier {
	return Classifier{
		Audio:    NewExtSet(DefaultAudioExtensions...),
		Video:    NewExtSet(DefaultVideoExtensions...),
		Playlist: NewExtSet(DefaultPlaylistExtensions...),
	}
}

// KindForExt returns the media kind for a single extension.
// Audio takes precedence over playlist, playlist over video, matching
// the order the scanner admits files.
func (c Classifier) KindForExt(ext string) MediaKind {
	n := NormalizeExt(ext)
	switch {
	case c.Audio.Contains(n):
		return KindAudio
	case c.Playlist.Contains(n):
		return KindPlaylist
	case c.Video.Contains(n):
		return KindVideo
	default:
		return KindUnknown
	}
}

// KindForPath returns the media kind for a file path.
func (c Classifier) KindForPath(path string) MediaKind {
	return c.KindForExt(filepath.Ext(path))
}

// ActiveSet resolves the extension filter for a scan: the explicit
// override list when present, otherwise audio ∪ playlist, plus video
// when includeVideo is set.
func (c Classifier) ActiveSet(includeVideo bool, override []string) ExtSet {
	if len(override) > 0 {
		return NewExtSet(override...)
	}
	active := c.Audio.Union(c.Playlist)
	if includeVideo {
		active = active.Union(c.Video)
	}
	return active
}
