package track

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"jukebox/internal/mediatypes"
)

// Sentinel values for fields that cannot be resolved from tags.
const (
	// UnknownValue fills artist, album, and genre when no tag is found.
	UnknownValue = "UNKNOWN"
	// PlaylistArtist marks the artist and genre of playlist records.
	PlaylistArtist = "Playlist"
	// PlaylistAlbum groups all playlist records under one album.
	PlaylistAlbum = "Playlists"
)

// Track is one indexed media file.
type Track struct {
	Path    string               `json:"path"`
	Title   string               `json:"title"`
	Artist  string               `json:"artist"`
	Album   string               `json:"album"`
	Genre   string               `json:"genre"`
	ModTime int64                `json:"mtime"`
	Size    int64                `json:"size"`
	Kind    mediatypes.MediaKind `json:"media_type"`
}

// UnmarshalJSON decodes a record, accepting mtime and size as either
// JSON numbers or numeric strings.
func (t *Track) UnmarshalJSON(data []byte) error {
	var raw struct {
		Path    string          `json:"path"`
		Title   string          `json:"title"`
		Artist  string          `json:"artist"`
		Album   string          `json:"album"`
		Genre   string          `json:"genre"`
		ModTime json.RawMessage `json:"mtime"`
		Size    json.RawMessage `json:"size"`
		Kind    string          `json:"media_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	mtime, err := parseFlexInt(raw.ModTime)
	if err != nil {
		return fmt.Errorf("field mtime: %w", err)
	}
	size, err := parseFlexInt(raw.Size)
	if err != nil {
		return fmt.Errorf("field size: %w", err)
	}

	t.Path = raw.Path
	t.Title = raw.Title
	t.Artist = raw.Artist
	t.Album = raw.Album
	t.Genre = raw.Genre
	t.ModTime = mtime
	t.Size = size
	t.Kind = mediatypes.MediaKind(raw.Kind)
	return nil
}

// parseFlexInt reads an int64 from a raw JSON number or a quoted
// numeric string. Missing and null both yield an error so that a
// record with dropped fields is rejected rather than zero-filled.
func parseFlexInt(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, fmt.Errorf("missing numeric value")
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", s, err)
	}
	return n, nil
}

// Valid reports whether every required field carries a value. Used by
// index validation and salvage to reject structurally damaged records.
func (t *Track) Valid() bool {
	if t.Path == "" || t.Title == "" || t.Artist == "" || t.Album == "" || t.Genre == "" {
		return false
	}
	switch t.Kind {
	case mediatypes.KindAudio, mediatypes.KindVideo, mediatypes.KindPlaylist, mediatypes.KindUnknown:
		return true
	default:
		return false
	}
}

// String renders the track for pickers and logs.
func (t *Track) String() string {
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// Field returns the named tag field. Unknown names return "".
func (t *Track) Field(name string) string {
	switch name {
	case "artist":
		return t.Artist
	case "genre":
		return t.Genre
	case "album":
		return t.Album
	case "title":
		return t.Title
	default:
		return ""
	}
}

// SplitValues parses a multi-valued tag field into its elements,
// splitting on ';' and ',' and dropping surrounding whitespace and
// empty entries. A plain single value comes back as a one-element
// slice.
func SplitValues(field string) []string {
	parts := strings.FieldsFunc(field, func(r rune) bool {
		return r == ';' || r == ','
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// JoinValues is the inverse of SplitValues.
func JoinValues(values []string) string {
	return strings.Join(values, "; ")
}
