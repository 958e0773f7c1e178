package filter

import (
	"errors"
	"sort"
	"strings"

	"jukebox/internal/logging"
	"jukebox/internal/track"
)

// ErrNoMatch reports that no track satisfies the query. It is an
// expected outcome, not a failure.
var ErrNoMatch = errors.New("no tracks match the filter")

// ErrAborted reports that the user dismissed the disambiguation
// prompt without choosing.
var ErrAborted = errors.New("disambiguation aborted")

// fallbackPriority orders the fields considered for the fallback
// stage; only the first active one participates.
var fallbackPriority = []string{"artist", "genre", "album", "title"}

// Query holds the active field constraints. Values are matched
// case-insensitively; several values for one field act as a union.
type Query struct {
	Genre  []string
	Artist []string
	Album  []string
	Title  []string
}

// Values returns the constraint list for a field name.
func (q Query) Values(field string) []string {
	switch field {
	case "genre":
		return q.Genre
	case "artist":
		return q.Artist
	case "album":
		return q.Album
	case "title":
		return q.Title
	default:
		return nil
	}
}

// WithValues returns a copy of the query with one field's constraint
// replaced.
func (q Query) WithValues(field string, values []string) Query {
	switch field {
	case "genre":
		q.Genre = values
	case "artist":
		q.Artist = values
	case "album":
		q.Album = values
	case "title":
		q.Title = values
	}
	return q
}

// Empty reports whether no constraint is active.
func (q Query) Empty() bool {
	return len(q.Genre) == 0 && len(q.Artist) == 0 && len(q.Album) == 0 && len(q.Title) == 0
}

// MultiValue reports whether any tag field carries several values.
// Such queries ask for a union of results and skip both the exact
// stage and disambiguation.
func (q Query) MultiValue() bool {
	return len(q.Genre) > 1 || len(q.Artist) > 1 || len(q.Album) > 1
}

// activeField returns the highest-priority field with a constraint.
func (q Query) activeField() string {
	for _, f := range fallbackPriority {
		if len(q.Values(f)) > 0 {
			return f
		}
	}
	return ""
}

// Disambiguator picks a subset of candidate field values. Returning
// an empty slice aborts resolution.
type Disambiguator func(field string, candidates []string) []string

// Engine resolves queries against a fixed snapshot of the library.
type Engine struct {
	tracks []track.Track
}

// NewEngine returns an Engine over the given tracks. The slice is
// read, never modified.
func NewEngine(tracks []track.Track) *Engine {
	return &Engine{tracks: tracks}
}

// Resolve runs the two-stage resolution. The choose callback is only
// invoked when substring fallback leaves several candidate values; a
// nil callback auto-aborts in that situation.
func (e *Engine) Resolve(q Query, choose Disambiguator) ([]track.Track, error) {
	if q.Empty() {
		return e.tracks, nil
	}

	if q.MultiValue() {
		logging.Debug("multi-value query, skipping exact stage")
		matched := e.match(q, false)
		if len(matched) == 0 {
			return nil, ErrNoMatch
		}
		return matched, nil
	}

	if matched := e.match(q, true); len(matched) > 0 {
		return matched, nil
	}
	logging.Debug("exact stage empty, trying substring fallback")

	field := q.activeField()
	if field == "" {
		return nil, ErrNoMatch
	}

	// Fallback considers the top-priority field alone; the other
	// constraints come back when the exact stage is re-run.
	fallback := Query{}.WithValues(field, q.Values(field))
	matched := e.match(fallback, false)
	if len(matched) == 0 {
		return nil, ErrNoMatch
	}

	candidates := distinctFieldValues(matched, field)
	if len(candidates) == 1 {
		logging.Debug("fallback auto-resolved", "field", field, "value", candidates[0])
		return e.exactWith(q, field, candidates)
	}

	if choose == nil {
		return nil, ErrAborted
	}
	chosen := choose(field, candidates)
	if len(chosen) == 0 {
		return nil, ErrAborted
	}
	return e.exactWith(q, field, chosen)
}

// exactWith re-runs the exact stage with one field's constraint
// substituted.
func (e *Engine) exactWith(q Query, field string, values []string) ([]track.Track, error) {
	matched := e.match(q.WithValues(field, values), true)
	if len(matched) == 0 {
		return nil, ErrNoMatch
	}
	return matched, nil
}

// match applies every active constraint conjunctively. In exact mode
// tag fields use whole-value matching; titles always match by
// substring.
func (e *Engine) match(q Query, exact bool) []track.Track {
	genre := lowerAll(q.Genre)
	artist := lowerAll(q.Artist)
	album := lowerAll(q.Album)
	title := lowerAll(q.Title)

	var out []track.Track
	for _, t := range e.tracks {
		if !fieldMatches(t.Genre, genre, exact) {
			continue
		}
		if !fieldMatches(t.Artist, artist, exact) {
			continue
		}
		if !fieldMatches(t.Album, album, exact) {
			continue
		}
		if !fieldMatches(t.Title, title, false) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// fieldMatches reports whether a tag field satisfies any of the
// query terms. Terms must already be lowercased; an empty term list
// matches everything.
func fieldMatches(field string, terms []string, exact bool) bool {
	if len(terms) == 0 {
		return true
	}
	lower := strings.ToLower(field)
	if !exact {
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return true
			}
		}
		return false
	}

	elements := track.SplitValues(lower)
	whole := strings.TrimSpace(lower)
	for _, term := range terms {
		if term == whole {
			return true
		}
		for _, el := range elements {
			if el == term {
				return true
			}
		}
	}
	return false
}

// distinctFieldValues collects the sorted set of raw field values
// among the matched tracks.
func distinctFieldValues(tracks []track.Track, field string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range tracks {
		v := t.Field(field)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseValues splits a raw flag value on commas into query terms,
// trimming whitespace and dropping empties. "a, b" becomes a
// two-value (union) constraint.
func ParseValues(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
