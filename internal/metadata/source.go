package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

// Fields is a partial tag read. Empty strings mean "not found"; the
// extractor composes sources via first-non-empty-wins per field.
type Fields struct {
	Title  string
	Artist string
	Album  string
	Genre  string
}

// Source reads tag fields from one file. Implementations are tried in
// order by the extractor; later sources are narrower fallbacks.
type Source interface {
	Name() string
	Read(ctx context.Context, path string) (Fields, error)
}

// DefaultProbeTimeout bounds one ffprobe invocation.
const DefaultProbeTimeout = 10 * time.Second

// tagAliases maps each semantic field to the tag keys it may appear
// under, in priority order. Keys are compared case-insensitively;
// ID3v2 frame names (TIT2 et al.) show up verbatim in older rips.
var tagAliases = map[string][]string{
	"title":  {"title", "tit2", "name"},
	"artist": {"artist", "tpe1", "author", "album_artist", "albumartist"},
	"album":  {"album", "talb"},
	"genre":  {"genre", "tcon"},
}

// FFProbeSource reads tags by shelling out to ffprobe.
type FFProbeSource struct {
	// Timeout is the wall-clock cutoff per invocation. Zero means
	// DefaultProbeTimeout.
	Timeout time.Duration
}

// Name implements Source.
func (s *FFProbeSource) Name() string { return "ffprobe" }

// Read invokes ffprobe with JSON output and resolves tag aliases
// across the format and stream tag maps.
func (s *FFProbeSource) Read(ctx context.Context, path string) (Fields, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Fields{}, fmt.Errorf("ffprobe timed out after %s", timeout)
		}
		return Fields{}, fmt.Errorf("ffprobe: %w - %s", err, stderr.String())
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return Fields{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	return resolveTags(out), nil
}

type probeOutput struct {
	Format struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		Tags map[string]string `json:"tags"`
	} `json:"streams"`
}

// resolveTags merges the probe's tag maps (container tags win over
// stream tags) and picks each field's first non-empty alias.
func resolveTags(out probeOutput) Fields {
	merged := make(map[string]string)
	for i := len(out.Streams) - 1; i >= 0; i-- {
		for k, v := range out.Streams[i].Tags {
			merged[strings.ToLower(k)] = v
		}
	}
	for k, v := range out.Format.Tags {
		merged[strings.ToLower(k)] = v
	}

	lookup := func(field string) string {
		for _, alias := range tagAliases[field] {
			if v := strings.TrimSpace(merged[alias]); v != "" {
				return v
			}
		}
		return ""
	}

	return Fields{
		Title:  lookup("title"),
		Artist: lookup("artist"),
		Album:  lookup("album"),
		Genre:  lookup("genre"),
	}
}

// TagFileSource reads tags in-process with dhowden/tag. It is the
// narrow fallback behind ffprobe and reports only title and artist.
type TagFileSource struct{}

// Name implements Source.
func (s *TagFileSource) Name() string { return "tagfile" }

// Read implements Source.
func (s *TagFileSource) Read(ctx context.Context, path string) (Fields, error) {
	if err := ctx.Err(); err != nil {
		return Fields{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Fields{}, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Fields{}, fmt.Errorf("reading tags from %q: %w", path, err)
	}
	return Fields{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
	}, nil
}
