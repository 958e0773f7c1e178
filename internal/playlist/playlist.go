package playlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entries returns the media references listed in a playlist file.
// M3U/M3U8 lines starting with '#' are directives and skipped; PLS
// entries are the FileN= keys in order of appearance.
func Entries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening playlist: %w", err)
	}
	defer f.Close()

	pls := strings.EqualFold(filepath.Ext(path), ".pls")

	var entries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if pls {
			if !strings.HasPrefix(strings.ToLower(line), "file") {
				continue
			}
			eq := strings.IndexByte(line, '=')
			if eq < 0 {
				continue
			}
			if v := strings.TrimSpace(line[eq+1:]); v != "" {
				entries = append(entries, v)
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	return entries, nil
}

// Count returns the number of entries, or 0 when the file is
// unreadable.
func Count(path string) int {
	entries, err := Entries(path)
	if err != nil {
		return 0
	}
	return len(entries)
}

// Preview returns up to n entries for display.
func Preview(path string, n int) []string {
	entries, err := Entries(path)
	if err != nil {
		return nil
	}
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// WriteQueue writes an M3U8 play queue holding paths and returns its
// location. The queue lives at a fixed name inside dir and is
// overwritten on each playback.
func WriteQueue(dir string, paths []string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating queue directory: %w", err)
	}
	queuePath := filepath.Join(dir, "queue.m3u8")

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, p := range paths {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(queuePath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing play queue: %w", err)
	}
	return queuePath, nil
}
