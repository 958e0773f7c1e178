// Package metadata extracts tag metadata from media files.
//
// Extraction never fails outright; it walks a fallback chain and
// degrades to filename-derived defaults. Playlist files are
// synthesized without deep parsing. For everything else an ffprobe
// invocation (time-bounded, so one unreadable file cannot stall a
// scan) reads container and stream tags, normalizing across
// historical tag-naming conventions; if that leaves both title and
// artist empty, a narrower in-process tag reader is consulted for
// those two fields. Remaining gaps are filled with the filename stem
// for the title and "UNKNOWN" for the rest.
package metadata
