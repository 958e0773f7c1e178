// Package index persists the track library as a JSON Lines file, one
// record per line.
//
// Writes are atomic: records go to a temporary file in the same
// directory which is then renamed over the live index, so a reader
// never observes a half-written store. Validation parses every line,
// catching damage in the middle of the file as well as a truncated
// tail. Salvage keeps whatever subset of lines still parses, for the
// self-healing path.
package index
