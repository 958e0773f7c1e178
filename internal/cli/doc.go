// Package cli implements the jukebox command line: flag parsing,
// index maintenance entry points, filter resolution, and the
// interactive modes.
//
// Filter flags accept an optional value. Given bare (-g), they open
// the matching picker; given a value (--genre=rock), they feed the
// filter resolution engine. A comma in a value turns the constraint
// into a union and skips disambiguation.
package cli
