// Package startup probes external tool availability and carries
// build information.
//
// mpv is required for playback and its absence is fatal; ffprobe is
// optional, and without it metadata extraction degrades to the
// in-process tag reader and filename defaults.
package startup
