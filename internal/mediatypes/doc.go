// Package mediatypes classifies files into media kinds based on their
// extension and resolves the active extension filter for a scan.
//
// Extensions are handled case-insensitively and without a leading dot;
// both ".MP3" and "mp3" normalize to "mp3". The active filter set for
// a scan is the union of the audio and playlist sets, optionally
// unioned with the video set, unless an explicit override list is
// supplied, in which case the override wins entirely.
package mediatypes
