// Package player launches mpv for resolved tracks.
//
// Playback arguments come from the configuration: volume, shuffle,
// loop mode, audio-only flags, and any default mpv arguments the user
// configured. Multiple tracks are handed over via a temporary M3U8
// queue rather than a long argv. The mpv process runs in the
// foreground and the call blocks until playback ends.
package player
