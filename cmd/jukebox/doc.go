// Command jukebox indexes a local music library and plays it with
// mpv, resolving fuzzy tag filters into concrete track sets.
package main
