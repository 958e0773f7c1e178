// Package playlist reads M3U, M3U8, and PLS playlist files and writes
// the temporary play queue handed to the player.
//
// Parsing is shallow: entries are collected for counting and preview,
// comment and directive lines are skipped, and no referenced file is
// ever opened.
package playlist
