// Package indexer maintains the track index: full rebuilds,
// incremental diff-based updates, and self-healing recovery from a
// corrupt store.
//
// Updates diff the live file set against the stored records by path,
// modification time, and size; only new or changed files are
// re-probed, everything else is reused verbatim. When the store fails
// validation the healer salvages whatever records still parse and
// reconciles them against disk, falling back to a full rebuild only
// when nothing is salvageable.
package indexer
