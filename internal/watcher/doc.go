// Package watcher follows library roots for filesystem changes and
// triggers incremental index updates.
//
// Events are debounced: a burst of writes (a download, a tag editor
// saving, a directory move) coalesces into one refresh once the tree
// has been quiet for the debounce window. Directories created while
// watching are added to the watch set.
package watcher
