// Package picker provides the terminal selection menus used for
// disambiguation and browsing.
//
// Pickers are Bubble Tea programs with type-to-filter narrowing.
// They refuse to run without an interactive terminal so that piped
// or scripted invocations fail fast instead of hanging on input.
package picker
