// Package config loads and persists the jukebox configuration.
//
// The configuration lives as YAML under the user config directory
// (e.g. ~/.config/jukebox/config.yaml) and is created with defaults
// on first run. It is handled as a value: components receive a loaded
// Config and never share mutable configuration state; a reload
// produces a fresh value.
package config
