// Package logging provides the leveled logging facade for jukebox.
//
// It fans messages out to an hclog stderr logger (level set from the
// -v/--debug flags) and, when file logging is enabled in the
// configuration, to a debug-level log file under the user data
// directory. Messages use hclog's message-plus-key/value style:
//
//	logging.Info("scan complete", "tracks", n, "elapsed", d)
package logging
