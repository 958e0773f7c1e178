package startup

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"jukebox/internal/logging"
)

// Build metadata, overridden at link time.
var (
	Version = "dev"
	Commit  = "unknown"
)

// ErrMPVMissing is returned when the required player binary cannot be
// found.
var ErrMPVMissing = errors.New("mpv not found in PATH")

// Deps reports which external tools were found.
type Deps struct {
	MPV     bool
	FFProbe bool
}

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// CheckDeps probes the PATH for the external tools jukebox uses.
func CheckDeps() Deps {
	var d Deps
	if _, err := lookPath("mpv"); err == nil {
		d.MPV = true
	}
	if _, err := lookPath("ffprobe"); err == nil {
		d.FFProbe = true
	} else {
		logging.Warn("ffprobe not found, tag extraction will rely on the built-in reader")
	}
	return d
}

// Require verifies the hard dependencies are present.
func (d Deps) Require() error {
	if !d.MPV {
		return ErrMPVMissing
	}
	return nil
}

// BuildInfo returns a one-line description of this build.
func BuildInfo() string {
	return fmt.Sprintf("jukebox %s (%s, %s)", Version, Commit, runtime.Version())
}
