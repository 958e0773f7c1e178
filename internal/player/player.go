package player

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"jukebox/internal/config"
	"jukebox/internal/logging"
	"jukebox/internal/playlist"
)

// Player runs mpv with arguments derived from the configuration.
type Player struct {
	cfg      *config.Config
	queueDir string
}

// New returns a Player writing its play queue under queueDir.
func New(cfg *config.Config, queueDir string) *Player {
	return &Player{cfg: cfg, queueDir: queueDir}
}

// Play hands a single target (file, playlist, or URL) to mpv and
// blocks until it exits.
func (p *Player) Play(ctx context.Context, target string) error {
	args := buildArgs(p.cfg)
	args = append(args, urlArgs(p.cfg, target)...)
	args = append(args, target)
	return p.run(ctx, args)
}

// PlayAll queues several paths into a temporary M3U8 and plays it.
// The queue file is removed after mpv exits.
func (p *Player) PlayAll(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		logging.Debug("empty play queue, nothing to do")
		return nil
	}

	queuePath, err := playlist.WriteQueue(p.queueDir, paths)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(queuePath); err != nil {
			logging.Debug("could not remove play queue", "path", queuePath, "error", err)
		}
	}()

	args := buildArgs(p.cfg)
	args = append(args, urlArgs(p.cfg, paths[0])...)
	args = append(args, "--playlist="+queuePath)
	return p.run(ctx, args)
}

func (p *Player) run(ctx context.Context, args []string) error {
	logging.Info("launching mpv", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "mpv", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("mpv: %w", err)
	}
	return nil
}

// buildArgs assembles the common mpv arguments from the
// configuration.
func buildArgs(cfg *config.Config) []string {
	var args []string

	if !cfg.VideoOK {
		args = append(args, "--force-window=no", "--video=no")
	}

	args = append(args, cfg.MPVDefaultArgs...)
	args = append(args, fmt.Sprintf("--volume=%d", cfg.Volume))

	if cfg.Shuffle {
		args = append(args, "--shuffle")
	}

	switch mode := cfg.LoopMode; mode {
	case "playlist", "inf":
		args = append(args, "--loop-playlist=inf")
	case "track", "file":
		args = append(args, "--loop-file=inf")
	case "no", "off", "false":
		args = append(args, "--loop-playlist=no", "--loop-file=no")
	default:
		if isNumeric(mode) {
			args = append(args, "--loop-playlist="+mode)
		} else {
			logging.Debug("unrecognized loop mode, skipping loop arguments", "mode", mode)
		}
	}

	return args
}

// urlArgs adds network-stream tweaks when the first target is remote.
func urlArgs(cfg *config.Config, target string) []string {
	if !strings.HasPrefix(target, "http") && !strings.HasPrefix(target, "ftp://") {
		return nil
	}

	args := []string{"--msg-level=ytdl_hook=info"}
	if strings.Contains(target, "youtube.com") || strings.Contains(target, "youtu.be") {
		if !cfg.VideoOK {
			args = append(args, "--ytdl-format=bestaudio/best")
		}
	}
	if strings.Contains(target, "list=") {
		args = append(args, "--ytdl-raw-options=yes-playlist=")
	}
	return args
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
