package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"jukebox/internal/logging"
	"jukebox/internal/mediatypes"
)

const appDirName = "jukebox"

// Root is one configured scan root with its last observed
// modification time, kept for drift bookkeeping.
type Root struct {
	Path     string `yaml:"path"`
	LastSeen int64  `yaml:"last_seen,omitempty"`
}

// Config is the persisted application configuration.
type Config struct {
	Shuffle  bool   `yaml:"shuffle"`
	LoopMode string `yaml:"loop_mode"` // "playlist", "track", "no", "inf", or a count
	Volume   int    `yaml:"volume"`

	Roots      []Root `yaml:"music_dirs"`
	VideoOK    bool   `yaml:"video_ok"`
	SerialMode bool   `yaml:"serial_mode"`

	EnableFileLogging bool   `yaml:"enable_file_logging"`
	LogLevel          string `yaml:"log_level"` // trace, debug, info, warn, or error

	AudioExts    []string `yaml:"audio_exts"`
	VideoExts    []string `yaml:"video_exts"`
	PlaylistExts []string `yaml:"playlist_exts"`

	MPVDefaultArgs []string `yaml:"mpv_default_args"`

	ProbeTimeoutSeconds int `yaml:"probe_timeout_seconds"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	var roots []Root
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, Root{Path: filepath.Join(home, "Music")})
	}

	return &Config{
		Shuffle:           true,
		LoopMode:          "inf",
		Volume:            60,
		Roots:             roots,
		VideoOK:           false,
		SerialMode:        true,
		EnableFileLogging: true,
		LogLevel:          "warn",
		AudioExts:         append([]string(nil), mediatypes.DefaultAudioExtensions...),
		VideoExts:         append([]string(nil), mediatypes.DefaultVideoExtensions...),
		PlaylistExts:      append([]string(nil), mediatypes.DefaultPlaylistExtensions...),
		MPVDefaultArgs: []string{
			"--audio-display=no",
			"--msg-level=cplayer=warn",
			"--no-term-osd-bar",
		},
		ProbeTimeoutSeconds: 10,
	}
}

// Dir returns the configuration directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determining config directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// File returns the configuration file path.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DataDir returns the directory holding the index, play queue, and
// log file.
func DataDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("determining data directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// IndexFile returns the index store path.
func IndexFile() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "music_index.jsonl"), nil
}

// LogFile returns the debug log path.
func LogFile() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "jukebox.log"), nil
}

// Load reads the configuration from path, or from the default
// location when path is empty. A missing file is created with
// defaults first.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = File(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logging.Info("no configuration found, writing defaults", "path", path)
		cfg := Default()
		if err := cfg.SaveTo(path); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the configuration to the default location.
func (c *Config) Save() error {
	path, err := File()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to an explicit path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	logging.Debug("configuration saved", "path", path)
	return nil
}

func (c *Config) normalize() {
	if c.Volume < 0 {
		c.Volume = 0
	}
	if c.Volume > 150 {
		c.Volume = 150
	}
	if c.LoopMode == "" {
		c.LoopMode = "inf"
	}
}

// Classifier builds the extension classifier from the configured
// sets.
func (c *Config) Classifier() mediatypes.Classifier {
	return mediatypes.Classifier{
		Audio:    mediatypes.NewExtSet(c.AudioExts...),
		Video:    mediatypes.NewExtSet(c.VideoExts...),
		Playlist: mediatypes.NewExtSet(c.PlaylistExts...),
	}
}

// RootPaths returns the configured root directories in order.
func (c *Config) RootPaths() []string {
	out := make([]string, len(c.Roots))
	for i, r := range c.Roots {
		out[i] = r.Path
	}
	return out
}

// AddRoot appends a scan root, recording its current modification
// time. Adding an existing root is a no-op and returns false.
func (c *Config) AddRoot(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolving %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return false, fmt.Errorf("checking %q: %w", abs, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%q is not a directory", abs)
	}
	for _, r := range c.Roots {
		if r.Path == abs {
			return false, nil
		}
	}
	c.Roots = append(c.Roots, Root{Path: abs, LastSeen: info.ModTime().Unix()})
	return true, nil
}

// RemoveRoot drops a scan root. Returns false when the root was not
// configured.
func (c *Config) RemoveRoot(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for i, r := range c.Roots {
		if r.Path == abs || r.Path == path {
			c.Roots = append(c.Roots[:i], c.Roots[i+1:]...)
			return true
		}
	}
	return false
}

// TouchRoots refreshes each root's recorded modification time,
// skipping roots that cannot be statted.
func (c *Config) TouchRoots() {
	for i, r := range c.Roots {
		info, err := os.Stat(r.Path)
		if err != nil {
			logging.Warn("cannot stat configured root", "root", r.Path, "error", err)
			continue
		}
		c.Roots[i].LastSeen = info.ModTime().Unix()
	}
}

// ProbeTimeout returns the extractor timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	if c.ProbeTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}
