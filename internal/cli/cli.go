package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"jukebox/internal/config"
	"jukebox/internal/filter"
	"jukebox/internal/index"
	"jukebox/internal/indexer"
	"jukebox/internal/logging"
	"jukebox/internal/mediatypes"
	"jukebox/internal/metadata"
	"jukebox/internal/picker"
	"jukebox/internal/player"
	"jukebox/internal/playlist"
	"jukebox/internal/scanner"
	"jukebox/internal/startup"
	"jukebox/internal/track"
	"jukebox/internal/watcher"
)

// pickerSentinel marks a filter flag given without a value, which
// opens the corresponding picker instead of filtering.
const pickerSentinel = "\x00picker"

type options struct {
	configPath string
	debug      bool
	verbose    int

	refresh bool
	reindex bool
	watch   bool

	addDir    string
	removeDir string

	playAll bool
	video   bool
	serial  bool
	exts    string

	genre    string
	artist   string
	album    string
	title    string
	playlist string

	shuffle   bool
	noShuffle bool
	volume    int
	loopMode  string
	noLoop    bool

	showVersion bool
}

// NewRootCommand builds the jukebox command tree.
func NewRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "jukebox [target]",
		Short: "Index a music library and play it with mpv",
		Long: `jukebox keeps a self-healing index of your music directories and
resolves fuzzy tag filters into something mpv can play.

Filter flags take an optional value: bare -g opens the genre picker,
--genre=rock filters. Comma-separated values select a union:
--artist="daft punk, ado".`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) == 1 {
				target = args[0]
			}
			return run(cmd.Context(), &opts, target)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "config file to use instead of the default")
	f.BoolVarP(&opts.debug, "debug", "d", false, "debug logging")
	f.CountVarP(&opts.verbose, "verbose", "v", "more logging (repeatable)")

	f.BoolVarP(&opts.refresh, "refresh-index", "r", false, "incrementally refresh the index before anything else")
	f.BoolVar(&opts.reindex, "reindex", false, "rebuild the index from scratch")
	f.BoolVar(&opts.watch, "watch", false, "keep running and refresh the index when the library changes")

	f.StringVar(&opts.addDir, "add-dir", "", "add a music directory and refresh the index")
	f.StringVar(&opts.removeDir, "remove-dir", "", "remove a music directory and refresh the index")

	f.BoolVarP(&opts.playAll, "play-all", "p", false, "play every resolved track without prompting")
	f.BoolVar(&opts.video, "video", false, "include video files")
	f.BoolVar(&opts.serial, "serial", false, "scan serially (kind to spinning disks)")
	f.StringVarP(&opts.exts, "ext", "e", "", "only scan these extensions (comma separated), overriding the configured sets")

	f.StringVarP(&opts.genre, "genre", "g", "", "filter by genre; bare flag opens the genre picker")
	f.StringVarP(&opts.artist, "artist", "a", "", "filter by artist; bare flag opens the artist picker")
	f.StringVarP(&opts.album, "album", "b", "", "filter by album; bare flag opens the album picker")
	f.StringVarP(&opts.title, "title", "t", "", "filter by title substring; bare flag opens the track picker")
	f.StringVar(&opts.playlist, "playlist", "", "play an indexed playlist by name; bare flag opens the playlist picker")
	markPickerFlags(f, "genre", "artist", "album", "title", "playlist")

	f.BoolVar(&opts.shuffle, "shuffle", false, "shuffle playback")
	f.BoolVar(&opts.noShuffle, "no-shuffle", false, "do not shuffle playback")
	f.IntVar(&opts.volume, "volume", -1, "playback volume (0-150)")
	f.StringVar(&opts.loopMode, "loop", "", "loop mode: playlist, track, no, or a count")
	f.BoolVar(&opts.noLoop, "no-loop", false, "disable looping")

	f.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	return cmd
}

// Execute runs the CLI with signal-aware cancellation.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	cmd.SetContext(ctx)
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, picker.ErrCancelled) || errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// session carries everything an invocation needs after setup.
type session struct {
	cfg     *config.Config
	opts    *options
	scanner *scanner.Scanner
	indexer *indexer.Indexer
	player  *player.Player
	scanOpt scanner.Options
}

func run(ctx context.Context, opts *options, target string) error {
	if opts.showVersion {
		fmt.Println(startup.BuildInfo())
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyOverrides(cfg, opts)

	logOpts := logging.Options{Level: logLevel(cfg, opts)}
	if cfg.EnableFileLogging {
		if logPath, err := config.LogFile(); err == nil {
			logOpts.LogFile = logPath
		}
	}
	if err := logging.Init(logOpts); err != nil {
		return err
	}
	defer logging.Close()
	logging.Debug("starting", "build", startup.BuildInfo())

	deps := startup.CheckDeps()
	if err := deps.Require(); err != nil {
		return fmt.Errorf("%w (install mpv to use jukebox)", err)
	}

	if opts.addDir != "" || opts.removeDir != "" {
		return manageDirs(ctx, cfg, opts, deps)
	}

	s, err := newSession(cfg, opts, deps)
	if err != nil {
		return err
	}

	// A direct file or URL target skips the index entirely. A
	// directory gets a one-off scan instead, with the usual filter
	// and picker flow over just its tracks.
	if target != "" {
		resolved := resolveTarget(target)
		if info, err := os.Stat(resolved); err == nil && info.IsDir() {
			tracks, err := s.oneOffTracks(ctx, resolved)
			if err != nil {
				return err
			}
			if len(tracks) == 0 {
				fmt.Fprintf(os.Stderr, "No playable files in %s.\n", resolved)
				return nil
			}
			return s.dispatch(ctx, tracks)
		}
		return s.player.Play(ctx, resolved)
	}

	tracks, err := s.loadTracks(ctx)
	if err != nil {
		return err
	}

	if opts.watch {
		return s.watchLoop(ctx)
	}

	if len(tracks) == 0 {
		fmt.Fprintln(os.Stderr, "No music found. Add a directory with --add-dir <path>.")
		return nil
	}
	return s.dispatch(ctx, tracks)
}

// dispatch routes a loaded track set to the mode the flags ask for.
func (s *session) dispatch(ctx context.Context, tracks []track.Track) error {
	if isSet(s.opts.playlist) {
		return s.playlistMode(ctx, tracks, s.opts.playlist)
	}

	q, pickField := buildQuery(s.opts)
	if pickField != "" {
		return s.tagMode(ctx, tracks, pickField)
	}
	if !q.Empty() {
		return s.filterMode(ctx, tracks, q)
	}

	if s.opts.playAll {
		return s.player.PlayAll(ctx, paths(tracks))
	}
	return s.trackMode(ctx, tracks)
}

// oneOffTracks scans a single directory into an in-memory track set,
// leaving the persisted index alone.
func (s *session) oneOffTracks(ctx context.Context, dir string) ([]track.Track, error) {
	opt := s.scanOpt
	opt.Roots = []string{dir}
	return s.scanner.Scan(ctx, opt)
}

func newSession(cfg *config.Config, opts *options, deps startup.Deps) (*session, error) {
	classifier := cfg.Classifier()

	var extractor *metadata.Extractor
	if deps.FFProbe {
		extractor = metadata.New(classifier, cfg.ProbeTimeout())
	} else {
		extractor = metadata.NewWithSources(classifier, &metadata.TagFileSource{})
	}

	indexPath, err := config.IndexFile()
	if err != nil {
		return nil, err
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}

	var override []string
	if opts.exts != "" {
		override = mediatypes.ParseExtList(opts.exts)
	}

	sc := scanner.New(extractor)
	return &session{
		cfg:     cfg,
		opts:    opts,
		scanner: sc,
		indexer: indexer.New(sc, index.NewStore(indexPath)),
		player:  player.New(cfg, dataDir),
		scanOpt: scanner.Options{
			Roots:    cfg.RootPaths(),
			Exts:     classifier.ActiveSet(cfg.VideoOK, override),
			Serial:   cfg.SerialMode,
			Progress: progressReporter(os.Stderr),
		},
	}, nil
}

// loadTracks gets the library into memory, honoring the maintenance
// flags and healing a damaged index on the way.
func (s *session) loadTracks(ctx context.Context) ([]track.Track, error) {
	switch {
	case s.opts.reindex:
		return s.indexer.Rebuild(ctx, s.scanOpt)
	case s.opts.refresh:
		if _, err := s.indexer.EnsureHealthy(ctx, s.scanOpt); err != nil {
			return nil, err
		}
		tracks, stats, err := s.indexer.Update(ctx, s.scanOpt)
		if err == nil {
			fmt.Fprintf(os.Stderr, "Index refreshed: %s.\n", stats)
		}
		return tracks, err
	default:
		return s.indexer.EnsureHealthy(ctx, s.scanOpt)
	}
}

func (s *session) watchLoop(ctx context.Context) error {
	w, err := watcher.New(s.cfg.RootPaths(), watcher.DefaultDebounce, func() {
		if _, stats, err := s.indexer.Update(ctx, s.scanOpt); err != nil {
			logging.Error("index refresh failed", "error", err)
		} else {
			fmt.Fprintf(os.Stderr, "Index refreshed: %s.\n", stats)
		}
	})
	if err != nil {
		return err
	}
	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// filterMode resolves a query and acts on the result.
func (s *session) filterMode(ctx context.Context, tracks []track.Track, q filter.Query) error {
	engine := filter.NewEngine(tracks)
	matched, err := engine.Resolve(q, func(field string, candidates []string) []string {
		chosen, err := picker.PickMany(fmt.Sprintf("Which %s did you mean?", field), candidates)
		if err != nil {
			return nil
		}
		return chosen
	})
	if errors.Is(err, filter.ErrNoMatch) {
		fmt.Fprintln(os.Stderr, "No match.")
		return nil
	}
	if errors.Is(err, filter.ErrAborted) {
		return nil
	}
	if err != nil {
		return err
	}

	if len(matched) == 1 {
		logging.Info("single match, playing directly", "path", matched[0].Path)
		return s.player.Play(ctx, matched[0].Path)
	}

	fmt.Printf("Found %d matching tracks.\n", len(matched))
	if s.opts.playAll {
		return s.player.PlayAll(ctx, paths(matched))
	}
	return s.postFilterAction(ctx, matched)
}

// tagMode lists a field's distinct values and filters by the pick.
func (s *session) tagMode(ctx context.Context, tracks []track.Track, field string) error {
	if field == "title" {
		return s.trackMode(ctx, tracks)
	}

	values := distinctTagValues(tracks, field)
	if len(values) == 0 {
		fmt.Fprintln(os.Stderr, "No match.")
		return nil
	}
	choice, err := picker.Pick(fmt.Sprintf("Pick a %s", field), values)
	if err != nil {
		return err
	}
	return s.filterMode(ctx, tracks, filter.Query{}.WithValues(field, []string{choice}))
}

// trackMode picks a single track and plays it.
func (s *session) trackMode(ctx context.Context, tracks []track.Track) error {
	options := make([]string, len(tracks))
	byLabel := make(map[string]string, len(tracks))
	for i := range tracks {
		label := fmt.Sprintf("%s  (%s)", tracks[i].String(), tracks[i].Album)
		options[i] = label
		byLabel[label] = tracks[i].Path
	}
	choice, err := picker.Pick("Pick a track", options)
	if err != nil {
		return err
	}
	return s.player.Play(ctx, byLabel[choice])
}

// playlistMode resolves an indexed playlist by name, or lets the user
// browse them with entry counts.
func (s *session) playlistMode(ctx context.Context, tracks []track.Track, name string) error {
	var lists []track.Track
	for _, t := range tracks {
		if t.Kind == mediatypes.KindPlaylist {
			lists = append(lists, t)
		}
	}
	if len(lists) == 0 {
		fmt.Fprintln(os.Stderr, "No playlists in the library.")
		return nil
	}

	if name != pickerSentinel {
		needle := strings.ToLower(name)
		var matched []track.Track
		for _, t := range lists {
			if strings.Contains(strings.ToLower(t.Title), needle) {
				matched = append(matched, t)
			}
		}
		if len(matched) == 1 {
			logging.Info("single playlist match, playing directly", "path", matched[0].Path)
			return s.player.Play(ctx, matched[0].Path)
		}
		if len(matched) > 1 {
			lists = matched
		}
	}

	options := make([]string, len(lists))
	byLabel := make(map[string]string, len(lists))
	for i, t := range lists {
		label := playlistLabel(t)
		options[i] = label
		byLabel[label] = t.Path
	}
	choice, err := picker.Pick("Pick a playlist", options)
	if err != nil {
		return err
	}
	return s.player.Play(ctx, byLabel[choice])
}

// postFilterAction asks what to do with a multi-track result.
func (s *session) postFilterAction(ctx context.Context, matched []track.Track) error {
	const (
		actionAll  = "Play all"
		actionPick = "Pick a track"
	)
	choice, err := picker.Pick("What now?", []string{actionAll, actionPick})
	if err != nil {
		if errors.Is(err, picker.ErrNoTTY) {
			// Non-interactive callers get everything.
			return s.player.PlayAll(ctx, paths(matched))
		}
		return err
	}
	if choice == actionAll {
		return s.player.PlayAll(ctx, paths(matched))
	}
	return s.trackMode(ctx, matched)
}

func manageDirs(ctx context.Context, cfg *config.Config, opts *options, deps startup.Deps) error {
	changed := false
	if opts.addDir != "" {
		added, err := cfg.AddRoot(opts.addDir)
		if err != nil {
			return err
		}
		if added {
			fmt.Printf("Added %s.\n", opts.addDir)
		} else {
			fmt.Printf("%s is already configured.\n", opts.addDir)
		}
		changed = changed || added
	}
	if opts.removeDir != "" {
		if cfg.RemoveRoot(opts.removeDir) {
			fmt.Printf("Removed %s.\n", opts.removeDir)
			changed = true
		} else {
			fmt.Printf("%s was not configured.\n", opts.removeDir)
		}
	}
	if !changed {
		return nil
	}

	cfg.TouchRoots()
	if err := cfg.Save(); err != nil {
		return err
	}

	s, err := newSession(cfg, opts, deps)
	if err != nil {
		return err
	}
	_, stats, err := s.indexer.Update(ctx, s.scanOpt)
	if err != nil {
		return err
	}
	fmt.Printf("Index refreshed: %s.\n", stats)
	return nil
}

// logLevel resolves the effective log level: the verbosity flags win,
// otherwise the configured default applies.
func logLevel(cfg *config.Config, opts *options) hclog.Level {
	if !opts.debug && opts.verbose == 0 && cfg.LogLevel != "" {
		return logging.LevelFromString(cfg.LogLevel)
	}
	return logging.ParseLevel(opts.debug, opts.verbose)
}

// applyOverrides copies CLI flags over the loaded configuration.
func applyOverrides(cfg *config.Config, opts *options) {
	if opts.video {
		cfg.VideoOK = true
	}
	if opts.serial {
		cfg.SerialMode = true
	}
	if opts.shuffle {
		cfg.Shuffle = true
	}
	if opts.noShuffle {
		cfg.Shuffle = false
	}
	if opts.volume >= 0 {
		cfg.Volume = opts.volume
		if cfg.Volume > 150 {
			cfg.Volume = 150
		}
	}
	if opts.loopMode != "" {
		cfg.LoopMode = opts.loopMode
	}
	if opts.noLoop {
		cfg.LoopMode = "no"
	}
}

// buildQuery turns the filter flags into a query. The second return
// value names a field whose flag was given bare, which opens the
// matching picker instead.
func buildQuery(opts *options) (filter.Query, string) {
	fields := []struct {
		name  string
		value string
	}{
		{"genre", opts.genre},
		{"artist", opts.artist},
		{"album", opts.album},
		{"title", opts.title},
	}

	var q filter.Query
	for _, f := range fields {
		if f.value == pickerSentinel {
			return filter.Query{}, f.name
		}
		if f.value != "" {
			q = q.WithValues(f.name, filter.ParseValues(f.value))
		}
	}
	return q, ""
}

// playlistLabel renders a playlist option with its entry count and a
// short preview of the first entries.
func playlistLabel(t track.Track) string {
	n := playlist.Count(t.Path)
	head := playlist.Preview(t.Path, 3)
	if len(head) == 0 {
		return fmt.Sprintf("%s  (%d entries)", t.Title, n)
	}
	for i, e := range head {
		head[i] = filepath.Base(e)
	}
	suffix := ""
	if n > len(head) {
		suffix = ", ..."
	}
	return fmt.Sprintf("%s  (%d entries: %s%s)", t.Title, n, strings.Join(head, ", "), suffix)
}

// distinctTagValues collects the sorted distinct values of one field,
// splitting delimited multi-value tags into their elements.
func distinctTagValues(tracks []track.Track, field string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range tracks {
		for _, v := range track.SplitValues(t.Field(field)) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// resolveTarget leaves URLs alone and absolutizes local paths.
func resolveTarget(target string) string {
	if strings.Contains(target, "://") {
		return target
	}
	if abs, err := filepath.Abs(target); err == nil {
		return abs
	}
	return target
}

func isSet(flagValue string) bool {
	return flagValue != ""
}

func paths(tracks []track.Track) []string {
	out := make([]string, len(tracks))
	for i := range tracks {
		out[i] = tracks[i].Path
	}
	return out
}

// markPickerFlags lets the filter flags appear without a value, in
// which case they carry the picker sentinel.
func markPickerFlags(f *pflag.FlagSet, names ...string) {
	for _, name := range names {
		f.Lookup(name).NoOptDefVal = pickerSentinel
	}
}

// progressReporter renders extraction progress on w. The bar is
// created on first call, once the total is known, and discarded on
// completion so the next scan (watch mode refreshes, for one) starts
// fresh with its own total.
func progressReporter(w io.Writer) scanner.ProgressFunc {
	var bar *progressbar.ProgressBar
	return func(done, total int, label string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Indexing"),
				progressbar.OptionSetWriter(w),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
		if done >= total {
			_ = bar.Finish()
			bar = nil
		}
	}
}
