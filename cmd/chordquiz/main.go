// Package main provides the CLI entrypoint for chordquiz.
package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/chordquiz/internal/chordlist"
	"github.com/verte-zerg/chordquiz/internal/config"
	"github.com/verte-zerg/chordquiz/internal/generator"
	"github.com/verte-zerg/chordquiz/internal/model"
	"github.com/verte-zerg/chordquiz/internal/replay"
	"github.com/verte-zerg/chordquiz/internal/server"
	"github.com/verte-zerg/chordquiz/internal/stats"
	"github.com/verte-zerg/chordquiz/internal/statsui"
	"github.com/verte-zerg/chordquiz/internal/store"
	"github.com/verte-zerg/chordquiz/internal/theory"
	"github.com/verte-zerg/chordquiz/internal/tui"
)

const (
	defaultKey         = "C"
	defaultAccidentals = "sharp"
	defaultLength      = 4
	defaultOctave      = 4
	defaultWeakTop     = 4
	defaultWeakFactor  = 2.0
	defaultWeakWindow  = 20
	defaultCurveWindow = 20
)

var (
	catalogColumns = []stats.Column{{Header: "Symbol"}, {Header: "Name"}, {Header: "Intervals"}, {Header: "Aliases"}}
	replayColumns  = []stats.Column{
		{Header: "Game", Right: true},
		{Header: "Key"},
		{Header: "Succeeded", Right: true},
		{Header: "Score", Right: true},
		{Header: "Time", Right: true},
		{Header: "Chords"},
	}
)

// quizFlags holds the quiz settings shared by the practice and replay commands.
type quizFlags struct {
	key            string
	accidentals    string
	length         int
	types          []string
	disabled       []string
	diatonic       bool
	allowOmissions bool
	list           string
	octave         int
	focusWeak      bool
	weakTop        int
	weakFactor     float64
	weakWindow     int
}

var (
	practiceFlags quizFlags
	replayFlags   quizFlags

	replaySeed  int64
	replayStore bool

	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsText        bool

	serveAddr string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chordquiz",
		Short:         "TUI chord recognition trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}
	bindQuizFlags(rootCmd, &practiceFlags)
	rootCmd.Flags().IntVar(&practiceFlags.octave, "octave", defaultOctave, "octave of the lowest keyboard key")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newTypesCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func bindQuizFlags(cmd *cobra.Command, f *quizFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.key, "key", defaultKey, "key the chords are drawn from")
	flags.StringVar(&f.accidentals, "accidentals", defaultAccidentals, "spelling of black keys (sharp or flat)")
	flags.IntVar(&f.length, "length", defaultLength, "chords per game")
	flags.StringSliceVar(&f.types, "types", nil, "chord types to practice (default: all)")
	flags.StringSliceVar(&f.disabled, "disabled", nil, "chord types never generated or detected")
	flags.BoolVar(&f.diatonic, "diatonic", false, "only chords built from the key's major scale")
	flags.BoolVar(&f.allowOmissions, "allow-omissions", false, "accept four-note chords played without the fifth")
	flags.StringVar(&f.list, "list", "", "drill list file or name under the lists directory")
	flags.BoolVar(&f.focusWeak, "focus-weak", false, "bias practice toward weak chord types")
	flags.IntVar(&f.weakTop, "weak-top", defaultWeakTop, "number of weak chord types to focus on")
	flags.Float64Var(&f.weakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak chord types")
	flags.IntVar(&f.weakWindow, "weak-window", defaultWeakWindow, "number of recent games to compute weak types")
}

// applyFileConfig overlays config file values on flags the user did not set.
func applyFileConfig(cmd *cobra.Command, f *quizFlags, q config.QuizConfig) {
	applyConfig(cmd, "key", &f.key, q.Key)
	applyConfig(cmd, "accidentals", &f.accidentals, q.Accidentals)
	applyConfig(cmd, "length", &f.length, q.Length)
	applyConfig(cmd, "types", &f.types, q.Types)
	applyConfig(cmd, "disabled", &f.disabled, q.Disabled)
	applyConfig(cmd, "diatonic", &f.diatonic, q.Diatonic)
	applyConfig(cmd, "allow-omissions", &f.allowOmissions, q.AllowOmissions)
	applyConfig(cmd, "list", &f.list, q.List)
	applyConfig(cmd, "octave", &f.octave, q.Octave)
	applyConfig(cmd, "focus-weak", &f.focusWeak, q.FocusWeak)
	applyConfig(cmd, "weak-top", &f.weakTop, q.WeakTop)
	applyConfig(cmd, "weak-factor", &f.weakFactor, q.WeakFactor)
	applyConfig(cmd, "weak-window", &f.weakWindow, q.WeakWindow)
}

func applyConfig[T any](cmd *cobra.Command, name string, target, value *T) {
	if value == nil {
		return
	}
	if flag := cmd.Flags().Lookup(name); flag == nil || flag.Changed {
		return
	}
	*target = *value
}

// resolveConfig loads the config file and environment, then turns flags into
// validated practice settings.
func resolveConfig(cmd *cobra.Command, f *quizFlags) (model.Config, config.Env, error) {
	envCfg, err := config.LoadEnv()
	if err != nil {
		return model.Config{}, config.Env{}, fmt.Errorf("failed to load environment: %w", err)
	}
	fileCfg, err := config.LoadConfig(envCfg.ConfigPath)
	if err != nil {
		return model.Config{}, envCfg, fmt.Errorf("failed to load config: %w", err)
	}
	applyFileConfig(cmd, f, fileCfg.Quiz)
	cfg, err := buildConfig(*f)
	if err != nil {
		return model.Config{}, envCfg, err
	}
	return cfg, envCfg, nil
}

func buildConfig(f quizFlags) (model.Config, error) {
	key, err := theory.ParsePitchClass(f.key)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --key value: %w", err)
	}
	acc, err := theory.ParseAccidentals(f.accidentals)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --accidentals value: %w", err)
	}
	types, err := canonicalTypes(f.types)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --types value: %w", err)
	}
	disabled, err := canonicalTypes(f.disabled)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --disabled value: %w", err)
	}

	cfg := model.Config{
		Parameters: model.Parameters{
			Key:            key,
			Accidentals:    acc,
			Types:          types,
			Disabled:       disabled,
			Length:         f.length,
			Diatonic:       f.diatonic,
			AllowOmissions: f.allowOmissions,
		},
		FocusWeak:  f.focusWeak,
		WeakTop:    f.weakTop,
		WeakFactor: f.weakFactor,
		WeakWindow: f.weakWindow,
		Octave:     f.octave,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}

	if f.list != "" {
		cfg.ListPath = config.ResolveListPath(f.list)
		pool, err := chordlist.Load(cfg.ListPath)
		if err != nil {
			return model.Config{}, fmt.Errorf("failed to load chord list %s: %w", cfg.ListPath, err)
		}
		cfg.Parameters.Pool = pool
	}
	if len(generator.Pool(cfg.Parameters)) == 0 {
		return model.Config{}, fmt.Errorf("no chords match the selected types and key %s", key.Name(acc))
	}
	return cfg, nil
}

// canonicalTypes maps chord-type aliases to catalog symbols.
func canonicalTypes(names []string) ([]string, error) {
	var out []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t, ok := theory.TypeBySymbol(name)
		if !ok {
			return nil, fmt.Errorf("unknown chord type %q (see: chordquiz types)", name)
		}
		out = append(out, t.Symbol)
	}
	return out, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.Parameters.Length <= 0 {
		return fmt.Errorf("--length must be > 0")
	}
	if cfg.Octave < 1 || cfg.Octave > 6 {
		return fmt.Errorf("--octave must be between 1 and 6")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	cfg, envCfg, err := resolveConfig(cmd, &practiceFlags)
	if err != nil {
		return err
	}

	st, err := store.Open(envCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	m := tui.NewModel(cfg, st, generator.New())
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	envCfg, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	path := envCfg.ConfigPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the chord-type catalog",
		Args:  cobra.NoArgs,
		RunE:  runTypesCmd,
	}
}

func runTypesCmd(cmd *cobra.Command, _ []string) error {
	types := theory.Types()
	rows := make([][]string, 0, len(types))
	for _, t := range types {
		rows = append(rows, []string{
			t.Symbol,
			t.Name,
			strings.Join(t.Intervals, " "),
			strings.Join(t.Aliases[1:], " "),
		})
	}
	for _, line := range stats.FormatTable(catalogColumns, rows) {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N games")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsText, "text", false, "print a plain text report instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	cfg := model.StatsConfig{
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	envCfg, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	st, err := store.Open(envCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsText {
		report, err := stats.BuildReport(cmd.Context(), st, cfg)
		if err != nil {
			return err
		}
		return report.Render(cmd.OutOrStdout(), cfg.CurveWindow)
	}

	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay FILE.mid",
		Short: "Score a recorded MIDI performance",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplayCmd,
	}
	bindQuizFlags(cmd, &replayFlags)
	cmd.Flags().Int64Var(&replaySeed, "seed", 1, "generator seed; the same seed replays the same games")
	cmd.Flags().BoolVar(&replayStore, "store", false, "save completed games to the history")
	return cmd
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	replayFlags.octave = defaultOctave
	cfg, envCfg, err := resolveConfig(cmd, &replayFlags)
	if err != nil {
		return err
	}
	frames, err := replay.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := replay.Play(ctx, generator.NewSeeded(replaySeed), cfg.Parameters, frames, replay.Options{})
	if err != nil {
		return fmt.Errorf("failed to replay %s: %w", args[0], err)
	}
	if err := printReplay(cmd, res); err != nil {
		return err
	}

	if !replayStore || len(res.Games) == 0 {
		return nil
	}
	st, err := store.Open(envCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	for _, g := range res.Games {
		if _, err := st.InsertGame(ctx, g.Record, g.Attempts); err != nil {
			return fmt.Errorf("failed to save game: %w", err)
		}
	}
	logErrf("Saved %d games (run %s)\n", len(res.Games), res.RunID)
	return nil
}

func printReplay(cmd *cobra.Command, res replay.Result) error {
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Frames: %d\nCompleted games: %d\n", res.Frames, len(res.Games)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(res.Games) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(res.Games))
	totalChords, totalSucceeded, totalScore := 0, 0, 0
	for i, g := range res.Games {
		played := make([]string, 0, len(g.Attempts))
		for _, a := range g.Attempts {
			p := a.Played
			if p == "" {
				p = "?"
			}
			played = append(played, a.Expected+"→"+p)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			g.Record.Key,
			fmt.Sprintf("%d/%d", g.Record.Succeeded, g.Record.Chords),
			fmt.Sprintf("%d", g.Record.Score),
			fmt.Sprintf("%.1fs", float64(g.Record.DurationMs)/1000),
			strings.Join(played, " "),
		})
		totalChords += g.Record.Chords
		totalSucceeded += g.Record.Succeeded
		totalScore += g.Record.Score
	}
	for _, line := range stats.FormatTable(replayColumns, rows) {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	acc := float64(totalSucceeded) / float64(totalChords) * 100
	if _, err := fmt.Fprintf(out, "Accuracy: %.2f%%  Score: %d\n", acc, totalScore); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve practice history over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $CHORDQUIZ_ADDR or "+config.DefaultAddr+")")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	envCfg, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	addr := envCfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	st, err := store.Open(envCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stderr, "chordquiz: ", log.LstdFlags)
	logger.Printf("listening on %s", addr)
	return server.New(st, logger).ListenAndServe(ctx, addr)
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# chordquiz configuration
# Uncomment a value to enable it. CLI flags override config values.

[quiz]
# key = %q                # Key the chords are drawn from
# accidentals = %q    # sharp or flat
# length = %d               # Chords per game
# types = ["maj7", "m7", "7"]  # Chord types to practice (default: all, see: chordquiz types)
# disabled = ["5"]          # Chord types never generated or detected
# diatonic = false          # Only chords built from the key's major scale
# allow-omissions = false   # Accept four-note chords played without the fifth
# list = "jazz"             # Drill list file, or a name under %s
# octave = %d               # Octave of the lowest keyboard key
# focus-weak = false        # Bias practice toward weak chord types
# weak-top = %d             # Number of weak chord types to focus on
# weak-factor = %.1f        # Weight factor for weak chord types
# weak-window = %d         # Number of recent games to compute weak types
`,
		defaultKey,
		defaultAccidentals,
		defaultLength,
		config.DefaultListDir(),
		defaultOctave,
		defaultWeakTop,
		defaultWeakFactor,
		defaultWeakWindow,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
