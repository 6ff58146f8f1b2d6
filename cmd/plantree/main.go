// Package main provides the CLI entrypoint for plantree.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/plantree/internal/audio"
	"github.com/verte-zerg/plantree/internal/config"
	"github.com/verte-zerg/plantree/internal/grove"
	"github.com/verte-zerg/plantree/internal/leaderboard"
	"github.com/verte-zerg/plantree/internal/logging"
	"github.com/verte-zerg/plantree/internal/model"
	"github.com/verte-zerg/plantree/internal/schedule"
	"github.com/verte-zerg/plantree/internal/stats"
	"github.com/verte-zerg/plantree/internal/store"
	"github.com/verte-zerg/plantree/internal/tui"
)

const (
	defaultAutosaveTicks  = tui.DefaultAutosaveTicks
	defaultTickMs         = 10
	defaultLeaderboardTop = tui.DefaultLeaderboardTop
	defaultRankTop        = 10
)

var (
	growMorning       bool
	growThresholdLow  int
	growThresholdHigh int
	growSpeed         float64
	growMergeCount    int
	growCaptureCmd    string
	growAutosaveTicks int
	growTickMs        int

	verbose bool

	rankTop    int
	rankFormat string

	statusFormat string

	historySince string
	historyLast  int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "plantree",
		Short:         "Grow a forest by keeping the room quiet",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runGrowCmd,
	}

	defaults := model.DefaultSettings()
	rootCmd.Flags().BoolVar(&growMorning, "morning", defaults.MorningMode, "morning mode: grow while loud instead of quiet")
	rootCmd.Flags().IntVar(&growThresholdLow, "threshold-low", defaults.ThresholdLow, "quiet mode grows below this loudness")
	rootCmd.Flags().IntVar(&growThresholdHigh, "threshold-high", defaults.ThresholdHigh, "morning mode grows above this loudness")
	rootCmd.Flags().Float64Var(&growSpeed, "speed", defaults.GrowthSpeed, "growth speed in percent per second")
	rootCmd.Flags().IntVar(&growMergeCount, "merge-count", defaults.MergeCount, "units merged into one unit of the next tier (>= 2)")
	rootCmd.Flags().StringVar(&growCaptureCmd, "capture-cmd", audio.DefaultCaptureCommand, "command printing s16le mono PCM to stdout (empty disables the microphone)")
	rootCmd.Flags().IntVar(&growAutosaveTicks, "autosave-ticks", defaultAutosaveTicks, "save progress every N ticks")
	rootCmd.Flags().IntVar(&growTickMs, "tick-ms", defaultTickMs, "tick interval in milliseconds")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newRankCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func runGrowCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "capture-cmd", &growCaptureCmd, fileCfg.Widget.CaptureCmd)
	applyIntConfig(cmd, "autosave-ticks", &growAutosaveTicks, fileCfg.Widget.AutosaveTicks)
	applyIntConfig(cmd, "tick-ms", &growTickMs, fileCfg.Widget.TickMs)
	leaderboardTop := defaultLeaderboardTop
	applyIntConfig(cmd, "", &leaderboardTop, fileCfg.Widget.LeaderboardTop)
	if err := validateWidget(growAutosaveTicks, growTickMs, leaderboardTop); err != nil {
		return err
	}

	dataDir := resolveDataDir(fileCfg)
	logger, err := logging.New(config.LogPath(dataDir), verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	manager, history := openManager(dataDir, logger)
	defer closeHistory(history, logger)

	pinned := flagGrove(cmd)
	settings := resolveSettings(fileCfg.Grove, pinned, manager.Settings())
	if err := manager.ApplySettings(settings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	_ = manager.PersistState()

	level := &audio.Level{}
	widget := tui.NewModel(manager, level, tui.Options{
		Tick:           time.Duration(growTickMs) * time.Millisecond,
		AutosaveTicks:  growAutosaveTicks,
		LeaderboardTop: leaderboardTop,
	}, logger)
	program := tea.NewProgram(widget, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if strings.TrimSpace(growCaptureCmd) != "" {
		sampler := audio.NewSampler(level, logger)
		g.Go(func() error {
			if err := sampler.Listen(gctx, growCaptureCmd); err != nil {
				logger.Warn("microphone capture stopped", zap.Error(err))
			}
			return nil
		})
	} else {
		logger.Info("no capture command configured, loudness stays at 0")
	}

	configPath := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		logger.Warn("config reload disabled", zap.Error(err))
	} else {
		g.Go(func() error {
			err := config.Watch(gctx, configPath, config.DefaultWatchDebounce, logger, func(cfg config.FileConfig) {
				if !cfg.Grove.IsSet() {
					return
				}
				program.Send(tui.SettingsMsg{Grove: cfg.Grove.Merge(pinned)})
			})
			if err != nil {
				logger.Warn("config reload disabled", zap.Error(err))
			}
			return nil
		})
	}

	sched := schedule.New(time.Local)
	if err := sched.AtMidnight(func() { program.Send(tui.RolloverMsg{}) }); err != nil {
		logger.Warn("midnight rollover job disabled", zap.Error(err))
	}
	sched.Start()
	logger.Debug("midnight rollover scheduled", zap.Time("next", sched.NextRun()))
	defer sched.Stop()

	_, runErr := program.Run()
	cancel()
	if err := g.Wait(); err != nil {
		logger.Warn("background task failed", zap.Error(err))
	}
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
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
	path := config.DefaultConfigPath()
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

func newRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Show the leaderboard of best days",
		Args:  cobra.NoArgs,
		RunE:  runRankCmd,
	}
	cmd.Flags().IntVar(&rankTop, "top", defaultRankTop, "number of entries to show")
	cmd.Flags().StringVar(&rankFormat, "format", "table", "output format: table, json or yaml")
	return cmd
}

func runRankCmd(cmd *cobra.Command, _ []string) error {
	if rankTop <= 0 || rankTop > leaderboard.MaxEntries {
		return fmt.Errorf("--top must be between 1 and %d", leaderboard.MaxEntries)
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New("stderr", verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	files := store.NewFiles(resolveDataDir(fileCfg))
	entries, err := files.LoadLeaderboard()
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Warn("leaderboard unreadable", zap.Error(err))
	}
	top := leaderboard.New(entries).Top(rankTop)
	return writeOutput(cmd.OutOrStdout(), rankFormat, top, func(w io.Writer) error {
		return stats.RenderLeaderboard(w, top)
	})
}

type statusReport struct {
	Date       string         `json:"date" yaml:"date"`
	Progress   float64        `json:"progress" yaml:"progress"`
	Today      model.Counts   `json:"today" yaml:"today"`
	Total      model.Counts   `json:"total" yaml:"total"`
	DailyScore int            `json:"daily_score" yaml:"daily_score"`
	TotalScore int            `json:"total_score" yaml:"total_score"`
	Settings   model.Settings `json:"settings" yaml:"settings"`
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show today's grove, totals and settings",
		Args:  cobra.NoArgs,
		RunE:  runStatusCmd,
	}
	cmd.Flags().StringVar(&statusFormat, "format", "table", "output format: table, json or yaml")
	return cmd
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	manager, cleanup, err := openCLIManager()
	if err != nil {
		return err
	}
	defer cleanup()

	report := statusReport{
		Date:       manager.Date(),
		Progress:   manager.Progress(),
		Today:      manager.DailyCounts(),
		Total:      manager.TotalCounts(),
		DailyScore: manager.DailyScore(),
		TotalScore: manager.TotalScore(),
		Settings:   manager.Settings(),
	}
	return writeOutput(cmd.OutOrStdout(), statusFormat, report, func(w io.Writer) error {
		mode := "quiet"
		if report.Settings.MorningMode {
			mode = "morning"
		}
		if _, err := fmt.Fprintf(w, "%s · %s mode · progress %.1f%%\n\n", report.Date, mode, report.Progress); err != nil {
			return err
		}
		return stats.RenderCounts(w, report.Today, report.Total, report.DailyScore, report.TotalScore)
	})
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Submit today's score and clear today's grove",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	manager, cleanup, err := openCLIManager()
	if err != nil {
		return err
	}
	defer cleanup()

	score := manager.DailyScore()
	manager.Reset()
	if err := manager.PersistState(); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Submitted %d for %s; today's grove cleared.\n", score, manager.Date()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show every archived day",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N days")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historySince != "" {
		if _, err := model.ParseDate(historySince); err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	history, err := store.OpenHistory(filepath.Join(resolveDataDir(fileCfg), store.HistoryFileName))
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := history.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	days, err := history.List(context.Background(), historySince, historyLast)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return stats.RenderHistory(cmd.OutOrStdout(), days, stats.TerminalWidth()-len("Scores: "))
}

func loadFileConfig() (config.FileConfig, error) {
	if err := config.LoadEnv(config.DefaultEnvPath()); err != nil {
		return config.FileConfig{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(&fileCfg)
	return fileCfg, nil
}

func resolveDataDir(cfg config.FileConfig) string {
	if cfg.Widget.DataDir != nil && strings.TrimSpace(*cfg.Widget.DataDir) != "" {
		return *cfg.Widget.DataDir
	}
	return config.DefaultDataDir()
}

// openManager loads the grove from dataDir. The archive is optional: when it
// cannot be opened scores still reach the leaderboard.
func openManager(dataDir string, logger *zap.Logger) (*grove.Manager, *store.History) {
	opts := []grove.Option{grove.WithLogger(logger)}
	history, err := store.OpenHistory(filepath.Join(dataDir, store.HistoryFileName))
	if err != nil {
		logger.Warn("score archive disabled", zap.Error(err))
		history = nil
	} else {
		opts = append(opts, grove.WithArchive(history))
	}
	manager := grove.New(store.NewFiles(dataDir), opts...)
	manager.LoadState()
	return manager, history
}

func openCLIManager() (*grove.Manager, func(), error) {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New("stderr", verbose)
	if err != nil {
		return nil, nil, err
	}
	manager, history := openManager(resolveDataDir(fileCfg), logger)
	cleanup := func() {
		closeHistory(history, logger)
		_ = logger.Sync()
	}
	return manager, cleanup, nil
}

func closeHistory(history *store.History, logger *zap.Logger) {
	if history == nil {
		return
	}
	if err := history.Close(); err != nil {
		logger.Warn("failed to close db", zap.Error(err))
	}
}

// resolveSettings layers the config file and then the pinned flag values
// over the persisted settings.
func resolveSettings(fileGrove, pinned config.GroveConfig, persisted model.Settings) model.Settings {
	return fileGrove.Merge(pinned).Overlay(persisted)
}

// flagGrove returns the grove keys set on the command line. A live config
// reload keeps these values.
func flagGrove(cmd *cobra.Command) config.GroveConfig {
	var g config.GroveConfig
	flags := cmd.Flags()
	if flags.Changed("morning") {
		v := growMorning
		g.MorningMode = &v
	}
	if flags.Changed("threshold-low") {
		v := growThresholdLow
		g.ThresholdLow = &v
	}
	if flags.Changed("threshold-high") {
		v := growThresholdHigh
		g.ThresholdHigh = &v
	}
	if flags.Changed("speed") {
		v := growSpeed
		g.GrowthSpeed = &v
	}
	if flags.Changed("merge-count") {
		v := growMergeCount
		g.MergeCount = &v
	}
	return g
}

func writeOutput(w io.Writer, format string, v any, table func(io.Writer) error) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		return table(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to write json: %w", err)
		}
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to write yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown --format %q (use table, json or yaml)", format)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if name != "" && cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if name != "" && cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	defaults := model.DefaultSettings()
	return fmt.Sprintf(`# plantree configuration
# Uncomment a value to enable it. CLI flags override config values.
# Changes to [grove] are picked up by a running widget.

[grove]
# morning-mode = false     # Grow while loud instead of quiet
# threshold-low = %d       # Quiet mode grows below this loudness
# threshold-high = %d      # Morning mode grows above this loudness
# growth-speed = %.1f     # Percent per second
# merge-count = %d         # Units merged into one unit of the next tier

[widget]
# capture-cmd = %q
# autosave-ticks = %d     # Save progress every N ticks
# tick-ms = %d             # Tick interval in milliseconds
# leaderboard-top = %d     # Entries shown in the leaderboard overlay
# data-dir = ""            # Defaults to $XDG_DATA_HOME/plantree
`,
		defaults.ThresholdLow,
		defaults.ThresholdHigh,
		defaults.GrowthSpeed,
		defaults.MergeCount,
		audio.DefaultCaptureCommand,
		defaultAutosaveTicks,
		defaultTickMs,
		defaultLeaderboardTop,
	)
}

func validateWidget(autosaveTicks, tickMs, leaderboardTop int) error {
	if autosaveTicks <= 0 {
		return fmt.Errorf("--autosave-ticks must be > 0")
	}
	if tickMs <= 0 {
		return fmt.Errorf("--tick-ms must be > 0")
	}
	if leaderboardTop <= 0 || leaderboardTop > leaderboard.MaxEntries {
		return fmt.Errorf("leaderboard-top must be between 1 and %d", leaderboard.MaxEntries)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
