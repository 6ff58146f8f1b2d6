// Package tui provides the Bubble Tea grove widget.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/plantree/internal/audio"
	"github.com/verte-zerg/plantree/internal/config"
	"github.com/verte-zerg/plantree/internal/grove"
)

// Defaults for Options.
const (
	DefaultTick           = 10 * time.Millisecond
	DefaultAutosaveTicks  = 500
	DefaultLeaderboardTop = 10
)

// Options tunes the widget loop.
type Options struct {
	Tick           time.Duration
	AutosaveTicks  int
	LeaderboardTop int
}

func (o Options) withDefaults() Options {
	if o.Tick <= 0 {
		o.Tick = DefaultTick
	}
	if o.AutosaveTicks <= 0 {
		o.AutosaveTicks = DefaultAutosaveTicks
	}
	if o.LeaderboardTop <= 0 {
		o.LeaderboardTop = DefaultLeaderboardTop
	}
	return o
}

// TickMsg advances the grove by one step.
type TickMsg time.Time

// RolloverMsg asks the widget to check for a new calendar day.
type RolloverMsg struct{}

// SettingsMsg carries grove keys changed in the config file. Keys left unset
// keep their current value.
type SettingsMsg struct {
	Grove config.GroveConfig
}

// Model implements the Bubble Tea grove UI.
type Model struct {
	manager *grove.Manager
	level   *audio.Level
	opts    Options
	log     *zap.Logger

	width  int
	height int

	ticks     int
	loudness  int
	showBoard bool
	status    string

	bar   progress.Model
	board table.Model
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	modalStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// NewModel constructs the widget around a loaded manager.
func NewModel(manager *grove.Manager, level *audio.Level, opts Options, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Model{
		manager: manager,
		level:   level,
		opts:    opts.withDefaults(),
		log:     log,
		bar:     progress.New(progress.WithGradient("#3A6B35", "#7FB77E"), progress.WithoutPercentage()),
		board:   newBoardTable(),
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = clamp(msg.Width-10, 10, 60)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		m.advance()
		return m, m.tick()
	case RolloverMsg:
		if m.manager.CheckRollover() {
			m.persist()
		}
		return m, nil
	case SettingsMsg:
		if err := m.manager.ApplySettings(msg.Grove.Overlay(m.manager.Settings())); err != nil {
			m.status = fmt.Sprintf("config rejected: %v", err)
			m.log.Warn("config rejected", zap.Error(err))
			return m, nil
		}
		m.status = "settings reloaded"
		m.persist()
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.persist()
		return m, tea.Quit
	case "esc":
		m.showBoard = false
		return m, nil
	case "m":
		s := m.manager.Settings()
		s.MorningMode = !s.MorningMode
		if err := m.manager.ApplySettings(s); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = ""
		m.persist()
		return m, nil
	case "r":
		m.manager.Reset()
		m.status = "day submitted and cleared"
		m.persist()
		m.refreshBoard()
		return m, nil
	case "l":
		m.showBoard = !m.showBoard
		if m.showBoard {
			m.refreshBoard()
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) advance() {
	if m.manager.CheckRollover() {
		m.persist()
		m.refreshBoard()
	}
	m.loudness = m.level.Latest()
	if m.manager.Update(m.loudness) {
		m.log.Debug("seedling planted", zap.Int("daily_score", m.manager.DailyScore()))
	}
	m.ticks++
	if m.ticks%m.opts.AutosaveTicks == 0 {
		m.persist()
	}
}

func (m *Model) persist() {
	if err := m.manager.PersistState(); err != nil {
		m.status = "save failed, will retry"
		return
	}
	if m.status == "save failed, will retry" {
		m.status = ""
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Tick, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.showBoard {
		content := modalStyle.Render(titleStyle.Render("Leaderboard") + "\n\n" + m.board.View())
		if m.width == 0 || m.height == 0 {
			return content
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}

	forestWidth := m.width - 4
	if forestWidth < 1 {
		forestWidth = 40
	}
	sections := []string{
		titleStyle.Render(m.renderHeader()),
		m.bar.ViewAs(m.manager.Progress()/grove.FullProgress) + fmt.Sprintf(" %3.0f%%", m.manager.Progress()),
		renderForest(m.manager.DailyCounts(), forestWidth),
		scoreStyle.Render(m.renderScores()),
	}
	if m.status != "" {
		sections = append(sections, errorStyle.Render(m.status))
	}
	sections = append(sections, footerStyle.Render("m mode · r reset · l leaderboard · q quit"))
	body := strings.Join(sections, "\n\n")
	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m *Model) renderHeader() string {
	s := m.manager.Settings()
	if s.MorningMode {
		return fmt.Sprintf("Morning mode · loudness %d · grow above %d", m.loudness, s.ThresholdHigh)
	}
	return fmt.Sprintf("Quiet mode · loudness %d · grow below %d", m.loudness, s.ThresholdLow)
}

func (m *Model) renderScores() string {
	total := m.manager.TotalCounts()
	return fmt.Sprintf("%s  Today %d · Total %d  (%d🌱 %d🌳 %d🌲 all-time)",
		m.manager.Date(), m.manager.DailyScore(), m.manager.TotalScore(),
		total.Seedlings, total.Trees, total.Giants)
}

func newBoardTable() table.Model {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Date", Width: 12},
		{Title: "Score", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(DefaultLeaderboardTop+1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Cell
	t.SetStyles(styles)
	return t
}

func (m *Model) refreshBoard() {
	entries := m.manager.TopLeaderboardEntries(m.opts.LeaderboardTop)
	rows := make([]table.Row, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, table.Row{fmt.Sprintf("%d", i+1), e.Date, fmt.Sprintf("%d", e.Score)})
	}
	m.board.SetRows(rows)
	m.board.SetHeight(max(len(rows), 1) + 1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
