// Package tui provides a Bubble Tea live view of a session's net diff.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/statusline/internal/netdiff"
	"github.com/fakeyudi/statusline/internal/transcript"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	totalsStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2)

	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("151"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("211"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))

	statusStyles = map[netdiff.Status]lipgloss.Style{
		netdiff.StatusModified:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		netdiff.StatusUnchanged: dimStyle,
		netdiff.StatusDeleted:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		netdiff.StatusSkipped:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		netdiff.StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
	}

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// Refresher recomputes the report from the transcript.
type Refresher func() netdiff.Report

// ReportMsg delivers a freshly computed report.
type ReportMsg struct {
	Report netdiff.Report
	At     time.Time
}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the watch view.
type Model struct {
	transcript string
	workDir    string
	refresh    Refresher
	report     netdiff.Report
	updated    time.Time
	viewport   viewport.Model
	width      int
	height     int
	ready      bool
}

// New creates a watch model for the transcript at path. workDir is stripped
// from file paths for display.
func New(path, workDir string, refresh Refresher) Model {
	return Model{
		transcript: path,
		workDir:    workDir,
		refresh:    refresh,
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return m.refreshCmd() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.refreshCmd()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// title(1) + totals(1) + statusBar(1) = 3 fixed rows
		vpHeight := m.height - 3
		if vpHeight < 1 {
			vpHeight = 1
		}
		m.viewport = viewport.New(m.width, vpHeight)
		m.viewport.SetContent(m.renderFiles())
		m.ready = true
		return m, nil

	case ReportMsg:
		m.report = msg.Report
		m.updated = msg.At
		if m.ready {
			m.viewport.SetContent(m.renderFiles())
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  statusline watch  " + filepath.Base(m.transcript))

	totals := totalsStyle.Render(fmt.Sprintf("%s %s  across %d files",
		addedStyle.Render(fmt.Sprintf("+%d", m.report.Totals.Added)),
		removedStyle.Render(fmt.Sprintf("-%d", m.report.Totals.Removed)),
		len(m.report.Files),
	))

	hint := "  ↑/↓ scroll  r refresh  q quit"
	updated := ""
	if !m.updated.IsZero() {
		updated = timeStyle.Render("updated " + m.updated.Format("15:04:05"))
	}
	pad := m.width - lipgloss.Width(hint) - lipgloss.Width(updated) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad) + updated)

	return lipgloss.JoinVertical(lipgloss.Left, title, totals, m.viewport.View(), statusBar)
}

func (m Model) refreshCmd() tea.Cmd {
	refresh := m.refresh
	return func() tea.Msg {
		return ReportMsg{Report: refresh(), At: time.Now()}
	}
}

// renderFiles lists every tracked file with its contribution.
func (m Model) renderFiles() string {
	if len(m.report.Files) == 0 {
		return dimStyle.Render("  (no files touched yet)") + "\n"
	}
	var sb strings.Builder
	for _, f := range m.report.Files {
		style, ok := statusStyles[f.Status]
		if !ok {
			style = dimStyle
		}
		fmt.Fprintf(&sb, "  %s %s  %s  %s\n",
			addedStyle.Render(fmt.Sprintf("%6s", fmt.Sprintf("+%d", f.Added))),
			removedStyle.Render(fmt.Sprintf("%6s", fmt.Sprintf("-%d", f.Removed))),
			style.Render(fmt.Sprintf("%-9s", f.Status)),
			stripWorkDir(f.Path, m.workDir),
		)
	}
	return sb.String()
}

// stripWorkDir removes the workDir prefix from path, returning a relative path.
// If path doesn't start with workDir, it's returned unchanged.
func stripWorkDir(path, workDir string) string {
	if workDir == "" {
		return path
	}
	prefix := workDir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if strings.HasPrefix(path, prefix) {
		return path[len(prefix):]
	}
	return path
}

// Run starts the watch view and re-renders whenever the transcript changes,
// until the user quits or ctx is cancelled.
func Run(ctx context.Context, path, workDir string, refresh Refresher) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(path, workDir, refresh), tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		_ = transcript.Watch(ctx, path, func() {
			p.Send(ReportMsg{Report: refresh(), At: time.Now()})
		})
	}()

	_, err := p.Run()
	if ctx.Err() != nil {
		// Interrupted from outside; not an error for the caller.
		return nil
	}
	return err
}
