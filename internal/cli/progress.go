package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/bioforge/edamatch-go/internal/models"
	"github.com/bioforge/edamatch-go/internal/service"
)

const pollInterval = 500 * time.Millisecond

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the runner
type tickMsg time.Time

// runDoneMsg carries the final run outcome from the background goroutine.
type runDoneMsg struct {
	result *service.RunResult
	err    error
}

// progressModel is the bubbletea model for batch run progress.
type progressModel struct {
	runner   *service.Runner
	snap     service.Progress
	progress progress.Model
	theme    Theme
	done     chan runDoneMsg
	final    *runDoneMsg
	quitting bool
}

func newProgressModel(runner *service.Runner, done chan runDoneMsg) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return progressModel{
		runner:   runner,
		progress: prog,
		theme:    defaultTheme,
		done:     done,
	}
}

// Init returns the initial command (start polling).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.waitForDone(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		m.snap = m.runner.Progress()
		return m, tickCmd()

	case runDoneMsg:
		m.final = &msg
		m.snap = m.runner.Progress()
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.final != nil {
		return m.finalView()
	}

	if m.snap.Total == 0 {
		return "Loading run state...\n"
	}

	pct := float64(m.snap.Processed) / float64(m.snap.Total)

	status := m.theme.statusStyle().Render(
		fmt.Sprintf("[batch %d/%d]", m.snap.Batch, m.snap.Batches))
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d packages", m.snap.Processed, m.snap.Total)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to stop; completed batches are checkpointed")

	return fmt.Sprintf("%s %s %s\n%s\n", status, progressBar, counts, hint)
}

func (m progressModel) finalView() string {
	if m.final.err != nil {
		return m.theme.errorStyle().Render(
			fmt.Sprintf("\n✗ Run failed: %s\n", m.final.err)) +
			m.theme.hintStyle().Render("Rerun with the same checkpoint dir to resume.\n")
	}
	return m.theme.completedStyle().Render("✓ Completed") +
		fmt.Sprintf(" %d packages in %d batches\n", m.snap.Total, m.snap.Batches)
}

// waitForDone blocks on the runner goroutine's result channel.
// Runs as a command so Update() never blocks.
func (m progressModel) waitForDone() tea.Cmd {
	return func() tea.Msg {
		return <-m.done
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runWithProgress executes the run in a background goroutine while the
// interactive progress UI polls its state. Ctrl+C cancels the run; completed
// batches stay checkpointed.
func runWithProgress(ctx context.Context, runner *service.Runner, inputPath string, records []models.PackageRecord) (*service.RunResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan runDoneMsg, 1)
	go func() {
		result, err := runner.Run(ctx, inputPath, records)
		done <- runDoneMsg{result: result, err: err}
	}()

	model := newProgressModel(runner, done)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(progressModel); ok {
		if m.quitting {
			// User interrupt: cancel the run and wait for it to stop so
			// the manifest reflects the last completed batch.
			cancel()
			final := <-done
			if final.err != nil {
				return nil, fmt.Errorf("run interrupted: %w", final.err)
			}
			return final.result, nil
		}
		if m.final != nil {
			return m.final.result, m.final.err
		}
	}

	// UI exited without a final message; collect the run outcome directly.
	final := <-done
	return final.result, final.err
}
