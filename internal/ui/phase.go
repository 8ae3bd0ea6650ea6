package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// DividerWidth is the default width for divider lines.
const DividerWidth = 64

// Phase represents a distinct execution phase.
type Phase struct {
	Name      string
	StartTime time.Time
	EndTime   time.Time
	Success   bool
	Skipped   bool
	Error     error
}

// Duration returns the phase duration.
func (p Phase) Duration() time.Duration {
	if p.EndTime.IsZero() {
		return time.Since(p.StartTime)
	}
	return p.EndTime.Sub(p.StartTime)
}

// PhaseDisplay renders phase status to an output writer.
type PhaseDisplay struct {
	w      io.Writer
	phases []Phase
}

// NewPhaseDisplay creates a new phase display writing to w.
func NewPhaseDisplay(w io.Writer) *PhaseDisplay {
	return &PhaseDisplay{
		w:      w,
		phases: make([]Phase, 0),
	}
}

// RenderStart renders the line shown when a phase begins.
// Shows: ◐ deploy on admin1
func (pd *PhaseDisplay) RenderStart(name string) {
	style := lipgloss.NewStyle().Foreground(ColorSecondary)
	fmt.Fprintf(pd.w, "%s %s\n", style.Render(SymbolProgress), name)
	pd.phases = append(pd.phases, Phase{Name: name, StartTime: time.Now()})
}

// RenderSuccess renders a completed phase.
// Shows: ● deploy on admin1 (0.3s)
func (pd *PhaseDisplay) RenderSuccess(name string, duration time.Duration) {
	pd.finish(name, true, nil)

	symbolStyle := lipgloss.NewStyle().Foreground(ColorSuccess)
	timingStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	fmt.Fprintf(pd.w, "%s %s %s\n",
		symbolStyle.Render(SymbolComplete),
		name,
		timingStyle.Render(formatDuration(duration)),
	)
}

// RenderFailed renders a failed phase.
// Shows: ✗ load_db on admin1 (2.3s)
func (pd *PhaseDisplay) RenderFailed(name string, duration time.Duration, err error) {
	pd.finish(name, false, err)

	symbolStyle := lipgloss.NewStyle().Foreground(ColorError)
	timingStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	fmt.Fprintf(pd.w, "%s %s %s\n",
		symbolStyle.Render(SymbolFail),
		name,
		timingStyle.Render(formatDuration(duration)),
	)
}

// RenderSkipped renders a skipped phase.
// Shows: ⊘ fix_perms (disabled)
func (pd *PhaseDisplay) RenderSkipped(name string, reason string) {
	pd.phases = append(pd.phases, Phase{Name: name, Skipped: true})

	symbolStyle := lipgloss.NewStyle().Foreground(ColorWarning)
	reasonStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	if reason != "" {
		fmt.Fprintf(pd.w, "%s %s %s\n",
			symbolStyle.Render(SymbolSkipped),
			name,
			reasonStyle.Render("("+reason+")"),
		)
	} else {
		fmt.Fprintf(pd.w, "%s %s\n",
			symbolStyle.Render(SymbolSkipped),
			name,
		)
	}
}

// RenderSubStatus renders an indented sub-status line.
// Shows:   ○ admin1 connected
func (pd *PhaseDisplay) RenderSubStatus(symbol string, name string, status string) {
	style := lipgloss.NewStyle().Foreground(ColorMuted)
	fmt.Fprintf(pd.w, "  %s %s %s\n",
		style.Render(symbol),
		name,
		style.Render(status),
	)
}

// Divider renders a horizontal line to separate phases from command output.
// Uses thick box-drawing characters: ━━━━━━━━━━━━━━━━━
func (pd *PhaseDisplay) Divider() {
	style := lipgloss.NewStyle().Foreground(ColorMuted)
	fmt.Fprintf(pd.w, "\n%s\n\n", style.Render(strings.Repeat("━", DividerWidth)))
}

// CommandPrompt renders the command about to be executed.
// Shows: $ wpd production deploy
func (pd *PhaseDisplay) CommandPrompt(cmd string) {
	style := lipgloss.NewStyle().Foreground(ColorMuted)
	fmt.Fprintf(pd.w, "%s %s\n", style.Render("$"), cmd)
}

// Newline writes an empty line.
func (pd *PhaseDisplay) Newline() {
	fmt.Fprintln(pd.w)
}

// Phases returns the phases rendered so far, in order.
func (pd *PhaseDisplay) Phases() []Phase {
	return append([]Phase(nil), pd.phases...)
}

// finish records the outcome of the most recent phase named name.
func (pd *PhaseDisplay) finish(name string, success bool, err error) {
	for i := len(pd.phases) - 1; i >= 0; i-- {
		if pd.phases[i].Name == name && pd.phases[i].EndTime.IsZero() {
			pd.phases[i].EndTime = time.Now()
			pd.phases[i].Success = success
			pd.phases[i].Error = err
			return
		}
	}
	pd.phases = append(pd.phases, Phase{Name: name, EndTime: time.Now(), Success: success, Error: err})
}

// FormatPhase returns a formatted phase line as a string.
func FormatPhase(symbol string, symbolColor lipgloss.Color, name string, timing string) string {
	symbolStyle := lipgloss.NewStyle().Foreground(symbolColor)
	timingStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	if timing == "" {
		return fmt.Sprintf("%s %s", symbolStyle.Render(symbol), name)
	}
	return fmt.Sprintf("%s %s %s", symbolStyle.Render(symbol), name, timingStyle.Render(timing))
}

// formatDuration formats a duration for display (e.g., "0.3s", "1.2s").
func formatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
