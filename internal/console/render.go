package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spigell/interview-drill/internal/countdown"
	"github.com/spigell/interview-drill/internal/evaluation"
	"github.com/spigell/interview-drill/internal/session"
)

const (
	colorTitle  = lipgloss.Color("33")
	colorMuted  = lipgloss.Color("242")
	colorTimer  = lipgloss.Color("42")
	colorLow    = lipgloss.Color("196")
	colorError  = lipgloss.Color("160")
	colorNotice = lipgloss.Color("214")

	cursor = "▌"
)

func renderHeader(snap session.Snapshot, noColor bool) string {
	line := "Interview practice"
	if snap.Total > 0 {
		line += fmt.Sprintf(" | Question %d of %d", snap.Index+1, snap.Total)
	}
	return stylize(line, noColor, colorTitle)
}

func renderQuestion(snap session.Snapshot, noColor bool) string {
	text := snap.Revealed
	if snap.Typing {
		text += cursor
	}

	style := lipgloss.NewStyle().Bold(true).PaddingTop(1).PaddingBottom(1)
	if noColor {
		return style.UnsetBold().Render(text)
	}
	return style.Render(text)
}

func renderTimer(snap session.Snapshot, noColor bool) string {
	line := "Time left: " + countdown.Format(snap.Remaining)
	switch {
	case snap.State == session.Presenting:
		line += " (starts after the question is shown)"
	case !snap.TimerOn && snap.State == session.Answering && snap.Remaining == snap.Initial:
		line += " (starts when you answer)"
	}

	color := colorTimer
	if snap.TimerLow {
		color = colorLow
	}
	return stylize(line, noColor, color)
}

func renderStatus(snap session.Snapshot, spin string, noColor bool) string {
	var lines []string

	switch {
	case snap.Busy && snap.State == session.Loading:
		lines = append(lines, spin+" Preparing your interview questions...")
	case snap.Busy && snap.State == session.Submitting:
		lines = append(lines, spin+" Evaluating your answers...")
	}

	if snap.Listening {
		lines = append(lines, stylize("● Listening", noColor, colorLow))
	}
	if snap.Notice != "" {
		lines = append(lines, stylize(snap.Notice, noColor, colorNotice))
	}
	if snap.Err != nil {
		lines = append(lines, stylize("Error: "+snap.Err.Error()+" (ctrl+r to retry)", noColor, colorError))
	}

	return strings.Join(lines, "\n")
}

func renderHelp(snap session.Snapshot, noColor bool) string {
	keys := []string{"ctrl+n next", "ctrl+c quit"}
	if snap.State == session.Answering {
		keys = append([]string{"ctrl+l dictate"}, keys...)
	}
	if snap.Err != nil {
		keys = append([]string{"ctrl+r retry"}, keys...)
	}
	return stylize(strings.Join(keys, " • "), noColor, colorMuted)
}

// RenderSummary renders the evaluation dashboard panel.
func RenderSummary(summary evaluation.Summary, noColor bool) string {
	rows := []string{
		stylize("Interview results", noColor, colorTitle),
		"",
		"Overall score:  " + scoreBar(summary.OverallScore),
		"",
		fmt.Sprintf("%-22s %s", evaluation.CategoryTechnical, scoreBar(summary.TechnicalScore)),
		fmt.Sprintf("%-22s %s", evaluation.CategoryCommunication, scoreBar(summary.CommunicationScore)),
		fmt.Sprintf("%-22s %s", evaluation.CategoryCulturalFit, scoreBar(summary.CulturalFitScore)),
		"",
		summary.PerformanceNote,
	}

	if text := strings.TrimSpace(summary.FullEvaluation); text != "" {
		rows = append(rows, "", stylize("Full evaluation", noColor, colorMuted), text)
	}

	panel := lipgloss.NewStyle().Padding(1, 2)
	if !noColor {
		panel = panel.Border(lipgloss.RoundedBorder()).BorderForeground(colorTitle)
	}
	return panel.Render(strings.Join(rows, "\n"))
}

func scoreBar(score int) string {
	const width = 20
	filled := score * width / 100
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + " " + strconv.Itoa(score)
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
