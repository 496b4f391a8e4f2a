package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cwbudde/algo-tube/dsp/core"
)

const (
	meterWidth    = 40
	minMeterWidth = 10
	warnLevel     = 70
	clipLevel     = 90
)

var (
	accentColor = lipgloss.Color("#E8A33D")
	mutedColor  = lipgloss.Color("#888888")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accentColor).MarginBottom(1)
	labelStyle    = lipgloss.NewStyle().Foreground(mutedColor).Width(14)
	valueStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	helpStyle     = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D7263D"))

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3DDC84"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5D547"))
	clipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D7263D"))
)

// View renders meters, the parameter list and the key help.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n")

	width := m.meterWidth()
	sb.WriteString(meterRow("input", m.in, width))
	sb.WriteString(meterRow("output", m.out, width))
	sb.WriteString("\n")

	for i, p := range params {
		cursor := "  "
		style := valueStyle

		if i == m.cursor {
			cursor = "> "
			style = selectedStyle
		}

		sb.WriteString(cursor)
		sb.WriteString(labelStyle.Render(p.name))
		sb.WriteString(style.Render(p.value(m.cfg)))
		sb.WriteString("\n")
	}

	switch {
	case m.err != nil:
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		sb.WriteString("\n")
	case m.status != "":
		sb.WriteString("\n")
		sb.WriteString(m.status)
		sb.WriteString("\n")
	}

	help := "↑/↓ select  ←/→ adjust  shift ±10  0 defaults  q quit"
	if m.capture != nil {
		help = "↑/↓ select  ←/→ adjust  shift ±10  0 defaults  r record  q quit"
	}

	sb.WriteString(helpStyle.Render(help))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) meterWidth() int {
	if m.width == 0 {
		return meterWidth
	}

	// label, brackets and readout take about 30 columns.
	return max(min(meterWidth, m.width-30), minMeterWidth)
}

func meterRow(name string, level float64, width int) string {
	return fmt.Sprintf("%s[%s] %5.1f %s\n",
		labelStyle.Render(name), meterBar(level, width), level, formatDB(level))
}

// meterBar draws level (0 to 100) as a bar of width cells.
func meterBar(level float64, width int) string {
	level = core.Clamp(level, 0, 100)
	filled := int(math.Round(level / 100 * float64(width)))

	style := okStyle

	switch {
	case level >= clipLevel:
		style = clipStyle
	case level >= warnLevel:
		style = warnStyle
	}

	return style.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
}

// formatDB shows a level as dBFS RMS.
func formatDB(level float64) string {
	db := core.LinearToDB(core.Percent(level))
	if math.IsInf(db, -1) {
		return "  -inf dB"
	}

	return fmt.Sprintf("%6.1f dB", db)
}
