package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for table titles.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// ColumnHeaderStyle is used for the column names of a table.
var ColumnHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue).
	PaddingRight(2)

// CellStyle is the base style for table cells.
var CellStyle = lipgloss.NewStyle().
	PaddingRight(2)

// DimStyle is used for absent values and notes.
var DimStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ErrorStyle is used for messages written to stderr.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// BorderStyle provides a standard rounded border for tables.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ClosedStyle returns a color-coded style for a task's closed flag.
func ClosedStyle(closed bool) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if closed {
		return base.Foreground(ColorGreen)
	}
	return base.Foreground(ColorYellow)
}

// ClosedLabel is the text shown for a task's closed flag.
func ClosedLabel(closed bool) string {
	if closed {
		return "closed"
	}
	return "open"
}
