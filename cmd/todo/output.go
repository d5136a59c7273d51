package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todo/internal/model"
	"github.com/nhle/todo/internal/theme"
)

const timeLayout = "2006-01-02 15:04"

// table renders rows under a title with column widths fitted to content.
type table struct {
	title   string
	columns []string
	rows    [][]string
	styles  [][]lipgloss.Style
}

func (t *table) add(cells []string, styles ...lipgloss.Style) {
	t.rows = append(t.rows, cells)
	t.styles = append(t.styles, styles)
}

func (t *table) render() string {
	if len(t.rows) == 0 {
		return theme.HeaderStyle.Render(t.title) + "\n" + theme.DimStyle.Render("nothing here") + "\n"
	}

	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		widths[i] = lipgloss.Width(c)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	lines := make([]string, 0, len(t.rows)+1)
	header := make([]string, len(t.columns))
	for i, c := range t.columns {
		header[i] = theme.ColumnHeaderStyle.Width(widths[i] + 2).Render(c)
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, header...))

	for r, row := range t.rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			style := theme.CellStyle
			if i < len(t.styles[r]) {
				style = t.styles[r][i].Inherit(theme.CellStyle)
			}
			cells[i] = style.Width(widths[i] + 2).Render(cell)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	return theme.HeaderStyle.Render(t.title) + "\n" +
		theme.BorderStyle.Render(strings.Join(lines, "\n")) + "\n"
}

func idText(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

func timeText(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}

func optText(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func renderTasks(title string, tasks []model.Task) string {
	t := &table{
		title:   title,
		columns: []string{"ID", "Name", "Description", "Target end", "Status", "Note"},
	}
	for _, task := range tasks {
		t.add([]string{
			idText(task.ID),
			task.Name,
			task.Description,
			timeText(task.TargetEnd),
			theme.ClosedLabel(task.Closed),
			optText(task.ExtraInformation),
		},
			lipgloss.NewStyle(), lipgloss.NewStyle(), lipgloss.NewStyle(), lipgloss.NewStyle(),
			theme.ClosedStyle(task.Closed), theme.DimStyle,
		)
	}
	return t.render()
}

func addressText(a model.Address) string {
	parts := append([]string{}, a.AddressLines...)
	parts = append(parts, strings.TrimSpace(a.ZipCode+" "+a.City), a.CountryCode)
	return strings.Join(parts, ", ")
}

func renderAddresses(addresses []model.Address) string {
	t := &table{
		title:   "Addresses",
		columns: []string{"ID", "Name", "Address"},
	}
	for _, a := range addresses {
		t.add([]string{idText(a.ID), a.AddressName, addressText(a)})
	}
	return t.render()
}

func renderAppointments(title string, appointments []model.Appointment) string {
	t := &table{
		title:   title,
		columns: []string{"ID", "Name", "Start", "End", "Address", "Note"},
	}
	for _, ap := range appointments {
		address := "-"
		if ap.Address != nil {
			address = ap.Address.AddressName
		}
		t.add([]string{
			idText(ap.ID),
			ap.Name,
			timeText(&ap.Start),
			timeText(&ap.End),
			address,
			optText(ap.ExtraInformation),
		})
	}
	return t.render()
}
